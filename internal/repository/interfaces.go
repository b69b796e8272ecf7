// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/coursebook/internal/model"
)

// UserRepository はユーザーデータ（ユーザーストア）の永続化インターフェース。
type UserRepository interface {
	// Create はユーザーを作成し、ストアが採番したIDを返す。
	// emailまたはusernameが既存ユーザーと衝突した場合は
	// model.APIError（DUPLICATE_IDENTIFIER）を返す。
	// 衝突検知はストアのUNIQUE制約に委ね、事前の読み取りチェックは行わない。
	Create(ctx context.Context, user *model.User) (int64, error)

	// FindByIdentifier はusernameまたはemailでユーザーを検索する。
	// usernameの一致を優先し、なければemailで検索する。見つからない場合はnilを返す。
	FindByIdentifier(ctx context.Context, identifier string) (*model.User, error)

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.User, error)
}

// SessionRepository はセッションデータ（ユーザーストア）の永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。存在しない場合もエラーにしない。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID int64) error
}

// BookingRepository は予約データ（予約ストア）の永続化インターフェース。
// ユーザーストアとは独立したデータベースであり、user_idは参照値としてのみ保持される。
type BookingRepository interface {
	// Insert は予約を作成し、ストアが採番したIDを返す。
	// choiceカラムは未選択（nil）の場合NULLとして保存される。
	Insert(ctx context.Context, booking *model.Booking) (int64, error)

	// ListByUser は指定ユーザーの予約一覧を挿入順（id昇順）で返す。
	ListByUser(ctx context.Context, userID int64) ([]*model.Booking, error)

	// DeleteByIDAndUser はidとuser_idの両方でフィルタした単一のDELETEで
	// 予約を削除し、削除件数（0または1）を返す。
	// 所有権チェックを別クエリに分離してはならない（idのみで削除できる窓を作らないため）。
	DeleteByIDAndUser(ctx context.Context, id, userID int64) (int64, error)
}
