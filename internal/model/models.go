// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// PasswordHashはストア境界の内側でのみ扱い、外部インターフェースには決して返さない。
type User struct {
	ID           int64
	Forename     string
	Surname      string
	Email        string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// Booking はユーザーによるコース予約を表す。
// Choice1〜Choice3は任意入力のため、未選択（NULL）と空文字を区別するようポインタで保持する。
// Courseは旧スキーマとの互換用に保存時に導出される（最初の非空Choice）。
type Booking struct {
	ID        int64
	UserID    int64
	Choice1   *string
	Choice2   *string
	Choice3   *string
	Course    string
	Date      string
	Time      string
	CreatedAt time.Time
}

// Choices はChoice1〜Choice3を順序付きスライスとして返す。
// 未選択の枠はnilのまま含まれる。
func (b *Booking) Choices() []*string {
	return []*string{b.Choice1, b.Choice2, b.Choice3}
}

// Session はユーザーのログインセッションを表す。
// IDは暗号的に安全なランダムトークンで、Cookie経由でのみ外部に渡る。
type Session struct {
	ID        string
	UserID    int64
	ExpiresAt time.Time
	CreatedAt time.Time
}
