// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
// メッセージは情報漏洩を避けるため意図的に粗い粒度で固定する
// （重複がemailかusernameか、ログイン失敗が識別子かパスワードか等は区別しない）。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, booking, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeDuplicateIdentifier = "DUPLICATE_IDENTIFIER"
	ErrCodeInvalidCredentials  = "INVALID_CREDENTIALS"
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeBookingNotFound     = "BOOKING_NOT_FOUND"
	ErrCodeValidationFailed    = "VALIDATION_FAILED"
	ErrCodeStoreUnavailable    = "STORE_UNAVAILABLE"
)

// NewDuplicateIdentifierError は登録時の識別子重複エラーを生成する。
// emailとusernameのどちらが衝突したかは意図的に区別しない。
func NewDuplicateIdentifierError() *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateIdentifier,
		Message:  "そのユーザー名またはメールアドレスは既に使用されています。",
		Category: "auth",
		Action:   "別のユーザー名またはメールアドレスで登録してください。",
	}
}

// NewInvalidCredentialsError はログイン失敗エラーを生成する。
// ユーザーが存在しないのかパスワードが誤っているのかは意図的に区別しない。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "ユーザー名／メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewUnauthorizedError は認証エラーを生成する。
// セッションの不在・期限切れ・失効のいずれでも同一の応答となる。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewBookingNotFoundError は予約未検出エラーを生成する。
// 予約が存在しないのか他ユーザーの所有なのかは意図的に区別しない。
func NewBookingNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeBookingNotFound,
		Message:  "指定された予約が見つかりません。",
		Category: "booking",
		Action:   "予約一覧を確認してください。",
	}
}

// NewValidationError は入力検証エラーを生成する。
func NewValidationError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeValidationFailed,
		Message:  fmt.Sprintf("入力内容に誤りがあります: %s", reason),
		Category: "validation",
		Action:   "入力内容を修正して再度お試しください。",
	}
}

// NewStoreUnavailableError は永続化ストア接続エラーを生成する。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func NewStoreUnavailableError() *APIError {
	return &APIError{
		Code:     ErrCodeStoreUnavailable,
		Message:  "サービスが一時的に利用できません。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
