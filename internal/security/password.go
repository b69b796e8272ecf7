// Package security はパスワードハッシュと入力サニタイズを提供する。
package security

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher はパスワードの一方向ハッシュ化と検証のインターフェース。
type PasswordHasher interface {
	// Hash は平文パスワードからソルト付きハッシュを生成する。
	// ソルトは呼び出しごとにランダム生成されるため、同じ平文でも毎回異なる値になる。
	Hash(plaintext string) (string, error)
	// Verify は平文パスワードがハッシュと一致するかを検証する。
	// 比較はタイミング攻撃に耐性のある定数時間比較で行われる。
	Verify(plaintext, hash string) bool
}

// BcryptHasher はbcryptによるPasswordHasherの実装。
// コストは設定から注入し、テストでは低コストで実行時間を抑えられる。
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher はBcryptHasherを生成する。
// costが有効範囲外の場合はbcrypt.DefaultCostを使用する。
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash は平文パスワードからbcryptハッシュを生成する。
func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Verify は平文パスワードがハッシュと一致するかを検証する。
func (h *BcryptHasher) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// compile-time interface check
var _ PasswordHasher = (*BcryptHasher)(nil)
