// Package auth はアカウント登録、ログイン、セッション管理を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hitoshi/coursebook/internal/model"
	"github.com/hitoshi/coursebook/internal/repository"
	"github.com/hitoshi/coursebook/internal/security"
)

// dummyBcryptHash はログイン時にユーザーが存在しない場合のダミー検証用ハッシュ。
// 存在するユーザーとのレスポンス時間差を狭め、ユーザー列挙を難しくする。
const dummyBcryptHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int // セッション有効期間（秒）
}

// Service は認証に関するビジネスロジックを提供する。
// プロセスごとに1回構築し、依存として各ハンドラーへ明示的に渡す
// （グローバル変数経由のアクセスは行わない）。
type Service struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	hasher      security.PasswordHasher
	config      ServiceConfig
}

// NewService はServiceを生成する。
func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	hasher security.PasswordHasher,
	config ServiceConfig,
) *Service {
	return &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		hasher:      hasher,
		config:      config,
	}
}

// RegisterInput はアカウント登録の入力。
type RegisterInput struct {
	Forename string
	Surname  string
	Email    string
	Username string
	Password string
}

// validate は登録入力の必須項目を検証する。
func (in *RegisterInput) validate() error {
	var blank []string
	if strings.TrimSpace(in.Forename) == "" {
		blank = append(blank, "forename")
	}
	if strings.TrimSpace(in.Surname) == "" {
		blank = append(blank, "surname")
	}
	if strings.TrimSpace(in.Email) == "" {
		blank = append(blank, "email")
	}
	if strings.TrimSpace(in.Username) == "" {
		blank = append(blank, "username")
	}
	if in.Password == "" {
		blank = append(blank, "password")
	}
	if len(blank) > 0 {
		return model.NewValidationError(strings.Join(blank, ", ") + " is required")
	}
	return nil
}

// Register は新規ユーザーを登録する。
// 平文パスワードは永続化呼び出しの前にハッシュ化し、ログにも出力しない。
// email/usernameの重複はストアのUNIQUE制約違反として検知され、
// model.APIError（DUPLICATE_IDENTIFIER）がそのまま返る。
func (s *Service) Register(ctx context.Context, input RegisterInput) error {
	if err := input.validate(); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Forename:     strings.TrimSpace(input.Forename),
		Surname:      strings.TrimSpace(input.Surname),
		Email:        strings.TrimSpace(input.Email),
		Username:     strings.TrimSpace(input.Username),
		PasswordHash: hash,
	}

	id, err := s.userRepo.Create(ctx, user)
	if err != nil {
		return err
	}

	slog.Info("new user registered",
		slog.Int64("user_id", id),
		slog.String("username", user.Username),
	)
	return nil
}

// Login は識別子（usernameまたはemail）とパスワードでユーザーを認証し、
// セッションを発行する。
// ユーザーが存在しない場合とパスワードが誤っている場合は、
// 完全に同一のINVALID_CREDENTIALSエラーを返す（どちらが原因かは漏らさない）。
func (s *Service) Login(ctx context.Context, identifier, password string) (*model.Session, error) {
	user, err := s.userRepo.FindByIdentifier(ctx, identifier)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if user == nil {
		// ユーザー不在でもハッシュ検証を1回実行し、応答時間の差を狭める
		s.hasher.Verify(password, dummyBcryptHash)
		return nil, model.NewInvalidCredentialsError()
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, model.NewInvalidCredentialsError()
	}

	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	slog.Info("user logged in", slog.Int64("user_id", user.ID))
	return session, nil
}

// Logout はセッションを破棄する。冪等であり、既に破棄済み・不明な
// セッションIDを渡してもエラーにならない。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}

	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("user logged out")
	return nil
}

// GetCurrentUser はセッションから現在のユーザーを取得する。
// セッションが無効・期限切れの場合はUNAUTHORIZEDを返す。
func (s *Service) GetCurrentUser(ctx context.Context, sessionID string) (*model.User, error) {
	if sessionID == "" {
		return nil, model.NewUnauthorizedError()
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		return nil, model.NewUnauthorizedError()
	}

	user, err := s.userRepo.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUnauthorizedError()
	}

	return user, nil
}

// createSession はセッションを作成し永続化する。
func (s *Service) createSession(ctx context.Context, userID int64) (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	now := time.Now()
	session := &model.Session{
		ID:        sessionID,
		UserID:    userID,
		ExpiresAt: now.Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: now,
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
