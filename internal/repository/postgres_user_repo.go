package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/coursebook/internal/model"
)

// pgUniqueViolation はPostgreSQLのunique_violationエラーコード（SQLSTATE 23505）。
const pgUniqueViolation = "23505"

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// Create はユーザーを作成し、採番されたIDを返す。
// email/usernameの重複はUNIQUE制約違反として原子的に検知する。
// 同一識別子での並行登録は一方だけが成功する。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users (forename, surname, email, username, password_hash)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		user.Forename, user.Surname, user.Email, user.Username, user.PasswordHash,
	).Scan(&id)

	if err != nil {
		if isUniqueViolation(err) {
			return 0, model.NewDuplicateIdentifierError()
		}
		return 0, fmt.Errorf("failed to insert user: %w", err)
	}

	return id, nil
}

// FindByIdentifier はusernameまたはemailでユーザーを検索する。
// 両フィールドが別レコードに一致しうるため、username一致を優先し、
// なければemailで検索する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByIdentifier(ctx context.Context, identifier string) (*model.User, error) {
	user, err := r.findOne(ctx,
		`SELECT id, forename, surname, email, username, password_hash, created_at
		 FROM users WHERE username = $1`,
		identifier,
	)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}

	return r.findOne(ctx,
		`SELECT id, forename, surname, email, username, password_hash, created_at
		 FROM users WHERE email = $1`,
		identifier,
	)
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	return r.findOne(ctx,
		`SELECT id, forename, surname, email, username, password_hash, created_at
		 FROM users WHERE id = $1`,
		id,
	)
}

// findOne は単一ユーザーを返す共通クエリヘルパー。
func (r *PostgresUserRepo) findOne(ctx context.Context, query string, arg any) (*model.User, error) {
	user := &model.User{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Forename, &user.Surname,
		&user.Email, &user.Username, &user.PasswordHash, &user.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// isUniqueViolation はエラーがunique_violation（SQLSTATE 23505）かどうかを判定する。
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == pgUniqueViolation
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
