package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/coursebook/internal/model"
)

// PostgresBookingRepo はPostgreSQLを使用した予約リポジトリ。
// ユーザーストアとは別データベース上で動作し、user_idは参照値としてのみ保持する
// （クロスストアの外部キー制約は張らない）。
type PostgresBookingRepo struct {
	db *sql.DB
}

// NewPostgresBookingRepo はPostgresBookingRepoを生成する。
func NewPostgresBookingRepo(db *sql.DB) *PostgresBookingRepo {
	return &PostgresBookingRepo{db: db}
}

// Insert は予約を作成し、採番されたIDを返す。
// Choice1〜Choice3がnilの枠はNULLとして保存され、空文字とは区別される。
func (r *PostgresBookingRepo) Insert(ctx context.Context, booking *model.Booking) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO bookings (user_id, course, choice1, choice2, choice3, date, time)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		booking.UserID, booking.Course,
		booking.Choice1, booking.Choice2, booking.Choice3,
		booking.Date, booking.Time,
	).Scan(&id)

	if err != nil {
		return 0, fmt.Errorf("failed to insert booking: %w", err)
	}

	return id, nil
}

// ListByUser は指定ユーザーの予約一覧を挿入順（id昇順）で返す。
// 旧シェイプで保存された行はchoiceカラムがNULLのまま返る。
func (r *PostgresBookingRepo) ListByUser(ctx context.Context, userID int64) ([]*model.Booking, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, course, choice1, choice2, choice3, date, time, created_at
		 FROM bookings
		 WHERE user_id = $1
		 ORDER BY id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*model.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookings: %w", err)
	}

	return bookings, nil
}

// DeleteByIDAndUser はidとuser_idの両方でフィルタした単一のDELETEで予約を削除する。
// 削除件数（0または1）を返す。0は「存在しない」と「他ユーザーの所有」の両方を含み、
// 呼び出し側でもこの2つを区別してはならない。
func (r *PostgresBookingRepo) DeleteByIDAndUser(ctx context.Context, id, userID int64) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM bookings WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete booking: %w", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return count, nil
}

// scanBooking は1行分の予約レコードを型付き構造体へマッピングする。
// choiceカラムのNULLはnilポインタとして表現される。
func scanBooking(rows *sql.Rows) (*model.Booking, error) {
	booking := &model.Booking{}
	var choice1, choice2, choice3 sql.NullString

	err := rows.Scan(
		&booking.ID, &booking.UserID, &booking.Course,
		&choice1, &choice2, &choice3,
		&booking.Date, &booking.Time, &booking.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan booking: %w", err)
	}

	booking.Choice1 = nullableString(choice1)
	booking.Choice2 = nullableString(choice2)
	booking.Choice3 = nullableString(choice3)

	return booking, nil
}

// nullableString はsql.NullStringを*stringへ変換する。
func nullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// compile-time interface check
var _ BookingRepository = (*PostgresBookingRepo)(nil)
