package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lib/pq"
)

// bookingChoiceColumns は予約テーブルに必要な追加カラムの固定セット。
// いずれもNULL許可のTEXTカラムとして追加される。
var bookingChoiceColumns = []string{"choice1", "choice2", "choice3"}

// pgDuplicateColumn はPostgreSQLのduplicate_columnエラーコード（SQLSTATE 42701）。
// 複数プロセスが同時にEnsureBookingColumnsを実行した場合のレースで発生しうる。
const pgDuplicateColumn = "42701"

// EnsureBookingColumns は予約テーブルのカラムセットを現行バージョンへ引き上げる。
//
// 現在のカラムセットを照会し、不足分（choice1〜choice3）のみを
// NULL許可カラムとして追加する。既存行の値は一切変更しない。
// 追加時にduplicate_column（別プロセスとのレース、または適用済み）が
// 返った場合は成功として扱う。それ以外の失敗は致命的エラーとして返す。
//
// 冪等であり、何度呼んでも・並行して呼んでも安全。予約ストアを読み書きする
// 処理の前提条件として、アプリケーションのエントリーポイントから明示的に
// 呼び出すこと（パッケージ初期化時には実行しない）。
func EnsureBookingColumns(ctx context.Context, db *sql.DB) error {
	existing, err := bookingColumns(ctx, db)
	if err != nil {
		return fmt.Errorf("failed to inspect bookings columns: %w", err)
	}

	missing := missingColumns(existing)
	if len(missing) == 0 {
		return nil
	}

	for _, col := range missing {
		// カラム名は固定セット由来のためプレースホルダ化は不要
		query := fmt.Sprintf("ALTER TABLE bookings ADD COLUMN %s TEXT", col)
		if _, err := db.ExecContext(ctx, query); err != nil {
			if isDuplicateColumn(err) {
				// 別のプロセスが先にカラムを追加した
				slog.Info("booking column already added concurrently",
					slog.String("column", col),
				)
				continue
			}
			return fmt.Errorf("failed to add column %s: %w", col, err)
		}
		slog.Info("booking column added", slog.String("column", col))
	}

	return nil
}

// bookingColumns は予約テーブルの現在のカラム名セットを返す。
func bookingColumns(ctx context.Context, db *sql.DB) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT column_name
		 FROM information_schema.columns
		 WHERE table_schema = current_schema() AND table_name = 'bookings'`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		columns[name] = true
	}

	return columns, rows.Err()
}

// missingColumns は既存カラムセットから不足しているchoiceカラムを計算する。
// 返り値の順序はbookingChoiceColumnsの定義順で安定している。
func missingColumns(existing map[string]bool) []string {
	var missing []string
	for _, col := range bookingChoiceColumns {
		if !existing[col] {
			missing = append(missing, col)
		}
	}
	return missing
}

// isDuplicateColumn はエラーがduplicate_column（SQLSTATE 42701）かどうかを判定する。
func isDuplicateColumn(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == pgDuplicateColumn
}
