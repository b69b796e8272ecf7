// Package database はデータベース接続とマイグレーション管理を提供する。
//
// ベーススキーマはgolang-migrateの埋め込みマイグレーションで管理し、
// 予約テーブルの追加カラム（choice1〜choice3）はschema.goの
// 冪等な追加マイグレーションで管理する。後者は旧シェイプ
// （course/date/timeのみ）の既存データを壊さずに拡張シェイプへ引き上げる。
package database

import (
	"embed"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/users/*.sql migrations/bookings/*.sql
var migrationsFS embed.FS

// newMigrator は指定ストアのマイグレーション実行用migrateインスタンスを生成する。
// subdirは埋め込みFS内のマイグレーションディレクトリ（"migrations/users"等）。
func newMigrator(databaseURL, subdir string) (*migrate.Migrate, error) {
	source, err := iofs.New(migrationsFS, subdir)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}

	return m, nil
}

// runMigrations は指定ストアのすべてのマイグレーションを適用する。
// すでに最新の場合はエラーなしで返る。
func runMigrations(databaseURL, subdir string) error {
	m, err := newMigrator(databaseURL, subdir)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// RunUserMigrations はユーザーストアのベーススキーマ（users, sessions）を適用する。
func RunUserMigrations(databaseURL string) error {
	return runMigrations(databaseURL, "migrations/users")
}

// RunBookingMigrations は予約ストアのベーススキーマを適用する。
// ベーススキーマは旧シェイプ（course, date, timeのみ）であり、
// choiceカラムへの引き上げはEnsureBookingColumnsが担う。
func RunBookingMigrations(databaseURL string) error {
	return runMigrations(databaseURL, "migrations/bookings")
}
