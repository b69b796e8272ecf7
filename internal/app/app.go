package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/coursebook/internal/auth"
	"github.com/hitoshi/coursebook/internal/booking"
	"github.com/hitoshi/coursebook/internal/config"
	"github.com/hitoshi/coursebook/internal/database"
	"github.com/hitoshi/coursebook/internal/handler"
	"github.com/hitoshi/coursebook/internal/logger"
	"github.com/hitoshi/coursebook/internal/metrics"
	"github.com/hitoshi/coursebook/internal/middleware"
	"github.com/hitoshi/coursebook/internal/repository"
	"github.com/hitoshi/coursebook/internal/security"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// ユーザーストアと予約ストアの2つのDB接続を開き、全依存関係をワイヤリングし、
// HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続（ユーザーストアと予約ストアは独立した2つのデータベース）
	usersDB, err := database.Open(cfg.UsersDatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open users database: %w", err)
	}
	defer usersDB.Close()

	if err := usersDB.Ping(); err != nil {
		return fmt.Errorf("failed to connect to users database: %w", err)
	}

	bookingsDB, err := database.Open(cfg.BookingsDatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open bookings database: %w", err)
	}
	defer bookingsDB.Close()

	if err := bookingsDB.Ping(); err != nil {
		return fmt.Errorf("failed to connect to bookings database: %w", err)
	}

	slog.Info("database connections established")

	// 2. スキーマの前提条件を保証する（choiceカラムの追加適用）
	ctx := context.Background()
	if err := database.EnsureBookingColumns(ctx, bookingsDB); err != nil {
		return fmt.Errorf("failed to ensure booking columns: %w", err)
	}

	// 3. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(usersDB)
	sessionRepo := repository.NewPostgresSessionRepo(usersDB)
	bookingRepo := repository.NewPostgresBookingRepo(bookingsDB)

	// 4. セキュリティサービスの初期化
	hasher := security.NewBcryptHasher(cfg.BcryptCost)
	sanitizer := security.NewChoiceSanitizer()

	// 5. ドメインサービスの初期化
	authService := auth.NewService(
		userRepo, sessionRepo, hasher,
		auth.ServiceConfig{SessionMaxAge: cfg.SessionMaxAge},
	)
	bookingService := booking.NewService(bookingRepo, sanitizer)

	// 6. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 7. ルーターの構築
	rateLimiterCfg := middleware.DefaultRateLimiterConfig()

	deps := &handler.RouterDeps{
		SessionFinder:     sessionRepo,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       middleware.NewRateLimiter(rateLimiterCfg),
		Logger:            slog.Default(),

		AuthService: authService,
		AuthConfig: handler.AuthHandlerConfig{
			CookieDomain:  cfg.CookieDomain,
			CookieSecure:  cfg.CookieSecure,
			SessionMaxAge: cfg.SessionMaxAge,
		},

		BookingService: bookingService,

		Metrics:         collector,
		MetricsGatherer: registry,
		HealthHandler:   handler.NewHealthHandler(usersDB, bookingsDB),
	}

	router := handler.NewRouter(deps)

	// 8. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// ユーザーストアと予約ストアそれぞれに未適用マイグレーションを順番に適用し、
// 最後にchoiceカラムの追加適用を行う。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("users_database_url", maskDatabaseURL(cfg.UsersDatabaseURL)),
		slog.String("bookings_database_url", maskDatabaseURL(cfg.BookingsDatabaseURL)),
	)

	if err := database.RunUserMigrations(cfg.UsersDatabaseURL); err != nil {
		return fmt.Errorf("users migration failed: %w", err)
	}

	if err := database.RunBookingMigrations(cfg.BookingsDatabaseURL); err != nil {
		return fmt.Errorf("bookings migration failed: %w", err)
	}

	// 旧スキーマのbookingsテーブルに対してchoiceカラムを追加適用する
	bookingsDB, err := database.Open(cfg.BookingsDatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open bookings database: %w", err)
	}
	defer bookingsDB.Close()

	if err := database.EnsureBookingColumns(context.Background(), bookingsDB); err != nil {
		return fmt.Errorf("failed to ensure booking columns: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
