package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/coursebook/internal/metrics"
	"github.com/hitoshi/coursebook/internal/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionFinder     middleware.SessionFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// 予約
	BookingService BookingServiceInterface

	// 可観測性
	Metrics          metrics.MetricsCollector
	MetricsGatherer  prometheus.Gatherer
	HealthHandler    *HealthHandler
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORS → SecurityHeaders → Recovery → Logging →（認証ルートグループ）Session → RateLimit(General)
//
// 認証ルート（/auth/*）とヘルスチェックはセッションミドルウェアの外に配置する。
// ユーザー登録のみ、IPキーの専用レート制限を適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// 全ルートに効く外側のミドルウェア
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewRecoveryMiddleware())
	if deps.Logger != nil {
		r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	}

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig, deps.Metrics)
	bookingHandler := NewBookingHandler(deps.BookingService, deps.Metrics)

	// --- 認証不要のルート ---

	r.Route("/auth", func(r chi.Router) {
		// ユーザー登録は未認証のため、IPキーの専用レート制限を適用
		r.With(deps.RateLimiter.RegistrationMiddleware()).Post("/register", authHandler.Register)

		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.Get("/me", authHandler.Me)
	})

	if deps.HealthHandler != nil {
		r.Get("/health", deps.HealthHandler.Check)
	}

	if deps.MetricsGatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.MetricsGatherer))
	}

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Route("/api/bookings", func(r chi.Router) {
			r.Post("/", bookingHandler.Create)
			r.Get("/", bookingHandler.List)
			r.Delete("/{id}", bookingHandler.Cancel)
		})
	})

	return r
}
