package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// Pinger はストアの疎通確認に必要なインターフェース。
// *sql.DBが満たす。
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler はヘルスチェックのHTTPハンドラー。
// ユーザーストアと予約ストアの両方の疎通を確認する。
type HealthHandler struct {
	usersStore    Pinger
	bookingsStore Pinger
}

// NewHealthHandler はHealthHandlerを生成する。
func NewHealthHandler(usersStore, bookingsStore Pinger) *HealthHandler {
	return &HealthHandler{
		usersStore:    usersStore,
		bookingsStore: bookingsStore,
	}
}

// Check は両ストアへ到達できる場合に200を返す。
// いずれかのストアに到達できない場合は503を返す。
// GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	stores := map[string]string{
		"users_store":    "ok",
		"bookings_store": "ok",
	}
	healthy := true

	if err := h.usersStore.PingContext(ctx); err != nil {
		slog.Error("users store ping failed", slog.String("error", err.Error()))
		stores["users_store"] = "unavailable"
		healthy = false
	}
	if err := h.bookingsStore.PingContext(ctx); err != nil {
		slog.Error("bookings store ping failed", slog.String("error", err.Error()))
		stores["bookings_store"] = "unavailable"
		healthy = false
	}

	status := "ok"
	statusCode := http.StatusOK
	if !healthy {
		status = "unavailable"
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": status,
		"stores": stores,
	})
}
