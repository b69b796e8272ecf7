package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/coursebook/internal/metrics"
	"github.com/hitoshi/coursebook/internal/middleware"
	"github.com/hitoshi/coursebook/internal/model"
)

// BookingServiceInterface は予約ハンドラーが必要とするサービスインターフェース。
type BookingServiceInterface interface {
	// Submit は予約を登録し、採番されたIDを返す。
	Submit(ctx context.Context, userID int64, choices []string, date, bookingTime string) (int64, error)
	// List はユーザー自身の予約一覧を挿入順で返す。
	List(ctx context.Context, userID int64) ([]*model.Booking, error)
	// Cancel は予約を取り消す。不存在・非所有は同一のエラーとなる。
	Cancel(ctx context.Context, userID, bookingID int64) error
}

// BookingHandler は予約管理のHTTPハンドラー。
// 操作対象のユーザーIDは常にセッションから解決する。
type BookingHandler struct {
	service BookingServiceInterface
	metrics metrics.MetricsCollector
}

// NewBookingHandler はBookingHandlerを生成する。
func NewBookingHandler(service BookingServiceInterface, collector metrics.MetricsCollector) *BookingHandler {
	return &BookingHandler{
		service: service,
		metrics: collector,
	}
}

// createBookingRequest は予約作成リクエストのボディ。
// choicesは第1〜第3希望のコース名（0〜3件、空文字は未選択扱い）。
type createBookingRequest struct {
	Choices []string `json:"choices"`
	Date    string   `json:"date"`
	Time    string   `json:"time"`
}

// bookingResponse は予約情報のAPIレスポンス。
// 未選択のchoiceはnullとして返す。
type bookingResponse struct {
	ID      int64   `json:"id"`
	Choice1 *string `json:"choice1"`
	Choice2 *string `json:"choice2"`
	Choice3 *string `json:"choice3"`
	Course  string  `json:"course"`
	Date    string  `json:"date"`
	Time    string  `json:"time"`
}

// Create は予約作成を処理する。
// POST /api/bookings
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return
	}

	id, err := h.service.Submit(r.Context(), userID, req.Choices, req.Date, req.Time)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordBookingCreated()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]int64{
		"id": id,
	})
}

// List はセッションユーザー自身の予約一覧を返す。
// GET /api/bookings
func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	bookings, err := h.service.List(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	// 空一覧でもnullではなく[]を返す
	responses := make([]bookingResponse, 0, len(bookings))
	for _, b := range bookings {
		responses = append(responses, toBookingResponse(b))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(responses)
}

// Cancel は予約取消を処理する。
// DELETE /api/bookings/{id}
func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	bookingID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		// 数値でないIDは存在しない予約と同じ扱いにする
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewBookingNotFoundError())
		return
	}

	if err := h.service.Cancel(r.Context(), userID, bookingID); err != nil {
		handleServiceError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordBookingCancelled()
	}

	w.WriteHeader(http.StatusNoContent)
}

// toBookingResponse はドメインモデルをAPIレスポンス形式に変換する。
func toBookingResponse(b *model.Booking) bookingResponse {
	return bookingResponse{
		ID:      b.ID,
		Choice1: b.Choice1,
		Choice2: b.Choice2,
		Choice3: b.Choice3,
		Course:  b.Course,
		Date:    b.Date,
		Time:    b.Time,
	}
}
