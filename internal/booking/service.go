// Package booking は予約の登録・一覧・取消のビジネスロジックを提供する。
package booking

import (
	"context"
	"log/slog"
	"strings"

	"github.com/hitoshi/coursebook/internal/model"
	"github.com/hitoshi/coursebook/internal/repository"
	"github.com/hitoshi/coursebook/internal/security"
)

// maxChoices は1件の予約で指定できるコース希望の上限。
const maxChoices = 3

// Service は予約のユースケースを提供するサービス。
// 操作対象のユーザーIDは常にセッションから解決された値を受け取り、
// リクエスト本文やパスから他ユーザーのIDを受け付ける経路は存在しない。
type Service struct {
	bookingRepo repository.BookingRepository
	sanitizer   security.ChoiceSanitizerService
}

// NewService はServiceを生成する。
func NewService(
	bookingRepo repository.BookingRepository,
	sanitizer security.ChoiceSanitizerService,
) *Service {
	return &Service{
		bookingRepo: bookingRepo,
		sanitizer:   sanitizer,
	}
}

// Submit は予約を登録し、採番されたIDを返す。
// choicesは0〜3件。各要素はサニタイズ後、空白のみならNULL（nil）として保存する。
// 旧スキーマ互換のcourseカラムは保存時に最初の非空choiceから導出する。
func (s *Service) Submit(ctx context.Context, userID int64, choices []string, date, bookingTime string) (int64, error) {
	if len(choices) > maxChoices {
		return 0, model.NewValidationError("choices: at most 3 entries are allowed")
	}
	if strings.TrimSpace(date) == "" {
		return 0, model.NewValidationError("date: must not be blank")
	}
	if strings.TrimSpace(bookingTime) == "" {
		return 0, model.NewValidationError("time: must not be blank")
	}

	normalized := s.normalizeChoices(choices)

	booking := &model.Booking{
		UserID:  userID,
		Choice1: normalized[0],
		Choice2: normalized[1],
		Choice3: normalized[2],
		Course:  deriveCourse(normalized),
		Date:    strings.TrimSpace(date),
		Time:    strings.TrimSpace(bookingTime),
	}

	id, err := s.bookingRepo.Insert(ctx, booking)
	if err != nil {
		return 0, err
	}

	slog.Info("booking submitted", "booking_id", id, "user_id", userID)
	return id, nil
}

// List はセッションユーザー自身の予約一覧を挿入順で返す。
func (s *Service) List(ctx context.Context, userID int64) ([]*model.Booking, error) {
	return s.bookingRepo.ListByUser(ctx, userID)
}

// Cancel は予約を取り消す。
// 予約が存在しない場合と他ユーザーの予約である場合は区別せず、
// 同一のBOOKING_NOT_FOUNDエラーを返す（存在の推測を許さないため）。
func (s *Service) Cancel(ctx context.Context, userID, bookingID int64) error {
	deleted, err := s.bookingRepo.DeleteByIDAndUser(ctx, bookingID, userID)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return model.NewBookingNotFoundError()
	}

	slog.Info("booking cancelled", "booking_id", bookingID, "user_id", userID)
	return nil
}

// normalizeChoices は入力をサニタイズし、常に長さ3のスライスに整形する。
// 空白のみの要素と未指定の枠はnilとなる。
func (s *Service) normalizeChoices(choices []string) []*string {
	normalized := make([]*string, maxChoices)
	for i, raw := range choices {
		cleaned := s.sanitizer.Sanitize(raw)
		if cleaned == "" {
			continue
		}
		c := cleaned
		normalized[i] = &c
	}
	return normalized
}

// deriveCourse は最初の非空choiceを旧courseカラムの値として返す。
// 全枠が未選択の場合は空文字を返す。
func deriveCourse(choices []*string) string {
	for _, c := range choices {
		if c != nil {
			return *c
		}
	}
	return ""
}
