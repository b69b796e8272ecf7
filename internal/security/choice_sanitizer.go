package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// ChoiceSanitizerService はコース選択の自由入力テキストのサニタイズ機能の
// インターフェースを定義する。予約の保存前に使用され、後段でテキストが
// レンダリングされてもXSSにならないことを保証する。
type ChoiceSanitizerService interface {
	// Sanitize は入力テキストからすべてのHTMLを除去し、
	// 前後の空白をトリムしたプレーンテキストを返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// choiceSanitizer はChoiceSanitizerServiceの実装。
// bluemondayのStrictPolicy（全タグ除去）をスレッドセーフに適用する。
type choiceSanitizer struct {
	policy *bluemonday.Policy
}

// NewChoiceSanitizer はChoiceSanitizerServiceの新しいインスタンスを生成する。
// コース選択は自由入力のプレーンテキストであり、HTMLを許可する理由がないため
// 許可リストが空のStrictPolicyを使用する。
func NewChoiceSanitizer() *choiceSanitizer {
	return &choiceSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize は入力テキストからHTMLを除去したプレーンテキストを返す。
// StrictPolicyはテキストをHTMLエスケープして返すため、
// プレーンテキストとして保存できるようエスケープを戻す。
func (s *choiceSanitizer) Sanitize(raw string) string {
	stripped := s.policy.Sanitize(raw)
	return strings.TrimSpace(html.UnescapeString(stripped))
}

// compile-time interface check
var _ ChoiceSanitizerService = (*choiceSanitizer)(nil)
