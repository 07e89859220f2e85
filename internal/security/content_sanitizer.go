// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizer は問い合わせフォームやアラート本文などの利用者入力から
// HTMLを取り除き、プレーンテキストとして保存できる形にする。
// bluemondayのStrictPolicyを使用し、全てのタグと属性を除去する。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer は利用者入力のサニタイズ機能のインターフェースを定義する。
type TextSanitizer interface {
	// SanitizeText は入力から全てのHTMLタグを除去し、前後の空白を取り除いたプレーンテキストを返す。
	// script, styleなどの要素は内容ごと除去される。
	// 文字実体参照はデコードされるため、"R&D" はそのまま保存される。
	// 同一入力に対して常に同一出力を返す。
	SanitizeText(raw string) string
}

// textSanitizer はTextSanitizerの実装。
// bluemondayのポリシーはスレッドセーフに共有できる。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerの新しいインスタンスを生成する。
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// SanitizeText はHTMLを除去したプレーンテキストを返す。
func (s *textSanitizer) SanitizeText(raw string) string {
	if raw == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(raw)))
}

// compile-time interface check
var _ TextSanitizer = (*textSanitizer)(nil)
