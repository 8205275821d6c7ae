// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ContentSanitizerService は利用者が投稿したHTMLを保存前にサニタイズする。
// bluemondayの許可リストベースのポリシーで、安全なタグと属性のみを通過させる。
package security

import (
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizerService は投稿HTMLのサニタイズ機能のインターフェース。
// 掲載物の説明とフォーラムの投稿の保存前に使用する。
type ContentSanitizerService interface {
	// SanitizeDescription は掲載物の説明をサニタイズする。
	// 見出し・リスト・リンク・https画像を許可する。
	SanitizeDescription(rawHTML string) string
	// SanitizePost はフォーラムの投稿をサニタイズする。
	// 改行は<br>に変換し、強調・引用・コード・リンクのみ許可する。
	SanitizePost(raw string) string
}

// contentSanitizer はContentSanitizerServiceの実装。
// bluemondayのポリシーはスレッドセーフ。
type contentSanitizer struct {
	description *bluemonday.Policy
	post        *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerServiceの新しいインスタンスを生成する。
func NewContentSanitizer() *contentSanitizer {
	return &contentSanitizer{
		description: newDescriptionPolicy(),
		post:        newPostPolicy(),
	}
}

// newDescriptionPolicy は掲載物の説明用のポリシー。
//   - 許可タグ: p, br, h2, h3, ul, ol, li, blockquote, pre, code, strong, em, a, img
//   - a: hrefのみ。サイト内の相対リンクは許可し、外部リンクはtarget="_blank"と
//     rel="nofollow noreferrer noopener"を付与
//   - img: src（httpsまたは相対）とalt
func newDescriptionPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(
		"p", "br", "h2", "h3", "ul", "ol", "li",
		"blockquote", "pre", "code",
		"strong", "em",
	)
	linkPolicy(p)

	p.AllowAttrs("src", "alt").OnElements("img")
	p.AllowURLSchemeWithCustomPolicy("https", func(u *url.URL) bool {
		return true
	})
	return p
}

// newPostPolicy はフォーラムの投稿用のポリシー。画像と見出しは許可しない。
func newPostPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("br", "blockquote", "code", "strong", "em")
	linkPolicy(p)
	p.AllowURLSchemes("https", "http")
	return p
}

func linkPolicy(p *bluemonday.Policy) {
	p.AllowAttrs("href").OnElements("a")
	p.AllowRelativeURLs(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoReferrerOnFullyQualifiedLinks(true)
	p.RequireNoFollowOnFullyQualifiedLinks(true)
}

// SanitizeDescription は掲載物の説明をサニタイズする。
func (s *contentSanitizer) SanitizeDescription(rawHTML string) string {
	return strings.TrimSpace(s.description.Sanitize(rawHTML))
}

// SanitizePost はフォーラムの投稿をサニタイズする。
func (s *contentSanitizer) SanitizePost(raw string) string {
	text := strings.TrimSpace(strings.ReplaceAll(raw, "\r\n", "\n"))
	text = strings.ReplaceAll(text, "\n", "<br>")
	return s.post.Sanitize(text)
}
