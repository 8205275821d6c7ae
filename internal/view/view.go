// Package view はページのシェルとフラグメントのHTMLコンポーネントを提供する。
// フルロード時はシェルを返し、シェルが同じパスのフラグメントを読み込む。
package view

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/a-h/templ"
)

// Meta はシェルに埋め込むページ情報。ルートごとに固定でDBを参照しない。
type Meta struct {
	Title       string
	Description string
	Path        string
	// Query はシェルが取得するフラグメントに引き継ぐクエリ文字列（?を除く）。
	Query string
	Image string
}

// Site はサイト全体の表示設定。
type Site struct {
	Name         string
	BaseURL      string
	DefaultImage string
}

// RenderError はコンポーネントの描画に失敗したことを表す。
type RenderError struct {
	Component string
	Err       error
}

// Error はerrorインターフェースを実装する。
func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s: %v", e.Component, e.Err)
}

// Unwrap は元のエラーを返す。
func (e *RenderError) Unwrap() error {
	return e.Err
}

// Render はコンポーネントをバッファに描画してからレスポンスに書き込む。
// 描画に失敗した場合は何も書き込まずに*RenderErrorを返す。
func Render(ctx context.Context, w http.ResponseWriter, status int, name string, c templ.Component) error {
	var buf bytes.Buffer
	if err := c.Render(ctx, &buf); err != nil {
		return &RenderError{Component: name, Err: err}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// htmlWriter は最初のエラーを保持して以降の書き込みを止める。
type htmlWriter struct {
	w   io.Writer
	err error
}

func newWriter(w io.Writer) *htmlWriter {
	return &htmlWriter{w: w}
}

// raw はエスケープせずに書き込む。信頼済みのHTMLのみ渡すこと。
func (hw *htmlWriter) raw(s string) {
	if hw.err != nil {
		return
	}
	_, hw.err = io.WriteString(hw.w, s)
}

// text はHTMLエスケープして書き込む。
func (hw *htmlWriter) text(s string) {
	hw.raw(templ.EscapeString(s))
}

// rawf は書式付きで書き込む。引数はエスケープ済みであること。
func (hw *htmlWriter) rawf(format string, args ...any) {
	hw.raw(fmt.Sprintf(format, args...))
}

// component は子コンポーネントを同じWriterに描画する。
func (hw *htmlWriter) component(ctx context.Context, c templ.Component) {
	if hw.err != nil || c == nil {
		return
	}
	hw.err = c.Render(ctx, hw.w)
}

// attr は属性値としてエスケープした文字列を返す。
func attr(s string) string {
	return templ.EscapeString(s)
}

// href はURLをサニタイズして属性値用にエスケープする。
func href(u string) string {
	return templ.EscapeString(string(templ.URL(u)))
}

func formatTime(t time.Time) string {
	return t.Format("02.01.2006 15:04")
}

// csrfField はフォームに埋め込むCSRFトークンのhidden入力。
func csrfField(hw *htmlWriter, token string) {
	hw.rawf(`<input type="hidden" name="csrf_token" value="%s">`, attr(token))
}
