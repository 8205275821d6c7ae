package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/hitoshi/cityportal/internal/audience"
)

const (
	// visitorCookieName はユニーク訪問の判定に使うCookieの名前。
	visitorCookieName = "visitor_id"
	visitorMaxAge     = 365 * 24 * 60 * 60
)

var (
	newVisitorContextKey = contextKey("new_visitor")
	visitorIDContextKey  = contextKey("visitor_id")
)

// VisitorConfig は訪問者Cookieの設定。
type VisitorConfig struct {
	CookieSecure bool
	CookieDomain string
}

// NewVisitorMiddleware は訪問者を識別するミドルウェアを返す。
// 統計はフラグメント側で記録するため、Cookieはフラグメントリクエストでのみ発行する。
// 有効なCookieを持たないフラグメントリクエストを新規訪問とみなす。
func NewVisitorMiddleware(config VisitorConfig) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if c, err := r.Cookie(visitorCookieName); err == nil {
				if id, err := uuid.Parse(c.Value); err == nil {
					ctx := context.WithValue(r.Context(), visitorIDContextKey, id.String())
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
			}
			if audience.ModeFromRequest(r) != audience.ModeFragment {
				next.ServeHTTP(w, r)
				return
			}

			id := uuid.New().String()
			http.SetCookie(w, &http.Cookie{
				Name:     visitorCookieName,
				Value:    id,
				Path:     "/",
				Domain:   config.CookieDomain,
				MaxAge:   visitorMaxAge,
				HttpOnly: true,
				Secure:   config.CookieSecure,
				SameSite: http.SameSiteLaxMode,
			})
			ctx := context.WithValue(r.Context(), newVisitorContextKey, true)
			ctx = context.WithValue(ctx, visitorIDContextKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IsNewVisitor は初回訪問のリクエストかどうかを返す。
func IsNewVisitor(ctx context.Context) bool {
	v, _ := ctx.Value(newVisitorContextKey).(bool)
	return v
}

// VisitorIDFromContext は訪問者IDを返す。識別できない場合は空文字列。
func VisitorIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(visitorIDContextKey).(string)
	return id
}
