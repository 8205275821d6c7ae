// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hitoshi/cityportal/internal/audience"
)

// SessionCookieName はセッションIDを保持するCookieの名前。
const SessionCookieName = "session_id"

// IdentityResolver はセッションIDからログインユーザーを解決するインターフェース。
// auth.Serviceが実装する。
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, sessionID string) (*audience.Identity, error)
}

// NewIdentityMiddleware はHTTP Only CookieのセッションIDからログインユーザーを解決し、
// リクエストコンテキストに格納するミドルウェアを返す。
// 未ログインのリクエストもそのまま通す。セッションの問い合わせに失敗した場合は
// 匿名として扱わず500を返す。
func NewIdentityMiddleware(resolver IdentityResolver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			identity, err := resolver.ResolveIdentity(r.Context(), cookie.Value)
			if err != nil {
				slog.Error("failed to resolve session",
					slog.String("error", err.Error()),
				)
				WriteErrorPage(w, r, http.StatusInternalServerError)
				return
			}
			if identity == nil {
				next.ServeHTTP(w, r)
				return
			}

			setLogUserID(r.Context(), identity.ID)
			ctx := audience.ContextWithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext はリクエストコンテキストからログインユーザーのIDを取得する。
func UserIDFromContext(ctx context.Context) (string, error) {
	identity := audience.IdentityFromContext(ctx)
	if identity == nil || identity.ID == "" {
		return "", fmt.Errorf("user ID not found in context")
	}
	return identity.ID, nil
}
