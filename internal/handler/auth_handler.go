// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"

	"github.com/hitoshi/cityportal/internal/audience"
	"github.com/hitoshi/cityportal/internal/auth"
	"github.com/hitoshi/cityportal/internal/htmx"
	"github.com/hitoshi/cityportal/internal/middleware"
	"github.com/hitoshi/cityportal/internal/model"
	"github.com/hitoshi/cityportal/internal/view"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Signup(ctx context.Context, in auth.SignupInput) (*model.Session, error)
	Login(ctx context.Context, phone, password string) (*model.Session, error)
	Logout(ctx context.Context, sessionID string) error
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	CookieDomain  string
	CookieSecure  bool
	SessionMaxAge int // セッションCookieの有効期間（秒）
}

// AuthHandler はログイン・登録・ログアウトのHTTPハンドラー。
type AuthHandler struct {
	pages   *Pages
	service AuthServiceInterface
	config  AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(pages *Pages, service AuthServiceInterface, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		pages:   pages,
		service: service,
		config:  config,
	}
}

// LoginForm はログインと登録のフォームを返す。
// GET /login/
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	meta := view.Meta{Title: "Вход"}

	h.pages.serve(w, r, "login", meta, func(ctx context.Context, c view.Chrome) (*fragment, error) {
		return &fragment{
			render: func(*model.StatPage) templ.Component {
				return view.Login(c, view.LoginData{})
			},
		}, nil
	})
}

// Login は電話番号とパスワードでログインする。
// POST /login/
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	phone := r.PostFormValue("phone")

	session, err := h.service.Login(r.Context(), phone, r.PostFormValue("password"))
	if err != nil {
		h.authFailed(w, r, phone, err)
		return
	}

	h.setSessionCookie(w, session.ID, h.config.SessionMaxAge)
	htmx.Redirect(w, r, "/")
}

// Signup はユーザーを登録し、そのままログインさせる。
// POST /signup/
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	in := auth.SignupInput{
		Name:     r.PostFormValue("name"),
		Phone:    r.PostFormValue("phone"),
		Password: r.PostFormValue("password"),
	}

	session, err := h.service.Signup(r.Context(), in)
	if err != nil {
		h.authFailed(w, r, in.Phone, err)
		return
	}

	h.setSessionCookie(w, session.ID, h.config.SessionMaxAge)
	htmx.Redirect(w, r, "/")
}

// Logout はセッションを破棄する。
// POST /logout/
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := audience.RequireSignedIn(audience.IdentityFromContext(r.Context())); err != nil {
		h.pages.fail(w, r, err)
		return
	}

	cookie, err := r.Cookie(middleware.SessionCookieName)
	if err == nil && cookie.Value != "" {
		if logoutErr := h.service.Logout(r.Context(), cookie.Value); logoutErr != nil {
			slog.Error("failed to logout", slog.String("error", logoutErr.Error()))
			// ログアウト失敗してもCookieはクリアする
		}
	}

	h.setSessionCookie(w, "", -1)
	htmx.Redirect(w, r, "/")
}

// authFailed はログイン・登録の失敗をフォームのエラーとして返す。
func (h *AuthHandler) authFailed(w http.ResponseWriter, r *http.Request, phone string, err error) {
	var msg string
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		msg = "Неверный телефон или пароль"
	case errors.Is(err, auth.ErrPhoneTaken):
		msg = "Этот номер уже зарегистрирован"
	default:
		msg = validationMessage(err)
	}
	if msg == "" {
		h.pages.fail(w, r, err)
		return
	}

	h.pages.form(w, r, http.StatusUnprocessableEntity, "login", func(c view.Chrome) templ.Component {
		return view.Login(c, view.LoginData{Phone: phone, Error: msg})
	})
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    value,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
