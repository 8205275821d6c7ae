package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/hitoshi/cityportal/internal/middleware"
	"github.com/hitoshi/cityportal/internal/view"
)

// RouterMetrics はルーター全体で記録するメトリクス。metrics.Collectorが実装する。
type RouterMetrics interface {
	PageMetrics
	middleware.HTTPMetricsRecorder
}

// PageStats はページ描画とJSON APIの両方で使う統計のインターフェース。
// pagestat.Counterが実装する。
type PageStats interface {
	StatRecorder
	StatServiceInterface
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	Site    view.Site
	Logger  *slog.Logger
	Metrics RouterMetrics

	// 運用エンドポイント
	MetricsHandler http.Handler
	HealthChecker  HealthChecker

	// ミドルウェア依存
	IdentityResolver middleware.IdentityResolver
	RateLimiter      *middleware.RateLimiter
	CookieSecure     bool
	CookieDomain     string

	// 統計・閲覧履歴
	Stats   PageStats
	History HistoryService

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// 掲載物・フォーラム・問い合わせ
	CatalogService  CatalogService
	ForumService    ForumService
	FeedbackService FeedbackService
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → Logging → Metrics → Identity → Visitor → CSRF → RateLimit
//
// /health と /metrics はRecoveryのみを通す。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.NewRecoveryMiddleware())

	healthHandler := NewHealthHandler(deps.HealthChecker)
	r.Get("/health", healthHandler.Health)
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	pages := NewPages(deps.Site, deps.Stats, deps.History, deps.Metrics)
	homeHandler := NewHomeHandler(pages, deps.CatalogService)
	itemHandler := NewItemHandler(pages, deps.CatalogService)
	forumHandler := NewForumHandler(pages, deps.ForumService)
	feedbackHandler := NewFeedbackHandler(pages, deps.FeedbackService)
	authHandler := NewAuthHandler(pages, deps.AuthService, deps.AuthConfig)
	statHandler := NewStatHandler(deps.Stats)
	historyHandler := NewHistoryHandler(pages, deps.History)

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSecurityHeadersMiddleware())
		r.Use(middleware.NewLoggingMiddleware(deps.Logger))
		r.Use(middleware.NewMetricsMiddleware(deps.Metrics))
		r.Use(middleware.NewIdentityMiddleware(deps.IdentityResolver))
		r.Use(middleware.NewVisitorMiddleware(middleware.VisitorConfig{
			CookieSecure: deps.CookieSecure,
			CookieDomain: deps.CookieDomain,
		}))
		r.Use(middleware.NewCSRFMiddleware(middleware.CSRFConfig{
			CookieSecure: deps.CookieSecure,
			CookieDomain: deps.CookieDomain,
		}))
		r.Use(deps.RateLimiter.Middleware())

		r.NotFound(pages.NotFound)

		// ページ
		r.Get("/", homeHandler.Home)
		r.Get("/info/", homeHandler.Info)

		// 閲覧履歴・訪問者
		r.Get("/history/", historyHandler.History)
		r.Get("/cookie_users_list/", historyHandler.Visitors)
		r.Get("/load_user_history/{id}/", historyHandler.VisitorHistory)

		// 掲載物
		r.Get("/items/{id}/", itemHandler.Detail)
		r.Get("/create_item/", itemHandler.NewItemForm)
		r.Post("/create_item/", itemHandler.CreateItem)
		r.Get("/edit_item/{id}/", itemHandler.EditItemForm)
		r.Post("/edit_item/{id}/", itemHandler.EditItem)

		// カテゴリ
		r.Get("/create_category/", itemHandler.NewCategoryForm)
		r.Post("/create_category/", itemHandler.CreateCategory)
		r.Get("/edit_category/{id}/", itemHandler.EditCategoryForm)
		r.Post("/edit_category/{id}/", itemHandler.EditCategory)

		// ファイル・画像
		r.Get("/image/{id}/", itemHandler.Image)
		r.Get("/edit_file/{id}/", itemHandler.EditFileForm)
		r.Post("/edit_file/{id}/", itemHandler.EditFile)

		// フォーラム
		r.Route("/forum", func(r chi.Router) {
			r.Get("/", forumHandler.Topics)
			r.Post("/topics/", forumHandler.CreateTopic)
			r.Get("/topics/{id}/", forumHandler.Topic)
			r.Post("/topics/{id}/posts/", forumHandler.Reply)
			r.Post("/posts/{id}/delete/", forumHandler.DeletePost)
		})

		// 問い合わせ
		r.Get("/feedback/", feedbackHandler.Form)
		r.Post("/feedback/", feedbackHandler.Submit)
		r.Get("/feedback_list/", feedbackHandler.List)

		// 認証
		r.Get("/login/", authHandler.LoginForm)
		r.Post("/login/", authHandler.Login)
		r.Post("/signup/", authHandler.Signup)
		r.Post("/logout/", authHandler.Logout)

		// 統計API
		r.Get("/api/stats/{type}", statHandler.Get)
		r.Post("/api/stats/{type}/engagement", statHandler.Engagement)
	})

	return r
}
