package handler

import (
	"context"
	"net/http"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/cityportal/internal/audience"
	"github.com/hitoshi/cityportal/internal/middleware"
	"github.com/hitoshi/cityportal/internal/model"
	"github.com/hitoshi/cityportal/internal/view"
)

// HistoryService は閲覧履歴ページが必要とするサービスインターフェース。
// pagestat.Historyが実装する。
type HistoryService interface {
	VisitLogger

	Views(ctx context.Context, visitorID string, page model.Page) ([]*model.VisitorView, int, error)
	Visitors(ctx context.Context, page model.Page) ([]*model.Visitor, int, error)
	Visitor(ctx context.Context, id string) (*model.Visitor, error)
}

// HistoryHandler は閲覧履歴と訪問者一覧のハンドラー。
// これらのページ自体は統計にも履歴にも記録しない。
type HistoryHandler struct {
	pages   *Pages
	service HistoryService
}

// NewHistoryHandler はHistoryHandlerを生成する。
func NewHistoryHandler(pages *Pages, service HistoryService) *HistoryHandler {
	return &HistoryHandler{pages: pages, service: service}
}

// History は現在の訪問者の閲覧履歴を返す。
// GET /history/?page=N
func (h *HistoryHandler) History(w http.ResponseWriter, r *http.Request) {
	meta := view.Meta{Title: "История просмотров", Description: "История просмотров посетителя"}
	page := model.ParsePage(r.URL.Query().Get("page"), model.ListPageSize)

	h.pages.serve(w, r, "history", meta, func(ctx context.Context, c view.Chrome) (*fragment, error) {
		views, next, err := h.service.Views(ctx, middleware.VisitorIDFromContext(ctx), page)
		if err != nil {
			return nil, err
		}
		return &fragment{
			render: func(*model.StatPage) templ.Component {
				return view.History(c, view.HistoryData{Views: views, NextPage: next})
			},
		}, nil
	})
}

// Visitors は訪問者一覧（サイト全体の統計）を返す。
// GET /cookie_users_list/?page=N
func (h *HistoryHandler) Visitors(w http.ResponseWriter, r *http.Request) {
	meta := view.Meta{Title: "Общая статистика сайта", Description: "Общая статистика посещений портала"}
	page := model.ParsePage(r.URL.Query().Get("page"), model.ListPageSize)

	h.pages.serve(w, r, "visitors", meta, func(ctx context.Context, c view.Chrome) (*fragment, error) {
		visitors, next, err := h.service.Visitors(ctx, page)
		if err != nil {
			return nil, err
		}
		return &fragment{
			render: func(*model.StatPage) templ.Component {
				return view.Visitors(c, view.VisitorsData{Visitors: visitors, NextPage: next})
			},
		}, nil
	})
}

// VisitorHistory は指定した訪問者の閲覧履歴を返す。スーパーユーザーのみ。
// GET /load_user_history/{id}/?page=N
func (h *HistoryHandler) VisitorHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	meta := view.Meta{Title: "История посетителя"}
	page := model.ParsePage(r.URL.Query().Get("page"), model.ListPageSize)

	h.pages.serve(w, r, "visitor_history", meta, func(ctx context.Context, c view.Chrome) (*fragment, error) {
		if err := audience.RequireSuperuser(c.Viewer); err != nil {
			return nil, err
		}
		visitor, err := h.service.Visitor(ctx, id)
		if err != nil {
			return nil, err
		}
		views, next, err := h.service.Views(ctx, visitor.ID, page)
		if err != nil {
			return nil, err
		}
		return &fragment{
			render: func(*model.StatPage) templ.Component {
				return view.VisitorHistory(c, view.VisitorHistoryData{Visitor: visitor, Views: views, NextPage: next})
			},
		}, nil
	})
}
