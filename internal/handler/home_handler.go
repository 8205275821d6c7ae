package handler

import (
	"context"
	"net/http"

	"github.com/a-h/templ"

	"github.com/hitoshi/cityportal/internal/audience"
	"github.com/hitoshi/cityportal/internal/item"
	"github.com/hitoshi/cityportal/internal/model"
	"github.com/hitoshi/cityportal/internal/pagestat"
	"github.com/hitoshi/cityportal/internal/view"
)

// HomeService はトップページが必要とするサービスインターフェース。
type HomeService interface {
	HomeSections(ctx context.Context, viewer *audience.Identity) ([]item.Section, error)
}

// HomeHandler はトップページと情報ページのハンドラー。
type HomeHandler struct {
	pages   *Pages
	service HomeService
}

// NewHomeHandler はHomeHandlerを生成する。
func NewHomeHandler(pages *Pages, service HomeService) *HomeHandler {
	return &HomeHandler{pages: pages, service: service}
}

// Home はトップページを返す。
// GET /
func (h *HomeHandler) Home(w http.ResponseWriter, r *http.Request) {
	meta := view.Meta{
		Title:       "Главная страница",
		Description: "Работы, услуги, статьи, блоги и товары жителей города",
	}
	h.pages.serve(w, r, "home", meta, func(ctx context.Context, c view.Chrome) (*fragment, error) {
		sections, err := h.service.HomeSections(ctx, c.Viewer)
		if err != nil {
			return nil, err
		}
		data := make([]view.HomeSection, len(sections))
		for i, s := range sections {
			data[i] = view.HomeSection{Kind: s.Kind, Items: s.Items}
		}

		key := pagestat.PageKey(model.PageTypeHome)
		return &fragment{
			stat: &key,
			render: func(stat *model.StatPage) templ.Component {
				return view.Home(c, view.HomeData{Sections: data, Stat: stat})
			},
		}, nil
	})
}

// Info は情報ページを返す。
// GET /info/
func (h *HomeHandler) Info(w http.ResponseWriter, r *http.Request) {
	meta := view.Meta{
		Title:       "Информация",
		Description: "О городском портале",
	}
	h.pages.serve(w, r, "info", meta, func(ctx context.Context, c view.Chrome) (*fragment, error) {
		key := pagestat.PageKey(model.PageTypeInfo)
		return &fragment{
			stat: &key,
			render: func(stat *model.StatPage) templ.Component {
				return view.Info(c, view.InfoData{Stat: stat})
			},
		}, nil
	})
}
