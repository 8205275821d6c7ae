package view

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/hitoshi/cityportal/internal/model"
)

// HistoryData は閲覧履歴のフラグメントの値。
type HistoryData struct {
	Views    []*model.VisitorView
	NextPage int
}

// History は現在の訪問者の閲覧履歴のフラグメント。
func History(c Chrome, data HistoryData) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := newWriter(w)
		hw.raw(`<h1>История просмотров</h1>`)
		visitList(hw, data.Views)
		nextPageLink(hw, "/history/", data.NextPage)
		return hw.err
	})
	return Frame(c, "История просмотров", body)
}

// VisitorsData は訪問者一覧のフラグメントの値。
type VisitorsData struct {
	Visitors []*model.Visitor
	NextPage int
}

// Visitors は訪問者一覧のフラグメント。
// 訪問者IDはCookieの値そのものなので、履歴へのリンクはスーパーユーザーにのみ表示する。
func Visitors(c Chrome, data VisitorsData) templ.Component {
	canInspect := c.Viewer != nil && c.Viewer.IsSuperuser
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := newWriter(w)
		hw.raw(`<h1>Общая статистика сайта</h1>`)
		if len(data.Visitors) == 0 {
			hw.raw(`<p class="empty">Посетителей пока нет</p>`)
			return hw.err
		}
		hw.raw(`<table class="visitors"><thead><tr><th>Устройство</th><th>Первый визит</th><th>Последний визит</th><th>Просмотров</th></tr></thead><tbody>`)
		for _, v := range data.Visitors {
			hw.raw(`<tr><td>`)
			if canInspect {
				hw.rawf(`<a href="/load_user_history/%s/">`, attr(v.ID))
				hw.text(v.Device)
				hw.raw(`</a>`)
			} else {
				hw.text(v.Device)
			}
			hw.raw(`</td><td>`)
			hw.text(formatTime(v.FirstSeen))
			hw.raw(`</td><td>`)
			hw.text(formatTime(v.LastSeen))
			hw.raw(`</td><td>`)
			hw.raw(strconv.FormatInt(v.Views, 10))
			hw.raw(`</td></tr>`)
		}
		hw.raw(`</tbody></table>`)
		nextPageLink(hw, "/cookie_users_list/", data.NextPage)
		return hw.err
	})
	return Frame(c, "Общая статистика сайта", body)
}

// VisitorHistoryData は特定の訪問者の閲覧履歴のフラグメントの値。
type VisitorHistoryData struct {
	Visitor  *model.Visitor
	Views    []*model.VisitorView
	NextPage int
}

// VisitorHistory はスーパーユーザー向けの訪問者別閲覧履歴のフラグメント。
func VisitorHistory(c Chrome, data VisitorHistoryData) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := newWriter(w)
		hw.raw(`<h1>История посетителя</h1><p class="visitor__meta">`)
		hw.text(data.Visitor.Device)
		hw.raw(` · `)
		hw.text(formatTime(data.Visitor.FirstSeen))
		hw.raw(` — `)
		hw.text(formatTime(data.Visitor.LastSeen))
		hw.raw(` · Просмотров: `)
		hw.raw(strconv.FormatInt(data.Visitor.Views, 10))
		hw.raw(`</p>`)
		visitList(hw, data.Views)
		nextPageLink(hw, "/load_user_history/"+data.Visitor.ID+"/", data.NextPage)
		return hw.err
	})
	return Frame(c, "История посетителя", body)
}

func visitList(hw *htmlWriter, views []*model.VisitorView) {
	if len(views) == 0 {
		hw.raw(`<p class="empty">Просмотров пока нет</p>`)
		return
	}
	hw.raw(`<ul class="visits">`)
	for _, v := range views {
		title := v.Title
		if title == "" {
			title = v.Path
		}
		hw.rawf(`<li><a href="%s">`, href(v.Path))
		hw.text(title)
		hw.raw(`</a> <time>`)
		hw.text(formatTime(v.CreatedAt))
		hw.raw(`</time></li>`)
	}
	hw.raw(`</ul>`)
}

// nextPageLink は次ページがある場合にのみリンクを描画する。
func nextPageLink(hw *htmlWriter, path string, next int) {
	if next == 0 {
		return
	}
	hw.rawf(`<a class="pager__next" href="%s">Показать ещё</a>`, href(path+"?page="+strconv.Itoa(next)))
}
