package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"

	"github.com/hitoshi/cityportal/internal/audience"
	"github.com/hitoshi/cityportal/internal/middleware"
	"github.com/hitoshi/cityportal/internal/model"
	"github.com/hitoshi/cityportal/internal/pagestat"
	"github.com/hitoshi/cityportal/internal/view"
)

// StatRecorder はページビューの記録インターフェース。pagestat.Counterが実装する。
type StatRecorder interface {
	Record(ctx context.Context, key pagestat.Key, unique bool) (*model.StatPage, error)
}

// VisitLogger は訪問者ごとの閲覧履歴の記録インターフェース。pagestat.Historyが実装する。
type VisitLogger interface {
	Log(ctx context.Context, v pagestat.Visit) error
}

// PageMetrics はページ描画で記録するメトリクス。
type PageMetrics interface {
	RecordVariant(variant audience.Variant)
	RecordPermissionDenied()
}

// fragment はフラグメント段階で読み込んだページ。
type fragment struct {
	// stat が nil でなければ描画前に閲覧数を記録する。
	stat *pagestat.Key
	// title は閲覧履歴に残す表題。空ならページの既定タイトルを使う。
	title string
	// render は記録後の統計行を受け取り、描画するコンポーネントを返す。
	render func(stat *model.StatPage) templ.Component
}

// loadFunc はフラグメント段階でデータを読み込み、権限を確認する。
type loadFunc func(ctx context.Context, c view.Chrome) (*fragment, error)

// Pages はHTMLページ共通の処理（判定・シェル・フラグメント・エラー）を持つ。
type Pages struct {
	site    view.Site
	stats   StatRecorder
	visits  VisitLogger
	metrics PageMetrics
}

// NewPages はPagesを生成する。visitsがnilの場合は閲覧履歴を記録しない。
func NewPages(site view.Site, stats StatRecorder, visits VisitLogger, metrics PageMetrics) *Pages {
	return &Pages{site: site, stats: stats, visits: visits, metrics: metrics}
}

// serve は1ページ分のリクエストを処理する。
//
//	判定 → バリアント選択 → シェル
//	                     └→ 読み込み → 権限確認 → 統計記録 → 履歴記録 → フラグメント描画
//
// シェルはデータを読み込まず、同じパスをフラグメントとして取得するだけの静的なページ。
func (p *Pages) serve(w http.ResponseWriter, r *http.Request, name string, meta view.Meta, load loadFunc) {
	rc := audience.FromRequest(r)
	variant := rc.Variant()
	p.metrics.RecordVariant(variant)

	if variant == audience.VariantFullShell {
		meta.Path = r.URL.Path
		meta.Query = r.URL.RawQuery
		p.render(w, r, http.StatusOK, name+"_shell", view.Shell(p.site, meta))
		return
	}

	ctx := r.Context()
	f, err := load(ctx, p.chrome(r, variant))
	if err != nil {
		p.fail(w, r, err)
		return
	}

	var stat *model.StatPage
	if f.stat != nil {
		// ユニーク訪問数はトップページの行にのみ加算する
		unique := f.stat.Type == model.PageTypeHome && middleware.IsNewVisitor(ctx)
		stat, err = p.stats.Record(ctx, *f.stat, unique)
		if err != nil {
			p.fail(w, r, err)
			return
		}

		title := f.title
		if title == "" {
			title = meta.Title
		}
		if err := p.logVisit(r, rc.Device, *f.stat, title); err != nil {
			p.fail(w, r, err)
			return
		}
	}

	p.render(w, r, http.StatusOK, name, f.render(stat))
}

// logVisit は識別済みの訪問者の閲覧を履歴に追加する。
func (p *Pages) logVisit(r *http.Request, device audience.Device, key pagestat.Key, title string) error {
	visitorID := middleware.VisitorIDFromContext(r.Context())
	if p.visits == nil || visitorID == "" {
		return nil
	}
	return p.visits.Log(r.Context(), pagestat.Visit{
		VisitorID: visitorID,
		Key:       key,
		Path:      r.URL.Path,
		Title:     title,
		Device:    device.String(),
	})
}

// form は書き込み操作のフォームを描画する。
// 通常のPOSTで返す場合もフラグメントのバリアントで描画する。
func (p *Pages) form(w http.ResponseWriter, r *http.Request, status int, name string, build func(c view.Chrome) templ.Component) {
	rc := audience.FromRequest(r)
	variant := audience.SelectVariant(audience.ModeFragment, rc.SignedIn(), rc.Device)
	p.metrics.RecordVariant(variant)
	p.render(w, r, status, name, build(p.chrome(r, variant)))
}

func (p *Pages) chrome(r *http.Request, variant audience.Variant) view.Chrome {
	return view.Chrome{
		Site:      p.site,
		Variant:   variant,
		Viewer:    audience.IdentityFromContext(r.Context()),
		CSRFToken: middleware.CSRFTokenFromContext(r.Context()),
	}
}

func (p *Pages) render(w http.ResponseWriter, r *http.Request, status int, name string, c templ.Component) {
	err := view.Render(r.Context(), w, status, name, c)
	if err == nil {
		return
	}
	var renderErr *view.RenderError
	if errors.As(err, &renderErr) {
		p.fail(w, r, err)
		return
	}
	// ヘッダー送信後の書き込み失敗はステータスを変更できない
	slog.Warn("failed to write response",
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
}

// fail はエラーを種別ごとのステータスのページに変換する。
// 権限エラーは理由によらず同じ403ページを返す。
func (p *Pages) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, audience.ErrPermissionDenied):
		p.metrics.RecordPermissionDenied()
		middleware.WriteErrorPage(w, r, http.StatusForbidden)
	case errors.Is(err, model.ErrNotFound):
		middleware.WriteErrorPage(w, r, http.StatusNotFound)
	default:
		var renderErr *view.RenderError
		if errors.As(err, &renderErr) {
			slog.Error("failed to render page",
				slog.String("component", renderErr.Component),
				slog.String("path", r.URL.Path),
				slog.String("error", renderErr.Err.Error()),
			)
		} else {
			slog.Error("failed to serve page",
				slog.String("path", r.URL.Path),
				slog.String("error", err.Error()),
			)
		}
		middleware.WriteErrorPage(w, r, http.StatusInternalServerError)
	}
}

// NotFound はルートに一致しないリクエストに404ページを返す。
func (p *Pages) NotFound(w http.ResponseWriter, r *http.Request) {
	middleware.WriteErrorPage(w, r, http.StatusNotFound)
}

// validationMessage は検証エラーをフォームに表示する文言に変換する。
// 検証エラーでなければ空文字列を返す。
func validationMessage(err error) string {
	var vErr *model.ValidationError
	if !errors.As(err, &vErr) {
		return ""
	}
	label, ok := fieldLabels[vErr.Field]
	if !ok {
		label = vErr.Field
	}
	return "Проверьте поле «" + label + "»: " + vErr.Reason
}

var fieldLabels = map[string]string{
	"kind":        "Тип",
	"category_id": "Категория",
	"title":       "Название",
	"link":        "Ссылка",
	"name":        "Имя",
	"phone":       "Телефон",
	"password":    "Пароль",
	"position":    "Позиция",
	"content":     "Сообщение",
	"username":    "Имя",
	"email":       "Email",
	"message":     "Сообщение",
}
