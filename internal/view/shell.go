package view

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
)

const htmxScript = "https://unpkg.com/htmx.org@2.0.4"

// htmxConfig は4xx/5xxのレスポンスもコンテンツ領域に差し込む設定。
const htmxConfig = `{"responseHandling":[{"code":"204","swap":false},{"code":"[2345]..","swap":true}]}`

// Shell はフルロード時に返す最小限のページ。
// 読み込み完了後に同じURL（クエリを含む）のフラグメントを取得して#contentに差し込む。
// canonicalとog:urlはクエリを含まないパスを指す。
func Shell(site Site, meta Meta) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := newWriter(w)

		image := meta.Image
		if image == "" {
			image = site.DefaultImage
		}
		canonical := strings.TrimRight(site.BaseURL, "/") + meta.Path
		target := meta.Path
		if meta.Query != "" {
			target += "?" + meta.Query
		}

		hw.raw(`<!DOCTYPE html><html lang="ru"><head><meta charset="utf-8">`)
		hw.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		hw.raw(`<title>`)
		hw.text(pageTitle(site, meta.Title))
		hw.raw(`</title>`)
		hw.rawf(`<meta name="description" content="%s">`, attr(meta.Description))
		hw.rawf(`<meta property="og:title" content="%s">`, attr(meta.Title))
		hw.rawf(`<meta property="og:description" content="%s">`, attr(meta.Description))
		hw.rawf(`<meta property="og:image" content="%s">`, href(image))
		hw.rawf(`<meta property="og:url" content="%s">`, href(canonical))
		hw.rawf(`<meta name="htmx-config" content="%s">`, attr(htmxConfig))
		hw.rawf(`<script src="%s" defer></script>`, htmxScript)
		hw.raw(`</head><body>`)
		hw.rawf(`<main id="content" hx-get="%s" hx-trigger="load" hx-swap="innerHTML" hx-push-url="false">`, href(target))
		hw.raw(`<div class="loader">Загрузка…</div></main>`)
		hw.rawf(`<noscript><a href="%s">Открыть страницу</a></noscript>`, href(withAjaxFlag(target)))
		hw.raw(`</body></html>`)

		return hw.err
	})
}

func pageTitle(site Site, title string) string {
	if site.Name == "" {
		return title
	}
	if title == "" {
		return site.Name
	}
	return title + " | " + site.Name
}

// withAjaxFlag はJavaScript無効時にフラグメントを直接開くためのURLを返す。
// 既存のクエリは保持する。
func withAjaxFlag(target string) string {
	if strings.Contains(target, "?") {
		return target + "&is_ajax=1"
	}
	return target + "?is_ajax=1"
}
