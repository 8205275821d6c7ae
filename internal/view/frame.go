package view

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/hitoshi/cityportal/internal/audience"
)

// Chrome はフラグメント共通部分（ナビゲーション等）の描画に必要な値。
type Chrome struct {
	Site      Site
	Variant   audience.Variant
	Viewer    *audience.Identity
	CSRFToken string
}

// Frame はフラグメント本体をバリアントに応じたナビゲーションで囲む。
// <title>を含めるのはhtmxが差し込み時にページタイトルを更新するため。
func Frame(c Chrome, title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := newWriter(w)

		hw.raw(`<title>`)
		hw.text(pageTitle(c.Site, title))
		hw.raw(`</title>`)
		hw.rawf(`<div class="fragment fragment--%s" data-variant="%s">`, c.Variant, c.Variant)

		if c.Variant.IsMobile() {
			hw.raw(`<details class="nav nav--mobile"><summary>Меню</summary>`)
			navLinks(hw, c)
			hw.raw(`</details>`)
		} else {
			hw.raw(`<nav class="nav nav--desktop">`)
			navLinks(hw, c)
			hw.raw(`</nav>`)
		}

		hw.raw(`<section class="page">`)
		hw.component(ctx, body)
		hw.raw(`</section></div>`)

		return hw.err
	})
}

func navLinks(hw *htmlWriter, c Chrome) {
	hw.raw(`<a href="/">Главная</a> <a href="/forum/">Форум</a> <a href="/info/">Информация</a> <a href="/feedback/">Обратная связь</a> <a href="/history/">История</a>`)

	if !c.Variant.IsAuthenticated() || c.Viewer == nil {
		hw.raw(` <a href="/login/" class="nav__login">Войти</a>`)
		return
	}

	hw.raw(` <a href="/create_item/">Добавить</a>`)
	if c.Viewer.IsSuperuser {
		hw.raw(` <a href="/create_category/">Новая категория</a> <a href="/feedback_list/">Сообщения</a> <a href="/cookie_users_list/">Посетители</a>`)
	}
	hw.raw(` <span class="nav__user">`)
	hw.text(c.Viewer.Name)
	hw.raw(`</span><form method="post" action="/logout/" class="nav__logout">`)
	csrfField(hw, c.CSRFToken)
	hw.raw(`<button type="submit">Выйти</button></form>`)
}
