package view

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/hitoshi/cityportal/internal/model"
)

// HomeSection はトップページの種別ごとの新着一覧。
type HomeSection struct {
	Kind  model.ItemKind
	Items []*model.Item
}

// HomeData はトップページのフラグメントの値。
type HomeData struct {
	Sections []HomeSection
	Stat     *model.StatPage
}

// Home はトップページのフラグメント。
func Home(c Chrome, data HomeData) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := newWriter(w)
		hw.raw(`<h1>`)
		hw.text(c.Site.Name)
		hw.raw(`</h1>`)

		for _, s := range data.Sections {
			hw.rawf(`<section class="kind kind--%d"><h2>`, s.Kind)
			hw.text(s.Kind.Label())
			hw.raw(`</h2>`)
			if len(s.Items) == 0 {
				hw.raw(`<p class="empty">Пока ничего нет</p>`)
			}
			itemCards(hw, s.Items, c.Variant.IsMobile())
			hw.raw(`</section>`)
		}

		statFooter(hw, data.Stat)
		return hw.err
	})
	return Frame(c, "Главная страница", body)
}

// InfoData は情報ページのフラグメントの値。
type InfoData struct {
	Stat *model.StatPage
}

// Info は情報ページのフラグメント。
func Info(c Chrome, data InfoData) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := newWriter(w)
		hw.raw(`<h1>Информация</h1><p>`)
		hw.text(c.Site.Name)
		hw.raw(` — городской портал: работы, услуги, статьи, блоги и магазин жителей города.</p>`)
		statFooter(hw, data.Stat)
		return hw.err
	})
	return Frame(c, "Информация", body)
}

// ItemData は掲載物ページのフラグメントの値。
type ItemData struct {
	Item     *model.Item
	Category *model.Category
	Files    []*model.File
	Stat     *model.StatPage
	CanEdit  bool
}

// ItemPage は掲載物ページのフラグメント。
func ItemPage(c Chrome, data ItemData) templ.Component {
	item := data.Item
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := newWriter(w)
		hw.raw(`<article class="item"><h1>`)
		hw.text(item.Title)
		hw.raw(`</h1><p class="item__meta">`)
		hw.text(item.Kind.Label())
		if data.Category != nil {
			hw.raw(` · `)
			hw.text(data.Category.Name)
		}
		hw.raw(` · `)
		hw.text(formatTime(item.CreatedAt))
		if !item.IsActive {
			hw.raw(` · <span class="badge">Не опубликовано</span>`)
		}
		hw.raw(`</p>`)

		if data.CanEdit {
			hw.rawf(`<a class="item__edit" href="/edit_item/%s/">Редактировать</a>`, attr(item.ID))
		}

		// Descriptionは保存時にサニタイズ済み
		hw.raw(`<div class="item__body">`)
		hw.raw(item.Description)
		hw.raw(`</div>`)

		if item.Link != "" {
			hw.rawf(`<p><a href="%s" rel="nofollow noopener" target="_blank">`, href(item.Link))
			hw.text(item.Link)
			hw.raw(`</a></p>`)
		}

		if len(data.Files) > 0 {
			hw.raw(`<div class="gallery">`)
			for _, f := range data.Files {
				hw.rawf(`<a href="/image/%s/"><img src="%s" alt="%s" loading="lazy"></a>`,
					attr(f.ID), href(f.Src), attr(f.Description))
				if data.CanEdit {
					hw.rawf(`<a class="gallery__edit" href="/edit_file/%s/">✎</a>`, attr(f.ID))
				}
			}
			hw.raw(`</div>`)
		}
		hw.raw(`</article>`)

		statFooter(hw, data.Stat)
		return hw.err
	})
	return Frame(c, item.Title, body)
}

// ImageData は画像ページのフラグメントの値。
type ImageData struct {
	File      *model.File
	Item      *model.Item
	Neighbors model.ImageNeighbors
	Stat      *model.StatPage
}

// ImagePage は画像ページのフラグメント。ギャラリー内の前後へのリンクを含む。
func ImagePage(c Chrome, data ImageData) templ.Component {
	title := data.File.Description
	if title == "" && data.Item != nil {
		title = data.Item.Title
	}

	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := newWriter(w)
		hw.raw(`<figure class="image">`)
		hw.rawf(`<img src="%s" alt="%s">`, href(data.File.Src), attr(data.File.Description))
		if data.File.Description != "" {
			hw.raw(`<figcaption>`)
			hw.text(data.File.Description)
			hw.raw(`</figcaption>`)
		}
		hw.raw(`</figure><nav class="image__nav">`)
		if data.Neighbors.Prev != nil {
			hw.rawf(`<a rel="prev" href="/image/%s/">← Назад</a> `, attr(data.Neighbors.Prev.ID))
		}
		if data.Item != nil {
			hw.rawf(`<a href="/items/%s/">`, attr(data.Item.ID))
			hw.text(data.Item.Title)
			hw.raw(`</a>`)
		}
		if data.Neighbors.Next != nil {
			hw.rawf(` <a rel="next" href="/image/%s/">Вперёд →</a>`, attr(data.Neighbors.Next.ID))
		}
		hw.raw(`</nav>`)

		statFooter(hw, data.Stat)
		return hw.err
	})
	return Frame(c, title, body)
}

func itemCards(hw *htmlWriter, items []*model.Item, compact bool) {
	class := "cards"
	if compact {
		class = "cards cards--compact"
	}
	hw.rawf(`<ul class="%s">`, class)
	for _, it := range items {
		hw.rawf(`<li><a href="/items/%s/">`, attr(it.ID))
		hw.text(it.Title)
		hw.raw(`</a>`)
		if !it.IsActive {
			hw.raw(` <span class="badge">Не опубликовано</span>`)
		}
		hw.raw(`</li>`)
	}
	hw.raw(`</ul>`)
}

func statFooter(hw *htmlWriter, stat *model.StatPage) {
	if stat == nil {
		return
	}
	hw.raw(`<footer class="stat">Просмотров: `)
	hw.raw(strconv.FormatInt(stat.View, 10))
	hw.raw(`</footer>`)
}
