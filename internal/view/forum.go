package view

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/hitoshi/cityportal/internal/audience"
	"github.com/hitoshi/cityportal/internal/model"
)

// ForumData はフォーラム一覧のフラグメントの値。
// Errorはトピック作成フォームの検証エラー。
type ForumData struct {
	Topics []*model.ForumTopic
	Stat   *model.StatPage
	Error  string
}

// Forum はフォーラムのトピック一覧のフラグメント。
// ログイン中はトピック作成フォームを表示する。
func Forum(c Chrome, data ForumData) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := newWriter(w)
		hw.raw(`<h1>Форум</h1>`)

		if len(data.Topics) == 0 {
			hw.raw(`<p class="empty">Тем пока нет</p>`)
		} else {
			hw.raw(`<ul class="topics">`)
			for _, t := range data.Topics {
				hw.rawf(`<li><a href="/forum/topics/%s/">`, attr(t.ID))
				hw.text(t.Title)
				hw.rawf(`</a> <span class="topics__count">%s</span>`, strconv.Itoa(t.PostCount))
				if t.LastPostAt != nil && !c.Variant.IsMobile() {
					hw.raw(` <span class="topics__last">`)
					hw.text(formatTime(*t.LastPostAt))
					hw.raw(`</span>`)
				}
				hw.raw(`</li>`)
			}
			hw.raw(`</ul>`)
		}

		if c.Variant.IsAuthenticated() {
			hw.raw(`<h2>Новая тема</h2>`)
			formError(hw, data.Error)
			hw.raw(`<form method="post" action="/forum/topics/" hx-post="/forum/topics/" hx-target="#content">`)
			csrfField(hw, c.CSRFToken)
			hw.raw(`<label>Тема <input name="title" required maxlength="200"></label>`)
			hw.raw(`<label>Сообщение <textarea name="content" rows="5" required></textarea></label>`)
			hw.raw(`<button type="submit">Создать</button></form>`)
		}

		statFooter(hw, data.Stat)
		return hw.err
	})
	return Frame(c, "Форум", body)
}

// TopicData はトピックページのフラグメントの値。
type TopicData struct {
	Topic *model.ForumTopic
	Posts []*model.ForumPost
	Stat  *model.StatPage
	Error string
}

// Topic はトピックの投稿一覧のフラグメント。
// 削除ボタンは投稿者本人とスーパーユーザーにのみ表示する。
func Topic(c Chrome, data TopicData) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := newWriter(w)
		hw.raw(`<h1>`)
		hw.text(data.Topic.Title)
		hw.raw(`</h1><ol class="posts">`)

		for _, p := range data.Posts {
			hw.rawf(`<li id="post-%s"><p class="post__meta">`, attr(p.ID))
			hw.text(p.AuthorName)
			hw.raw(` · `)
			hw.text(formatTime(p.CreatedAt))
			hw.raw(`</p><div class="post__body">`)
			hw.raw(p.Content)
			hw.raw(`</div>`)
			if c.Variant.IsAuthenticated() && audience.RequireOwnerOrSuperuser(c.Viewer, p.UserID) == nil {
				action := "/forum/posts/" + p.ID + "/delete/"
				hw.rawf(`<form method="post" action="%s" hx-post="%s" hx-confirm="Удалить сообщение?">`, href(action), href(action))
				csrfField(hw, c.CSRFToken)
				hw.raw(`<button type="submit">Удалить</button></form>`)
			}
			hw.raw(`</li>`)
		}
		hw.raw(`</ol>`)

		if c.Variant.IsAuthenticated() {
			action := "/forum/topics/" + data.Topic.ID + "/posts/"
			formError(hw, data.Error)
			hw.rawf(`<form method="post" action="%s" hx-post="%s" hx-target="#content">`, href(action), href(action))
			csrfField(hw, c.CSRFToken)
			hw.raw(`<label>Ответ <textarea name="content" rows="4" required></textarea></label>`)
			hw.raw(`<button type="submit">Отправить</button></form>`)
		} else {
			hw.raw(`<p><a href="/login/">Войдите</a>, чтобы ответить.</p>`)
		}

		statFooter(hw, data.Stat)
		return hw.err
	})
	return Frame(c, data.Topic.Title, body)
}
