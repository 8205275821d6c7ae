package view

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/hitoshi/cityportal/internal/model"
)

// ItemFormData は掲載物の作成・編集フォームの値。Itemがnilなら新規作成。
type ItemFormData struct {
	Item       *model.Item
	Input      model.ItemInput
	Categories []*model.Category
	Error      string
}

// ItemForm は掲載物の作成・編集フォームのフラグメント。
func ItemForm(c Chrome, data ItemFormData) templ.Component {
	title, action := "Новый объект", "/create_item/"
	if data.Item != nil {
		title, action = "Редактирование", "/edit_item/"+data.Item.ID+"/"
	}

	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := newWriter(w)
		hw.raw(`<h1>`)
		hw.text(title)
		hw.raw(`</h1>`)
		formError(hw, data.Error)
		hw.rawf(`<form method="post" action="%s" hx-post="%s" hx-target="#content">`, href(action), href(action))
		csrfField(hw, c.CSRFToken)

		hw.raw(`<label>Тип <select name="kind">`)
		for _, k := range model.ItemKinds {
			selected := ""
			if k == data.Input.Kind {
				selected = " selected"
			}
			hw.rawf(`<option value="%d"%s>`, k, selected)
			hw.text(k.Label())
			hw.raw(`</option>`)
		}
		hw.raw(`</select></label>`)

		hw.raw(`<label>Категория <select name="category_id"><option value="">—</option>`)
		for _, cat := range data.Categories {
			selected := ""
			if data.Input.CategoryID != nil && *data.Input.CategoryID == cat.ID {
				selected = " selected"
			}
			hw.rawf(`<option value="%s"%s>`, attr(cat.ID), selected)
			hw.text(cat.Name)
			hw.raw(`</option>`)
		}
		hw.raw(`</select></label>`)

		hw.rawf(`<label>Название <input name="title" required maxlength="200" value="%s"></label>`, attr(data.Input.Title))
		hw.raw(`<label>Описание <textarea name="description" rows="8">`)
		hw.text(data.Input.Description)
		hw.raw(`</textarea></label>`)
		hw.rawf(`<label>Ссылка <input name="link" type="url" value="%s"></label>`, attr(data.Input.Link))

		checked := ""
		if data.Input.IsActive {
			checked = " checked"
		}
		hw.rawf(`<label><input type="checkbox" name="is_active" value="1"%s> Опубликовать</label>`, checked)
		hw.raw(`<button type="submit">Сохранить</button></form>`)
		return hw.err
	})
	return Frame(c, title, body)
}

// CategoryFormData はカテゴリの作成・編集フォームの値。Categoryがnilなら新規作成。
type CategoryFormData struct {
	Category    *model.Category
	Name        string
	Description string
	Position    int
	Error       string
}

// CategoryForm はカテゴリの作成・編集フォームのフラグメント。
func CategoryForm(c Chrome, data CategoryFormData) templ.Component {
	title, action := "Новая категория", "/create_category/"
	if data.Category != nil {
		title, action = "Категория", "/edit_category/"+data.Category.ID+"/"
	}

	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := newWriter(w)
		hw.raw(`<h1>`)
		hw.text(title)
		hw.raw(`</h1>`)
		formError(hw, data.Error)
		hw.rawf(`<form method="post" action="%s" hx-post="%s" hx-target="#content">`, href(action), href(action))
		csrfField(hw, c.CSRFToken)
		hw.rawf(`<label>Название <input name="name" required maxlength="100" value="%s"></label>`, attr(data.Name))
		hw.raw(`<label>Описание <textarea name="description" rows="4">`)
		hw.text(data.Description)
		hw.raw(`</textarea></label>`)
		hw.rawf(`<label>Позиция <input name="position" type="number" value="%s"></label>`, strconv.Itoa(data.Position))
		hw.raw(`<button type="submit">Сохранить</button></form>`)
		return hw.err
	})
	return Frame(c, title, body)
}

// FileFormData は添付ファイルの編集フォームの値。
type FileFormData struct {
	File        *model.File
	Description string
	Position    int
	Error       string
}

// FileForm は添付ファイルの説明と並び順の編集フォームのフラグメント。
func FileForm(c Chrome, data FileFormData) templ.Component {
	action := "/edit_file/" + data.File.ID + "/"

	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := newWriter(w)
		hw.raw(`<h1>Изображение</h1>`)
		hw.rawf(`<img class="preview" src="%s" alt="%s">`, href(data.File.Src), attr(data.Description))
		formError(hw, data.Error)
		hw.rawf(`<form method="post" action="%s" hx-post="%s" hx-target="#content">`, href(action), href(action))
		csrfField(hw, c.CSRFToken)
		hw.rawf(`<label>Описание <input name="description" maxlength="300" value="%s"></label>`, attr(data.Description))
		hw.rawf(`<label>Позиция <input name="position" type="number" min="0" value="%s"></label>`, strconv.Itoa(data.Position))
		hw.raw(`<button type="submit">Сохранить</button></form>`)
		return hw.err
	})
	return Frame(c, "Изображение", body)
}

// LoginData はログイン・登録ページの値。
type LoginData struct {
	Phone string
	Error string
}

// Login はログインと新規登録のフォームのフラグメント。
func Login(c Chrome, data LoginData) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := newWriter(w)
		hw.raw(`<h1>Вход</h1>`)
		formError(hw, data.Error)
		hw.raw(`<form method="post" action="/login/" hx-post="/login/" hx-target="#content">`)
		csrfField(hw, c.CSRFToken)
		hw.rawf(`<label>Телефон <input name="phone" type="tel" required value="%s"></label>`, attr(data.Phone))
		hw.raw(`<label>Пароль <input name="password" type="password" required></label>`)
		hw.raw(`<button type="submit">Войти</button></form>`)

		hw.raw(`<h2>Регистрация</h2>`)
		hw.raw(`<form method="post" action="/signup/" hx-post="/signup/" hx-target="#content">`)
		csrfField(hw, c.CSRFToken)
		hw.raw(`<label>Имя <input name="name" required maxlength="100"></label>`)
		hw.raw(`<label>Телефон <input name="phone" type="tel" required></label>`)
		hw.raw(`<label>Пароль <input name="password" type="password" required minlength="8"></label>`)
		hw.raw(`<button type="submit">Зарегистрироваться</button></form>`)
		return hw.err
	})
	return Frame(c, "Вход", body)
}

// FeedbackFormData は問い合わせフォームの値。
type FeedbackFormData struct {
	Sent     bool
	Username string
	Email    string
	Message  string
	Error    string
}

// FeedbackForm は問い合わせフォームのフラグメント。
func FeedbackForm(c Chrome, data FeedbackFormData) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := newWriter(w)
		hw.raw(`<h1>Обратная связь</h1>`)
		if data.Sent {
			hw.raw(`<p class="notice">Спасибо! Сообщение отправлено.</p>`)
		}
		formError(hw, data.Error)
		hw.raw(`<form method="post" action="/feedback/" hx-post="/feedback/" hx-target="#content">`)
		csrfField(hw, c.CSRFToken)
		hw.rawf(`<label>Имя <input name="username" required maxlength="100" value="%s"></label>`, attr(data.Username))
		hw.rawf(`<label>Email <input name="email" type="email" required value="%s"></label>`, attr(data.Email))
		hw.raw(`<label>Сообщение <textarea name="message" rows="6" required>`)
		hw.text(data.Message)
		hw.raw(`</textarea></label><button type="submit">Отправить</button></form>`)
		return hw.err
	})
	return Frame(c, "Обратная связь", body)
}

// FeedbackList は問い合わせ一覧のフラグメント。
func FeedbackList(c Chrome, list []*model.Feedback) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := newWriter(w)
		hw.raw(`<h1>Сообщения</h1>`)
		if len(list) == 0 {
			hw.raw(`<p class="empty">Сообщений нет</p>`)
			return hw.err
		}
		hw.raw(`<ul class="feedbacks">`)
		for _, f := range list {
			hw.raw(`<li><p class="feedback__meta">`)
			hw.text(f.Username)
			hw.raw(` &lt;`)
			hw.text(f.Email)
			hw.raw(`&gt; · `)
			hw.text(formatTime(f.CreatedAt))
			hw.raw(`</p><p>`)
			hw.text(f.Message)
			hw.raw(`</p></li>`)
		}
		hw.raw(`</ul>`)
		return hw.err
	})
	return Frame(c, "Сообщения", body)
}

func formError(hw *htmlWriter, msg string) {
	if msg == "" {
		return
	}
	hw.raw(`<p class="form-error" role="alert">`)
	hw.text(msg)
	hw.raw(`</p>`)
}
