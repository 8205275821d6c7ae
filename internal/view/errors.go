package view

import (
	"context"
	"io"
	"net/http"

	"github.com/a-h/templ"
)

// errorTexts はステータスごとの表示文言。
var errorTexts = map[int][2]string{
	http.StatusForbidden:           {"Доступ запрещён", "У вас нет прав для просмотра этой страницы."},
	http.StatusNotFound:            {"Страница не найдена", "Запрошенная страница не существует или была удалена."},
	http.StatusTooManyRequests:     {"Слишком много запросов", "Попробуйте ещё раз через минуту."},
	http.StatusInternalServerError: {"Ошибка сервера", "Что-то пошло не так. Попробуйте позже."},
}

// ErrorPage はエラーページ。内容はステータスのみで決まり、リクエストやユーザーに依存しない。
func ErrorPage(status int) templ.Component {
	texts, ok := errorTexts[status]
	if !ok {
		texts = errorTexts[http.StatusInternalServerError]
	}

	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := newWriter(w)
		hw.raw(`<!DOCTYPE html><html lang="ru"><head><meta charset="utf-8"><title>`)
		hw.text(texts[0])
		hw.rawf(`</title></head><body><div class="error error--%d"><h1>`, status)
		hw.text(texts[0])
		hw.raw(`</h1><p>`)
		hw.text(texts[1])
		hw.raw(`</p><p><a href="/">На главную</a></p></div></body></html>`)
		return hw.err
	})
}

// Forbidden は権限エラーのページ。
func Forbidden() templ.Component { return ErrorPage(http.StatusForbidden) }

// NotFound は404のページ。
func NotFound() templ.Component { return ErrorPage(http.StatusNotFound) }

// ServerError は500のページ。
func ServerError() templ.Component { return ErrorPage(http.StatusInternalServerError) }
