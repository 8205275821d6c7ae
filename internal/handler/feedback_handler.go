package handler

import (
	"context"
	"net/http"

	"github.com/a-h/templ"

	"github.com/hitoshi/cityportal/internal/audience"
	"github.com/hitoshi/cityportal/internal/feedback"
	"github.com/hitoshi/cityportal/internal/htmx"
	"github.com/hitoshi/cityportal/internal/model"
	"github.com/hitoshi/cityportal/internal/view"
)

// FeedbackService は問い合わせハンドラーが必要とするサービスインターフェース。
type FeedbackService interface {
	Submit(ctx context.Context, in feedback.Input) (*model.Feedback, error)
	List(ctx context.Context, viewer *audience.Identity) ([]*model.Feedback, error)
}

// FeedbackHandler は問い合わせフォームと一覧のハンドラー。
type FeedbackHandler struct {
	pages   *Pages
	service FeedbackService
}

// NewFeedbackHandler はFeedbackHandlerを生成する。
func NewFeedbackHandler(pages *Pages, service FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{pages: pages, service: service}
}

// Form は問い合わせフォームを返す。送信後は ?sent=1 で完了メッセージを表示する。
// GET /feedback/
func (h *FeedbackHandler) Form(w http.ResponseWriter, r *http.Request) {
	meta := view.Meta{Title: "Обратная связь"}
	sent := r.URL.Query().Get("sent") == "1"

	h.pages.serve(w, r, "feedback", meta, func(ctx context.Context, c view.Chrome) (*fragment, error) {
		data := view.FeedbackFormData{Sent: sent}
		if c.Viewer != nil {
			data.Username = c.Viewer.Name
		}
		return &fragment{
			render: func(*model.StatPage) templ.Component {
				return view.FeedbackForm(c, data)
			},
		}, nil
	})
}

// Submit は問い合わせを送信する。
// POST /feedback/
func (h *FeedbackHandler) Submit(w http.ResponseWriter, r *http.Request) {
	in := feedback.Input{
		Username: r.PostFormValue("username"),
		Email:    r.PostFormValue("email"),
		Message:  r.PostFormValue("message"),
	}

	_, err := h.service.Submit(r.Context(), in)
	if msg := validationMessage(err); msg != "" {
		h.pages.form(w, r, http.StatusUnprocessableEntity, "feedback", func(c view.Chrome) templ.Component {
			return view.FeedbackForm(c, view.FeedbackFormData{
				Username: in.Username,
				Email:    in.Email,
				Message:  in.Message,
				Error:    msg,
			})
		})
		return
	}
	if err != nil {
		h.pages.fail(w, r, err)
		return
	}
	htmx.Redirect(w, r, "/feedback/?sent=1")
}

// List は問い合わせ一覧を返す。スーパーユーザーのみ。
// GET /feedback_list/
func (h *FeedbackHandler) List(w http.ResponseWriter, r *http.Request) {
	meta := view.Meta{Title: "Сообщения"}

	h.pages.serve(w, r, "feedback_list", meta, func(ctx context.Context, c view.Chrome) (*fragment, error) {
		list, err := h.service.List(ctx, c.Viewer)
		if err != nil {
			return nil, err
		}
		return &fragment{
			render: func(*model.StatPage) templ.Component {
				return view.FeedbackList(c, list)
			},
		}, nil
	})
}
