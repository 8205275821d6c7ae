package handler

import (
	"context"
	"net/http"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/cityportal/internal/audience"
	"github.com/hitoshi/cityportal/internal/forum"
	"github.com/hitoshi/cityportal/internal/htmx"
	"github.com/hitoshi/cityportal/internal/model"
	"github.com/hitoshi/cityportal/internal/pagestat"
	"github.com/hitoshi/cityportal/internal/view"
)

// ForumService はフォーラムハンドラーが必要とするサービスインターフェース。
type ForumService interface {
	Topics(ctx context.Context) ([]*model.ForumTopic, error)
	Thread(ctx context.Context, topicID string) (*forum.Thread, error)
	CreateTopic(ctx context.Context, viewer *audience.Identity, title, content string) (*model.ForumTopic, error)
	Reply(ctx context.Context, viewer *audience.Identity, topicID, content string) (*model.ForumPost, error)
	DeletePost(ctx context.Context, viewer *audience.Identity, postID string) (string, error)
}

// ForumHandler はフォーラムのハンドラー。
type ForumHandler struct {
	pages   *Pages
	service ForumService
}

// NewForumHandler はForumHandlerを生成する。
func NewForumHandler(pages *Pages, service ForumService) *ForumHandler {
	return &ForumHandler{pages: pages, service: service}
}

// Topics はトピック一覧を返す。
// GET /forum/
func (h *ForumHandler) Topics(w http.ResponseWriter, r *http.Request) {
	meta := view.Meta{Title: "Форум", Description: "Форум жителей города"}

	h.pages.serve(w, r, "forum", meta, func(ctx context.Context, c view.Chrome) (*fragment, error) {
		topics, err := h.service.Topics(ctx)
		if err != nil {
			return nil, err
		}
		key := pagestat.PageKey(model.PageTypeForum)
		return &fragment{
			stat: &key,
			render: func(stat *model.StatPage) templ.Component {
				return view.Forum(c, view.ForumData{Topics: topics, Stat: stat})
			},
		}, nil
	})
}

// Topic はトピックの投稿一覧を返す。
// GET /forum/topics/{id}/
func (h *ForumHandler) Topic(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	meta := view.Meta{Title: "Форум"}

	h.pages.serve(w, r, "topic", meta, func(ctx context.Context, c view.Chrome) (*fragment, error) {
		thread, err := h.service.Thread(ctx, id)
		if err != nil {
			return nil, err
		}
		key := pagestat.ObjectKey(model.PageTypeForumTopic, thread.Topic.ID)
		return &fragment{
			stat:  &key,
			title: thread.Topic.Title,
			render: func(stat *model.StatPage) templ.Component {
				return view.Topic(c, view.TopicData{Topic: thread.Topic, Posts: thread.Posts, Stat: stat})
			},
		}, nil
	})
}

// CreateTopic はトピックを作成する。
// POST /forum/topics/
func (h *ForumHandler) CreateTopic(w http.ResponseWriter, r *http.Request) {
	viewer := audience.IdentityFromContext(r.Context())

	topic, err := h.service.CreateTopic(r.Context(), viewer, r.PostFormValue("title"), r.PostFormValue("content"))
	if msg := validationMessage(err); msg != "" {
		topics, err := h.service.Topics(r.Context())
		if err != nil {
			h.pages.fail(w, r, err)
			return
		}
		h.pages.form(w, r, http.StatusUnprocessableEntity, "forum", func(c view.Chrome) templ.Component {
			return view.Forum(c, view.ForumData{Topics: topics, Error: msg})
		})
		return
	}
	if err != nil {
		h.pages.fail(w, r, err)
		return
	}
	htmx.Redirect(w, r, "/forum/topics/"+topic.ID+"/")
}

// Reply はトピックに返信する。
// POST /forum/topics/{id}/posts/
func (h *ForumHandler) Reply(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	viewer := audience.IdentityFromContext(r.Context())

	_, err := h.service.Reply(r.Context(), viewer, id, r.PostFormValue("content"))
	if msg := validationMessage(err); msg != "" {
		thread, err := h.service.Thread(r.Context(), id)
		if err != nil {
			h.pages.fail(w, r, err)
			return
		}
		h.pages.form(w, r, http.StatusUnprocessableEntity, "topic", func(c view.Chrome) templ.Component {
			return view.Topic(c, view.TopicData{Topic: thread.Topic, Posts: thread.Posts, Error: msg})
		})
		return
	}
	if err != nil {
		h.pages.fail(w, r, err)
		return
	}
	htmx.Redirect(w, r, "/forum/topics/"+id+"/")
}

// DeletePost は投稿を削除し、トピックに戻す。
// POST /forum/posts/{id}/delete/
func (h *ForumHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	viewer := audience.IdentityFromContext(r.Context())

	topicID, err := h.service.DeletePost(r.Context(), viewer, chi.URLParam(r, "id"))
	if err != nil {
		h.pages.fail(w, r, err)
		return
	}
	htmx.Redirect(w, r, "/forum/topics/"+topicID+"/")
}
