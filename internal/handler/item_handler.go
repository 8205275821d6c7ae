package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/cityportal/internal/audience"
	"github.com/hitoshi/cityportal/internal/htmx"
	"github.com/hitoshi/cityportal/internal/item"
	"github.com/hitoshi/cityportal/internal/model"
	"github.com/hitoshi/cityportal/internal/pagestat"
	"github.com/hitoshi/cityportal/internal/view"
)

// CatalogService は掲載物・カテゴリ・ファイルのハンドラーが必要とするサービスインターフェース。
// item.Serviceが実装する。
type CatalogService interface {
	HomeService

	Detail(ctx context.Context, viewer *audience.Identity, id string) (*item.Detail, error)
	ForEdit(ctx context.Context, viewer *audience.Identity, id string) (*model.Item, error)
	Create(ctx context.Context, viewer *audience.Identity, in model.ItemInput) (*model.Item, error)
	Update(ctx context.Context, viewer *audience.Identity, id string, in model.ItemInput) (*model.Item, error)

	Categories(ctx context.Context) ([]*model.Category, error)
	CategoryForEdit(ctx context.Context, viewer *audience.Identity, id string) (*model.Category, error)
	CreateCategory(ctx context.Context, viewer *audience.Identity, in item.CategoryInput) (*model.Category, error)
	UpdateCategory(ctx context.Context, viewer *audience.Identity, id string, in item.CategoryInput) (*model.Category, error)

	Image(ctx context.Context, viewer *audience.Identity, fileID string) (*item.Image, error)
	FileForEdit(ctx context.Context, viewer *audience.Identity, id string) (*model.File, error)
	UpdateFile(ctx context.Context, viewer *audience.Identity, id, description string, position int) (*model.File, error)
}

// ItemHandler は掲載物・カテゴリ・ファイル・画像ページのハンドラー。
type ItemHandler struct {
	pages   *Pages
	service CatalogService
}

// NewItemHandler はItemHandlerを生成する。
func NewItemHandler(pages *Pages, service CatalogService) *ItemHandler {
	return &ItemHandler{pages: pages, service: service}
}

// --- 掲載物 ---

// Detail は掲載物ページを返す。
// GET /items/{id}/
func (h *ItemHandler) Detail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	meta := view.Meta{Title: "Объект", Description: "Страница объекта на городском портале"}

	h.pages.serve(w, r, "item", meta, func(ctx context.Context, c view.Chrome) (*fragment, error) {
		d, err := h.service.Detail(ctx, c.Viewer, id)
		if err != nil {
			return nil, err
		}
		key := pagestat.ObjectKey(model.PageTypeItem, d.Item.ID)
		return &fragment{
			stat:  &key,
			title: d.Item.Title,
			render: func(stat *model.StatPage) templ.Component {
				return view.ItemPage(c, view.ItemData{
					Item:     d.Item,
					Category: d.Category,
					Files:    d.Files,
					Stat:     stat,
					CanEdit:  d.CanEdit,
				})
			},
		}, nil
	})
}

// NewItemForm は掲載物の作成フォームを返す。
// GET /create_item/
func (h *ItemHandler) NewItemForm(w http.ResponseWriter, r *http.Request) {
	meta := view.Meta{Title: "Новый объект"}

	h.pages.serve(w, r, "item_form", meta, func(ctx context.Context, c view.Chrome) (*fragment, error) {
		if err := audience.RequireSignedIn(c.Viewer); err != nil {
			return nil, err
		}
		cats, err := h.service.Categories(ctx)
		if err != nil {
			return nil, err
		}
		return &fragment{
			render: func(*model.StatPage) templ.Component {
				return view.ItemForm(c, view.ItemFormData{
					Input:      model.ItemInput{Kind: model.ItemKindWork, IsActive: true},
					Categories: cats,
				})
			},
		}, nil
	})
}

// CreateItem は掲載物を作成する。
// POST /create_item/
func (h *ItemHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	viewer := audience.IdentityFromContext(r.Context())
	in := parseItemInput(r)

	it, err := h.service.Create(r.Context(), viewer, in)
	if msg := validationMessage(err); msg != "" {
		h.itemFormError(w, r, nil, in, msg)
		return
	}
	if err != nil {
		h.pages.fail(w, r, err)
		return
	}
	htmx.Redirect(w, r, "/items/"+it.ID+"/")
}

// EditItemForm は掲載物の編集フォームを返す。
// GET /edit_item/{id}/
func (h *ItemHandler) EditItemForm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	meta := view.Meta{Title: "Редактирование"}

	h.pages.serve(w, r, "item_form", meta, func(ctx context.Context, c view.Chrome) (*fragment, error) {
		it, err := h.service.ForEdit(ctx, c.Viewer, id)
		if err != nil {
			return nil, err
		}
		cats, err := h.service.Categories(ctx)
		if err != nil {
			return nil, err
		}
		return &fragment{
			render: func(*model.StatPage) templ.Component {
				return view.ItemForm(c, view.ItemFormData{
					Item:       it,
					Input:      inputFromItem(it),
					Categories: cats,
				})
			},
		}, nil
	})
}

// EditItem は掲載物を更新する。
// POST /edit_item/{id}/
func (h *ItemHandler) EditItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	viewer := audience.IdentityFromContext(r.Context())
	in := parseItemInput(r)

	it, err := h.service.Update(r.Context(), viewer, id, in)
	if msg := validationMessage(err); msg != "" {
		h.itemFormError(w, r, &model.Item{ID: id}, in, msg)
		return
	}
	if err != nil {
		h.pages.fail(w, r, err)
		return
	}
	htmx.Redirect(w, r, "/items/"+it.ID+"/")
}

func (h *ItemHandler) itemFormError(w http.ResponseWriter, r *http.Request, it *model.Item, in model.ItemInput, msg string) {
	cats, err := h.service.Categories(r.Context())
	if err != nil {
		h.pages.fail(w, r, err)
		return
	}
	h.pages.form(w, r, http.StatusUnprocessableEntity, "item_form", func(c view.Chrome) templ.Component {
		return view.ItemForm(c, view.ItemFormData{Item: it, Input: in, Categories: cats, Error: msg})
	})
}

// --- カテゴリ ---

// NewCategoryForm はカテゴリの作成フォームを返す。
// GET /create_category/
func (h *ItemHandler) NewCategoryForm(w http.ResponseWriter, r *http.Request) {
	meta := view.Meta{Title: "Новая категория"}

	h.pages.serve(w, r, "category_form", meta, func(ctx context.Context, c view.Chrome) (*fragment, error) {
		if err := audience.RequireSuperuser(c.Viewer); err != nil {
			return nil, err
		}
		return &fragment{
			render: func(*model.StatPage) templ.Component {
				return view.CategoryForm(c, view.CategoryFormData{})
			},
		}, nil
	})
}

// CreateCategory はカテゴリを作成する。
// POST /create_category/
func (h *ItemHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	viewer := audience.IdentityFromContext(r.Context())
	in, perr := parseCategoryInput(r)

	var err error = perr
	if err == nil {
		_, err = h.service.CreateCategory(r.Context(), viewer, in)
	}
	if msg := validationMessage(err); msg != "" && audience.RequireSuperuser(viewer) == nil {
		h.categoryFormError(w, r, nil, in, msg)
		return
	}
	if err != nil {
		h.pages.fail(w, r, failOrDenied(viewer, err))
		return
	}
	htmx.Redirect(w, r, "/")
}

// EditCategoryForm はカテゴリの編集フォームを返す。
// GET /edit_category/{id}/
func (h *ItemHandler) EditCategoryForm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	meta := view.Meta{Title: "Категория"}

	h.pages.serve(w, r, "category_form", meta, func(ctx context.Context, c view.Chrome) (*fragment, error) {
		cat, err := h.service.CategoryForEdit(ctx, c.Viewer, id)
		if err != nil {
			return nil, err
		}
		return &fragment{
			render: func(*model.StatPage) templ.Component {
				return view.CategoryForm(c, view.CategoryFormData{
					Category:    cat,
					Name:        cat.Name,
					Description: cat.Description,
					Position:    cat.Position,
				})
			},
		}, nil
	})
}

// EditCategory はカテゴリを更新する。
// POST /edit_category/{id}/
func (h *ItemHandler) EditCategory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	viewer := audience.IdentityFromContext(r.Context())
	in, perr := parseCategoryInput(r)

	var err error = perr
	if err == nil {
		_, err = h.service.UpdateCategory(r.Context(), viewer, id, in)
	}
	if msg := validationMessage(err); msg != "" && audience.RequireSuperuser(viewer) == nil {
		h.categoryFormError(w, r, &model.Category{ID: id}, in, msg)
		return
	}
	if err != nil {
		h.pages.fail(w, r, failOrDenied(viewer, err))
		return
	}
	htmx.Redirect(w, r, "/edit_category/"+id+"/")
}

func (h *ItemHandler) categoryFormError(w http.ResponseWriter, r *http.Request, cat *model.Category, in item.CategoryInput, msg string) {
	h.pages.form(w, r, http.StatusUnprocessableEntity, "category_form", func(c view.Chrome) templ.Component {
		return view.CategoryForm(c, view.CategoryFormData{
			Category:    cat,
			Name:        in.Name,
			Description: in.Description,
			Position:    in.Position,
			Error:       msg,
		})
	})
}

// --- ファイル・画像 ---

// Image は画像ページを返す。
// GET /image/{id}/
func (h *ItemHandler) Image(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	meta := view.Meta{Title: "Изображение"}

	h.pages.serve(w, r, "image", meta, func(ctx context.Context, c view.Chrome) (*fragment, error) {
		img, err := h.service.Image(ctx, c.Viewer, id)
		if err != nil {
			return nil, err
		}
		key := pagestat.ObjectKey(model.PageTypeImage, img.File.ID)
		return &fragment{
			stat: &key,
			render: func(stat *model.StatPage) templ.Component {
				return view.ImagePage(c, view.ImageData{
					File:      img.File,
					Item:      img.Item,
					Neighbors: img.Neighbors,
					Stat:      stat,
				})
			},
		}, nil
	})
}

// EditFileForm はファイルの編集フォームを返す。
// GET /edit_file/{id}/
func (h *ItemHandler) EditFileForm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	meta := view.Meta{Title: "Изображение"}

	h.pages.serve(w, r, "file_form", meta, func(ctx context.Context, c view.Chrome) (*fragment, error) {
		f, err := h.service.FileForEdit(ctx, c.Viewer, id)
		if err != nil {
			return nil, err
		}
		return &fragment{
			render: func(*model.StatPage) templ.Component {
				return view.FileForm(c, view.FileFormData{
					File:        f,
					Description: f.Description,
					Position:    f.Position,
				})
			},
		}, nil
	})
}

// EditFile はファイルの説明と並び順を更新する。
// POST /edit_file/{id}/
func (h *ItemHandler) EditFile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	viewer := audience.IdentityFromContext(r.Context())
	description := r.PostFormValue("description")
	position, perr := parsePosition(r.PostFormValue("position"))

	// 権限チェックを先に行い、権限のない利用者に入力エラーを見せない
	f, err := h.service.FileForEdit(r.Context(), viewer, id)
	if err != nil {
		h.pages.fail(w, r, err)
		return
	}
	if perr == nil {
		_, err = h.service.UpdateFile(r.Context(), viewer, id, description, position)
	} else {
		err = perr
	}
	if msg := validationMessage(err); msg != "" {
		h.pages.form(w, r, http.StatusUnprocessableEntity, "file_form", func(c view.Chrome) templ.Component {
			return view.FileForm(c, view.FileFormData{File: f, Description: description, Position: position, Error: msg})
		})
		return
	}
	if err != nil {
		h.pages.fail(w, r, err)
		return
	}
	htmx.Redirect(w, r, "/image/"+id+"/")
}

// --- フォームの解析 ---

func parseItemInput(r *http.Request) model.ItemInput {
	kind, _ := strconv.Atoi(r.PostFormValue("kind"))
	in := model.ItemInput{
		Kind:        model.ItemKind(kind),
		Title:       r.PostFormValue("title"),
		Description: r.PostFormValue("description"),
		Link:        r.PostFormValue("link"),
		IsActive:    r.PostFormValue("is_active") == "1",
	}
	if cat := strings.TrimSpace(r.PostFormValue("category_id")); cat != "" {
		in.CategoryID = &cat
	}
	return in
}

func inputFromItem(it *model.Item) model.ItemInput {
	return model.ItemInput{
		CategoryID:  it.CategoryID,
		Kind:        it.Kind,
		Title:       it.Title,
		Description: it.Description,
		Link:        it.Link,
		IsActive:    it.IsActive,
	}
}

func parseCategoryInput(r *http.Request) (item.CategoryInput, error) {
	in := item.CategoryInput{
		Name:        r.PostFormValue("name"),
		Description: r.PostFormValue("description"),
	}
	pos, err := parsePosition(r.PostFormValue("position"))
	in.Position = pos
	return in, err
}

// parsePosition は並び順を解析する。空は0として扱う。
func parsePosition(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, model.NewValidationError("position", "must be a number")
	}
	return n, nil
}

// failOrDenied は権限のない利用者に対するエラーを権限エラーに揃える。
// 入力の解析エラーが権限エラーより先に見えないようにする。
func failOrDenied(viewer *audience.Identity, err error) error {
	if denied := audience.RequireSuperuser(viewer); denied != nil {
		return denied
	}
	return err
}
