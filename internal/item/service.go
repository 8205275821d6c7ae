// Package item は掲載物・カテゴリ・添付ファイルの管理機能を提供する。
package item

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/hitoshi/cityportal/internal/audience"
	"github.com/hitoshi/cityportal/internal/model"
	"github.com/hitoshi/cityportal/internal/repository"
	"github.com/hitoshi/cityportal/internal/security"
)

const (
	// HomeItemsPerKind はトップページに種別ごとに並べる件数。
	HomeItemsPerKind = 3

	maxTitleLength = 200
)

// Section はトップページの種別ごとの新着一覧。
type Section struct {
	Kind  model.ItemKind
	Items []*model.Item
}

// Detail は掲載物の詳細ページに必要なデータ。
type Detail struct {
	Item     *model.Item
	Category *model.Category
	Files    []*model.File
	CanEdit  bool
}

// Service は掲載物のサービス層。
type Service struct {
	itemRepo     repository.ItemRepository
	categoryRepo repository.CategoryRepository
	fileRepo     repository.FileRepository
	sanitizer    security.ContentSanitizerService
	now          func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	itemRepo repository.ItemRepository,
	categoryRepo repository.CategoryRepository,
	fileRepo repository.FileRepository,
	sanitizer security.ContentSanitizerService,
) *Service {
	return &Service{
		itemRepo:     itemRepo,
		categoryRepo: categoryRepo,
		fileRepo:     fileRepo,
		sanitizer:    sanitizer,
		now:          time.Now,
	}
}

// HomeSections は種別ごとの新着掲載物を返す。
// スーパーユーザーには非公開の掲載物も含める。
func (s *Service) HomeSections(ctx context.Context, viewer *audience.Identity) ([]Section, error) {
	includeInactive := viewer != nil && viewer.IsSuperuser

	sections := make([]Section, 0, len(model.ItemKinds))
	for _, kind := range model.ItemKinds {
		items, err := s.itemRepo.ListLatestByKind(ctx, kind, HomeItemsPerKind, includeInactive)
		if err != nil {
			return nil, fmt.Errorf("新着掲載物の取得に失敗しました: %w", err)
		}
		sections = append(sections, Section{Kind: kind, Items: items})
	}
	return sections, nil
}

// Detail は掲載物の詳細を返し、閲覧数を加算する。
// 非公開の掲載物は所有者とスーパーユーザーのみ閲覧できる。
func (s *Service) Detail(ctx context.Context, viewer *audience.Identity, id string) (*Detail, error) {
	it, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !it.IsActive {
		if err := audience.RequireOwnerOrSuperuser(viewer, it.UserID); err != nil {
			return nil, err
		}
	}

	if err := s.itemRepo.IncrementView(ctx, it.ID); err != nil {
		return nil, fmt.Errorf("閲覧数の更新に失敗しました: %w", err)
	}

	files, err := s.fileRepo.ListByItem(ctx, it.ID)
	if err != nil {
		return nil, fmt.Errorf("添付ファイルの取得に失敗しました: %w", err)
	}

	var category *model.Category
	if it.CategoryID != nil {
		category, err = s.categoryRepo.FindByID(ctx, *it.CategoryID)
		if err != nil {
			return nil, fmt.Errorf("カテゴリの取得に失敗しました: %w", err)
		}
	}

	return &Detail{
		Item:     it,
		Category: category,
		Files:    files,
		CanEdit:  audience.RequireOwnerOrSuperuser(viewer, it.UserID) == nil,
	}, nil
}

// ForEdit は編集フォーム用に掲載物を返す。所有者とスーパーユーザーのみ。
func (s *Service) ForEdit(ctx context.Context, viewer *audience.Identity, id string) (*model.Item, error) {
	it, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := audience.RequireOwnerOrSuperuser(viewer, it.UserID); err != nil {
		return nil, err
	}
	return it, nil
}

// Create は掲載物を作成する。ログインユーザーのみ。
func (s *Service) Create(ctx context.Context, viewer *audience.Identity, in model.ItemInput) (*model.Item, error) {
	if err := audience.RequireSignedIn(viewer); err != nil {
		return nil, err
	}
	if err := s.validate(ctx, in); err != nil {
		return nil, err
	}

	now := s.now()
	it := &model.Item{
		ID:          uuid.New().String(),
		UserID:      viewer.ID,
		CategoryID:  in.CategoryID,
		Kind:        in.Kind,
		Title:       strings.TrimSpace(in.Title),
		Description: s.sanitizer.SanitizeDescription(in.Description),
		Link:        strings.TrimSpace(in.Link),
		IsActive:    in.IsActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.itemRepo.Create(ctx, it); err != nil {
		return nil, fmt.Errorf("掲載物の作成に失敗しました: %w", err)
	}
	return it, nil
}

// Update は掲載物を更新する。所有者とスーパーユーザーのみ。
// 権限チェックは入力検証より先に行う。
func (s *Service) Update(ctx context.Context, viewer *audience.Identity, id string, in model.ItemInput) (*model.Item, error) {
	it, err := s.ForEdit(ctx, viewer, id)
	if err != nil {
		return nil, err
	}
	if err := s.validate(ctx, in); err != nil {
		return nil, err
	}

	it.CategoryID = in.CategoryID
	it.Kind = in.Kind
	it.Title = strings.TrimSpace(in.Title)
	it.Description = s.sanitizer.SanitizeDescription(in.Description)
	it.Link = strings.TrimSpace(in.Link)
	it.IsActive = in.IsActive
	it.UpdatedAt = s.now()

	if err := s.itemRepo.Update(ctx, it); err != nil {
		return nil, fmt.Errorf("掲載物の更新に失敗しました: %w", err)
	}
	return it, nil
}

func (s *Service) load(ctx context.Context, id string) (*model.Item, error) {
	it, err := s.itemRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("掲載物の取得に失敗しました: %w", err)
	}
	if it == nil {
		return nil, model.ErrNotFound
	}
	return it, nil
}

func (s *Service) validate(ctx context.Context, in model.ItemInput) error {
	if !in.Kind.Valid() {
		return model.NewValidationError("kind", "unknown item kind")
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return model.NewValidationError("title", "required")
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return model.NewValidationError("title", fmt.Sprintf("must be at most %d characters", maxTitleLength))
	}
	if link := strings.TrimSpace(in.Link); link != "" && !isHTTPURL(link) {
		return model.NewValidationError("link", "must be an http or https URL")
	}
	if in.CategoryID != nil {
		c, err := s.categoryRepo.FindByID(ctx, *in.CategoryID)
		if err != nil {
			return fmt.Errorf("カテゴリの取得に失敗しました: %w", err)
		}
		if c == nil {
			return model.NewValidationError("category_id", "unknown category")
		}
	}
	return nil
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
