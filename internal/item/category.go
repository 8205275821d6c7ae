package item

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/hitoshi/cityportal/internal/audience"
	"github.com/hitoshi/cityportal/internal/model"
)

// CategoryInput はカテゴリの作成・更新フォームの値。
type CategoryInput struct {
	Name        string
	Description string
	Position    int
}

// Categories はカテゴリ一覧を表示順で返す。
func (s *Service) Categories(ctx context.Context) ([]*model.Category, error) {
	list, err := s.categoryRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("カテゴリ一覧の取得に失敗しました: %w", err)
	}
	return list, nil
}

// CategoryForEdit は編集フォーム用にカテゴリを返す。スーパーユーザーのみ。
// 存在しないカテゴリでも権限のない利用者には403を返す。
func (s *Service) CategoryForEdit(ctx context.Context, viewer *audience.Identity, id string) (*model.Category, error) {
	if err := audience.RequireSuperuser(viewer); err != nil {
		return nil, err
	}
	c, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("カテゴリの取得に失敗しました: %w", err)
	}
	if c == nil {
		return nil, model.ErrNotFound
	}
	return c, nil
}

// CreateCategory はカテゴリを作成する。スーパーユーザーのみ。
func (s *Service) CreateCategory(ctx context.Context, viewer *audience.Identity, in CategoryInput) (*model.Category, error) {
	if err := audience.RequireSuperuser(viewer); err != nil {
		return nil, err
	}
	if err := validateCategory(in); err != nil {
		return nil, err
	}

	c := &model.Category{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Position:    in.Position,
		CreatedAt:   s.now(),
	}
	if err := s.categoryRepo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("カテゴリの作成に失敗しました: %w", err)
	}
	return c, nil
}

// UpdateCategory はカテゴリを更新する。スーパーユーザーのみ。
func (s *Service) UpdateCategory(ctx context.Context, viewer *audience.Identity, id string, in CategoryInput) (*model.Category, error) {
	c, err := s.CategoryForEdit(ctx, viewer, id)
	if err != nil {
		return nil, err
	}
	if err := validateCategory(in); err != nil {
		return nil, err
	}

	c.Name = strings.TrimSpace(in.Name)
	c.Description = strings.TrimSpace(in.Description)
	c.Position = in.Position
	if err := s.categoryRepo.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("カテゴリの更新に失敗しました: %w", err)
	}
	return c, nil
}

func validateCategory(in CategoryInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return model.NewValidationError("name", "required")
	}
	if in.Position < 0 {
		return model.NewValidationError("position", "must not be negative")
	}
	return nil
}
