package item

import (
	"context"
	"fmt"
	"strings"

	"github.com/hitoshi/cityportal/internal/audience"
	"github.com/hitoshi/cityportal/internal/model"
)

// Image は画像ページに必要なデータ。
type Image struct {
	File      *model.File
	Item      *model.Item
	Neighbors model.ImageNeighbors
}

// Image は画像と、掲載物のギャラリー順での前後の画像を返す。
// 非公開の掲載物の画像は所有者とスーパーユーザーのみ閲覧できる。
func (s *Service) Image(ctx context.Context, viewer *audience.Identity, fileID string) (*Image, error) {
	f, err := s.loadFile(ctx, fileID)
	if err != nil {
		return nil, err
	}

	it, err := s.load(ctx, f.ItemID)
	if err != nil {
		return nil, err
	}
	if !it.IsActive {
		if err := audience.RequireOwnerOrSuperuser(viewer, it.UserID); err != nil {
			return nil, err
		}
	}

	gallery, err := s.fileRepo.ListByItem(ctx, it.ID)
	if err != nil {
		return nil, fmt.Errorf("ギャラリーの取得に失敗しました: %w", err)
	}

	return &Image{
		File:      f,
		Item:      it,
		Neighbors: neighbors(gallery, f.ID),
	}, nil
}

// FileForEdit は編集フォーム用にファイルを返す。所有者とスーパーユーザーのみ。
func (s *Service) FileForEdit(ctx context.Context, viewer *audience.Identity, id string) (*model.File, error) {
	f, err := s.loadFile(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := audience.RequireOwnerOrSuperuser(viewer, f.UserID); err != nil {
		return nil, err
	}
	return f, nil
}

// UpdateFile はファイルの説明と並び順を更新する。所有者とスーパーユーザーのみ。
func (s *Service) UpdateFile(ctx context.Context, viewer *audience.Identity, id, description string, position int) (*model.File, error) {
	f, err := s.FileForEdit(ctx, viewer, id)
	if err != nil {
		return nil, err
	}
	if position < 0 {
		return nil, model.NewValidationError("position", "must not be negative")
	}

	f.Description = strings.TrimSpace(description)
	f.Position = position
	if err := s.fileRepo.UpdateMeta(ctx, f.ID, f.Description, f.Position); err != nil {
		return nil, fmt.Errorf("ファイルの更新に失敗しました: %w", err)
	}
	return f, nil
}

func (s *Service) loadFile(ctx context.Context, id string) (*model.File, error) {
	f, err := s.fileRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ファイルの取得に失敗しました: %w", err)
	}
	if f == nil {
		return nil, model.ErrNotFound
	}
	return f, nil
}

// neighbors はギャラリー内でidの前後にあるファイルを返す。
func neighbors(gallery []*model.File, id string) model.ImageNeighbors {
	var n model.ImageNeighbors
	for i, f := range gallery {
		if f.ID != id {
			continue
		}
		if i > 0 {
			n.Prev = gallery[i-1]
		}
		if i+1 < len(gallery) {
			n.Next = gallery[i+1]
		}
		break
	}
	return n
}
