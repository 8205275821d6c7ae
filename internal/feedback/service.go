// Package feedback は問い合わせフォームの受付と一覧を提供する。
package feedback

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/cityportal/internal/audience"
	"github.com/hitoshi/cityportal/internal/model"
	"github.com/hitoshi/cityportal/internal/repository"
)

// Input は問い合わせフォームの値。
type Input struct {
	Username string
	Email    string
	Message  string
}

// Service は問い合わせのサービス層。
type Service struct {
	repo repository.FeedbackRepository
	now  func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(repo repository.FeedbackRepository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Submit は問い合わせを保存する。誰でも送信できる。
func (s *Service) Submit(ctx context.Context, in Input) (*model.Feedback, error) {
	f := &model.Feedback{
		ID:        uuid.New().String(),
		Username:  strings.TrimSpace(in.Username),
		Email:     strings.TrimSpace(in.Email),
		Message:   strings.TrimSpace(in.Message),
		CreatedAt: s.now(),
	}
	if f.Username == "" {
		return nil, model.NewValidationError("username", "required")
	}
	if _, err := mail.ParseAddress(f.Email); err != nil {
		return nil, model.NewValidationError("email", "invalid address")
	}
	if f.Message == "" {
		return nil, model.NewValidationError("message", "required")
	}

	if err := s.repo.Create(ctx, f); err != nil {
		return nil, fmt.Errorf("問い合わせの保存に失敗しました: %w", err)
	}
	return f, nil
}

// List は問い合わせ一覧を返す。スーパーユーザーのみ。
func (s *Service) List(ctx context.Context, viewer *audience.Identity) ([]*model.Feedback, error) {
	if err := audience.RequireLevel(viewer, audience.SuperuserLevel); err != nil {
		return nil, err
	}
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("問い合わせ一覧の取得に失敗しました: %w", err)
	}
	return list, nil
}
