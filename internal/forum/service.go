// Package forum はフォーラムのトピックと投稿を管理する。
package forum

import (
	"context"
	"fmt"
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
	// TopicsPerPage はフォーラム一覧に表示するトピック数。
	TopicsPerPage = 50

	maxTitleLength   = 200
	maxContentLength = 10000
)

// Thread はトピックとその投稿。
type Thread struct {
	Topic *model.ForumTopic
	Posts []*model.ForumPost
}

// Service はフォーラムのサービス層。
type Service struct {
	repo      repository.ForumRepository
	sanitizer security.ContentSanitizerService
	now       func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(repo repository.ForumRepository, sanitizer security.ContentSanitizerService) *Service {
	return &Service{repo: repo, sanitizer: sanitizer, now: time.Now}
}

// Topics は最近更新されたトピックを返す。
func (s *Service) Topics(ctx context.Context) ([]*model.ForumTopic, error) {
	topics, err := s.repo.ListTopics(ctx, TopicsPerPage)
	if err != nil {
		return nil, fmt.Errorf("トピック一覧の取得に失敗しました: %w", err)
	}
	return topics, nil
}

// Thread はトピックと投稿を返す。
func (s *Service) Thread(ctx context.Context, topicID string) (*Thread, error) {
	topic, err := s.repo.FindTopic(ctx, topicID)
	if err != nil {
		return nil, fmt.Errorf("トピックの取得に失敗しました: %w", err)
	}
	if topic == nil {
		return nil, model.ErrNotFound
	}

	posts, err := s.repo.ListPosts(ctx, topic.ID)
	if err != nil {
		return nil, fmt.Errorf("投稿の取得に失敗しました: %w", err)
	}
	return &Thread{Topic: topic, Posts: posts}, nil
}

// CreateTopic はトピックを最初の投稿とともに作成する。ログインユーザーのみ。
func (s *Service) CreateTopic(ctx context.Context, viewer *audience.Identity, title, content string) (*model.ForumTopic, error) {
	if err := audience.RequireSignedIn(viewer); err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, model.NewValidationError("title", "required")
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return nil, model.NewValidationError("title", fmt.Sprintf("must be at most %d characters", maxTitleLength))
	}
	if err := validateContent(content); err != nil {
		return nil, err
	}

	now := s.now()
	topic := &model.ForumTopic{
		ID:        uuid.New().String(),
		UserID:    viewer.ID,
		Title:     title,
		PostCount: 1,
		CreatedAt: now,
	}
	first := &model.ForumPost{
		ID:         uuid.New().String(),
		TopicID:    topic.ID,
		UserID:     viewer.ID,
		AuthorName: viewer.Name,
		Content:    s.sanitizer.SanitizePost(content),
		CreatedAt:  now,
	}
	if err := s.repo.CreateTopic(ctx, topic, first); err != nil {
		return nil, fmt.Errorf("トピックの作成に失敗しました: %w", err)
	}
	return topic, nil
}

// Reply はトピックに投稿する。ログインユーザーのみ。
func (s *Service) Reply(ctx context.Context, viewer *audience.Identity, topicID, content string) (*model.ForumPost, error) {
	if err := audience.RequireSignedIn(viewer); err != nil {
		return nil, err
	}
	topic, err := s.repo.FindTopic(ctx, topicID)
	if err != nil {
		return nil, fmt.Errorf("トピックの取得に失敗しました: %w", err)
	}
	if topic == nil {
		return nil, model.ErrNotFound
	}
	if err := validateContent(content); err != nil {
		return nil, err
	}

	post := &model.ForumPost{
		ID:         uuid.New().String(),
		TopicID:    topic.ID,
		UserID:     viewer.ID,
		AuthorName: viewer.Name,
		Content:    s.sanitizer.SanitizePost(content),
		CreatedAt:  s.now(),
	}
	if err := s.repo.CreatePost(ctx, post); err != nil {
		return nil, fmt.Errorf("投稿の作成に失敗しました: %w", err)
	}
	return post, nil
}

// DeletePost は投稿を削除し、投稿のあったトピックのIDを返す。
// 投稿者とスーパーユーザーのみ。
func (s *Service) DeletePost(ctx context.Context, viewer *audience.Identity, postID string) (string, error) {
	post, err := s.repo.FindPost(ctx, postID)
	if err != nil {
		return "", fmt.Errorf("投稿の取得に失敗しました: %w", err)
	}
	if post == nil {
		return "", model.ErrNotFound
	}
	if err := audience.RequireOwnerOrSuperuser(viewer, post.UserID); err != nil {
		return "", err
	}

	if err := s.repo.DeletePost(ctx, post.ID); err != nil {
		return "", fmt.Errorf("投稿の削除に失敗しました: %w", err)
	}
	return post.TopicID, nil
}

func validateContent(content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return model.NewValidationError("content", "required")
	}
	if utf8.RuneCountInString(content) > maxContentLength {
		return model.NewValidationError("content", fmt.Sprintf("must be at most %d characters", maxContentLength))
	}
	return nil
}
