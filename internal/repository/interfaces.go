// Package repository はデータ永続化のインターフェースを定義する。
// 見つからない場合は (nil, nil) を返し、「存在しない」と「問い合わせ失敗」を区別する。
package repository

import (
	"context"
	"errors"

	"github.com/lib/pq"

	"github.com/hitoshi/cityportal/internal/model"
)

// ErrDuplicate は一意制約違反を表す。
var ErrDuplicate = errors.New("duplicate record")

// uniqueViolation はPostgreSQLの一意制約違反のSQLSTATE。
const uniqueViolation = "23505"

// isUniqueViolation はエラーが一意制約違反かどうかを判定する。
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)
	// FindByPhone は電話番号でユーザーを取得する。見つからない場合はnilを返す。
	FindByPhone(ctx context.Context, phone string) (*model.User, error)
	// Create はユーザーを作成する。電話番号が重複する場合はErrDuplicateを返す。
	Create(ctx context.Context, user *model.User) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// FindActiveUser は有効なセッションのユーザーを取得する。無い場合はnilを返す。
	FindActiveUser(ctx context.Context, sessionID string) (*model.User, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}

// StatPageRepository はページビュー統計の永続化インターフェース。
type StatPageRepository interface {
	// Increment は(types, objectID)の行を1回の文で作成または加算する。
	// uniqueがtrueの場合はnow_uも加算する。
	Increment(ctx context.Context, types model.PageType, objectID string, unique bool) (*model.StatPage, error)
	// Find は統計行を取得する。見つからない場合はnilを返す。
	Find(ctx context.Context, types model.PageType, objectID string) (*model.StatPage, error)
	// AddEngagement は既存行にスクロール量と滞在秒数を加算する。行が無い場合はnilを返す。
	AddEngagement(ctx context.Context, types model.PageType, objectID string, height float64, seconds int64) (*model.StatPage, error)
}

// VisitorRepository は訪問者と閲覧履歴の永続化インターフェース。
type VisitorRepository interface {
	// LogVisit は訪問者の作成・更新と閲覧履歴の追加を1回の文で行う。
	LogVisit(ctx context.Context, view *model.VisitorView, device string) error
	// ListVisits は訪問者の閲覧履歴を新しい順に返す。
	ListVisits(ctx context.Context, visitorID string, limit, offset int) ([]*model.VisitorView, error)
	// ListVisitors は訪問者を最終訪問の新しい順に返す。
	ListVisitors(ctx context.Context, limit, offset int) ([]*model.Visitor, error)
	// FindVisitor は指定IDの訪問者を取得する。見つからない場合はnilを返す。
	FindVisitor(ctx context.Context, id string) (*model.Visitor, error)
}

// ItemRepository は掲載物の永続化インターフェース。
type ItemRepository interface {
	// FindByID は指定IDの掲載物を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Item, error)
	// ListLatestByKind は種別ごとの新着をlimit件返す。includeInactiveがfalseなら公開中のみ。
	ListLatestByKind(ctx context.Context, kind model.ItemKind, limit int, includeInactive bool) ([]*model.Item, error)
	// Create は掲載物を作成する。
	Create(ctx context.Context, item *model.Item) error
	// Update は掲載物を更新する。
	Update(ctx context.Context, item *model.Item) error
	// IncrementView は掲載物の閲覧数を加算する。
	IncrementView(ctx context.Context, id string) error
}

// CategoryRepository はカテゴリの永続化インターフェース。
type CategoryRepository interface {
	FindByID(ctx context.Context, id string) (*model.Category, error)
	List(ctx context.Context) ([]*model.Category, error)
	Create(ctx context.Context, category *model.Category) error
	Update(ctx context.Context, category *model.Category) error
}

// FileRepository は添付ファイルの永続化インターフェース。
type FileRepository interface {
	// FindByID は指定IDのファイルを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.File, error)
	// ListByItem は掲載物のファイルをギャラリー順に返す。
	ListByItem(ctx context.Context, itemID string) ([]*model.File, error)
	// UpdateMeta はファイルの説明と並び順を更新する。
	UpdateMeta(ctx context.Context, id, description string, position int) error
}

// ForumRepository はフォーラムの永続化インターフェース。
type ForumRepository interface {
	ListTopics(ctx context.Context, limit int) ([]*model.ForumTopic, error)
	FindTopic(ctx context.Context, id string) (*model.ForumTopic, error)
	// CreateTopic はトピックと最初の投稿を同一トランザクションで作成する。
	CreateTopic(ctx context.Context, topic *model.ForumTopic, first *model.ForumPost) error
	ListPosts(ctx context.Context, topicID string) ([]*model.ForumPost, error)
	FindPost(ctx context.Context, id string) (*model.ForumPost, error)
	CreatePost(ctx context.Context, post *model.ForumPost) error
	DeletePost(ctx context.Context, id string) error
}

// FeedbackRepository は問い合わせの永続化インターフェース。
type FeedbackRepository interface {
	Create(ctx context.Context, feedback *model.Feedback) error
	List(ctx context.Context) ([]*model.Feedback, error)
}
