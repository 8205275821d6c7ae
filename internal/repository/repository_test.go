package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
)

// 各Postgres実装がインターフェースを満たすことを検証
func TestPostgresRepos_ImplementInterfaces(t *testing.T) {
	var _ UserRepository = (*PostgresUserRepo)(nil)
	var _ SessionRepository = (*PostgresSessionRepo)(nil)
	var _ StatPageRepository = (*PostgresStatPageRepo)(nil)
	var _ ItemRepository = (*PostgresItemRepo)(nil)
	var _ CategoryRepository = (*PostgresCategoryRepo)(nil)
	var _ FileRepository = (*PostgresFileRepo)(nil)
	var _ ForumRepository = (*PostgresForumRepo)(nil)
	var _ FeedbackRepository = (*PostgresFeedbackRepo)(nil)
	var _ VisitorRepository = (*PostgresVisitorRepo)(nil)
}

// コンストラクタがnil DBでも初期化できることを検証
func TestNewPostgresRepos_Initialize(t *testing.T) {
	if NewPostgresUserRepo(nil) == nil {
		t.Error("NewPostgresUserRepo returned nil")
	}
	if NewPostgresSessionRepo(nil) == nil {
		t.Error("NewPostgresSessionRepo returned nil")
	}
	if NewPostgresStatPageRepo(nil) == nil {
		t.Error("NewPostgresStatPageRepo returned nil")
	}
	if NewPostgresItemRepo(nil) == nil {
		t.Error("NewPostgresItemRepo returned nil")
	}
	if NewPostgresForumRepo(nil) == nil {
		t.Error("NewPostgresForumRepo returned nil")
	}
	if NewPostgresVisitorRepo(nil) == nil {
		t.Error("NewPostgresVisitorRepo returned nil")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"一意制約違反", &pq.Error{Code: "23505"}, true},
		{"ラップされた一意制約違反", fmt.Errorf("insert: %w", &pq.Error{Code: "23505"}), true},
		{"外部キー違反", &pq.Error{Code: "23503"}, false},
		{"その他のエラー", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isUniqueViolation(tt.err); got != tt.want {
				t.Errorf("isUniqueViolation(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
