package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/cityportal/internal/model"
)

// PostgresForumRepo はPostgreSQLを使用したフォーラムリポジトリ。
type PostgresForumRepo struct {
	db *sql.DB
}

// NewPostgresForumRepo はPostgresForumRepoを生成する。
func NewPostgresForumRepo(db *sql.DB) *PostgresForumRepo {
	return &PostgresForumRepo{db: db}
}

const selectTopicColumns = `
SELECT t.id, t.user_id, t.title, t.created_at,
       COUNT(p.id) AS post_count, MAX(p.created_at) AS last_post_at
FROM forum_topics t
LEFT JOIN forum_posts p ON p.topic_id = t.id`

func scanTopic(row rowScanner) (*model.ForumTopic, error) {
	t := &model.ForumTopic{}
	var lastPostAt sql.NullTime
	if err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.CreatedAt, &t.PostCount, &lastPostAt); err != nil {
		return nil, err
	}
	if lastPostAt.Valid {
		t.LastPostAt = &lastPostAt.Time
	}
	return t, nil
}

// ListTopics は最終投稿の新しい順にトピックを返す。
func (r *PostgresForumRepo) ListTopics(ctx context.Context, limit int) ([]*model.ForumTopic, error) {
	rows, err := r.db.QueryContext(ctx,
		selectTopicColumns+`
		 GROUP BY t.id
		 ORDER BY COALESCE(MAX(p.created_at), t.created_at) DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list forum topics: %w", err)
	}
	defer rows.Close()

	var topics []*model.ForumTopic
	for rows.Next() {
		t, err := scanTopic(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan forum topic: %w", err)
		}
		topics = append(topics, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate forum topics: %w", err)
	}
	return topics, nil
}

// FindTopic は指定IDのトピックを取得する。見つからない場合はnilを返す。
func (r *PostgresForumRepo) FindTopic(ctx context.Context, id string) (*model.ForumTopic, error) {
	t, err := scanTopic(r.db.QueryRowContext(ctx, selectTopicColumns+` WHERE t.id = $1 GROUP BY t.id`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find forum topic: %w", err)
	}
	return t, nil
}

// CreateTopic はトピックと最初の投稿を同一トランザクションで作成する。
func (r *PostgresForumRepo) CreateTopic(ctx context.Context, topic *model.ForumTopic, first *model.ForumPost) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO forum_topics (id, user_id, title, created_at) VALUES ($1, $2, $3, $4)`,
		topic.ID, topic.UserID, topic.Title, topic.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert forum topic: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO forum_posts (id, topic_id, user_id, content, created_at) VALUES ($1, $2, $3, $4, $5)`,
		first.ID, topic.ID, first.UserID, first.Content, first.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert first forum post: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListPosts はトピックの投稿を古い順に返す。
func (r *PostgresForumRepo) ListPosts(ctx context.Context, topicID string) ([]*model.ForumPost, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT p.id, p.topic_id, p.user_id, u.name, p.content, p.created_at
		 FROM forum_posts p
		 JOIN users u ON u.id = p.user_id
		 WHERE p.topic_id = $1
		 ORDER BY p.created_at, p.id`,
		topicID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list forum posts: %w", err)
	}
	defer rows.Close()

	var posts []*model.ForumPost
	for rows.Next() {
		p := &model.ForumPost{}
		if err := rows.Scan(&p.ID, &p.TopicID, &p.UserID, &p.AuthorName, &p.Content, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan forum post: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate forum posts: %w", err)
	}
	return posts, nil
}

// FindPost は指定IDの投稿を取得する。見つからない場合はnilを返す。
func (r *PostgresForumRepo) FindPost(ctx context.Context, id string) (*model.ForumPost, error) {
	p := &model.ForumPost{}
	err := r.db.QueryRowContext(ctx,
		`SELECT p.id, p.topic_id, p.user_id, u.name, p.content, p.created_at
		 FROM forum_posts p
		 JOIN users u ON u.id = p.user_id
		 WHERE p.id = $1`,
		id,
	).Scan(&p.ID, &p.TopicID, &p.UserID, &p.AuthorName, &p.Content, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find forum post: %w", err)
	}
	return p, nil
}

// CreatePost は投稿を作成する。
func (r *PostgresForumRepo) CreatePost(ctx context.Context, post *model.ForumPost) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO forum_posts (id, topic_id, user_id, content, created_at) VALUES ($1, $2, $3, $4, $5)`,
		post.ID, post.TopicID, post.UserID, post.Content, post.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create forum post: %w", err)
	}
	return nil
}

// DeletePost は投稿を削除する。
func (r *PostgresForumRepo) DeletePost(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM forum_posts WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete forum post: %w", err)
	}
	return nil
}

// compile-time interface check
var _ ForumRepository = (*PostgresForumRepo)(nil)
