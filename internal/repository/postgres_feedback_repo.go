package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/cityportal/internal/model"
)

// PostgresFeedbackRepo はPostgreSQLを使用した問い合わせリポジトリ。
type PostgresFeedbackRepo struct {
	db *sql.DB
}

// NewPostgresFeedbackRepo はPostgresFeedbackRepoを生成する。
func NewPostgresFeedbackRepo(db *sql.DB) *PostgresFeedbackRepo {
	return &PostgresFeedbackRepo{db: db}
}

// Create は問い合わせを保存する。
func (r *PostgresFeedbackRepo) Create(ctx context.Context, f *model.Feedback) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO feedbacks (id, username, email, message, created_at) VALUES ($1, $2, $3, $4, $5)`,
		f.ID, f.Username, f.Email, f.Message, f.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create feedback: %w", err)
	}
	return nil
}

// List は問い合わせを新しい順に返す。
func (r *PostgresFeedbackRepo) List(ctx context.Context) ([]*model.Feedback, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, username, email, message, created_at FROM feedbacks ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedbacks: %w", err)
	}
	defer rows.Close()

	var list []*model.Feedback
	for rows.Next() {
		f := &model.Feedback{}
		if err := rows.Scan(&f.ID, &f.Username, &f.Email, &f.Message, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		list = append(list, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate feedbacks: %w", err)
	}
	return list, nil
}

// compile-time interface check
var _ FeedbackRepository = (*PostgresFeedbackRepo)(nil)
