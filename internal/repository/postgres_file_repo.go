package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/cityportal/internal/model"
)

// PostgresFileRepo はPostgreSQLを使用した添付ファイルリポジトリ。
type PostgresFileRepo struct {
	db *sql.DB
}

// NewPostgresFileRepo はPostgresFileRepoを生成する。
func NewPostgresFileRepo(db *sql.DB) *PostgresFileRepo {
	return &PostgresFileRepo{db: db}
}

func scanFile(row rowScanner) (*model.File, error) {
	f := &model.File{}
	err := row.Scan(&f.ID, &f.UserID, &f.ItemID, &f.Src, &f.Description, &f.Position, &f.CreatedAt)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// FindByID は指定IDのファイルを取得する。見つからない場合はnilを返す。
func (r *PostgresFileRepo) FindByID(ctx context.Context, id string) (*model.File, error) {
	f, err := scanFile(r.db.QueryRowContext(ctx,
		`SELECT id, user_id, item_id, src, description, position, created_at FROM files WHERE id = $1`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find file: %w", err)
	}
	return f, nil
}

// ListByItem は掲載物のファイルをギャラリー順に返す。
func (r *PostgresFileRepo) ListByItem(ctx context.Context, itemID string) ([]*model.File, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, item_id, src, description, position, created_at
		 FROM files WHERE item_id = $1
		 ORDER BY position, created_at, id`,
		itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	defer rows.Close()

	var files []*model.File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan file: %w", err)
		}
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate files: %w", err)
	}
	return files, nil
}

// UpdateMeta はファイルの説明と並び順を更新する。
func (r *PostgresFileRepo) UpdateMeta(ctx context.Context, id, description string, position int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE files SET description = $2, position = $3 WHERE id = $1`,
		id, description, position,
	)
	if err != nil {
		return fmt.Errorf("failed to update file: %w", err)
	}
	return nil
}

// compile-time interface check
var _ FileRepository = (*PostgresFileRepo)(nil)
