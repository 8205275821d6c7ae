package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/cityportal/internal/model"
)

// PostgresItemRepo はPostgreSQLを使用した掲載物リポジトリ。
type PostgresItemRepo struct {
	db *sql.DB
}

// NewPostgresItemRepo はPostgresItemRepoを生成する。
func NewPostgresItemRepo(db *sql.DB) *PostgresItemRepo {
	return &PostgresItemRepo{db: db}
}

const selectItemColumns = `SELECT id, user_id, category_id, kind, title, description, link,
	is_active, view, created_at, updated_at FROM items`

// rowScanner は*sql.Rowと*sql.Rowsの共通インターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*model.Item, error) {
	item := &model.Item{}
	var categoryID sql.NullString
	err := row.Scan(
		&item.ID, &item.UserID, &categoryID, &item.Kind,
		&item.Title, &item.Description, &item.Link,
		&item.IsActive, &item.View, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if categoryID.Valid {
		item.CategoryID = &categoryID.String
	}
	return item, nil
}

// FindByID は指定IDの掲載物を取得する。見つからない場合はnilを返す。
func (r *PostgresItemRepo) FindByID(ctx context.Context, id string) (*model.Item, error) {
	item, err := scanItem(r.db.QueryRowContext(ctx, selectItemColumns+` WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find item: %w", err)
	}
	return item, nil
}

// ListLatestByKind は種別ごとの新着をlimit件返す。
func (r *PostgresItemRepo) ListLatestByKind(ctx context.Context, kind model.ItemKind, limit int, includeInactive bool) ([]*model.Item, error) {
	rows, err := r.db.QueryContext(ctx,
		selectItemColumns+`
		 WHERE kind = $1 AND (is_active OR $2)
		 ORDER BY created_at DESC
		 LIMIT $3`,
		int16(kind), includeInactive, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list items (kind=%d): %w", kind, err)
	}
	defer rows.Close()

	var items []*model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %w", err)
	}
	return items, nil
}

// Create は掲載物を作成する。
func (r *PostgresItemRepo) Create(ctx context.Context, item *model.Item) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO items (id, user_id, category_id, kind, title, description, link, is_active, view, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, $9, $10)`,
		item.ID, item.UserID, item.CategoryID, int16(item.Kind),
		item.Title, item.Description, item.Link, item.IsActive,
		item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}
	return nil
}

// Update は掲載物の編集可能な項目を更新する。
func (r *PostgresItemRepo) Update(ctx context.Context, item *model.Item) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE items
		 SET category_id = $2, kind = $3, title = $4, description = $5, link = $6,
		     is_active = $7, updated_at = $8
		 WHERE id = $1`,
		item.ID, item.CategoryID, int16(item.Kind), item.Title,
		item.Description, item.Link, item.IsActive, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	return nil
}

// IncrementView は掲載物の閲覧数を加算する。
func (r *PostgresItemRepo) IncrementView(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE items SET view = view + 1 WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to increment item view: %w", err)
	}
	return nil
}

// compile-time interface check
var _ ItemRepository = (*PostgresItemRepo)(nil)
