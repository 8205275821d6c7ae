package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/cityportal/internal/model"
)

// PostgresVisitorRepo はPostgreSQLを使用した訪問者・閲覧履歴リポジトリ。
type PostgresVisitorRepo struct {
	db *sql.DB
}

// NewPostgresVisitorRepo はPostgresVisitorRepoを生成する。
func NewPostgresVisitorRepo(db *sql.DB) *PostgresVisitorRepo {
	return &PostgresVisitorRepo{db: db}
}

// logVisitSQL は訪問者の作成・更新と履歴の追加を1文で行う。
const logVisitSQL = `
WITH visitor AS (
    INSERT INTO visitors (id, device, first_seen, last_seen, views)
    VALUES ($1::uuid, $2, now(), now(), 1)
    ON CONFLICT (id) DO UPDATE
    SET views     = visitors.views + 1,
        last_seen = now(),
        device    = EXCLUDED.device
    RETURNING id
)
INSERT INTO visitor_views (visitor_id, types, object_id, path, title)
SELECT id, $3::smallint, $4::text, $5::text, $6::text FROM visitor
RETURNING id, created_at`

// LogVisit は閲覧を1件記録し、訪問者の閲覧数と最終訪問日時を更新する。
// 採番されたIDと記録日時をviewに設定する。
func (r *PostgresVisitorRepo) LogVisit(ctx context.Context, view *model.VisitorView, device string) error {
	err := r.db.QueryRowContext(ctx, logVisitSQL,
		view.VisitorID, device, int16(view.Types), view.ObjectID, view.Path, view.Title,
	).Scan(&view.ID, &view.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to log visit (types=%d): %w", view.Types, err)
	}
	return nil
}

// ListVisits は訪問者の閲覧履歴を新しい順に返す。
func (r *PostgresVisitorRepo) ListVisits(ctx context.Context, visitorID string, limit, offset int) ([]*model.VisitorView, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, visitor_id, types, object_id, path, title, created_at
		 FROM visitor_views
		 WHERE visitor_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2 OFFSET $3`,
		visitorID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list visits: %w", err)
	}
	defer rows.Close()

	var views []*model.VisitorView
	for rows.Next() {
		v := &model.VisitorView{}
		if err := rows.Scan(&v.ID, &v.VisitorID, &v.Types, &v.ObjectID, &v.Path, &v.Title, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan visit: %w", err)
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate visits: %w", err)
	}
	return views, nil
}

// ListVisitors は訪問者を最終訪問の新しい順に返す。
func (r *PostgresVisitorRepo) ListVisitors(ctx context.Context, limit, offset int) ([]*model.Visitor, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, device, first_seen, last_seen, views
		 FROM visitors
		 ORDER BY last_seen DESC, id DESC
		 LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list visitors: %w", err)
	}
	defer rows.Close()

	var visitors []*model.Visitor
	for rows.Next() {
		v := &model.Visitor{}
		if err := rows.Scan(&v.ID, &v.Device, &v.FirstSeen, &v.LastSeen, &v.Views); err != nil {
			return nil, fmt.Errorf("failed to scan visitor: %w", err)
		}
		visitors = append(visitors, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate visitors: %w", err)
	}
	return visitors, nil
}

// FindVisitor は指定IDの訪問者を取得する。見つからない場合はnilを返す。
func (r *PostgresVisitorRepo) FindVisitor(ctx context.Context, id string) (*model.Visitor, error) {
	v := &model.Visitor{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, device, first_seen, last_seen, views FROM visitors WHERE id = $1`,
		id,
	).Scan(&v.ID, &v.Device, &v.FirstSeen, &v.LastSeen, &v.Views)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find visitor: %w", err)
	}
	return v, nil
}

// compile-time interface check
var _ VisitorRepository = (*PostgresVisitorRepo)(nil)
