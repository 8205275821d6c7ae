package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/cityportal/internal/model"
)

// PostgresStatPageRepo はPostgreSQLを使用したページビュー統計リポジトリ。
type PostgresStatPageRepo struct {
	db *sql.DB
}

// NewPostgresStatPageRepo はPostgresStatPageRepoを生成する。
func NewPostgresStatPageRepo(db *sql.DB) *PostgresStatPageRepo {
	return &PostgresStatPageRepo{db: db}
}

// incrementStatSQL は取得・作成・加算を1文で行う。
// 同じキーへの同時アクセスでもUNIQUE(types, object_id)上で直列化され、
// 重複行も加算の取りこぼしも発生しない。
const incrementStatSQL = `
INSERT INTO stat_pages (types, object_id, view, height, seconds, now_u)
VALUES ($1, $2, 1, 0, 0, $3)
ON CONFLICT (types, object_id) DO UPDATE
SET view  = stat_pages.view + 1,
    now_u = stat_pages.now_u + EXCLUDED.now_u
RETURNING id, types, object_id, view, height, seconds, now_u`

// Increment は(types, objectID)の行を作成または加算する。
// uniqueがtrueの場合はnow_uも1加算する。
func (r *PostgresStatPageRepo) Increment(ctx context.Context, types model.PageType, objectID string, unique bool) (*model.StatPage, error) {
	var uniqueDelta int64
	if unique {
		uniqueDelta = 1
	}

	stat := &model.StatPage{}
	err := r.db.QueryRowContext(ctx, incrementStatSQL, int16(types), objectID, uniqueDelta).Scan(
		&stat.ID, &stat.Types, &stat.ObjectID,
		&stat.View, &stat.Height, &stat.Seconds, &stat.NowU,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to increment page stat (types=%d): %w", types, err)
	}
	return stat, nil
}

// Find は統計行を取得する。見つからない場合はnilを返す。
func (r *PostgresStatPageRepo) Find(ctx context.Context, types model.PageType, objectID string) (*model.StatPage, error) {
	stat := &model.StatPage{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, types, object_id, view, height, seconds, now_u
		 FROM stat_pages WHERE types = $1 AND object_id = $2`,
		int16(types), objectID,
	).Scan(
		&stat.ID, &stat.Types, &stat.ObjectID,
		&stat.View, &stat.Height, &stat.Seconds, &stat.NowU,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find page stat (types=%d): %w", types, err)
	}
	return stat, nil
}

// AddEngagement は既存行にスクロール量と滞在秒数を加算する。行が無い場合はnilを返す。
func (r *PostgresStatPageRepo) AddEngagement(ctx context.Context, types model.PageType, objectID string, height float64, seconds int64) (*model.StatPage, error) {
	stat := &model.StatPage{}
	err := r.db.QueryRowContext(ctx,
		`UPDATE stat_pages
		 SET height = height + $3, seconds = seconds + $4
		 WHERE types = $1 AND object_id = $2
		 RETURNING id, types, object_id, view, height, seconds, now_u`,
		int16(types), objectID, height, seconds,
	).Scan(
		&stat.ID, &stat.Types, &stat.ObjectID,
		&stat.View, &stat.Height, &stat.Seconds, &stat.NowU,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to add engagement (types=%d): %w", types, err)
	}
	return stat, nil
}

// compile-time interface check
var _ StatPageRepository = (*PostgresStatPageRepo)(nil)
