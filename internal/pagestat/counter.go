// Package pagestat はページビュー統計の記録を提供する。
// 1回の記録で触れる行は常に1行で、作成と加算はストア側の単一文で行う。
package pagestat

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/semaphore"

	"github.com/hitoshi/cityportal/internal/model"
)

// Key は統計行のキー。パラメータを持たないページのObjectIDは空文字列。
type Key struct {
	Type     model.PageType
	ObjectID string
}

// PageKey はパラメータを持たないページのキーを返す。
func PageKey(t model.PageType) Key {
	return Key{Type: t}
}

// ObjectKey は特定オブジェクトのページのキーを返す。
func ObjectKey(t model.PageType, objectID string) Key {
	return Key{Type: t, ObjectID: objectID}
}

// Store は統計の永続化に必要な操作。repository.StatPageRepositoryの部分集合。
type Store interface {
	Increment(ctx context.Context, types model.PageType, objectID string, unique bool) (*model.StatPage, error)
	Find(ctx context.Context, types model.PageType, objectID string) (*model.StatPage, error)
	AddEngagement(ctx context.Context, types model.PageType, objectID string, height float64, seconds int64) (*model.StatPage, error)
}

// Recorder は記録結果を受け取るメトリクスのインターフェース。
type Recorder interface {
	RecordPageView(pageType model.PageType)
}

// Counter はページビューを記録する。
// 同時に実行するDB書き込みの数をセマフォで制限し、待機中もリクエストのキャンセルに従う。
type Counter struct {
	store    Store
	gate     *semaphore.Weighted
	recorder Recorder
}

// NewCounter はCounterを生成する。maxConcurrentが1未満の場合は1として扱う。
// recorderはnilでもよい。
func NewCounter(store Store, maxConcurrent int, recorder Recorder) *Counter {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Counter{
		store:    store,
		gate:     semaphore.NewWeighted(int64(maxConcurrent)),
		recorder: recorder,
	}
}

// Record はキーの閲覧数を1加算し、加算後の行を返す。
// 行が無ければ閲覧数1で作成する。uniqueがtrueの場合はユニーク訪問数も加算する。
func (c *Counter) Record(ctx context.Context, key Key, unique bool) (*model.StatPage, error) {
	if err := c.gate.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("page stat gate: %w", err)
	}
	defer c.gate.Release(1)

	stat, err := c.store.Increment(ctx, key.Type, key.ObjectID, unique)
	if err != nil {
		return nil, fmt.Errorf("record page view: %w", err)
	}

	if c.recorder != nil {
		c.recorder.RecordPageView(key.Type)
	}
	return stat, nil
}

// Lookup は統計行を取得する。無い場合はnilを返す。
func (c *Counter) Lookup(ctx context.Context, key Key) (*model.StatPage, error) {
	stat, err := c.store.Find(ctx, key.Type, key.ObjectID)
	if err != nil {
		return nil, fmt.Errorf("lookup page stat: %w", err)
	}
	return stat, nil
}

// 1回の申告で受け付ける上限。累計列のオーバーフローを防ぐ。
const (
	MaxEngagementSeconds = 24 * 60 * 60
	MaxEngagementHeight  = 1_000_000
)

// AddEngagement はクライアント申告のスクロール量と滞在秒数を既存行に加算する。
// 行が無い場合はnilを返す（新規作成しない）。
func (c *Counter) AddEngagement(ctx context.Context, key Key, height float64, seconds int64) (*model.StatPage, error) {
	if height < 0 || seconds < 0 {
		return nil, model.NewInvalidEngagementError("negative value")
	}
	if math.IsNaN(height) || math.IsInf(height, 0) {
		return nil, model.NewInvalidEngagementError("height is not a finite number")
	}
	if seconds > MaxEngagementSeconds || height > MaxEngagementHeight {
		return nil, model.NewInvalidEngagementError("value exceeds the per-report limit")
	}

	if err := c.gate.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("page stat gate: %w", err)
	}
	defer c.gate.Release(1)

	stat, err := c.store.AddEngagement(ctx, key.Type, key.ObjectID, height, seconds)
	if err != nil {
		return nil, fmt.Errorf("add engagement: %w", err)
	}
	return stat, nil
}
