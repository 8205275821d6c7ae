package pagestat

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/hitoshi/cityportal/internal/model"
)

// maxTitleRunes はvisitor_views.titleの列幅。
const maxTitleRunes = 255

// errNoVisitor は訪問者IDの無い閲覧を記録しようとした場合のエラー。
var errNoVisitor = errors.New("visit without visitor id")

// VisitStore は閲覧履歴の永続化に必要な操作。repository.VisitorRepositoryが実装する。
type VisitStore interface {
	LogVisit(ctx context.Context, view *model.VisitorView, device string) error
	ListVisits(ctx context.Context, visitorID string, limit, offset int) ([]*model.VisitorView, error)
	ListVisitors(ctx context.Context, limit, offset int) ([]*model.Visitor, error)
	FindVisitor(ctx context.Context, id string) (*model.Visitor, error)
}

// Visit は1回分の閲覧。
type Visit struct {
	VisitorID string
	Key       Key
	Path      string
	Title     string
	Device    string
}

// History は訪問者ごとの閲覧履歴を記録・参照する。
// 書き込みはCounterと同様にセマフォで同時実行数を制限する。
type History struct {
	store VisitStore
	gate  *semaphore.Weighted
}

// NewHistory はHistoryを生成する。maxConcurrentが1未満の場合は1として扱う。
func NewHistory(store VisitStore, maxConcurrent int) *History {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &History{
		store: store,
		gate:  semaphore.NewWeighted(int64(maxConcurrent)),
	}
}

// Log は閲覧を履歴に追加する。訪問者が未登録なら作成する。
func (h *History) Log(ctx context.Context, v Visit) error {
	if v.VisitorID == "" {
		return errNoVisitor
	}
	if err := h.gate.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("visit log gate: %w", err)
	}
	defer h.gate.Release(1)

	view := &model.VisitorView{
		VisitorID: v.VisitorID,
		Types:     v.Key.Type,
		ObjectID:  v.Key.ObjectID,
		Path:      v.Path,
		Title:     truncateRunes(v.Title, maxTitleRunes),
	}
	if err := h.store.LogVisit(ctx, view, v.Device); err != nil {
		return fmt.Errorf("log visit: %w", err)
	}
	return nil
}

// Views は訪問者の閲覧履歴の1ページ分と次ページ番号（無ければ0）を返す。
func (h *History) Views(ctx context.Context, visitorID string, page model.Page) ([]*model.VisitorView, int, error) {
	if visitorID == "" {
		return nil, 0, nil
	}
	rows, err := h.store.ListVisits(ctx, visitorID, page.Limit(), page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list visits: %w", err)
	}
	rows, next := model.Paginate(page, rows)
	return rows, next, nil
}

// Visitors は訪問者一覧の1ページ分と次ページ番号（無ければ0）を返す。
func (h *History) Visitors(ctx context.Context, page model.Page) ([]*model.Visitor, int, error) {
	rows, err := h.store.ListVisitors(ctx, page.Limit(), page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list visitors: %w", err)
	}
	rows, next := model.Paginate(page, rows)
	return rows, next, nil
}

// Visitor は訪問者を取得する。IDが不正な場合や存在しない場合はmodel.ErrNotFoundを返す。
func (h *History) Visitor(ctx context.Context, id string) (*model.Visitor, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, model.ErrNotFound
	}
	v, err := h.store.FindVisitor(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find visitor: %w", err)
	}
	if v == nil {
		return nil, model.ErrNotFound
	}
	return v, nil
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
