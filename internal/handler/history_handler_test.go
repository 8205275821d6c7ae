package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/cityportal/internal/audience"
	"github.com/hitoshi/cityportal/internal/item"
	"github.com/hitoshi/cityportal/internal/middleware"
	"github.com/hitoshi/cityportal/internal/model"
	"github.com/hitoshi/cityportal/internal/pagestat"
)

const testVisitorID = "3f2a1b0c-9d8e-4f7a-8b6c-5d4e3f2a1b0c"

// withVisitorCookie は既知の訪問者としてのリクエストにする。
func withVisitorCookie(r *http.Request) *http.Request {
	r.AddCookie(&http.Cookie{Name: "visitor_id", Value: testVisitorID})
	return r
}

// visitorMiddleware はテスト対象のハンドラーを訪問者ミドルウェアで包む。
func visitorMiddleware(h http.HandlerFunc) http.Handler {
	return middleware.NewVisitorMiddleware(middleware.VisitorConfig{})(h)
}

// --- 閲覧履歴の記録 ---

func TestPages_LogsVisitAfterStat(t *testing.T) {
	pages, stats, history := newTestPagesWithHistory()
	h := NewHomeHandler(pages, &mockCatalogService{})

	w := httptest.NewRecorder()
	visitorMiddleware(h.Home).ServeHTTP(w, withVisitorCookie(fragmentRequest(http.MethodGet, "/", nil)))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if got := len(stats.calls()); got != 1 {
		t.Fatalf("stat records = %d, want 1", got)
	}
	visits := history.logged()
	if len(visits) != 1 {
		t.Fatalf("visits = %d, want 1", len(visits))
	}
	want := pagestat.Visit{
		VisitorID: testVisitorID,
		Key:       pagestat.PageKey(model.PageTypeHome),
		Path:      "/",
		Title:     "Главная страница",
		Device:    "desktop",
	}
	if visits[0] != want {
		t.Errorf("visit = %+v, want %+v", visits[0], want)
	}
}

func TestPages_LogsObjectTitle(t *testing.T) {
	pages, _, history := newTestPagesWithHistory()
	svc := &mockCatalogService{
		detailFn: func(ctx context.Context, viewer *audience.Identity, id string) (*item.Detail, error) {
			return &item.Detail{Item: &model.Item{ID: id, Title: "Ремонт квартир", IsActive: true}}, nil
		},
	}
	h := NewItemHandler(pages, svc)

	req := withChiURLParam(withVisitorCookie(fragmentRequest(http.MethodGet, "/items/item-1/", nil)), "id", "item-1")
	visitorMiddleware(h.Detail).ServeHTTP(httptest.NewRecorder(), req)

	visits := history.logged()
	if len(visits) != 1 {
		t.Fatalf("visits = %d, want 1", len(visits))
	}
	if visits[0].Title != "Ремонт квартир" {
		t.Errorf("Title = %q, want item title", visits[0].Title)
	}
	if visits[0].Key != pagestat.ObjectKey(model.PageTypeItem, "item-1") {
		t.Errorf("Key = %+v, want item key", visits[0].Key)
	}
}

func TestPages_DoesNotLogWithoutVisitorOrStat(t *testing.T) {
	pages, _, history := newTestPagesWithHistory()
	home := NewHomeHandler(pages, &mockCatalogService{})
	feedback := NewFeedbackHandler(pages, &mockFeedbackService{})

	// 訪問者ミドルウェアを通らないリクエストは識別できない
	home.Home(httptest.NewRecorder(), fragmentRequest(http.MethodGet, "/", nil))
	// 統計を記録しないページは履歴にも残らない
	visitorMiddleware(feedback.Form).ServeHTTP(httptest.NewRecorder(), withVisitorCookie(fragmentRequest(http.MethodGet, "/feedback/", nil)))
	// シェルは読み込みを行わない
	visitorMiddleware(home.Home).ServeHTTP(httptest.NewRecorder(), withVisitorCookie(fullRequest(http.MethodGet, "/")))

	if got := len(history.logged()); got != 0 {
		t.Errorf("visits = %d, want 0", got)
	}
}

func TestPages_VisitLogErrorReturns500(t *testing.T) {
	pages, _, history := newTestPagesWithHistory()
	history.logFn = func(ctx context.Context, v pagestat.Visit) error {
		return errors.New("connection refused")
	}
	h := NewHomeHandler(pages, &mockCatalogService{})

	w := httptest.NewRecorder()
	visitorMiddleware(h.Home).ServeHTTP(w, withVisitorCookie(fragmentRequest(http.MethodGet, "/", nil)))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

// --- /history/ ---

func TestHistoryHandler_History(t *testing.T) {
	pages, stats, history := newTestPagesWithHistory()
	var gotVisitor string
	var gotPage model.Page
	history.viewsFn = func(ctx context.Context, visitorID string, page model.Page) ([]*model.VisitorView, int, error) {
		gotVisitor, gotPage = visitorID, page
		return []*model.VisitorView{
			{Path: "/info/", Title: "Информация", CreatedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
		}, 3, nil
	}
	h := NewHistoryHandler(pages, history)

	w := httptest.NewRecorder()
	visitorMiddleware(h.History).ServeHTTP(w, withVisitorCookie(fragmentRequest(http.MethodGet, "/history/?page=2", nil)))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if gotVisitor != testVisitorID {
		t.Errorf("visitorID = %q, want %q", gotVisitor, testVisitorID)
	}
	if gotPage.Number != 2 || gotPage.Size != model.ListPageSize {
		t.Errorf("page = %+v, want 2/%d", gotPage, model.ListPageSize)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Информация") || !strings.Contains(body, `href="/history/?page=3"`) {
		t.Errorf("unexpected body: %s", body)
	}
	if len(stats.calls()) != 0 || len(history.logged()) != 0 {
		t.Error("history page should not be recorded")
	}
}

func TestHistoryHandler_History_InvalidPageFallsBackToFirst(t *testing.T) {
	pages, _, history := newTestPagesWithHistory()
	var gotPage model.Page
	history.viewsFn = func(ctx context.Context, visitorID string, page model.Page) ([]*model.VisitorView, int, error) {
		gotPage = page
		return nil, 0, nil
	}
	h := NewHistoryHandler(pages, history)

	w := httptest.NewRecorder()
	h.History(w, fragmentRequest(http.MethodGet, "/history/?page=-3", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if gotPage.Number != 1 {
		t.Errorf("page = %d, want 1", gotPage.Number)
	}
}

func TestHistoryHandler_History_ServiceErrorReturns500(t *testing.T) {
	pages, _, history := newTestPagesWithHistory()
	history.viewsFn = func(ctx context.Context, visitorID string, page model.Page) ([]*model.VisitorView, int, error) {
		return nil, 0, errors.New("db down")
	}
	h := NewHistoryHandler(pages, history)

	w := httptest.NewRecorder()
	h.History(w, fragmentRequest(http.MethodGet, "/history/", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

// --- /cookie_users_list/ ---

func TestHistoryHandler_Visitors(t *testing.T) {
	pages, _, history := newTestPagesWithHistory()
	history.visitorsFn = func(ctx context.Context, page model.Page) ([]*model.Visitor, int, error) {
		return []*model.Visitor{{ID: testVisitorID, Device: "mobile", Views: 5}}, 0, nil
	}
	h := NewHistoryHandler(pages, history)

	tests := []struct {
		name     string
		viewer   *audience.Identity
		wantLink bool
	}{
		{"匿名", nil, false},
		{"一般ユーザー", testOwner, false},
		{"スーパーユーザー", testSuperuser, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := fragmentRequest(http.MethodGet, "/cookie_users_list/", nil)
			if tt.viewer != nil {
				req = withIdentity(req, tt.viewer)
			}
			w := httptest.NewRecorder()
			h.Visitors(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
			}
			if got := strings.Contains(w.Body.String(), "/load_user_history/"+testVisitorID+"/"); got != tt.wantLink {
				t.Errorf("history link = %v, want %v", got, tt.wantLink)
			}
		})
	}
}

// --- /load_user_history/{id}/ ---

func TestHistoryHandler_VisitorHistory(t *testing.T) {
	pages, _, history := newTestPagesWithHistory()
	history.visitorFn = func(ctx context.Context, id string) (*model.Visitor, error) {
		if id != testVisitorID {
			return nil, model.ErrNotFound
		}
		return &model.Visitor{ID: id, Device: "desktop", Views: 2}, nil
	}
	var gotVisitor string
	history.viewsFn = func(ctx context.Context, visitorID string, page model.Page) ([]*model.VisitorView, int, error) {
		gotVisitor = visitorID
		return []*model.VisitorView{{Path: "/forum/", Title: "Форум"}}, 0, nil
	}
	h := NewHistoryHandler(pages, history)

	tests := []struct {
		name           string
		viewer         *audience.Identity
		id             string
		expectedStatus int
	}{
		{"匿名は403", nil, testVisitorID, http.StatusForbidden},
		{"一般ユーザーは403", testOwner, testVisitorID, http.StatusForbidden},
		{"未登録の訪問者は404", testSuperuser, "0a0a0a0a-0000-4000-8000-000000000000", http.StatusNotFound},
		{"スーパーユーザー", testSuperuser, testVisitorID, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotVisitor = ""
			req := fragmentRequest(http.MethodGet, "/load_user_history/"+tt.id+"/", nil)
			req = withChiURLParam(req, "id", tt.id)
			if tt.viewer != nil {
				req = withIdentity(req, tt.viewer)
			}
			w := httptest.NewRecorder()
			h.VisitorHistory(w, req)

			if w.Code != tt.expectedStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.expectedStatus)
			}
			if tt.expectedStatus != http.StatusOK {
				if gotVisitor != "" {
					t.Error("history should not be loaded on error")
				}
				return
			}
			if gotVisitor != testVisitorID {
				t.Errorf("views loaded for %q, want %q", gotVisitor, testVisitorID)
			}
			if !strings.Contains(w.Body.String(), "Форум") {
				t.Error("visitor history missing")
			}
		})
	}
}
