package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/hitoshi/cityportal/internal/audience"
	"github.com/hitoshi/cityportal/internal/middleware"
)

// mockIdentityResolver はRouterテスト用のIdentityResolverモック。
type mockIdentityResolver struct {
	identities map[string]*audience.Identity
	err        error
}

func (m *mockIdentityResolver) ResolveIdentity(ctx context.Context, sessionID string) (*audience.Identity, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.identities[sessionID], nil
}

type testRouter struct {
	handler  http.Handler
	resolver *mockIdentityResolver
	stats    *mockStats
	metrics  *mockPageMetrics
	feedback *mockFeedbackService
	history  *mockHistory
}

// createTestRouter はテスト用の完全なルーターを構築するヘルパー。
func createTestRouter(t *testing.T) *testRouter {
	t.Helper()

	tr := &testRouter{
		resolver: &mockIdentityResolver{
			identities: map[string]*audience.Identity{"valid-session": testOwner},
		},
		stats:    &mockStats{},
		metrics:  &mockPageMetrics{},
		feedback: &mockFeedbackService{},
		history:  &mockHistory{},
	}

	limiter := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	t.Cleanup(limiter.Stop)

	tr.handler = NewRouter(&RouterDeps{
		Site:    testSite,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Metrics: tr.metrics,
		MetricsHandler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, "# metrics\n")
		}),
		HealthChecker:    &mockHealthChecker{},
		IdentityResolver: tr.resolver,
		RateLimiter:      limiter,
		Stats:            tr.stats,
		History:          tr.history,
		AuthService:      &mockAuthService{},
		AuthConfig:       AuthHandlerConfig{SessionMaxAge: 3600},
		CatalogService:   &mockCatalogService{},
		ForumService:     &mockForumService{},
		FeedbackService:  tr.feedback,
	})
	return tr
}

func (tr *testRouter) serve(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	tr.handler.ServeHTTP(w, req)
	return w
}

func TestNewRouter_PageRoutesServeShell(t *testing.T) {
	tr := createTestRouter(t)

	paths := []string{
		"/", "/info/",
		"/items/item-1/", "/create_item/", "/edit_item/item-1/",
		"/create_category/", "/edit_category/cat-1/",
		"/image/file-1/", "/edit_file/file-1/",
		"/forum/", "/forum/topics/topic-1/",
		"/feedback/", "/feedback_list/", "/login/",
		"/history/", "/cookie_users_list/", "/load_user_history/visitor-1/",
	}

	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			w := tr.serve(fullRequest(http.MethodGet, path))

			if w.Code != http.StatusOK {
				t.Fatalf("GET %s status = %d, want %d", path, w.Code, http.StatusOK)
			}
			if !strings.Contains(w.Body.String(), `hx-get="`+path+`"`) {
				t.Errorf("GET %s should return the shell", path)
			}
		})
	}

	if got := len(tr.stats.calls()); got != 0 {
		t.Errorf("shell requests recorded %d stats, want 0", got)
	}
}

func TestNewRouter_SecurityHeaders(t *testing.T) {
	tr := createTestRouter(t)

	w := tr.serve(fullRequest(http.MethodGet, "/"))

	headers := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
	}
	for name, want := range headers {
		if got := w.Header().Get(name); got != want {
			t.Errorf("%s = %q, want %q", name, got, want)
		}
	}
	if w.Header().Get("Content-Security-Policy") == "" {
		t.Error("Content-Security-Policy should be set")
	}
}

func TestNewRouter_NotFound(t *testing.T) {
	tr := createTestRouter(t)

	w := tr.serve(fullRequest(http.MethodGet, "/no/such/page/"))

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("not found page should go through the middleware stack")
	}
}

func TestNewRouter_HealthAndMetrics(t *testing.T) {
	tr := createTestRouter(t)

	w := tr.serve(httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("GET /health status = %d, want %d", w.Code, http.StatusOK)
	}

	w = tr.serve(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Errorf("GET /metrics status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), "# metrics") {
		t.Error("expected the metrics handler output")
	}
}

func TestNewRouter_SessionResolvesIdentity(t *testing.T) {
	tr := createTestRouter(t)

	// 未ログイン
	w := tr.serve(fragmentRequest(http.MethodGet, "/create_item/", nil))
	if w.Code != http.StatusForbidden {
		t.Errorf("anonymous status = %d, want %d", w.Code, http.StatusForbidden)
	}

	// 有効なセッション
	req := fragmentRequest(http.MethodGet, "/create_item/", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "valid-session"})
	w = tr.serve(req)
	if w.Code != http.StatusOK {
		t.Errorf("signed in status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), `data-variant="authenticated_desktop"`) {
		t.Error("expected the authenticated variant")
	}

	// 不明なセッションは匿名
	req = fragmentRequest(http.MethodGet, "/create_item/", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "unknown"})
	w = tr.serve(req)
	if w.Code != http.StatusForbidden {
		t.Errorf("unknown session status = %d, want %d", w.Code, http.StatusForbidden)
	}
}

func TestNewRouter_SessionLookupFailureIs500(t *testing.T) {
	tr := createTestRouter(t)
	tr.resolver.err = errors.New("db down")

	req := fragmentRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "valid-session"})
	w := tr.serve(req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

func TestNewRouter_CSRF(t *testing.T) {
	tr := createTestRouter(t)

	form := url.Values{
		"username": {"Иван"},
		"email":    {"ivan@example.com"},
		"message":  {"Привет"},
	}

	// トークンなし
	w := tr.serve(postRequest("/feedback/", form.Encode()))
	if w.Code != http.StatusForbidden {
		t.Errorf("without token status = %d, want %d", w.Code, http.StatusForbidden)
	}

	// Cookieとフォームのトークンが一致
	token := "0123456789abcdef0123456789abcdef"
	form.Set("csrf_token", token)
	req := postRequest("/feedback/", form.Encode())
	req.AddCookie(&http.Cookie{Name: "csrf_token", Value: token})
	w = tr.serve(req)
	if w.Code != http.StatusSeeOther {
		t.Errorf("with token status = %d, want %d", w.Code, http.StatusSeeOther)
	}

	// 不一致
	req = postRequest("/feedback/", form.Encode())
	req.AddCookie(&http.Cookie{Name: "csrf_token", Value: "different"})
	w = tr.serve(req)
	if w.Code != http.StatusForbidden {
		t.Errorf("mismatched token status = %d, want %d", w.Code, http.StatusForbidden)
	}
}

func TestNewRouter_CSRFHeaderForHTMX(t *testing.T) {
	tr := createTestRouter(t)

	token := "fedcba9876543210fedcba9876543210"
	req := fragmentRequest(http.MethodPost, "/feedback/", strings.NewReader("username=a&email=a%40b.c&message=m"))
	req.Header.Set("X-CSRF-Token", token)
	req.AddCookie(&http.Cookie{Name: "csrf_token", Value: token})
	w := tr.serve(req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if w.Header().Get("HX-Redirect") != "/feedback/?sent=1" {
		t.Errorf("HX-Redirect = %q", w.Header().Get("HX-Redirect"))
	}
}

func TestNewRouter_StatAPI(t *testing.T) {
	tr := createTestRouter(t)

	w := tr.serve(httptest.NewRequest(http.MethodGet, "/api/stats/abc", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	w = tr.serve(httptest.NewRequest(http.MethodGet, "/api/stats/20?object_id=missing", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestNewRouter_RecordsHTTPMetrics(t *testing.T) {
	tr := createTestRouter(t)

	tr.serve(fullRequest(http.MethodGet, "/"))
	tr.serve(fullRequest(http.MethodGet, "/missing"))

	tr.metrics.mu.Lock()
	defer tr.metrics.mu.Unlock()
	if len(tr.metrics.statuses) != 2 {
		t.Fatalf("statuses = %v, want 2 entries", tr.metrics.statuses)
	}
	if tr.metrics.statuses[0] != http.StatusOK || tr.metrics.statuses[1] != http.StatusNotFound {
		t.Errorf("statuses = %v, want [200 404]", tr.metrics.statuses)
	}
}

func TestNewRouter_LogsVisitsForCookieVisitor(t *testing.T) {
	tr := createTestRouter(t)

	w := tr.serve(fragmentRequest(http.MethodGet, "/", nil))
	var visitor *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == "visitor_id" {
			visitor = c
		}
	}
	if visitor == nil {
		t.Fatal("expected visitor cookie on first fragment request")
	}

	req := fragmentRequest(http.MethodGet, "/info/", nil)
	req.AddCookie(visitor)
	tr.serve(req)

	req = fragmentRequest(http.MethodGet, "/history/", nil)
	req.AddCookie(visitor)
	if w := tr.serve(req); w.Code != http.StatusOK {
		t.Fatalf("history status = %d, want %d", w.Code, http.StatusOK)
	}

	visits := tr.history.logged()
	if len(visits) != 2 {
		t.Fatalf("visits = %d, want 2", len(visits))
	}
	for i, path := range []string{"/", "/info/"} {
		if visits[i].Path != path || visits[i].VisitorID != visitor.Value {
			t.Errorf("visit[%d] = %+v, want %s by %s", i, visits[i], path, visitor.Value)
		}
	}
}
