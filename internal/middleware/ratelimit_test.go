package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/cityportal/internal/audience"
)

func testRateConfig(generalBurst, writeBurst int) RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:     0.01,
		GeneralBurst:    generalBurst,
		WriteRate:       0.01,
		WriteBurst:      writeBurst,
		CleanupInterval: time.Minute,
	}
}

func signedInRequest(method, target, userID string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	ctx := audience.ContextWithIdentity(req.Context(), audience.NewIdentity(userID, "", 1))
	return req.WithContext(ctx)
}

func TestRateLimitMiddleware_AllowsRequestsWithinLimit(t *testing.T) {
	rl := NewRateLimiter(testRateConfig(5, 1))
	defer rl.Stop()

	calls := 0
	handler := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, signedInRequest(http.MethodGet, "/", "user-1"))
		if w.Code != http.StatusOK {
			t.Errorf("request %d: status = %d, want %d", i, w.Code, http.StatusOK)
		}
	}
	if calls != 5 {
		t.Errorf("handler call count = %d, want 5", calls)
	}
}

func TestRateLimitMiddleware_Returns429WithRetryAfter(t *testing.T) {
	rl := NewRateLimiter(testRateConfig(2, 1))
	defer rl.Stop()

	handler := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	for i := 0; i < 2; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), signedInRequest(http.MethodGet, "/", "user-1"))
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, signedInRequest(http.MethodGet, "/", "user-1"))

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
}

func TestRateLimitMiddleware_IsolatesClients(t *testing.T) {
	rl := NewRateLimiter(testRateConfig(1, 1))
	defer rl.Stop()

	handler := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	requests := []*http.Request{
		signedInRequest(http.MethodGet, "/", "user-a"),
		signedInRequest(http.MethodGet, "/", "user-b"),
	}
	anonA := httptest.NewRequest(http.MethodGet, "/", nil)
	anonA.RemoteAddr = "10.0.0.1:1234"
	anonB := httptest.NewRequest(http.MethodGet, "/", nil)
	anonB.RemoteAddr = "10.0.0.2:1234"
	requests = append(requests, anonA, anonB)

	for i, req := range requests {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("request %d: status = %d, want %d", i, w.Code, http.StatusOK)
		}
	}
	if rl.GeneralLimiterCount() != 4 {
		t.Errorf("limiter count = %d, want 4", rl.GeneralLimiterCount())
	}
}

func TestRateLimitMiddleware_WriteLimitAppliesOnlyToStateChanges(t *testing.T) {
	rl := NewRateLimiter(testRateConfig(10, 1))
	defer rl.Stop()

	handler := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, signedInRequest(http.MethodPost, "/forum/topics/", "user-1"))
	if w.Code != http.StatusOK {
		t.Fatalf("first POST: status = %d, want %d", w.Code, http.StatusOK)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, signedInRequest(http.MethodPost, "/forum/topics/", "user-1"))
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("second POST: status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}

	// 書き込み上限に達してもGETは一般の上限内なら通る
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, signedInRequest(http.MethodGet, "/forum/", "user-1"))
	if w.Code != http.StatusOK {
		t.Errorf("GET after write limit: status = %d, want %d", w.Code, http.StatusOK)
	}
	if rl.WriteLimiterCount() != 1 {
		t.Errorf("write limiter count = %d, want 1", rl.WriteLimiterCount())
	}
}

func TestRateLimiter_CleanupRemovesExpiredEntries(t *testing.T) {
	cfg := testRateConfig(5, 5)
	cfg.CleanupInterval = 50 * time.Millisecond
	rl := NewRateLimiter(cfg)
	defer rl.Stop()

	handler := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	handler.ServeHTTP(httptest.NewRecorder(), signedInRequest(http.MethodGet, "/", "user-cleanup"))

	if rl.GeneralLimiterCount() == 0 {
		t.Fatal("expected at least one limiter entry")
	}

	// TTLはCleanupIntervalの2倍（100ms）
	time.Sleep(300 * time.Millisecond)

	if count := rl.GeneralLimiterCount(); count != 0 {
		t.Errorf("expected 0 limiter entries after cleanup, got %d", count)
	}
}

func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(testRateConfig(1, 1))
	rl.Stop()
	rl.Stop()
}

func TestRateLimitMiddleware_InChainAfterIdentity(t *testing.T) {
	resolver := &mockIdentityResolver{
		resolveFn: func(ctx context.Context, sessionID string) (*audience.Identity, error) {
			return audience.NewIdentity("user-chain", "", 1), nil
		},
	}
	rl := NewRateLimiter(testRateConfig(1, 1))
	defer rl.Stop()

	var keys []string
	handler := NewIdentityMiddleware(resolver)(rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		keys = append(keys, clientKey(r))
	})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "s"})
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if len(keys) != 1 || keys[0] != "user:user-chain" {
		t.Errorf("keys = %v, want [user:user-chain]", keys)
	}
}

func TestPerMinuteRateLimiterConfig(t *testing.T) {
	cfg := DefaultRateLimiterConfig()

	if cfg.GeneralRate != 2.0 {
		t.Errorf("GeneralRate = %f, want 2.0", cfg.GeneralRate)
	}
	if cfg.GeneralBurst != 120 {
		t.Errorf("GeneralBurst = %d, want 120", cfg.GeneralBurst)
	}
	if cfg.WriteBurst != 20 {
		t.Errorf("WriteBurst = %d, want 20", cfg.WriteBurst)
	}
}
