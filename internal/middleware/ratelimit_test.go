package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeCache struct {
	counters map[string]int64
	fail     bool
}

func newFakeCache() *fakeCache {
	return &fakeCache{counters: make(map[string]int64)}
}

func (f *fakeCache) GetUnreadCount() (int, error) { return 0, nil }
func (f *fakeCache) SetUnreadCount(int) error     { return nil }
func (f *fakeCache) InvalidateUnreadCount() error { return nil }
func (f *fakeCache) Close() error                 { return nil }

func (f *fakeCache) IncrWithTTL(key string, _ time.Duration) (int64, error) {
	if f.fail {
		return 0, http.ErrHandlerTimeout
	}
	f.counters[key]++
	return f.counters[key], nil
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitLogin(t *testing.T) {
	cache := newFakeCache()
	handler := RateLimitLogin(cache)(okHandler())

	for i := 0; i < loginLimit; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:50000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.RemoteAddr = "10.0.0.1:50000"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	// A different client is counted separately.
	req = httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.RemoteAddr = "10.0.0.2:50000"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitUsesForwardedFor(t *testing.T) {
	cache := newFakeCache()
	handler := RateLimitSignup(cache)(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/org-create", nil)
	req.RemoteAddr = "127.0.0.1:40000"
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Contains(t, cache.counters, "rl:signup:203.0.113.9")
}

func TestRateLimitFailsOpen(t *testing.T) {
	cache := newFakeCache()
	cache.fail = true
	handler := RateLimitLogin(cache)(okHandler())

	// A cache outage must not lock everyone out of login.
	for i := 0; i < loginLimit*2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:50000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}
}
