package middleware

import (
	"net"
	"net/http"
	"strings"
	"time"

	"orgconsole-backend/internal/cache"
	"orgconsole-backend/internal/httpx"
)

const (
	loginLimit   = 5
	loginWindow  = time.Minute
	signupLimit  = 10
	signupWindow = time.Hour
)

// RateLimitLogin caps login attempts per client IP.
func RateLimitLogin(cacheClient cache.Client) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			key := "rl:login:" + ip
			count, err := cacheClient.IncrWithTTL(key, loginWindow)
			if err == nil && count > loginLimit {
				httpx.Error(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitSignup caps organization signups per client IP.
func RateLimitSignup(cacheClient cache.Client) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			key := "rl:signup:" + ip
			count, err := cacheClient.IncrWithTTL(key, signupWindow)
			if err == nil && count > signupLimit {
				httpx.Error(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
