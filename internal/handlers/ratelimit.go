package handlers

import (
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/videoportal/backend/internal/logging"
)

// RateLimiter is the minimal interface required to guard sensitive endpoints.
type RateLimiter interface {
	Allow(key string) bool
}

const retryAfterSeconds = "60"

// allowRequest consults the limiter and, when the caller is over budget,
// writes the 429 response itself.
func allowRequest(limiter RateLimiter, w http.ResponseWriter, r *http.Request, scope string) bool {
	if limiter == nil {
		return true
	}
	if limiter.Allow(rateLimitKey(r, scope)) {
		return true
	}

	ctx := r.Context()
	logging.FromContext(ctx).Warn("rate limited", "scope", scope, "ip", clientIP(r))
	w.Header().Set("Retry-After", retryAfterSeconds)
	respondMessage(ctx, w, http.StatusTooManyRequests, "too many requests")
	return false
}

func rateLimitKey(r *http.Request, scope string) string {
	ip := clientIP(r)
	if scope == "" {
		return ip
	}
	return fmt.Sprintf("%s:%s", scope, ip)
}

func clientIP(r *http.Request) string {
	if forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}
