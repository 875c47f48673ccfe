package middleware

import (
	"net/http"

	"github.com/marian-search/marian/internal/auth/ratelimit"
)

// RateLimit returns middleware that enforces a per-key rate limit on
// requests matching guard, reading the KeyInfo RequireAPIKey stashed in
// context. Requests without key info pass through untouched.
func RateLimit(limiter *ratelimit.Limiter, guard func(*http.Request) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil || !guard(r) {
				next.ServeHTTP(w, r)
				return
			}

			info := GetKeyInfo(r.Context())
			if info == nil {
				next.ServeHTTP(w, r)
				return
			}

			if !limiter.Allow(ratelimit.ScopeAPIKey, info.ID, info.RateLimit) {
				w.Header().Set("Retry-After", "60")
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
