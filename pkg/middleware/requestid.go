package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/marian-search/marian/pkg/logger"
)

type requestIDKey struct{}

// RequestID returns middleware that assigns each request a UUID (reusing an
// inbound X-Request-ID header if present), stores it in the context for
// logger.FromContext and tracing.StartSpan, and echoes it back on the
// response.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get("X-Request-ID")
			if id == "" {
				id = uuid.NewString()
			}
			ctx := context.WithValue(r.Context(), requestIDKey{}, id)
			ctx = logger.WithRequestID(ctx, id)
			w.Header().Set("X-Request-ID", id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetRequestID returns the request ID stashed by RequestID, or "" if none.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}
