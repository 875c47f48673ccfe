package httpapi

import (
	"net/http"

	"github.com/marian-search/marian/internal/auth/apikey"
	"github.com/marian-search/marian/internal/auth/ratelimit"
	httpmw "github.com/marian-search/marian/internal/httpapi/middleware"
	"github.com/marian-search/marian/pkg/metrics"
	pkgmw "github.com/marian-search/marian/pkg/middleware"
)

// isRefresh guards POST /refresh: the only endpoint requiring an API key
// and subject to per-key rate limiting (§6).
func isRefresh(r *http.Request) bool {
	return r.Method == http.MethodPost && r.URL.Path == "/refresh"
}

// NewRouter builds Marian's full HTTP handler.
//
// Route table:
//
//	GET  /search   → query execution (§4.6)
//	GET  /status   → coordinator/pool status (§6)
//	POST /refresh  → schedule a manifest sync cycle (§4.8), API-key guarded
//
// Middleware chain (outermost first):
//
//	RequestID → CORS → Metrics → Auth → RateLimit → mux
func NewRouter(h *Handler, validator *apikey.Validator, limiter *ratelimit.Limiter, m *metrics.Metrics) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /search", h.Search)
	mux.HandleFunc("GET /status", h.Status)
	mux.HandleFunc("POST /refresh", h.Refresh)
	mux.Handle("GET /metrics", metrics.Handler())

	var chain http.Handler = mux
	chain = httpmw.RateLimit(limiter, isRefresh)(chain)
	chain = httpmw.RequireAPIKey(validator, isRefresh)(chain)
	if m != nil {
		chain = pkgmw.Metrics(m)(chain)
	}
	chain = httpmw.CORS(httpmw.DefaultCORSConfig())(chain)
	chain = pkgmw.RequestID()(chain)

	return chain
}
