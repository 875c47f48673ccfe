package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/marian-search/marian/internal/auth/ratelimit"
)

func TestNewRouter_SearchRouteReachableThroughFullChain(t *testing.T) {
	h := readyHandler(t)
	router := NewRouter(h, nil, ratelimit.New(0), nil)

	req := httptest.NewRequest(http.MethodGet, "/search?q=alpha", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Errorf("expected RequestID middleware to set X-Request-ID")
	}
}

func TestNewRouter_RefreshOpenWhenNoValidatorConfigured(t *testing.T) {
	h := readyHandler(t)
	router := NewRouter(h, nil, ratelimit.New(0), nil)

	req := httptest.NewRequest(http.MethodPost, "/refresh", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202 when no validator guards /refresh", rec.Code)
	}
}

func TestNewRouter_CORSPreflightAnswered(t *testing.T) {
	h := readyHandler(t)
	router := NewRouter(h, nil, ratelimit.New(0), nil)

	req := httptest.NewRequest(http.MethodOptions, "/search", nil)
	req.Header.Set("Origin", "https://example.com")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204 for CORS preflight", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "https://example.com" {
		t.Errorf("expected Access-Control-Allow-Origin to echo the request origin")
	}
}
