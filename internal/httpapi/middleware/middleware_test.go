package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/marian-search/marian/internal/auth/apikey"
	"github.com/marian-search/marian/internal/auth/ratelimit"
)

func alwaysGuard(*http.Request) bool { return true }
func neverGuard(*http.Request) bool  { return false }

func TestCORS_SetsHeadersForAllowedOrigin(t *testing.T) {
	cfg := DefaultCORSConfig()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://example.com")
	rec := httptest.NewRecorder()
	CORS(cfg)(next).ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://example.com" {
		t.Errorf("Access-Control-Allow-Origin = %q, want echoed origin", got)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestCORS_PreflightAnsweredWithNoContent(t *testing.T) {
	cfg := DefaultCORSConfig()
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })

	req := httptest.NewRequest(http.MethodOptions, "/refresh", nil)
	req.Header.Set("Origin", "https://example.com")
	rec := httptest.NewRecorder()
	CORS(cfg)(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if called {
		t.Errorf("expected preflight to short-circuit before reaching next handler")
	}
}

func TestCORS_NoOriginHeaderPassesThroughUntouched(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	CORS(DefaultCORSConfig())(next).ServeHTTP(rec, req)

	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Errorf("expected no CORS header on a same-origin request")
	}
}

func TestRequireAPIKey_NilValidatorPassesThrough(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })

	req := httptest.NewRequest(http.MethodPost, "/refresh", nil)
	rec := httptest.NewRecorder()
	RequireAPIKey(nil, alwaysGuard)(next).ServeHTTP(rec, req)

	if !called {
		t.Errorf("expected request to pass through when validator is nil")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestRequireAPIKey_GuardFalsePassesThroughEvenWithValidator(t *testing.T) {
	v := apikey.NewValidator(nil)
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })

	req := httptest.NewRequest(http.MethodGet, "/search", nil)
	rec := httptest.NewRecorder()
	RequireAPIKey(v, neverGuard)(next).ServeHTTP(rec, req)

	if !called {
		t.Errorf("expected request outside the guard to pass through")
	}
}

func TestRequireAPIKey_MissingKeyRejected(t *testing.T) {
	v := apikey.NewValidator(nil)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("next handler should not be reached without an api key")
	})

	req := httptest.NewRequest(http.MethodPost, "/refresh", nil)
	rec := httptest.NewRecorder()
	RequireAPIKey(v, alwaysGuard)(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestGetKeyInfo_NilWhenUnset(t *testing.T) {
	if GetKeyInfo(context.Background()) != nil {
		t.Errorf("expected nil KeyInfo on a bare context")
	}
}

func TestRateLimit_NilLimiterPassesThrough(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })

	req := httptest.NewRequest(http.MethodPost, "/refresh", nil)
	rec := httptest.NewRecorder()
	RateLimit(nil, alwaysGuard)(next).ServeHTTP(rec, req)

	if !called {
		t.Errorf("expected request to pass through when limiter is nil")
	}
}

func TestRateLimit_NoKeyInfoPassesThrough(t *testing.T) {
	limiter := ratelimit.New(time.Minute)
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })

	req := httptest.NewRequest(http.MethodPost, "/refresh", nil)
	rec := httptest.NewRecorder()
	RateLimit(limiter, alwaysGuard)(next).ServeHTTP(rec, req)

	if !called {
		t.Errorf("expected request with no KeyInfo in context to pass through")
	}
}

func TestRateLimit_DeniesOverLimitKey(t *testing.T) {
	limiter := ratelimit.New(time.Minute)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	handler := RateLimit(limiter, alwaysGuard)(next)

	ctx := context.WithValue(context.Background(), apiKeyInfoKey, &apikey.KeyInfo{ID: "key-1", RateLimit: 1})
	req := httptest.NewRequest(http.MethodPost, "/refresh", nil).WithContext(ctx)

	rec1 := httptest.NewRecorder()
	handler.ServeHTTP(rec1, req)
	if rec1.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", rec1.Code)
	}

	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, req)
	if rec2.Code != http.StatusTooManyRequests {
		t.Errorf("second request status = %d, want 429", rec2.Code)
	}
}
