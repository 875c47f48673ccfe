package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/marian-search/marian/internal/auth/apikey"
	"github.com/marian-search/marian/internal/coordinator"
	"github.com/marian-search/marian/internal/ftsindex"
	httpmw "github.com/marian-search/marian/internal/httpapi/middleware"
	"github.com/marian-search/marian/internal/manifest"
	"github.com/marian-search/marian/internal/searcher"
	"github.com/marian-search/marian/internal/worker"
)

type fakeFetcher struct {
	entries []manifest.Entry
}

func (f *fakeFetcher) Fetch(ctx context.Context) ([]manifest.Entry, []error) {
	return f.entries, nil
}

func readyHandler(t *testing.T) *Handler {
	t.Helper()
	fetcher := &fakeFetcher{entries: []manifest.Entry{{
		Body:           `{"url":"https://example.com","includeInGlobalSearch":true,"documents":[{"slug":"a","title":"Alpha Guide","text":"alpha content for testing"}]}`,
		SearchProperty: "docs",
	}}}
	pool := worker.New(1, 20, 15)
	coord := coordinator.New(fetcher, pool, []ftsindex.FieldConfig{{Name: "title", Weight: 10}, {Name: "text", Weight: 1}}, nil, nil, nil)
	if err := coord.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	facade := searcher.New(coord, nil, nil, 0)
	return New(facade, coord, nil, nil)
}

func TestHandler_Search_ReturnsResults(t *testing.T) {
	h := readyHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/search?q=alpha", nil)
	rec := httptest.NewRecorder()

	h.Search(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}
	var resp searcher.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Results) == 0 {
		t.Errorf("expected at least one result")
	}
}

func TestHandler_Search_EmptyQueryReturns400(t *testing.T) {
	h := readyHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/search?q=", nil)
	rec := httptest.NewRecorder()

	h.Search(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandler_Status_OKWhenNoWorkerDead(t *testing.T) {
	h := readyHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()

	h.Status(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Header().Get("Last-Modified") == "" {
		t.Errorf("expected Last-Modified header to be set after a sync")
	}
}

func TestHandler_Status_NotModifiedWhenIfModifiedSinceIsRecent(t *testing.T) {
	h := readyHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	h.Status(rec, req)
	lastModified := rec.Header().Get("Last-Modified")

	req2 := httptest.NewRequest(http.MethodGet, "/status", nil)
	req2.Header.Set("If-Modified-Since", lastModified)
	rec2 := httptest.NewRecorder()
	h.Status(rec2, req2)

	if rec2.Code != http.StatusNotModified {
		t.Errorf("status = %d, want 304", rec2.Code)
	}
}

func TestHandler_Refresh_SchedulesSyncAndReturns202(t *testing.T) {
	h := readyHandler(t)
	req := httptest.NewRequest(http.MethodPost, "/refresh", nil)
	rec := httptest.NewRecorder()

	h.Refresh(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Errorf("status = %d, want 202", rec.Code)
	}
}

func TestHandler_Refresh_RejectsPropertyOutsideKeyClaim(t *testing.T) {
	h := readyHandler(t)
	ctx := httpmw.WithKeyInfo(context.Background(), &apikey.KeyInfo{ID: "k1", AllowedProperties: []string{"blog"}})
	req := httptest.NewRequest(http.MethodPost, "/refresh?property=docs", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	h.Refresh(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestHandler_Refresh_AllowsPropertyInsideKeyClaim(t *testing.T) {
	h := readyHandler(t)
	ctx := httpmw.WithKeyInfo(context.Background(), &apikey.KeyInfo{ID: "k1", AllowedProperties: []string{"docs"}})
	req := httptest.NewRequest(http.MethodPost, "/refresh?property=docs", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	h.Refresh(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Errorf("status = %d, want 202", rec.Code)
	}
}

