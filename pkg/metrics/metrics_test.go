package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

var testMetrics = New()

func TestNew_ConstructsAllCollectors(t *testing.T) {
	if testMetrics.HTTPRequestsTotal == nil || testMetrics.SearchQueriesTotal == nil || testMetrics.WorkerBacklog == nil {
		t.Fatalf("expected New() to populate every collector field")
	}
}

func TestHandler_ServesScrapeFormat(t *testing.T) {
	testMetrics.DocsIndexedTotal.Add(5)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.Len() == 0 {
		t.Errorf("expected a non-empty scrape body")
	}
}
