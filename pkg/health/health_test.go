package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestChecker_RunAggregatesUpStatus(t *testing.T) {
	c := NewChecker()
	c.Register("a", func(ctx context.Context) ComponentHealth { return ComponentHealth{Status: StatusUp} })
	c.Register("b", func(ctx context.Context) ComponentHealth { return ComponentHealth{Status: StatusUp} })

	report := c.Run(context.Background())
	if report.Status != StatusUp {
		t.Errorf("Status = %v, want %v", report.Status, StatusUp)
	}
	if len(report.Components) != 2 {
		t.Errorf("Components = %d, want 2", len(report.Components))
	}
}

func TestChecker_RunDownOverridesDegraded(t *testing.T) {
	c := NewChecker()
	c.Register("degraded", func(ctx context.Context) ComponentHealth { return ComponentHealth{Status: StatusDegraded} })
	c.Register("down", func(ctx context.Context) ComponentHealth { return ComponentHealth{Status: StatusDown} })

	report := c.Run(context.Background())
	if report.Status != StatusDown {
		t.Errorf("Status = %v, want %v", report.Status, StatusDown)
	}
}

func TestChecker_RunDegradedWhenNoneDown(t *testing.T) {
	c := NewChecker()
	c.Register("up", func(ctx context.Context) ComponentHealth { return ComponentHealth{Status: StatusUp} })
	c.Register("degraded", func(ctx context.Context) ComponentHealth { return ComponentHealth{Status: StatusDegraded} })

	report := c.Run(context.Background())
	if report.Status != StatusDegraded {
		t.Errorf("Status = %v, want %v", report.Status, StatusDegraded)
	}
}

func TestChecker_ReadyHandlerReturns503WhenDown(t *testing.T) {
	c := NewChecker()
	c.Register("down", func(ctx context.Context) ComponentHealth { return ComponentHealth{Status: StatusDown} })

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	rec := httptest.NewRecorder()
	c.ReadyHandler()(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestChecker_LiveHandlerAlwaysOK(t *testing.T) {
	c := NewChecker()
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()
	c.LiveHandler()(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
