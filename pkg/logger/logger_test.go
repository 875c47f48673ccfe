package logger

import (
	"context"
	"log/slog"
	"testing"
)

func TestWithRequestID_RoundTripsThroughFromContext(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-123")
	logger := FromContext(ctx)
	if logger == nil {
		t.Fatalf("expected a non-nil logger")
	}
}

func TestFromContext_NoRequestIDStillReturnsLogger(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatalf("expected a non-nil logger even without a request id in context")
	}
}

func TestParseLevel_MapsKnownStrings(t *testing.T) {
	cases := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"unknown", slog.LevelInfo},
	}
	for _, c := range cases {
		if got := parseLevel(c.in); got != c.want {
			t.Errorf("parseLevel(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}
