package spell

import (
	"context"
	"testing"
)

func TestNoOp_NeverSuggests(t *testing.T) {
	var c Corrector = NoOp{}
	suggestion, ok := c.Suggest(context.Background(), "teh")
	if ok || suggestion != "" {
		t.Errorf("NoOp.Suggest() = (%q, %v), want (\"\", false)", suggestion, ok)
	}
}
