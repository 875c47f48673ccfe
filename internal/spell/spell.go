// Package spell defines the external spelling-correction contract (§1: the
// dictionary loader is explicitly out of core scope) and a no-op reference
// implementation so the searcher facade has something to wire against.
package spell

import "context"

// Corrector suggests a single replacement for a query term. Implementations
// that load a real dictionary live outside the core engine.
type Corrector interface {
	// Suggest returns a replacement for term, or ("", false) if none is
	// available.
	Suggest(ctx context.Context, term string) (string, bool)
}

// NoOp never suggests a correction. It satisfies the contract so the
// searcher facade can run with spell correction disabled.
type NoOp struct{}

func (NoOp) Suggest(context.Context, string) (string, bool) { return "", false }
