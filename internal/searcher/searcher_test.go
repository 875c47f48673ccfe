package searcher

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/marian-search/marian/internal/coordinator"
	"github.com/marian-search/marian/internal/ftsindex"
	"github.com/marian-search/marian/internal/manifest"
	"github.com/marian-search/marian/internal/worker"
	apperrors "github.com/marian-search/marian/pkg/errors"
)

type fakeFetcher struct {
	entries []manifest.Entry
}

func (f *fakeFetcher) Fetch(ctx context.Context) ([]manifest.Entry, []error) {
	return f.entries, nil
}

func fieldOrder() []ftsindex.FieldConfig {
	return []ftsindex.FieldConfig{{Name: "title", Weight: 10}, {Name: "text", Weight: 1}}
}

func readyCoordinator(t *testing.T, poolSize int) *coordinator.Coordinator {
	t.Helper()
	fetcher := &fakeFetcher{entries: []manifest.Entry{{
		Body:           `{"url":"https://example.com","includeInGlobalSearch":true,"documents":[{"slug":"a","title":"Alpha Guide","text":"alpha is a greek letter used throughout mathematics"}]}`,
		SearchProperty: "docs",
	}}}
	pool := worker.New(poolSize, 20, 15)
	c := coordinator.New(fetcher, pool, fieldOrder(), nil, nil, nil)
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return c
}

func TestSearch_StillIndexingBeforeAnySync(t *testing.T) {
	pool := worker.New(1, 20, 15)
	c := coordinator.New(&fakeFetcher{}, pool, fieldOrder(), nil, nil, nil)
	f := New(c, nil, nil, 0)

	_, err := f.Search(context.Background(), "alpha", nil, false)
	if !errors.Is(err, apperrors.ErrStillIndexing) {
		t.Fatalf("expected ErrStillIndexing, got %v", err)
	}
}

func TestSearch_EmptyQueryRejected(t *testing.T) {
	c := readyCoordinator(t, 1)
	f := New(c, nil, nil, 0)

	_, err := f.Search(context.Background(), "", nil, false)
	if !errors.Is(err, apperrors.ErrEmptyQuery) {
		t.Fatalf("expected ErrEmptyQuery, got %v", err)
	}
}

func TestSearch_TooManyTermsRejected(t *testing.T) {
	c := readyCoordinator(t, 1)
	f := New(c, nil, nil, 2)

	_, err := f.Search(context.Background(), "one two three", nil, false)
	if !errors.Is(err, apperrors.ErrQueryTooLong) {
		t.Fatalf("expected ErrQueryTooLong, got %v", err)
	}
}

func TestSearch_ReturnsMatchingResult(t *testing.T) {
	c := readyCoordinator(t, 1)
	f := New(c, nil, nil, 0)

	resp, err := f.Search(context.Background(), "alpha", nil, false)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(resp.Results) == 0 {
		t.Fatalf("expected at least one result for a matching query")
	}
	if !strings.Contains(resp.Results[0].Title, "Alpha") {
		t.Errorf("top result title = %q, want it to mention Alpha", resp.Results[0].Title)
	}
}

func TestSearch_NoResultsTriggersSpellCorrectionAttempt(t *testing.T) {
	c := readyCoordinator(t, 1)
	f := New(c, nil, nil, 0)

	resp, err := f.Search(context.Background(), "zzznomatchzzz", nil, false)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(resp.Results) != 0 {
		t.Fatalf("expected no results for an unknown term")
	}
	if resp.SpellingCorrections == nil {
		t.Errorf("expected a non-nil spelling corrections map even with NoOp speller")
	}
}

func TestSearch_PoolUnavailableWhenAllWorkersSuspended(t *testing.T) {
	c := readyCoordinator(t, 1)
	for _, w := range c.Pool().Workers() {
		c.Pool().Suspend(w)
	}
	f := New(c, nil, nil, 0)

	_, err := f.Search(context.Background(), "alpha", nil, false)
	if !errors.Is(err, apperrors.ErrPoolUnavailable) {
		t.Fatalf("expected ErrPoolUnavailable, got %v", err)
	}
}
