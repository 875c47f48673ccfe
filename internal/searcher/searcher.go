// Package searcher is the query-to-results facade (§4.6): it resolves
// searchProperty aliases, parses the query, assigns admission and
// degradation policy, dispatches to the worker pool, and optionally
// attaches spelling corrections. Grounded on internal/searcher/executor/
// sharded.go's Execute orchestration (fan out to shards, merge, rank, log
// a structured summary), reworked here from sharded fan-out to
// single-worker dispatch against the balancing pool, and on
// internal/searcher/handler/handler.go's wire-stable-error idiom.
package searcher

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/marian-search/marian/internal/cache"
	"github.com/marian-search/marian/internal/coordinator"
	"github.com/marian-search/marian/internal/query"
	"github.com/marian-search/marian/internal/spell"
	"github.com/marian-search/marian/internal/worker"
	apperrors "github.com/marian-search/marian/pkg/errors"
)

// Result is one ranked document, shaped for the wire (§6).
type Result struct {
	Title   string `json:"title"`
	Preview string `json:"preview"`
	URL     string `json:"url"`
}

// Response is the full /search response body (§6).
type Response struct {
	Results             []Result          `json:"results"`
	SpellingCorrections map[string]string `json:"spellingCorrections"`
}

// Facade is the query-to-results entry point used by the HTTP layer.
type Facade struct {
	coordinator  *coordinator.Coordinator
	cache        *cache.QueryCache[Response]
	speller      spell.Corrector
	maximumTerms int
	logger       *slog.Logger
}

// New builds a Facade. qcache and speller may be nil to disable caching and
// spell correction respectively.
func New(coord *coordinator.Coordinator, qcache *cache.QueryCache[Response], speller spell.Corrector, maximumTerms int) *Facade {
	if maximumTerms <= 0 {
		maximumTerms = query.MaximumTerms
	}
	if speller == nil {
		speller = spell.NoOp{}
	}
	return &Facade{
		coordinator:  coord,
		cache:        qcache,
		speller:      speller,
		maximumTerms: maximumTerms,
		logger:       slog.Default().With("component", "searcher"),
	}
}

// Search runs the full §4.6 algorithm: still-indexing check, alias
// resolution, query parsing with the MAXIMUM_TERMS guard, filter-predicate
// assignment (delegated to the chosen worker, so it always sees its own
// index generation), admission/degradation against the pool, and optional
// spelling-correction attachment.
func (f *Facade) Search(ctx context.Context, rawQuery string, searchProperties []string, useHits bool) (*Response, error) {
	if !f.coordinator.AnyIndexed() {
		return nil, apperrors.New(apperrors.ErrStillIndexing, 503, "index is not yet installed")
	}

	resolved := f.resolveProperties(searchProperties)

	q := query.Parse(rawQuery)
	if len(q.Terms) == 0 && len(q.Phrases) == 0 {
		return nil, apperrors.New(apperrors.ErrEmptyQuery, 400, "query must not be empty")
	}
	if len(q.Terms) > f.maximumTerms {
		return nil, apperrors.New(apperrors.ErrQueryTooLong, 400,
			fmt.Sprintf("query has %d terms, maximum is %d", len(q.Terms), f.maximumTerms))
	}

	cacheKey := cache.BuildKey(rawQuery, strings.Join(resolved, ","), strconv.FormatBool(useHits))
	if f.cache != nil {
		resp, hit, err := f.cache.GetOrCompute(ctx, cacheKey, func() (Response, error) {
			return f.execute(ctx, q, resolved, useHits)
		})
		if err != nil {
			return nil, err
		}
		f.logger.Info("search complete", "terms", len(q.Terms), "phrases", len(q.Phrases),
			"results", len(resp.Results), "cache_hit", hit)
		return &resp, nil
	}

	resp, err := f.execute(ctx, q, resolved, useHits)
	if err != nil {
		return nil, err
	}
	f.logger.Info("search complete", "terms", len(q.Terms), "phrases", len(q.Phrases), "results", len(resp.Results))
	return &resp, nil
}

func (f *Facade) resolveProperties(searchProperties []string) []string {
	seen := make(map[string]struct{}, len(searchProperties))
	resolved := make([]string, 0, len(searchProperties))
	for _, tag := range searchProperties {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		canonical := f.coordinator.ResolveAlias(tag)
		if _, ok := seen[canonical]; ok {
			continue
		}
		seen[canonical] = struct{}{}
		resolved = append(resolved, canonical)
	}
	return resolved
}

// execute dispatches the parsed query to the worker pool, applying the
// backlog-based admission and degradation policy (§4.7), then optionally
// attaches spelling corrections (§4.6 step 6).
func (f *Facade) execute(ctx context.Context, q *query.Query, searchProperties []string, useHits bool) (Response, error) {
	pool := f.coordinator.Pool()
	w, err := pool.Get()
	if err != nil {
		return Response{}, err
	}

	backlog := w.Backlog()
	if backlog > int64(pool.MaximumBacklog()) {
		return Response{}, apperrors.New(apperrors.ErrBacklogExceeded, 503, "worker backlog exceeded")
	}
	effectiveUseHits := useHits
	if backlog > int64(pool.WarningBacklog()) {
		effectiveUseHits = false
	}

	reply, err := w.Search(ctx, worker.SearchRequest{
		Query:            q,
		QueryTerms:       q.TermsOrdered,
		UseHits:          effectiveUseHits,
		SearchProperties: searchProperties,
	})
	if err != nil {
		return Response{}, err
	}

	results := make([]Result, 0, len(reply.Results))
	for _, r := range reply.Results {
		results = append(results, Result{Title: r.Title, Preview: r.Preview, URL: r.URL})
	}

	resp := Response{Results: results, SpellingCorrections: map[string]string{}}
	if f.needsSpellCheck(reply.Results) {
		for _, term := range q.TermsOrdered {
			if suggestion, ok := f.speller.Suggest(ctx, term); ok && suggestion != term {
				resp.SpellingCorrections[term] = suggestion
			}
		}
	}
	return resp, nil
}

// needsSpellCheck implements §4.6 step 6's trigger: no results, or a top
// score at or below 0.6.
func (f *Facade) needsSpellCheck(results []worker.SearchResult) bool {
	if len(results) == 0 {
		return true
	}
	return results[0].Score <= 0.6
}
