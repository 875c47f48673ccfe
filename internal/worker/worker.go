// Package worker implements the balancing worker pool (§4.7) that isolates
// index evaluation from request intake: each worker owns a complete,
// independent copy of the inverted index and communicates with the
// front-end strictly by message passing (§5), mirroring the teacher's
// internal/indexer/shard/router.go (one independent engine per shard)
// reworked from a direct-call router into a channel-driven pool, since §5
// requires no shared mutable state between front-end and workers.
package worker

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/marian-search/marian/internal/ftsindex"
	"github.com/marian-search/marian/internal/query"
	"github.com/marian-search/marian/internal/ranker"
)

// State models the worker lifecycle state machine (§9): Idle, Busy,
// Suspended, Dead.
type State int32

const (
	StateIdle State = iota
	StateBusy
	StateSuspended
	StateDead
)

// Snapshot is the manifest data a coordinator sync cycle sends a worker to
// rebuild its index from (§4.8 step 3). Documents and FieldOrder are
// shared read-only across every worker's rebuild in a sync cycle.
type Snapshot struct {
	FieldOrder []ftsindex.FieldConfig
	Documents  []ftsindex.Document
	AliasTable map[string]string
	Tags       []string
}

// SearchRequest is one parsed query dispatched to a worker. SearchProperties
// holds already-alias-resolved canonical tags; the worker builds the
// query's filter predicate itself against its own index generation rather
// than accepting a closure, so a concurrent rebuild can never hand a filter
// the wrong generation's documents (§4.6 step 4).
type SearchRequest struct {
	Query            *query.Query
	QueryTerms       []string
	UseHits          bool
	SearchProperties []string
}

// SearchResult is one ranked document, ready for the front-end to serialize.
type SearchResult struct {
	DocID   int
	Title   string
	Preview string
	URL     string
	Score   float64
}

// SearchReply is a worker's reply to a SearchRequest.
type SearchReply struct {
	Results []SearchResult
}

type searchCmd struct {
	req   SearchRequest
	reply chan SearchReply
}

type rebuildCmd struct {
	snapshot Snapshot
	done     chan error
}

// Worker owns one index generation and processes one request at a time,
// run to completion without yielding (§5).
type Worker struct {
	id     int
	inbox  chan any
	logger *slog.Logger

	backlog   atomic.Int64
	state     atomic.Int32
	suspended atomic.Bool
	dead      atomic.Bool

	idx        atomic.Pointer[ftsindex.FTSIndex]
	aliases    atomic.Pointer[map[string]string]
	generation atomic.Int64

	lastCrash time.Time
}

func newWorker(id int) *Worker {
	w := &Worker{id: id, inbox: make(chan any, 64), logger: slog.Default().With("component", "worker", "worker_id", id)}
	w.state.Store(int32(StateIdle))
	empty := make(map[string]string)
	w.aliases.Store(&empty)
	return w
}

// ID returns the worker's declaration-order index.
func (w *Worker) ID() int { return w.id }

// Backlog returns the number of in-flight requests sent to this worker and
// not yet replied-to.
func (w *Worker) Backlog() int64 { return w.backlog.Load() }

// Suspended reports whether the worker is currently ineligible for new
// requests.
func (w *Worker) Suspended() bool { return w.suspended.Load() }

// Dead reports whether the worker has been marked dead after repeated
// restart failures (§7).
func (w *Worker) Dead() bool { return w.dead.Load() }

// Generation returns the install count of index rebuilds this worker has
// completed.
func (w *Worker) Generation() int64 { return w.generation.Load() }

// Indexed reports whether the worker has installed at least one index
// generation.
func (w *Worker) Indexed() bool { return w.idx.Load() != nil }

// Alias resolves a requested searchProperty tag through this worker's
// alias table, returning the canonical tag.
func (w *Worker) Alias(tag string) string {
	aliases := w.aliases.Load()
	if aliases == nil {
		return tag
	}
	if canonical, ok := (*aliases)[tag]; ok {
		return canonical
	}
	return tag
}

// Search dispatches req to the worker and blocks for its reply or ctx
// cancellation. The caller is responsible for backlog-based admission
// control (§4.7) before calling Search.
func (w *Worker) Search(ctx context.Context, req SearchRequest) (SearchReply, error) {
	w.backlog.Add(1)
	defer w.backlog.Add(-1)

	reply := make(chan SearchReply, 1)
	select {
	case w.inbox <- searchCmd{req: req, reply: reply}:
	case <-ctx.Done():
		return SearchReply{}, ctx.Err()
	}
	select {
	case r := <-reply:
		return r, nil
	case <-ctx.Done():
		return SearchReply{}, ctx.Err()
	}
}

// Rebuild sends the worker a manifest snapshot to build a fresh index
// generation from, synchronously. The caller suspends the worker before
// calling Rebuild and resumes it after (§4.8 step 3).
func (w *Worker) Rebuild(ctx context.Context, snapshot Snapshot) error {
	done := make(chan error, 1)
	select {
	case w.inbox <- rebuildCmd{snapshot: snapshot, done: done}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run starts the worker's message loop, restarting it on panic up to a
// minimum interval threshold, after which the worker is marked Dead (§7's
// "Worker not running" supervisory contract).
func (w *Worker) Run(minRestartInterval time.Duration) {
	for {
		if w.dead.Load() {
			return
		}
		crashed := w.runOnce()
		if !crashed {
			return
		}
		now := time.Now()
		if !w.lastCrash.IsZero() && now.Sub(w.lastCrash) < minRestartInterval {
			w.dead.Store(true)
			w.state.Store(int32(StateDead))
			w.logger.Error("worker marked dead after repeated restart failures")
			return
		}
		w.lastCrash = now
		w.logger.Warn("worker restarting after crash")
	}
}

func (w *Worker) runOnce() (crashed bool) {
	defer func() {
		if r := recover(); r != nil {
			crashed = true
			w.logger.Error("worker panic", "recovered", r)
		}
	}()
	for cmd := range w.inbox {
		switch c := cmd.(type) {
		case searchCmd:
			w.state.Store(int32(StateBusy))
			c.reply <- w.executeSearch(c.req)
			w.state.Store(int32(StateIdle))
		case rebuildCmd:
			w.state.Store(int32(StateBusy))
			c.done <- w.executeRebuild(c.snapshot)
			w.state.Store(int32(StateIdle))
		}
	}
	return false
}

func (w *Worker) executeSearch(req SearchRequest) SearchReply {
	idx := w.idx.Load()
	if idx == nil {
		return SearchReply{}
	}
	req.Query.Filter = buildFilter(idx, req.SearchProperties)
	matches := ranker.Rank(idx, req.Query, req.QueryTerms, req.UseHits)
	results := make([]SearchResult, 0, len(matches))
	for _, m := range matches {
		doc, ok := idx.Document(m.DocID)
		if !ok {
			continue
		}
		results = append(results, SearchResult{
			DocID:   m.DocID,
			Title:   doc.Title,
			Preview: doc.Preview,
			URL:     doc.URL,
			Score:   m.Score,
		})
	}
	return SearchReply{Results: results}
}

// buildFilter assigns the query's docID predicate (§4.6 step 4): when
// searchProperties is non-empty, accept docs whose searchProperty is in the
// set; otherwise accept docs with IncludeInGlobalSearch set.
func buildFilter(idx *ftsindex.FTSIndex, searchProperties []string) func(int) bool {
	if len(searchProperties) == 0 {
		return func(docID int) bool {
			doc, ok := idx.Document(docID)
			return ok && doc.IncludeInGlobalSearch
		}
	}
	set := make(map[string]struct{}, len(searchProperties))
	for _, p := range searchProperties {
		set[p] = struct{}{}
	}
	return func(docID int) bool {
		doc, ok := idx.Document(docID)
		if !ok {
			return false
		}
		_, inSet := set[doc.SearchProperty]
		return inSet
	}
}

func (w *Worker) executeRebuild(snapshot Snapshot) error {
	idx := ftsindex.New(snapshot.FieldOrder)
	for _, doc := range snapshot.Documents {
		idx.Add(doc)
	}
	idx.Finalize()
	w.idx.Store(idx)
	aliases := snapshot.AliasTable
	if aliases == nil {
		aliases = make(map[string]string)
	}
	w.aliases.Store(&aliases)
	w.generation.Add(1)
	return nil
}
