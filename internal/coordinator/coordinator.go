// Package coordinator ingests manifests, triggers worker rebuilds, and
// exposes sync status (§4.8). Grounded on cmd/searcher/main.go's
// init/wiring/shutdown sequencing and internal/ingestion/publisher/
// publisher.go's InTx-wrapped persistence pattern, adapted here from
// per-document inserts to a per-sync-run audit row (see audit.go).
package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/marian-search/marian/internal/analytics"
	"github.com/marian-search/marian/internal/analytics/collector"
	"github.com/marian-search/marian/internal/ftsindex"
	"github.com/marian-search/marian/internal/manifest"
	"github.com/marian-search/marian/internal/worker"
	apperrors "github.com/marian-search/marian/pkg/errors"
)

// LastSync summarizes the most recent completed sync cycle (§6 /status).
type LastSync struct {
	Errors   []string  `json:"errors"`
	Finished time.Time `json:"finished"`
}

// Status is the coordinator's full published state (§6 /status).
type Status struct {
	Manifests []string `json:"manifests"`
	LastSync  LastSync `json:"lastSync"`
	Workers   []string `json:"workers"`
}

// Coordinator holds the manifest source, the fetcher, and the worker pool,
// and drives the sync cycle (§4.8). The only process-wide mutable state it
// owns (manifest list, lastSyncDate) is written only from Load (§5).
type Coordinator struct {
	fetcher    manifest.Fetcher
	pool       *worker.Pool
	fieldOrder []ftsindex.FieldConfig
	audit      *Auditor
	collector  *analytics.Collector
	syncBatch  *collector.BatchCollector
	logger     *slog.Logger

	indexing atomic.Bool

	mu           sync.RWMutex
	manifestTags []string
	aliasTable   map[string]string
	lastSync     LastSync
	lastSyncDate time.Time
}

// New builds a Coordinator over the given fetcher, worker pool, and field
// configuration. audit and events may be nil to disable sync-history
// persistence and analytics publishing respectively. syncBatch, if non-nil,
// additionally publishes one sync-complete event per manifest tag to its own
// Kafka topic rather than folding tag-level detail into a single aggregate
// SyncEvent.
func New(fetcher manifest.Fetcher, pool *worker.Pool, fieldOrder []ftsindex.FieldConfig, audit *Auditor, events *analytics.Collector, syncBatch *collector.BatchCollector) *Coordinator {
	return &Coordinator{
		fetcher:    fetcher,
		pool:       pool,
		fieldOrder: fieldOrder,
		audit:      audit,
		collector:  events,
		syncBatch:  syncBatch,
		logger:     slog.Default().With("component", "coordinator"),
	}
}

// Load runs one full sync cycle: fetch manifests, parse them, and rebuild
// every worker's index in turn (§4.8). Every manifest is always synced in
// one cycle (workers hold one full index generation, not a per-property
// partial one); an apikey.KeyInfo.AllowedProperties claim gates who may
// trigger a cycle via POST /refresh, not which manifests it covers.
func (c *Coordinator) Load(ctx context.Context) error {
	if !c.indexing.CompareAndSwap(false, true) {
		return apperrors.New(apperrors.ErrAlreadyIndexing, 200, "a sync is already in progress")
	}
	defer c.indexing.Store(false)

	started := time.Now()
	entries, fetchErrs := c.fetcher.Fetch(ctx)
	if len(entries) == 0 && len(fetchErrs) > 0 {
		err := fmt.Errorf("fetching manifests: %v", fetchErrs)
		c.logger.Error("manifest fetch failed", "error", err)
		return err
	}

	var syncErrors []string
	for _, e := range fetchErrs {
		syncErrors = append(syncErrors, e.Error())
	}

	aliasTable := make(map[string]string)
	var tags []string
	var docs []ftsindex.Document

	for _, entry := range entries {
		m, err := manifest.Parse(entry)
		if err != nil {
			syncErrors = append(syncErrors, fmt.Sprintf("%s: %v", entry.SearchProperty, err))
			continue
		}
		tags = append(tags, m.SearchProperty)
		aliasTable[m.SearchProperty] = m.SearchProperty
		for _, alias := range m.Aliases {
			aliasTable[alias] = m.SearchProperty
		}
		mdocs, dropped := manifestToDocuments(m)
		for _, d := range dropped {
			syncErrors = append(syncErrors, fmt.Sprintf("%s: %s", m.SearchProperty, d))
		}
		docs = append(docs, mdocs...)
	}

	snapshot := worker.Snapshot{
		FieldOrder: c.fieldOrder,
		Documents:  docs,
		AliasTable: aliasTable,
		Tags:       tags,
	}

	for _, w := range c.pool.Workers() {
		c.pool.Suspend(w)
		if err := w.Rebuild(ctx, snapshot); err != nil {
			syncErrors = append(syncErrors, fmt.Sprintf("worker %d: %v", w.ID(), err))
		}
		c.pool.Resume(w)
		c.setLastSyncDate(time.Now())
	}

	finished := time.Now()
	c.mu.Lock()
	c.manifestTags = tags
	c.aliasTable = aliasTable
	c.lastSync = LastSync{Errors: syncErrors, Finished: finished}
	c.mu.Unlock()

	if c.audit != nil {
		if err := c.audit.Record(ctx, started, finished, tags, syncErrors); err != nil {
			c.logger.Error("sync-history audit write failed", "error", err)
		}
	}
	if c.collector != nil {
		c.collector.Track(analytics.SyncEvent{
			Type:          analytics.EventSync,
			Tags:          tags,
			DocumentCount: len(docs),
			ErrorCount:    len(syncErrors),
			LatencyMs:     finished.Sub(started).Milliseconds(),
			Timestamp:     finished.UTC(),
		})
	}
	if c.syncBatch != nil {
		for _, tag := range tags {
			c.syncBatch.Track(tag, analytics.SyncEvent{
				Type:      analytics.EventSync,
				Tags:      []string{tag},
				LatencyMs: finished.Sub(started).Milliseconds(),
				Timestamp: finished.UTC(),
			})
		}
	}

	c.logger.Info("sync cycle complete", "tags", len(tags), "documents", len(docs), "errors", len(syncErrors))
	return nil
}

func (c *Coordinator) setLastSyncDate(t time.Time) {
	c.mu.Lock()
	c.lastSyncDate = t
	c.mu.Unlock()
}

// LastSyncDate returns the timestamp of the most recent worker resume
// during a sync cycle.
func (c *Coordinator) LastSyncDate() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastSyncDate
}

// NotModifiedSince reports whether ifModifiedSince (at seconds precision)
// is at or after lastSyncDate, per §8 S8: Date(0) never qualifies because
// it predates any real sync.
func (c *Coordinator) NotModifiedSince(ifModifiedSince time.Time) bool {
	last := c.LastSyncDate()
	if last.IsZero() {
		return false
	}
	return ifModifiedSince.Unix() >= last.Unix()
}

// Status returns the coordinator's published state for GET /status.
func (c *Coordinator) Status() Status {
	c.mu.RLock()
	tags := append([]string(nil), c.manifestTags...)
	lastSync := c.lastSync
	c.mu.RUnlock()
	return Status{
		Manifests: tags,
		LastSync:  lastSync,
		Workers:   c.pool.GetStatus(),
	}
}

// Indexing reports whether a sync cycle is currently running.
func (c *Coordinator) Indexing() bool { return c.indexing.Load() }

// Pool exposes the underlying worker pool for the searcher facade.
func (c *Coordinator) Pool() *worker.Pool { return c.pool }

// ResolveAlias resolves a requested searchProperty tag through the
// published alias table (declared per-manifest, §4.6 step 2), returning the
// canonical tag unchanged if no alias is declared for it.
func (c *Coordinator) ResolveAlias(tag string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if canonical, ok := c.aliasTable[tag]; ok {
		return canonical
	}
	return tag
}

// AnyIndexed reports whether at least one worker has installed an index
// generation (§4.6 step 1: queries fail still-indexing until then).
func (c *Coordinator) AnyIndexed() bool {
	for _, w := range c.pool.Workers() {
		if w.Indexed() {
			return true
		}
	}
	return false
}

func manifestToDocuments(m *manifest.Manifest) (docs []ftsindex.Document, dropped []string) {
	valid, drop := manifest.ValidDocuments(m)
	dropped = drop
	docs = make([]ftsindex.Document, 0, len(valid))
	for _, d := range valid {
		docs = append(docs, ftsindex.Document{
			SearchProperty: m.SearchProperty,
			URL:            manifest.ResolveURL(m.URL, d.Slug),
			Fields: map[string]string{
				"title":    d.Title,
				"headings": d.JoinedHeadings(),
				"text":     d.Text,
				"tags":     d.Tags,
			},
			Links:                 d.Links,
			Weight:                d.WeightOrDefault(),
			Title:                 d.Title,
			Preview:               d.Preview,
			IncludeInGlobalSearch: m.IncludeInGlobalSearch,
		})
	}
	return docs, dropped
}
