package analytics

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/marian-search/marian/pkg/kafka"
)

type AggregatedStats struct {
	TotalSearches          int64        `json:"total_searches"`
	TotalSyncCycles        int64        `json:"total_sync_cycles"`
	TotalDocsIndexed       int64        `json:"total_docs_indexed"`
	SpellingCorrectedCount int64        `json:"spelling_corrected_count"`
	ZeroResultCount        int64        `json:"zero_result_count"`
	AvgLatencyMs           float64      `json:"avg_latency_ms"`
	P50LatencyMs           int64        `json:"p50_latency_ms"`
	P95LatencyMs           int64        `json:"p95_latency_ms"`
	P99LatencyMs           int64        `json:"p99_latency_ms"`
	TopQueries             []QueryCount `json:"top_queries"`
	ZeroResultQueries      []QueryCount `json:"zero_result_queries"`
	QueriesPerMinute       float64      `json:"queries_per_minute"`
}
type QueryCount struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}
type Aggregator struct {
	mu                sync.RWMutex
	totalSearches     atomic.Int64
	totalSyncCycles   atomic.Int64
	totalDocsIndexed  atomic.Int64
	spellingCorrected atomic.Int64
	zeroResults       atomic.Int64
	latencies         []int64
	queryCounts       map[string]int64
	zeroResultQueries map[string]int64
	startTime         time.Time

	consumer     *kafka.Consumer
	syncConsumer *kafka.Consumer
	logger       *slog.Logger
}

// NewAggregator builds an Aggregator that consumes search events from
// consumer. syncConsumer, if non-nil, is consumed concurrently and is
// expected to carry the per-manifest-tag sync-complete events published on
// their own topic, separately from the single aggregate SyncEvent that may
// still arrive on consumer's topic.
func NewAggregator(consumer *kafka.Consumer, syncConsumer *kafka.Consumer) *Aggregator {
	return &Aggregator{
		latencies:         make([]int64, 0, 10000),
		queryCounts:       make(map[string]int64),
		zeroResultQueries: make(map[string]int64),
		startTime:         time.Now(),
		consumer:          consumer,
		syncConsumer:      syncConsumer,
		logger:            slog.Default().With("component", "analytics-aggregator"),
	}
}
func (a *Aggregator) Start(ctx context.Context) error {
	a.logger.Info("analytics aggregator starting")
	if a.syncConsumer == nil {
		return a.consumer.Start(ctx)
	}
	errCh := make(chan error, 2)
	go func() { errCh <- a.consumer.Start(ctx) }()
	go func() { errCh <- a.syncConsumer.Start(ctx) }()
	if err := <-errCh; err != nil {
		return err
	}
	return <-errCh
}
func HandleEvent(agg *Aggregator) kafka.MessageHandler {
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[SearchEvent](value)
		if err != nil || event.Type == EventSync {
			syncEvent, syncErr := kafka.DecodeJSON[SyncEvent](value)
			if syncErr != nil {
				agg.logger.Error("failed to decode analytics event",
					"error", err,
				)
				return nil
			}
			agg.recordSyncEvent(syncEvent)
			return nil
		}
		agg.recordSearchEvent(event)
		return nil
	}
}

func (a *Aggregator) recordSearchEvent(event SearchEvent) {
	a.totalSearches.Add(1)

	if event.SpellingCorrected {
		a.spellingCorrected.Add(1)
	}

	if event.Returned == 0 {
		a.zeroResults.Add(1)
	}

	a.mu.Lock()
	a.latencies = append(a.latencies, event.LatencyMs)
	a.queryCounts[event.Query]++
	if event.Returned == 0 {
		a.zeroResultQueries[event.Query]++
	}
	a.mu.Unlock()
}

func (a *Aggregator) recordSyncEvent(event SyncEvent) {
	a.totalSyncCycles.Add(1)
	a.totalDocsIndexed.Add(int64(event.DocumentCount))
}
func (a *Aggregator) Stats() AggregatedStats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := AggregatedStats{
		TotalSearches:          a.totalSearches.Load(),
		TotalSyncCycles:        a.totalSyncCycles.Load(),
		TotalDocsIndexed:       a.totalDocsIndexed.Load(),
		SpellingCorrectedCount: a.spellingCorrected.Load(),
		ZeroResultCount:        a.zeroResults.Load(),
	}
	if len(a.latencies) > 0 {
		sorted := make([]int64, len(a.latencies))
		copy(sorted, a.latencies)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

		var sum int64
		for _, l := range sorted {
			sum += l
		}
		stats.AvgLatencyMs = float64(sum) / float64(len(sorted))
		stats.P50LatencyMs = percentile(sorted, 50)
		stats.P95LatencyMs = percentile(sorted, 95)
		stats.P99LatencyMs = percentile(sorted, 99)
	}
	stats.TopQueries = topN(a.queryCounts, 10)
	stats.ZeroResultQueries = topN(a.zeroResultQueries, 10)
	elapsed := time.Since(a.startTime).Minutes()
	if elapsed > 0 {
		stats.QueriesPerMinute = float64(stats.TotalSearches) / elapsed
	}

	return stats
}

func percentile(sorted []int64, pct int) int64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (pct * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func topN(counts map[string]int64, n int) []QueryCount {
	result := make([]QueryCount, 0, len(counts))
	for query, count := range counts {
		result = append(result, QueryCount{Query: query, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Count > result[j].Count
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}
