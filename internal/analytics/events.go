package analytics

import "time"

// EventType identifies the kind of analytics event.
type EventType string

const (
	EventSearch EventType = "search"
	EventSync   EventType = "sync"
)

// SearchEvent is emitted by the HTTP handler after each query and records
// the query, the resolved searchProperty scope, whether HITS ran, and
// whether a spelling correction was offered.
type SearchEvent struct {
	Type              EventType `json:"type"`
	Query             string    `json:"query"`
	SearchProperties  []string  `json:"search_properties"`
	UseHits           bool      `json:"use_hits"`
	Returned          int       `json:"returned"`
	SpellingCorrected bool      `json:"spelling_corrected"`
	LatencyMs         int64     `json:"latency_ms"`
	Timestamp         time.Time `json:"timestamp"`
	RequestID         string    `json:"request_id"`
}

// SyncEvent is emitted after each coordinator sync cycle completes.
type SyncEvent struct {
	Type          EventType `json:"type"`
	Tags          []string  `json:"tags"`
	DocumentCount int       `json:"document_count"`
	ErrorCount    int       `json:"error_count"`
	LatencyMs     int64     `json:"latency_ms"`
	Timestamp     time.Time `json:"timestamp"`
}
