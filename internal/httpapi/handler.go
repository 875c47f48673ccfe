// Package httpapi serves Marian's three public endpoints (§6): GET
// /search, GET /status, and POST /refresh. Grounded on
// internal/searcher/handler/handler.go's shape (parse → cache → execute →
// metrics/analytics → JSON) and internal/gateway/router/router.go's
// middleware-chain construction, collapsed here into a single front end
// since Marian has no gateway/upstream split.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/marian-search/marian/internal/analytics"
	"github.com/marian-search/marian/internal/coordinator"
	httpmw "github.com/marian-search/marian/internal/httpapi/middleware"
	"github.com/marian-search/marian/internal/searcher"
	apperrors "github.com/marian-search/marian/pkg/errors"
	"github.com/marian-search/marian/pkg/metrics"
	"github.com/marian-search/marian/pkg/middleware"
	"github.com/marian-search/marian/pkg/tracing"
)

// Handler serves Marian's HTTP API.
type Handler struct {
	facade      *searcher.Facade
	coordinator *coordinator.Coordinator
	collector   *analytics.Collector
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

// New creates a Handler. collector and m may be nil to disable analytics
// and Prometheus instrumentation respectively.
func New(facade *searcher.Facade, coord *coordinator.Coordinator, collector *analytics.Collector, m *metrics.Metrics) *Handler {
	return &Handler{
		facade:      facade,
		coordinator: coord,
		collector:   collector,
		metrics:     m,
		logger:      slog.Default().With("component", "httpapi"),
	}
}

// Search handles GET /search?q=<query>&searchProperty=<csv>&useHits=<bool>.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	ctx, span := tracing.StartSpan(ctx, "search", requestID)
	defer func() {
		span.End()
		span.Log()
	}()

	q := r.URL.Query().Get("q")
	var searchProperties []string
	if raw := r.URL.Query().Get("searchProperty"); raw != "" {
		searchProperties = strings.Split(raw, ",")
	}
	useHits := true
	if raw := r.URL.Query().Get("useHits"); raw != "" {
		if parsed, err := strconv.ParseBool(raw); err == nil {
			useHits = parsed
		}
	}

	span.SetAttr("query", q)
	span.SetAttr("search_properties", searchProperties)
	span.SetAttr("use_hits", useHits)

	resp, err := h.facade.Search(ctx, q, searchProperties, useHits)
	latency := time.Since(start)

	if err != nil {
		h.recordSearchMetrics(wireErrorLabel(err), latency)
		h.logger.Warn("search rejected", "query", q, "error", err)
		writeError(w, apperrors.HTTPStatusCode(err), err.Error())
		return
	}

	h.recordSearchMetrics("ok", latency)
	span.SetAttr("results", len(resp.Results))
	span.SetAttr("latency_ms", latency.Milliseconds())

	h.logger.Info("search completed", "query", q, "results", len(resp.Results), "latency_ms", latency.Milliseconds())

	if h.collector != nil {
		h.collector.Track(analytics.SearchEvent{
			Type:              analytics.EventSearch,
			Query:             q,
			SearchProperties:  searchProperties,
			UseHits:           useHits,
			Returned:          len(resp.Results),
			SpellingCorrected: len(resp.SpellingCorrections) > 0,
			LatencyMs:         latency.Milliseconds(),
			Timestamp:         time.Now().UTC(),
			RequestID:         requestID,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// Status handles GET /status (§6). It honors If-Modified-Since against the
// coordinator's lastSyncDate (§8 S8) and returns 500 when any worker is
// dead (§7).
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	if ims := r.Header.Get("If-Modified-Since"); ims != "" {
		if t, err := time.Parse(http.TimeFormat, ims); err == nil && h.coordinator.NotModifiedSince(t) {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}

	status := h.coordinator.Status()
	code := http.StatusOK
	if h.coordinator.Pool().AnyDead() {
		code = http.StatusInternalServerError
	}
	if last := h.coordinator.LastSyncDate(); !last.IsZero() {
		w.Header().Set("Last-Modified", last.UTC().Format(http.TimeFormat))
	}
	writeJSON(w, code, status)
}

// Refresh handles POST /refresh (§4.8/§6). It schedules a sync cycle in the
// background and returns immediately; an in-progress sync is reported as
// already scheduled (200) rather than rejected, since a sync in flight
// means the client's request is already satisfied by it. A caller may pass
// ?property=<searchProperty> to record which property it is refreshing on
// behalf of; if the validated key carries an AllowedProperties claim, that
// property must be in it or the request is rejected (403) before any sync
// is scheduled. The sync cycle itself is always full (§4.8 rebuilds every
// worker's whole index in one pass) — the claim gates who may call
// /refresh for a property, not which manifests a cycle covers.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	if property := r.URL.Query().Get("property"); property != "" {
		if info := httpmw.GetKeyInfo(r.Context()); info != nil && !info.CanRefresh(property) {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "key not authorized for this searchProperty"})
			return
		}
	}

	if h.coordinator.Indexing() {
		writeJSON(w, http.StatusOK, map[string]string{"status": "already-indexing"})
		return
	}

	go func() {
		if err := h.coordinator.Load(context.Background()); err != nil {
			h.logger.Error("sync cycle failed", "error", err)
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "scheduled"})
}

func (h *Handler) recordSearchMetrics(resultType string, latency time.Duration) {
	if h.metrics == nil {
		return
	}
	h.metrics.SearchQueriesTotal.WithLabelValues(resultType).Inc()
	h.metrics.SearchLatency.WithLabelValues(resultType).Observe(latency.Seconds())
}

// wireErrorLabel maps an error to the §6 wire-stable string used as a
// metrics label, falling back to "error" for anything unrecognized.
func wireErrorLabel(err error) string {
	for _, sentinel := range []error{
		apperrors.ErrStillIndexing, apperrors.ErrBacklogExceeded, apperrors.ErrPoolUnavailable,
		apperrors.ErrQueryTooLong, apperrors.ErrEmptyQuery,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return "error"
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
