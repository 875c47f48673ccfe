// Command analytics starts the standalone analytics aggregation service.
//
// It consumes search and sync events from Kafka, aggregates them in memory
// (total queries, latency percentiles, spelling-correction rate, zero-result
// rate, top queries), and exposes an HTTP API at GET /analytics for
// dashboards.
//
// Usage:
//
//	go run ./cmd/analytics [-config configs/development.yaml]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/marian-search/marian/internal/analytics"
	"github.com/marian-search/marian/pkg/config"
	"github.com/marian-search/marian/pkg/health"
	"github.com/marian-search/marian/pkg/kafka"
	"github.com/marian-search/marian/pkg/logger"
	"github.com/marian-search/marian/pkg/middleware"
)

// main boots the standalone analytics service: it creates a Kafka consumer for
// analytics events, starts the in-memory aggregator, registers a health checker,
// and serves the HTTP API. Graceful shutdown is triggered by SIGINT/SIGTERM.
func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting analytics service", "port", cfg.Server.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Kafka consumers: search events and, separately, per-manifest-tag
	// sync-complete events published by the search service's batch collector.
	consumer := kafka.NewConsumer(cfg.Kafka, kafka.TopicSearchEvents, nil)
	syncConsumer := kafka.NewConsumer(cfg.Kafka, kafka.TopicSyncComplete, nil)
	aggregator := analytics.NewAggregator(consumer, syncConsumer)

	// Re-create consumers with the actual handler now that aggregator exists.
	consumer = kafka.NewConsumer(cfg.Kafka, kafka.TopicSearchEvents, analytics.HandleEvent(aggregator))
	syncConsumer = kafka.NewConsumer(cfg.Kafka, kafka.TopicSyncComplete, analytics.HandleEvent(aggregator))
	aggregator = analytics.NewAggregator(consumer, syncConsumer)

	go func() {
		if err := aggregator.Start(ctx); err != nil {
			slog.Error("aggregator error", "error", err)
		}
	}()
	slog.Info("analytics aggregator started", "topic", cfg.Kafka.Topics.SearchEvents)

	// HTTP API.
	analyticsHandler := analytics.NewHandler(aggregator)

	checker := health.NewChecker()
	checker.Register("kafka", func(ctx context.Context) health.ComponentHealth {
		return health.ComponentHealth{Status: health.StatusUp, Message: "consumer active"}
	})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /analytics", analyticsHandler.Stats)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.RequestID()(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("analytics service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("analytics service stopped")
}
