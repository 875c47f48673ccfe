// Command marian starts the full-text search HTTP service.
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
	"time"

	"github.com/marian-search/marian/internal/analytics"
	"github.com/marian-search/marian/internal/analytics/aggregator"
	batchcollector "github.com/marian-search/marian/internal/analytics/collector"
	"github.com/marian-search/marian/internal/auth/apikey"
	"github.com/marian-search/marian/internal/auth/ratelimit"
	"github.com/marian-search/marian/internal/cache"
	"github.com/marian-search/marian/internal/coordinator"
	"github.com/marian-search/marian/internal/ftsindex"
	"github.com/marian-search/marian/internal/httpapi"
	"github.com/marian-search/marian/internal/manifest"
	"github.com/marian-search/marian/internal/searcher"
	"github.com/marian-search/marian/internal/worker"
	"github.com/marian-search/marian/pkg/config"
	"github.com/marian-search/marian/pkg/health"
	"github.com/marian-search/marian/pkg/kafka"
	"github.com/marian-search/marian/pkg/logger"
	"github.com/marian-search/marian/pkg/metrics"
	"github.com/marian-search/marian/pkg/postgres"
	pkgredis "github.com/marian-search/marian/pkg/redis"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting marian", "port", cfg.Server.Port)

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		metricsShutdown := metrics.StartServer(cfg.Metrics.Port)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			metricsShutdown(shutdownCtx)
		}()
		slog.Info("prometheus metrics enabled", "port", cfg.Metrics.Port)
	}

	src, err := manifest.ParseSource(cfg.Manifest.Source)
	if err != nil {
		slog.Error("invalid manifest source", "error", err)
		os.Exit(1)
	}
	fetcher := manifest.NewFetcher(src)

	pool := worker.New(cfg.Pool.Size, cfg.Pool.MaximumBacklog, cfg.Pool.WarningBacklog)
	slog.Info("worker pool started", "size", cfg.Pool.Size)

	fieldOrder := make([]ftsindex.FieldConfig, len(cfg.Index.Fields))
	for i, f := range cfg.Index.Fields {
		fieldOrder[i] = ftsindex.FieldConfig{Name: f.Name, Weight: f.Weight}
	}

	var db *postgres.Client
	db, err = postgres.New(cfg.Postgres)
	if err != nil {
		slog.Warn("postgres unavailable, sync-history audit and api keys disabled", "error", err)
	} else {
		defer db.Close()
		slog.Info("postgres connected", "host", cfg.Postgres.Host, "database", cfg.Postgres.Database)
	}

	var auditor *coordinator.Auditor
	var validator *apikey.Validator
	if db != nil {
		auditor = coordinator.NewAuditor(db)
		validator = apikey.NewValidator(db)
	}

	var redisClient *pkgredis.Client
	var qcache *cache.QueryCache[searcher.Response]
	redisClient, err = pkgredis.NewClient(cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, search caching disabled", "error", err)
	} else {
		defer redisClient.Close()
		qcache = cache.New[searcher.Response](redisClient, cfg.Redis)
		slog.Info("search cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	analyticsProducer := kafka.NewProducer(cfg.Kafka, kafka.TopicSearchEvents)
	collector := analytics.NewCollector(analyticsProducer, 10000)
	collector.Start(ctx)
	defer collector.Close()
	slog.Info("analytics collector started", "topic", cfg.Kafka.Topics.SearchEvents)

	syncProducer := kafka.NewProducer(cfg.Kafka, kafka.TopicSyncComplete)
	syncBatch := batchcollector.NewBatchCollector(syncProducer, 100, 5*time.Second)
	syncBatch.Start(ctx)
	defer syncBatch.Close()
	slog.Info("sync-complete batch collector started", "topic", cfg.Kafka.Topics.SyncComplete)

	if m != nil {
		go reportCircuitState(ctx, m, map[string]*kafka.Producer{
			string(kafka.TopicSearchEvents): analyticsProducer,
			string(kafka.TopicSyncComplete): syncProducer,
		})
	}

	coord := coordinator.New(fetcher, pool, fieldOrder, auditor, collector, syncBatch)

	invalidateCache := func() {
		if qcache == nil {
			return
		}
		if err := qcache.Invalidate(ctx); err != nil {
			slog.Error("query cache invalidation failed", "error", err)
		}
	}

	if err := coord.Load(ctx); err != nil {
		slog.Error("initial manifest sync failed", "error", err)
	}
	invalidateCache()

	go func() {
		ticker := time.NewTicker(cfg.Manifest.SyncInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := coord.Load(ctx); err != nil {
					slog.Error("scheduled manifest sync failed", "error", err)
				}
				invalidateCache()
			}
		}
	}()

	var analyticsAgg *aggregator.Store
	analyticsConsumer := kafka.NewConsumer(cfg.Kafka, kafka.TopicSearchEvents, nil)
	syncConsumer := kafka.NewConsumer(cfg.Kafka, kafka.TopicSyncComplete, nil)
	agg := analytics.NewAggregator(analyticsConsumer, syncConsumer)
	analyticsConsumer = kafka.NewConsumer(cfg.Kafka, kafka.TopicSearchEvents, analytics.HandleEvent(agg))
	syncConsumer = kafka.NewConsumer(cfg.Kafka, kafka.TopicSyncComplete, analytics.HandleEvent(agg))
	agg = analytics.NewAggregator(analyticsConsumer, syncConsumer)
	analyticsH := analytics.NewHandler(agg)

	go func() {
		if err := agg.Start(ctx); err != nil {
			slog.Error("analytics aggregator error", "error", err)
		}
	}()
	slog.Info("analytics aggregator started")

	if db != nil {
		analyticsAgg = aggregator.NewStore(db)
		analyticsAgg.StartPeriodicSave(ctx, agg, 5*time.Minute)
	}

	checker := health.NewChecker()
	checker.Register("pool", func(ctx context.Context) health.ComponentHealth {
		if pool.AnyDead() {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "one or more workers dead"}
		}
		return health.ComponentHealth{Status: health.StatusUp, Message: fmt.Sprintf("%d workers", cfg.Pool.Size)}
	})
	checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
		if redisClient == nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "not configured"}
		}
		if err := redisClient.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})
	checker.Register("postgres", func(ctx context.Context) health.ComponentHealth {
		if db == nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "not configured"}
		}
		if err := db.DB.PingContext(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})

	facade := searcher.New(coord, qcache, nil, cfg.Search.MaximumTerms)
	h := httpapi.New(facade, coord, collector, m)

	limiter := ratelimit.New(time.Minute)

	mux := http.NewServeMux()
	mux.Handle("/", httpapi.NewRouter(h, validator, limiter, m))
	mux.HandleFunc("GET /analytics", analyticsH.Stats)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      mux,
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

	slog.Info("marian listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("marian stopped")
}

// reportCircuitState polls each named producer's publish circuit breaker and
// keeps metrics.CircuitBreakerState current until ctx is cancelled.
func reportCircuitState(ctx context.Context, m *metrics.Metrics, producers map[string]*kafka.Producer) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for name, p := range producers {
				m.CircuitBreakerState.WithLabelValues(name).Set(p.CircuitState().Value())
			}
		}
	}
}
