// Command worker runs a headless PatentSentinel analysis worker: it resumes
// pending jobs, processes them on the worker pool, and periodically sweeps for
// jobs orphaned by crashed workers.  It serves only /healthz, /readyz, and
// /metrics; the API surface lives in cmd/apiserver.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/PatentSentinel/internal/application/analysis"
	"github.com/turtacn/PatentSentinel/internal/config"
	domanalysis "github.com/turtacn/PatentSentinel/internal/domain/analysis"
	"github.com/turtacn/PatentSentinel/internal/infrastructure/database/postgres"
	"github.com/turtacn/PatentSentinel/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/PatentSentinel/internal/infrastructure/database/redis"
	"github.com/turtacn/PatentSentinel/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/PatentSentinel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/PatentSentinel/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/PatentSentinel/internal/infrastructure/search/opensearch"
	"github.com/turtacn/PatentSentinel/internal/intelligence/textfeatures"
	apihttp "github.com/turtacn/PatentSentinel/internal/interfaces/http"
	"github.com/turtacn/PatentSentinel/internal/interfaces/http/handlers"
)

// sweepLockName is shared by all worker instances; the recovery sweep runs on
// whichever instance wins the lock for a given tick.
const sweepLockName = "analysis-sweep"

func main() {
	configPath := flag.String("config", "", "path to the YAML config file (env-only when empty)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "worker: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	log, err := logging.NewLogger(logging.LogConfig{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		return err
	}
	log = log.Named("worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := prometheus.NewMetrics()

	pg, err := postgres.NewConnection(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer pg.Close()
	if err := pg.RunMigrations(); err != nil {
		return err
	}

	rds, err := redis.NewClient(cfg.Redis, log)
	if err != nil {
		return err
	}
	defer rds.Close()

	producer, err := kafka.NewProducer(cfg.Kafka, log)
	if err != nil {
		return err
	}
	defer producer.Close()

	pool := pg.Pool()
	docRepo := repositories.NewDocumentRepository(pool, log)
	jobRepo := repositories.NewJobRepository(pool, log)
	resultRepo := repositories.NewResultRepository(pool, log)
	keywordRepo := repositories.NewKeywordSetRepository(pool, log)

	corpus, err := newCorpusReader(ctx, cfg, pool, log)
	if err != nil {
		return err
	}

	extractor := textfeatures.NewRetryingExtractor(
		textfeatures.NewClient(cfg.Extraction, log), cfg.Extraction, metrics, log)
	dispatcher := analysis.NewAlertDispatcher(kafka.NewNotificationChannel(producer), cfg.Alert, metrics, log)
	if err := dispatcher.WatchTemplates(ctx); err != nil {
		log.Warn("alert template watching disabled", logging.Err(err))
	}

	orchestrator := analysis.NewOrchestrator(analysis.OrchestratorDeps{
		Documents:  docRepo,
		Jobs:       jobRepo,
		Results:    resultRepo,
		Keywords:   keywordRepo,
		Corpus:     corpus,
		Extractor:  analysis.NewTextExtractor(extractor, cfg.Extraction, cfg.Analysis, log),
		Similarity: analysis.NewSimilarityEngine(cfg.Analysis),
		Risk:       analysis.NewRiskAssessor(cfg.Analysis),
		Dispatcher: dispatcher,
		Cache:      redis.NewResultCache(rds, log),
		Metrics:    metrics,
		Logger:     log,
	}, cfg.Analysis, cfg.Worker)

	orchestrator.Start(ctx)
	if _, err := orchestrator.ResumePending(ctx); err != nil {
		log.Warn("could not resume pending jobs", logging.Err(err))
	}

	go runSweepLoop(ctx, orchestrator, rds, cfg.Worker, log)

	// Minimal operational surface: health probes and metrics only.
	router := apihttp.NewRouter(apihttp.RouterConfig{
		Health: handlers.NewHealthHandler(map[string]handlers.HealthChecker{
			"postgres": pg,
			"redis":    rds,
		}),
		Mode:    cfg.Server.Mode,
		Metrics: metrics,
		Logger:  log,
	})
	server := apihttp.NewServer(cfg.Server, router, log)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown incomplete", logging.Err(err))
	}
	if err := orchestrator.Shutdown(shutdownCtx); err != nil {
		log.Error("worker pool shutdown incomplete", logging.Err(err))
	}
	log.Info("worker stopped")
	return nil
}

// runSweepLoop periodically requeues stale running jobs.  Each tick takes the
// shared Redis lock so only one worker instance sweeps at a time.
func runSweepLoop(ctx context.Context, orchestrator *analysis.Orchestrator, rds *redis.Client, cfg config.WorkerConfig, log logging.Logger) {
	log = log.Named("sweep")
	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		mutex := redis.NewMutex(rds, sweepLockName, cfg.SweepInterval, log)
		ok, err := mutex.TryLock(ctx)
		if err != nil {
			log.Warn("sweep lock unavailable", logging.Err(err))
			continue
		}
		if !ok {
			// Another instance is sweeping.
			continue
		}

		if _, err := orchestrator.Sweep(ctx, cfg.StaleJobAge); err != nil {
			log.Error("recovery sweep failed", logging.Err(err))
		}
		if err := mutex.Unlock(ctx); err != nil {
			log.Warn("sweep lock release failed", logging.Err(err))
		}
	}
}

// loadConfig reads the file at path, or builds the configuration entirely
// from SENTINEL_* environment variables when no path is given.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	return config.LoadFromEnv()
}

// newCorpusReader selects the corpus backend: the OpenSearch projection when
// enabled, a scan over the documents table otherwise.
func newCorpusReader(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, log logging.Logger) (domanalysis.CorpusReader, error) {
	if cfg.OpenSearch.Enabled {
		osc, err := opensearch.NewClient(ctx, cfg.OpenSearch, log)
		if err != nil {
			return nil, err
		}
		return opensearch.NewCorpusReader(osc, log), nil
	}
	return repositories.NewCorpusRepository(pool, log), nil
}
