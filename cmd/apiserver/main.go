// Command apiserver runs the PatentSentinel HTTP API: document intake,
// analysis job submission, and result queries.  It embeds the analysis worker
// pool, so a single apiserver instance is a complete deployment; dedicated
// worker instances (cmd/worker) can be added for horizontal scale.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/PatentSentinel/internal/application/analysis"
	appdocument "github.com/turtacn/PatentSentinel/internal/application/document"
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

func main() {
	configPath := flag.String("config", "", "path to the YAML config file (env-only when empty)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "apiserver: %v\n", err)
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
	log = log.Named("apiserver")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := prometheus.NewMetrics()

	// Storage.
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

	// Messaging.
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

	// Analysis pipeline.
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

	// HTTP surface.
	router := apihttp.NewRouter(apihttp.RouterConfig{
		Documents:   handlers.NewDocumentHandler(appdocument.NewService(docRepo, log)),
		Analysis:    handlers.NewAnalysisHandler(orchestrator),
		KeywordSets: handlers.NewKeywordSetHandler(keywordRepo),
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

	// Drain: stop accepting requests first, then let in-flight jobs finish.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown incomplete", logging.Err(err))
	}
	if err := orchestrator.Shutdown(shutdownCtx); err != nil {
		log.Error("worker pool shutdown incomplete", logging.Err(err))
	}
	log.Info("apiserver stopped")
	return nil
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
