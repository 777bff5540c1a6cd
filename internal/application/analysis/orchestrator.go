package analysis

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/PatentSentinel/internal/config"
	"github.com/turtacn/PatentSentinel/internal/domain/analysis"
	"github.com/turtacn/PatentSentinel/internal/domain/document"
	"github.com/turtacn/PatentSentinel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/PatentSentinel/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/PatentSentinel/pkg/errors"
)

// sweepBatchSize caps how many stale jobs a single sweep pass requeues.
const sweepBatchSize = 100

// ResultCache is an optional read-through cache for the latest result per
// document.  Implementations must be safe for concurrent use; a nil cache
// disables caching.
type ResultCache interface {
	Put(ctx context.Context, res *analysis.Result)
	GetLatest(ctx context.Context, documentID uuid.UUID) (*analysis.Result, error)
	Invalidate(ctx context.Context, documentID uuid.UUID)
}

// Orchestrator drives the analysis job lifecycle: submission with the
// one-in-flight-job-per-document guarantee, asynchronous pipeline execution,
// result persistence, alert dispatch, and recovery of orphaned jobs.
type Orchestrator struct {
	docRepo     document.Repository
	jobRepo     analysis.JobRepository
	resultRepo  analysis.ResultRepository
	keywordRepo analysis.KeywordSetRepository
	corpus      analysis.CorpusReader

	extractor  *TextExtractor
	similarity *SimilarityEngine
	risk       *RiskAssessor
	dispatcher *AlertDispatcher
	cache      ResultCache

	pool    *Pool
	cfg     config.AnalysisConfig
	metrics *prometheus.Metrics
	log     logging.Logger
}

// OrchestratorDeps bundles the orchestrator's collaborators to keep the
// constructor signature manageable.
type OrchestratorDeps struct {
	Documents  document.Repository
	Jobs       analysis.JobRepository
	Results    analysis.ResultRepository
	Keywords   analysis.KeywordSetRepository
	Corpus     analysis.CorpusReader
	Extractor  *TextExtractor
	Similarity *SimilarityEngine
	Risk       *RiskAssessor
	Dispatcher *AlertDispatcher
	Cache      ResultCache
	Metrics    *prometheus.Metrics
	Logger     logging.Logger
}

// NewOrchestrator constructs the Orchestrator and its worker pool.  Call
// Start before submitting work and Shutdown on the way out.
func NewOrchestrator(deps OrchestratorDeps, anlCfg config.AnalysisConfig, workerCfg config.WorkerConfig) *Orchestrator {
	o := &Orchestrator{
		docRepo:     deps.Documents,
		jobRepo:     deps.Jobs,
		resultRepo:  deps.Results,
		keywordRepo: deps.Keywords,
		corpus:      deps.Corpus,
		extractor:   deps.Extractor,
		similarity:  deps.Similarity,
		risk:        deps.Risk,
		dispatcher:  deps.Dispatcher,
		cache:       deps.Cache,
		cfg:         anlCfg,
		metrics:     deps.Metrics,
		log:         deps.Logger.Named("orchestrator"),
	}
	o.pool = NewPool(workerCfg.Concurrency, workerCfg.QueueDepth, o.Process, deps.Metrics, deps.Logger)
	return o
}

// Start launches the worker pool.
func (o *Orchestrator) Start(ctx context.Context) {
	o.pool.Start(ctx)
}

// Shutdown drains the worker pool.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	return o.pool.Shutdown(ctx)
}

// ─────────────────────────────────────────────────────────────────────────────
// Submission
// ─────────────────────────────────────────────────────────────────────────────

// StartAnalysis accepts a new analysis job for the document.  At most one
// active job may exist per document: a duplicate submission fails with
// ErrCodeJobInFlight carrying the existing job's ID.  An empty keywordSet
// selects the configured default set; the set is resolved leniently at
// pipeline time, so an unknown name does not reject the submission.
//
// The returned job is pending; processing happens asynchronously on the
// worker pool.  When the pool queue is full the job stays pending and is
// picked up by the next pending-job resume or recovery sweep.
func (o *Orchestrator) StartAnalysis(ctx context.Context, documentID uuid.UUID, keywordSet string) (*analysis.Job, error) {
	doc, err := o.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}

	if keywordSet == "" {
		keywordSet = o.cfg.DefaultKeywordSet
	}

	if active, err := o.jobRepo.GetActiveByDocument(ctx, documentID); err == nil {
		return nil, errors.New(errors.ErrCodeJobInFlight,
			"an analysis job is already in flight for this document").
			WithDetail("job_id=" + active.ID.String())
	} else if !errors.IsNotFound(err) {
		return nil, err
	}

	// Claiming the document is the first write: it atomically excludes a
	// concurrent submitter that passed the check above.
	priorStatus := doc.Status
	if err := o.docRepo.ClaimForAnalysis(ctx, doc.ID); err != nil {
		if errors.IsCode(err, errors.ErrCodeDocumentStatusInvalid) {
			return nil, errors.Wrap(err, errors.ErrCodeJobInFlight,
				"document is already being analyzed")
		}
		return nil, err
	}

	job, err := analysis.NewJob(doc.ID, keywordSet)
	if err != nil {
		return nil, err
	}
	if err := o.jobRepo.Create(ctx, job); err != nil {
		// No job exists to finish, so the claim must be undone or the
		// document is stuck in analyzing forever.
		if relErr := o.docRepo.ReleaseAnalysis(ctx, doc.ID, priorStatus); relErr != nil {
			o.log.Error("cannot release analysis claim after job create failure",
				logging.String("document_id", doc.ID.String()), logging.Err(relErr))
		}
		return nil, err
	}

	if o.metrics != nil {
		o.metrics.JobsSubmittedTotal.Inc()
	}
	o.log.Info("analysis job accepted",
		logging.String("job_id", job.ID.String()),
		logging.String("document_id", doc.ID.String()),
		logging.String("keyword_set", keywordSet))

	if err := o.pool.Submit(job.ID); err != nil {
		// The job stays pending; resume/sweep will retry.
		o.log.Warn("job not queued immediately",
			logging.String("job_id", job.ID.String()), logging.Err(err))
	}
	return job, nil
}

// GetJob returns the job with the given ID.
func (o *Orchestrator) GetJob(ctx context.Context, jobID uuid.UUID) (*analysis.Job, error) {
	return o.jobRepo.GetByID(ctx, jobID)
}

// LatestResult returns the most recent completed analysis for the document,
// served from the cache when possible.
func (o *Orchestrator) LatestResult(ctx context.Context, documentID uuid.UUID) (*analysis.Result, error) {
	if _, err := o.docRepo.GetByID(ctx, documentID); err != nil {
		return nil, err
	}
	if o.cache != nil {
		if cached, err := o.cache.GetLatest(ctx, documentID); err != nil {
			o.log.Warn("result cache read failed", logging.Err(err))
		} else if cached != nil {
			return cached, nil
		}
	}
	res, err := o.resultRepo.GetLatestByDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if o.cache != nil {
		o.cache.Put(ctx, res)
	}
	return res, nil
}

// ListResults returns up to limit past results for the document, newest
// first.
func (o *Orchestrator) ListResults(ctx context.Context, documentID uuid.UUID, limit int) ([]*analysis.Result, error) {
	if _, err := o.docRepo.GetByID(ctx, documentID); err != nil {
		return nil, err
	}
	return o.resultRepo.ListByDocument(ctx, documentID, limit)
}

// ─────────────────────────────────────────────────────────────────────────────
// Pipeline execution
// ─────────────────────────────────────────────────────────────────────────────

// Process executes the pipeline for one job.  It is the worker pool handler:
// all errors terminate in job state, none escape.
func (o *Orchestrator) Process(ctx context.Context, jobID uuid.UUID) {
	log := o.log.With(logging.String("job_id", jobID.String()))

	job, err := o.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		log.Error("cannot load job for processing", logging.Err(err))
		return
	}
	if job.Status != analysis.JobPending {
		// Already picked up elsewhere or finished; nothing to do.
		log.Debug("skipping job not in pending state",
			logging.String("status", string(job.Status)))
		return
	}

	if err := job.Start(); err != nil {
		log.Error("cannot start job", logging.Err(err))
		return
	}
	if err := o.jobRepo.Update(ctx, job); err != nil {
		log.Error("cannot persist running job", logging.Err(err))
		return
	}

	result, pipeErr := o.runPipeline(ctx, job, log)
	if pipeErr != nil {
		o.finishFailed(ctx, job, pipeErr, log)
		return
	}
	o.finishSucceeded(ctx, job, result, log)
}

// runPipeline performs extraction, matching, risk assessment, and result
// assembly for a running job.
func (o *Orchestrator) runPipeline(ctx context.Context, job *analysis.Job, log logging.Logger) (*analysis.Result, error) {
	doc, err := o.docRepo.GetByID(ctx, job.DocumentID)
	if err != nil {
		return nil, err
	}

	// Domain keywords are reported alongside the result but never join the
	// candidate list used for matching.  An unknown set name degrades to an
	// empty report rather than failing the job.
	var domainKeywords []string
	if ks, err := o.keywordRepo.GetByName(ctx, job.KeywordSet); err == nil {
		domainKeywords = ks.Keywords
	} else if errors.IsNotFound(err) {
		log.Warn("keyword set not found, continuing without domain keywords",
			logging.String("keyword_set", job.KeywordSet))
	} else {
		return nil, err
	}

	features, err := o.extractor.Features(ctx, doc.AnalyzableText())
	if err != nil {
		return nil, err
	}
	keywords := o.extractor.Keywords(features)

	matches := []analysis.Match{}
	if len(keywords) > 0 {
		corpus, err := o.corpus.Documents(ctx, doc.ID, 0)
		if err != nil {
			return nil, err
		}
		matches = o.similarity.Compare(keywords, corpus)
	} else {
		// Nothing extractable: an empty keyword list matches nothing and the
		// document is reported low risk rather than failed.
		log.Warn("no keywords derived from document",
			logging.String("document_id", doc.ID.String()))
	}

	return &analysis.Result{
		ID:             uuid.New(),
		JobID:          job.ID,
		DocumentID:     doc.ID,
		Keywords:       keywords,
		DomainKeywords: domainKeywords,
		Features:       features,
		Matches:        matches,
		Assessment:     o.risk.Assess(matches),
		CreatedAt:      time.Now().UTC(),
	}, nil
}

func (o *Orchestrator) finishSucceeded(ctx context.Context, job *analysis.Job, result *analysis.Result, log logging.Logger) {
	if err := o.resultRepo.Save(ctx, result); err != nil {
		o.finishFailed(ctx, job, err, log)
		return
	}
	if err := job.Succeed(); err != nil {
		log.Error("cannot mark job succeeded", logging.Err(err))
		return
	}
	if err := o.jobRepo.Update(ctx, job); err != nil {
		log.Error("cannot persist succeeded job", logging.Err(err))
	}
	if err := o.docRepo.SetStatus(ctx, job.DocumentID, document.StatusAnalyzed); err != nil {
		log.Error("cannot mark document analyzed", logging.Err(err))
	}
	if o.cache != nil {
		o.cache.Put(ctx, result)
	}
	if o.metrics != nil {
		o.metrics.ObserveJobCompleted("succeeded", job.Duration())
	}
	log.Info("analysis completed",
		logging.String("document_id", job.DocumentID.String()),
		logging.String("overall_risk", string(result.Assessment.OverallRisk)),
		logging.Int("high_similarity_count", result.Assessment.HighSimilarityCount),
		logging.Float64("average_top_similarity", result.Assessment.AverageTopSimilarity),
		logging.Int("matches", len(result.Matches)))

	doc, err := o.docRepo.GetByID(ctx, job.DocumentID)
	if err != nil {
		log.Error("cannot load document for alert dispatch", logging.Err(err))
		return
	}
	// Alert delivery failure never fails the job; the result is already
	// persisted and queryable.
	if err := o.dispatcher.Dispatch(ctx, doc, result); err != nil {
		log.Error("alert dispatch incomplete", logging.Err(err))
	}
}

func (o *Orchestrator) finishFailed(ctx context.Context, job *analysis.Job, cause error, log logging.Logger) {
	if err := job.Fail(cause.Error()); err != nil {
		log.Error("cannot mark job failed", logging.Err(err))
		return
	}
	if err := o.jobRepo.Update(ctx, job); err != nil {
		log.Error("cannot persist failed job", logging.Err(err))
	}
	if err := o.docRepo.SetStatus(ctx, job.DocumentID, document.StatusAnalysisFailed); err != nil {
		log.Error("cannot mark document analysis_failed", logging.Err(err))
	}
	if o.metrics != nil {
		o.metrics.ObserveJobCompleted("failed", job.Duration())
	}
	log.Warn("analysis failed",
		logging.String("document_id", job.DocumentID.String()),
		logging.String("code", string(errors.GetCode(cause))),
		logging.Err(cause))
}

// ─────────────────────────────────────────────────────────────────────────────
// Recovery
// ─────────────────────────────────────────────────────────────────────────────

// ResumePending requeues pending jobs onto the pool, typically at worker
// startup.  It returns the number of jobs submitted.
func (o *Orchestrator) ResumePending(ctx context.Context) (int, error) {
	jobs, err := o.jobRepo.ListPending(ctx, sweepBatchSize)
	if err != nil {
		return 0, err
	}
	submitted := 0
	for _, job := range jobs {
		if err := o.pool.Submit(job.ID); err != nil {
			break
		}
		submitted++
	}
	if submitted > 0 {
		o.log.Info("resumed pending jobs", logging.Int("count", submitted))
	}
	return submitted, nil
}

// Sweep requeues running jobs whose last update is older than staleAge —
// orphans left behind by a crashed worker — and resubmits them to the pool.
// It returns the number of jobs requeued.  Run it under a singleton lock
// when multiple workers share the database.
func (o *Orchestrator) Sweep(ctx context.Context, staleAge time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-staleAge)
	stale, err := o.jobRepo.ListStaleRunning(ctx, cutoff, sweepBatchSize)
	if err != nil {
		return 0, err
	}

	requeued := 0
	for _, job := range stale {
		if err := job.Requeue("requeued by recovery sweep: worker presumed lost"); err != nil {
			o.log.Warn("cannot requeue stale job",
				logging.String("job_id", job.ID.String()), logging.Err(err))
			continue
		}
		if err := o.jobRepo.Update(ctx, job); err != nil {
			o.log.Error("cannot persist requeued job",
				logging.String("job_id", job.ID.String()), logging.Err(err))
			continue
		}
		requeued++
		if o.metrics != nil {
			o.metrics.JobsRequeuedBySweep.Inc()
		}
		if err := o.pool.Submit(job.ID); err != nil {
			// Stays pending; the next sweep or resume picks it up.
			o.log.Warn("requeued job not queued immediately",
				logging.String("job_id", job.ID.String()), logging.Err(err))
		}
	}
	if requeued > 0 {
		o.log.Info("recovery sweep requeued stale jobs", logging.Int("count", requeued))
	}
	return requeued, nil
}
