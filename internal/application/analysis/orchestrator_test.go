package analysis

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/PatentSentinel/internal/config"
	"github.com/turtacn/PatentSentinel/internal/domain/analysis"
	"github.com/turtacn/PatentSentinel/internal/domain/document"
	"github.com/turtacn/PatentSentinel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/PatentSentinel/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// In-memory fakes
// ─────────────────────────────────────────────────────────────────────────────

type memDocRepo struct {
	mu   sync.Mutex
	docs map[uuid.UUID]*document.Document
}

func newMemDocRepo() *memDocRepo {
	return &memDocRepo{docs: make(map[uuid.UUID]*document.Document)}
}

func (r *memDocRepo) Create(_ context.Context, d *document.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[d.ID] = d
	return nil
}

func (r *memDocRepo) GetByID(_ context.Context, id uuid.UUID) (*document.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.docs[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeDocumentNotFound, "document not found")
	}
	clone := *d
	return &clone, nil
}

func (r *memDocRepo) Update(_ context.Context, d *document.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[d.ID] = d
	return nil
}

func (r *memDocRepo) List(_ context.Context, _ document.ListFilter) ([]*document.Document, error) {
	return nil, nil
}

func (r *memDocRepo) ClaimForAnalysis(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.docs[id]
	if !ok {
		return errors.New(errors.ErrCodeDocumentNotFound, "document not found")
	}
	return d.TransitionTo(document.StatusAnalyzing)
}

func (r *memDocRepo) ReleaseAnalysis(_ context.Context, id uuid.UUID, prior document.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.docs[id]
	if !ok {
		return errors.New(errors.ErrCodeDocumentNotFound, "document not found")
	}
	if d.Status == document.StatusAnalyzing {
		d.Status = prior
	}
	return nil
}

func (r *memDocRepo) SetStatus(_ context.Context, id uuid.UUID, status document.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.docs[id]
	if !ok {
		return errors.New(errors.ErrCodeDocumentNotFound, "document not found")
	}
	d.Status = status
	return nil
}

type memJobRepo struct {
	mu        sync.Mutex
	jobs      map[uuid.UUID]*analysis.Job
	createErr error
}

func newMemJobRepo() *memJobRepo {
	return &memJobRepo{jobs: make(map[uuid.UUID]*analysis.Job)}
}

func (r *memJobRepo) Create(_ context.Context, j *analysis.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	for _, existing := range r.jobs {
		if existing.DocumentID == j.DocumentID && existing.Status.Active() {
			return errors.New(errors.ErrCodeJobInFlight, "active job exists")
		}
	}
	clone := *j
	r.jobs[j.ID] = &clone
	return nil
}

func (r *memJobRepo) GetByID(_ context.Context, id uuid.UUID) (*analysis.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeJobNotFound, "job not found")
	}
	clone := *j
	return &clone, nil
}

func (r *memJobRepo) GetActiveByDocument(_ context.Context, documentID uuid.UUID) (*analysis.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, j := range r.jobs {
		if j.DocumentID == documentID && j.Status.Active() {
			clone := *j
			return &clone, nil
		}
	}
	return nil, errors.New(errors.ErrCodeJobNotFound, "no active job")
}

func (r *memJobRepo) Update(_ context.Context, j *analysis.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *j
	r.jobs[j.ID] = &clone
	return nil
}

func (r *memJobRepo) ListStaleRunning(_ context.Context, cutoff time.Time, limit int) ([]*analysis.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*analysis.Job
	for _, j := range r.jobs {
		if j.Status == analysis.JobRunning && j.UpdatedAt.Before(cutoff) && len(out) < limit {
			clone := *j
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *memJobRepo) ListPending(_ context.Context, limit int) ([]*analysis.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*analysis.Job
	for _, j := range r.jobs {
		if j.Status == analysis.JobPending && len(out) < limit {
			clone := *j
			out = append(out, &clone)
		}
	}
	return out, nil
}

type memResultRepo struct {
	mu      sync.Mutex
	results []*analysis.Result
}

func (r *memResultRepo) Save(_ context.Context, res *analysis.Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *res
	r.results = append(r.results, &clone)
	return nil
}

func (r *memResultRepo) GetLatestByDocument(_ context.Context, documentID uuid.UUID) (*analysis.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.results) - 1; i >= 0; i-- {
		if r.results[i].DocumentID == documentID {
			clone := *r.results[i]
			return &clone, nil
		}
	}
	return nil, errors.New(errors.ErrCodeResultsUnavailable, "no results")
}

func (r *memResultRepo) ListByDocument(_ context.Context, documentID uuid.UUID, limit int) ([]*analysis.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*analysis.Result
	for i := len(r.results) - 1; i >= 0 && len(out) < limit; i-- {
		if r.results[i].DocumentID == documentID {
			clone := *r.results[i]
			out = append(out, &clone)
		}
	}
	return out, nil
}

type memKeywordRepo struct {
	sets map[string]*analysis.KeywordSet
}

func newMemKeywordRepo(names ...string) *memKeywordRepo {
	r := &memKeywordRepo{sets: make(map[string]*analysis.KeywordSet)}
	for _, n := range names {
		r.sets[n] = &analysis.KeywordSet{Name: n, Keywords: []string{"machine learning"}}
	}
	return r
}

func (r *memKeywordRepo) Put(_ context.Context, ks *analysis.KeywordSet) error {
	r.sets[ks.Name] = ks
	return nil
}

func (r *memKeywordRepo) GetByName(_ context.Context, name string) (*analysis.KeywordSet, error) {
	ks, ok := r.sets[name]
	if !ok {
		return nil, errors.New(errors.ErrCodeKeywordSetNotFound, "keyword set not found")
	}
	return ks, nil
}

func (r *memKeywordRepo) List(_ context.Context) ([]*analysis.KeywordSet, error) {
	var out []*analysis.KeywordSet
	for _, ks := range r.sets {
		out = append(out, ks)
	}
	return out, nil
}

func (r *memKeywordRepo) Delete(_ context.Context, name string) error {
	delete(r.sets, name)
	return nil
}

type stubCorpus struct {
	mu        sync.Mutex
	docs      []*analysis.CorpusDocument
	excluding uuid.UUID
	err       error
}

func (s *stubCorpus) Documents(_ context.Context, excluding uuid.UUID, _ int) ([]*analysis.CorpusDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.excluding = excluding
	if s.err != nil {
		return nil, s.err
	}
	out := make([]*analysis.CorpusDocument, 0, len(s.docs))
	for _, d := range s.docs {
		if d.ID != excluding {
			out = append(out, d)
		}
	}
	return out, nil
}

type capturingChannel struct {
	mu        sync.Mutex
	published []string // channel names
	err       error
}

func (c *capturingChannel) Publish(_ context.Context, channel, _ string, _ []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.published = append(c.published, channel)
	return nil
}

func (c *capturingChannel) channels() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.published...)
}

// ─────────────────────────────────────────────────────────────────────────────
// Test harness
// ─────────────────────────────────────────────────────────────────────────────

type harness struct {
	orch    *Orchestrator
	docs    *memDocRepo
	jobs    *memJobRepo
	results *memResultRepo
	channel *capturingChannel
	stub    *stubExtractor
	corpus  *stubCorpus
	doc     *document.Document
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		docs:    newMemDocRepo(),
		jobs:    newMemJobRepo(),
		results: &memResultRepo{},
		channel: &capturingChannel{},
		stub: &stubExtractor{phrases: []analysis.ScoredText{
			{Text: "neural network", Score: 0.95},
			{Text: "fpga", Score: 0.9},
			{Text: "quantization", Score: 0.85},
		}},
		corpus: &stubCorpus{},
	}

	anlCfg := testAnalysisCfg()
	anlCfg.DefaultKeywordSet = "artificial_intelligence"
	workerCfg := config.WorkerConfig{Concurrency: 2, QueueDepth: 16}
	alertCfg := config.AlertConfig{
		Channels:         []string{"email", "in_app"},
		MinRiskLevel:     "high",
		TemplatePath:     "does-not-exist.json",
		DashboardBaseURL: "http://dash.local",
	}

	log := logging.NewNopLogger()
	extractor := NewTextExtractor(h.stub, testExtractionCfg(), anlCfg, log)
	h.orch = NewOrchestrator(OrchestratorDeps{
		Documents:  h.docs,
		Jobs:       h.jobs,
		Results:    h.results,
		Keywords:   newMemKeywordRepo("artificial_intelligence", "biotech"),
		Corpus:     h.corpus,
		Extractor:  extractor,
		Similarity: NewSimilarityEngine(anlCfg),
		Risk:       NewRiskAssessor(anlCfg),
		Dispatcher: NewAlertDispatcher(h.channel, alertCfg, nil, log),
		Logger:     log,
	}, anlCfg, workerCfg)

	doc, err := document.New(document.Fields{
		Owner:    "acme",
		Title:    "Edge inference unit",
		Abstract: "An FPGA based neural network accelerator with aggressive quantization.",
	})
	require.NoError(t, err)
	require.NoError(t, h.docs.Create(context.Background(), doc))
	h.doc = doc
	return h
}

// ─────────────────────────────────────────────────────────────────────────────
// Submission
// ─────────────────────────────────────────────────────────────────────────────

func TestStartAnalysis_AcceptsJob(t *testing.T) {
	h := newHarness(t)

	job, err := h.orch.StartAnalysis(context.Background(), h.doc.ID, "")
	require.NoError(t, err)
	assert.Equal(t, analysis.JobPending, job.Status)
	assert.Equal(t, "artificial_intelligence", job.KeywordSet)

	stored, err := h.docs.GetByID(context.Background(), h.doc.ID)
	require.NoError(t, err)
	assert.Equal(t, document.StatusAnalyzing, stored.Status)
}

func TestStartAnalysis_DuplicateInFlightConflicts(t *testing.T) {
	h := newHarness(t)

	first, err := h.orch.StartAnalysis(context.Background(), h.doc.ID, "")
	require.NoError(t, err)

	_, err = h.orch.StartAnalysis(context.Background(), h.doc.ID, "")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeJobInFlight, errors.GetCode(err))
	assert.True(t, errors.IsConflict(err))

	var ae *errors.AppError
	require.ErrorAs(t, err, &ae)
	assert.Contains(t, ae.Detail, first.ID.String())
}

func TestStartAnalysis_UnknownDocument(t *testing.T) {
	h := newHarness(t)
	_, err := h.orch.StartAnalysis(context.Background(), uuid.New(), "")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

// An unknown keyword set name does not reject the submission; the pipeline
// simply runs without domain keywords.
func TestStartAnalysis_UnknownKeywordSetAccepted(t *testing.T) {
	h := newHarness(t)

	job, err := h.orch.StartAnalysis(context.Background(), h.doc.ID, "nope")
	require.NoError(t, err)
	assert.Equal(t, "nope", job.KeywordSet)

	h.orch.Process(context.Background(), job.ID)
	final, err := h.jobs.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, analysis.JobSucceeded, final.Status)

	res, err := h.results.GetLatestByDocument(context.Background(), h.doc.ID)
	require.NoError(t, err)
	assert.Empty(t, res.DomainKeywords)
}

// A job-store failure after the document was claimed must return the document
// to its prior status so it can be resubmitted.
func TestStartAnalysis_CreateFailureReleasesClaim(t *testing.T) {
	h := newHarness(t)
	h.jobs.createErr = errors.Storage("insert failed")

	_, err := h.orch.StartAnalysis(context.Background(), h.doc.ID, "")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeStorage, errors.GetCode(err))

	stored, err := h.docs.GetByID(context.Background(), h.doc.ID)
	require.NoError(t, err)
	assert.Equal(t, document.StatusSubmitted, stored.Status)

	h.jobs.createErr = nil
	_, err = h.orch.StartAnalysis(context.Background(), h.doc.ID, "")
	require.NoError(t, err)
}

// ─────────────────────────────────────────────────────────────────────────────
// Pipeline
// ─────────────────────────────────────────────────────────────────────────────

func processSynchronously(t *testing.T, h *harness) *analysis.Job {
	t.Helper()
	job, err := h.orch.StartAnalysis(context.Background(), h.doc.ID, "")
	require.NoError(t, err)
	h.orch.Process(context.Background(), job.ID)
	final, err := h.jobs.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	return final
}

func TestProcess_SuccessHighRiskDispatchesAlerts(t *testing.T) {
	h := newHarness(t)
	// Three corpus documents containing every keyword: all score 1.0 → high.
	text := "A neural network on an FPGA with quantization throughout."
	h.corpus.docs = []*analysis.CorpusDocument{
		corpusDoc("prior art one", text),
		corpusDoc("prior art two", text),
		corpusDoc("prior art three", text),
	}

	job := processSynchronously(t, h)
	assert.Equal(t, analysis.JobSucceeded, job.Status)
	assert.Equal(t, 1, job.Attempts)

	res, err := h.results.GetLatestByDocument(context.Background(), h.doc.ID)
	require.NoError(t, err)
	assert.Equal(t, analysis.RiskHigh, res.Assessment.OverallRisk)
	assert.Equal(t, 3, res.Assessment.HighSimilarityCount)
	assert.InDelta(t, 1.0, res.Assessment.AverageTopSimilarity, 1e-9)
	assert.Len(t, res.Matches, 3)
	assert.Equal(t, []string{"neural network", "fpga", "quantization"}, res.Keywords)
	assert.Equal(t, []string{"machine learning"}, res.DomainKeywords)
	require.NotNil(t, res.Features)
	assert.Len(t, res.Features.KeyPhrases, 3)

	// The document under analysis was excluded from the corpus read.
	assert.Equal(t, h.doc.ID, h.corpus.excluding)

	doc, err := h.docs.GetByID(context.Background(), h.doc.ID)
	require.NoError(t, err)
	assert.Equal(t, document.StatusAnalyzed, doc.Status)

	assert.ElementsMatch(t, []string{"email", "in_app"}, h.channel.channels())
}

func TestProcess_LowRiskSkipsAlerts(t *testing.T) {
	h := newHarness(t)
	h.corpus.docs = []*analysis.CorpusDocument{
		corpusDoc("weak overlap", "mentions a neural network once"), // 1/3 < floor 0.4
	}

	job := processSynchronously(t, h)
	assert.Equal(t, analysis.JobSucceeded, job.Status)

	res, err := h.results.GetLatestByDocument(context.Background(), h.doc.ID)
	require.NoError(t, err)
	assert.Equal(t, analysis.RiskLow, res.Assessment.OverallRisk)
	assert.Equal(t, []string{"No highly similar patents found"}, res.Assessment.RiskFactors)
	assert.Empty(t, res.Matches)
	assert.Empty(t, h.channel.channels())
}

// Half the keywords found as substrings yields similarity 0.5: above the
// inclusion floor, below the strong-match threshold, so the match is reported
// but the risk stays low.
func TestProcess_PartialSubstringMatchReportedLowRisk(t *testing.T) {
	h := newHarness(t)
	h.stub.phrases = []analysis.ScoredText{
		{Text: "neural network", Score: 0.9},
		{Text: "gradient descent", Score: 0.85},
	}
	h.corpus.docs = []*analysis.CorpusDocument{
		corpusDoc("prior filing", "A system for training neural networks on commodity hardware"),
	}

	job := processSynchronously(t, h)
	assert.Equal(t, analysis.JobSucceeded, job.Status)

	res, err := h.results.GetLatestByDocument(context.Background(), h.doc.ID)
	require.NoError(t, err)
	require.Len(t, res.Matches, 1)
	assert.InDelta(t, 0.5, res.Matches[0].Similarity, 1e-9)
	assert.Equal(t, []string{"neural network"}, res.Matches[0].MatchingKeywords)
	assert.Equal(t, analysis.RiskLow, res.Assessment.OverallRisk)
	assert.Zero(t, res.Assessment.HighSimilarityCount)
}

// Domain keywords are reported alongside the result but never join the
// candidate list, so text overlapping only the keyword set does not match.
func TestProcess_DomainKeywordsNotMatched(t *testing.T) {
	h := newHarness(t)
	h.corpus.docs = []*analysis.CorpusDocument{
		corpusDoc("set-only overlap", "machine learning machine learning machine learning"),
	}

	job := processSynchronously(t, h)
	assert.Equal(t, analysis.JobSucceeded, job.Status)

	res, err := h.results.GetLatestByDocument(context.Background(), h.doc.ID)
	require.NoError(t, err)
	assert.Empty(t, res.Matches)
	assert.Equal(t, []string{"machine learning"}, res.DomainKeywords)
	assert.NotContains(t, res.Keywords, "machine learning")
}

func TestProcess_NoKeywordsYieldsLowRiskResult(t *testing.T) {
	h := newHarness(t)
	h.stub.phrases = nil
	h.corpus.err = errors.Storage("corpus must not be read")

	job := processSynchronously(t, h)
	assert.Equal(t, analysis.JobSucceeded, job.Status)

	res, err := h.results.GetLatestByDocument(context.Background(), h.doc.ID)
	require.NoError(t, err)
	assert.Equal(t, analysis.RiskLow, res.Assessment.OverallRisk)
	assert.Zero(t, res.Assessment.AverageTopSimilarity)
	assert.Empty(t, res.Keywords)
}

func TestProcess_PermanentExtractionFailureFailsJob(t *testing.T) {
	h := newHarness(t)
	h.stub.err = errors.Permanent("unsupported language")

	job := processSynchronously(t, h)
	assert.Equal(t, analysis.JobFailed, job.Status)
	assert.Contains(t, job.LastError, "unsupported language")

	doc, err := h.docs.GetByID(context.Background(), h.doc.ID)
	require.NoError(t, err)
	assert.Equal(t, document.StatusAnalysisFailed, doc.Status)

	_, err = h.results.GetLatestByDocument(context.Background(), h.doc.ID)
	assert.Equal(t, errors.ErrCodeResultsUnavailable, errors.GetCode(err))
}

func TestProcess_FailedDocumentCanBeResubmitted(t *testing.T) {
	h := newHarness(t)
	h.stub.err = errors.Permanent("unsupported language")
	job := processSynchronously(t, h)
	require.Equal(t, analysis.JobFailed, job.Status)

	// The failure released the in-flight slot.
	h.stub.err = nil
	second, err := h.orch.StartAnalysis(context.Background(), h.doc.ID, "")
	require.NoError(t, err)
	assert.NotEqual(t, job.ID, second.ID)
}

func TestProcess_SkipsNonPendingJobs(t *testing.T) {
	h := newHarness(t)
	job, err := h.orch.StartAnalysis(context.Background(), h.doc.ID, "")
	require.NoError(t, err)

	h.orch.Process(context.Background(), job.ID)
	succeeded, err := h.jobs.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	require.Equal(t, analysis.JobSucceeded, succeeded.Status)

	// A second delivery of the same job ID is a no-op.
	h.orch.Process(context.Background(), job.ID)
	again, err := h.jobs.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, succeeded.UpdatedAt, again.UpdatedAt)
}

// ─────────────────────────────────────────────────────────────────────────────
// Queries
// ─────────────────────────────────────────────────────────────────────────────

func TestLatestResult_RequiresDocument(t *testing.T) {
	h := newHarness(t)
	_, err := h.orch.LatestResult(context.Background(), uuid.New())
	assert.True(t, errors.IsNotFound(err))

	_, err = h.orch.LatestResult(context.Background(), h.doc.ID)
	assert.Equal(t, errors.ErrCodeResultsUnavailable, errors.GetCode(err))
}

// ─────────────────────────────────────────────────────────────────────────────
// Recovery
// ─────────────────────────────────────────────────────────────────────────────

func TestSweep_RequeuesStaleRunningJobs(t *testing.T) {
	h := newHarness(t)
	job, err := h.orch.StartAnalysis(context.Background(), h.doc.ID, "")
	require.NoError(t, err)

	// Simulate a worker crash: job stuck running with an old heartbeat.
	stuck, err := h.jobs.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	require.NoError(t, stuck.Start())
	stuck.UpdatedAt = time.Now().UTC().Add(-time.Hour)
	require.NoError(t, h.jobs.Update(context.Background(), stuck))

	requeued, err := h.orch.Sweep(context.Background(), 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, requeued)

	recovered, err := h.jobs.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, analysis.JobPending, recovered.Status)
	assert.Equal(t, 1, recovered.Attempts)
}

func TestSweep_IgnoresFreshRunningJobs(t *testing.T) {
	h := newHarness(t)
	job, err := h.orch.StartAnalysis(context.Background(), h.doc.ID, "")
	require.NoError(t, err)

	running, err := h.jobs.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	require.NoError(t, running.Start())
	require.NoError(t, h.jobs.Update(context.Background(), running))

	requeued, err := h.orch.Sweep(context.Background(), 10*time.Minute)
	require.NoError(t, err)
	assert.Zero(t, requeued)
}

func TestResumePending(t *testing.T) {
	h := newHarness(t)
	_, err := h.orch.StartAnalysis(context.Background(), h.doc.ID, "")
	require.NoError(t, err)

	n, err := h.orch.ResumePending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
