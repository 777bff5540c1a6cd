package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/turtacn/PatentSentinel/internal/domain/analysis"
)

// AnalysisService is the application-layer contract the analysis endpoints
// depend on.  The orchestrator implements it.
type AnalysisService interface {
	StartAnalysis(ctx context.Context, documentID uuid.UUID, keywordSet string) (*analysis.Job, error)
	GetJob(ctx context.Context, jobID uuid.UUID) (*analysis.Job, error)
	LatestResult(ctx context.Context, documentID uuid.UUID) (*analysis.Result, error)
	ListResults(ctx context.Context, documentID uuid.UUID, limit int) ([]*analysis.Result, error)
}

// AnalysisHandler serves job submission and result queries.
type AnalysisHandler struct {
	svc AnalysisService
}

// NewAnalysisHandler constructs an AnalysisHandler.
func NewAnalysisHandler(svc AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{svc: svc}
}

// startAnalysisRequest is the optional POST body selecting a keyword set.
type startAnalysisRequest struct {
	KeywordSet string `json:"keyword_set"`
}

// jobResponse is the wire shape of a job.  The API commits to three statuses
// — in_progress, completed, failed — while the job aggregate distinguishes
// pending from running internally.
type jobResponse struct {
	ID          uuid.UUID  `json:"id"`
	DocumentID  uuid.UUID  `json:"document_id"`
	KeywordSet  string     `json:"keyword_set"`
	Status      string     `json:"status"`
	Attempts    int        `json:"attempts"`
	LastError   string     `json:"last_error,omitempty"`
	EnqueuedAt  time.Time  `json:"enqueued_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// wireJobStatus maps internal job states to the statuses the API commits to.
func wireJobStatus(s analysis.JobStatus) string {
	switch s {
	case analysis.JobSucceeded:
		return "completed"
	case analysis.JobFailed:
		return "failed"
	default:
		return "in_progress"
	}
}

func toJobResponse(job *analysis.Job) jobResponse {
	return jobResponse{
		ID:          job.ID,
		DocumentID:  job.DocumentID,
		KeywordSet:  job.KeywordSet,
		Status:      wireJobStatus(job.Status),
		Attempts:    job.Attempts,
		LastError:   job.LastError,
		EnqueuedAt:  job.EnqueuedAt,
		StartedAt:   job.StartedAt,
		CompletedAt: job.CompletedAt,
		UpdatedAt:   job.UpdatedAt,
	}
}

// Start handles POST /api/v1/documents/:documentID/analysis.  It answers 202
// with the pending job; a duplicate submission answers 409 carrying the
// in-flight job's ID in the detail field.
func (h *AnalysisHandler) Start(c *gin.Context) {
	id, ok := parseUUIDParam(c, "documentID")
	if !ok {
		return
	}

	var req startAnalysisRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, validationErr(err))
			return
		}
	}

	job, err := h.svc.StartAnalysis(c.Request.Context(), id, req.KeywordSet)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, toJobResponse(job))
}

// GetJob handles GET /api/v1/analysis/jobs/:jobID.
func (h *AnalysisHandler) GetJob(c *gin.Context) {
	id, ok := parseUUIDParam(c, "jobID")
	if !ok {
		return
	}
	job, err := h.svc.GetJob(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toJobResponse(job))
}

// LatestResult handles GET /api/v1/documents/:documentID/analysis/results/latest.
func (h *AnalysisHandler) LatestResult(c *gin.Context) {
	id, ok := parseUUIDParam(c, "documentID")
	if !ok {
		return
	}
	res, err := h.svc.LatestResult(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ListResults handles GET /api/v1/documents/:documentID/analysis/results.
func (h *AnalysisHandler) ListResults(c *gin.Context) {
	id, ok := parseUUIDParam(c, "documentID")
	if !ok {
		return
	}
	limit := 0
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	results, err := h.svc.ListResults(c.Request.Context(), id, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	if results == nil {
		results = []*analysis.Result{}
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
}
