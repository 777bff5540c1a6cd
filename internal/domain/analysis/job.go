// Package analysis implements the analysis bounded context: the job aggregate
// that tracks a single end-to-end pipeline run, the value objects produced by
// the pipeline stages, and the persistence contracts the application layer
// depends on.
package analysis

import (
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/PatentSentinel/pkg/errors"
)

// JobStatus is the lifecycle state of an analysis job.
type JobStatus string

const (
	// JobPending marks a job accepted and queued but not yet picked up by a
	// worker.
	JobPending JobStatus = "pending"

	// JobRunning marks a job currently executing the pipeline.
	JobRunning JobStatus = "running"

	// JobSucceeded is the terminal state of a job whose result was persisted.
	JobSucceeded JobStatus = "succeeded"

	// JobFailed is the terminal state of a job that failed permanently or
	// exhausted its retry budget.
	JobFailed JobStatus = "failed"
)

// jobTransitions defines the legal job state machine.  pending is reachable
// from running so that the recovery sweep can requeue jobs orphaned by a
// worker crash.
var jobTransitions = map[JobStatus][]JobStatus{
	JobPending:   {JobRunning},
	JobRunning:   {JobSucceeded, JobFailed, JobPending},
	JobSucceeded: {},
	JobFailed:    {},
}

// Terminal reports whether s is a final state.
func (s JobStatus) Terminal() bool {
	return s == JobSucceeded || s == JobFailed
}

// Active reports whether s counts toward the one-in-flight-job-per-document
// rule.
func (s JobStatus) Active() bool {
	return s == JobPending || s == JobRunning
}

// CanTransitionTo reports whether moving from s to next is legal.
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	for _, allowed := range jobTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Job is the aggregate root tracking one analysis run for one document.
type Job struct {
	ID         uuid.UUID `json:"id"`
	DocumentID uuid.UUID `json:"document_id"`

	// KeywordSet names the domain keyword set the pipeline matches against.
	KeywordSet string `json:"keyword_set"`

	Status JobStatus `json:"status"`

	// Attempts counts pipeline executions, including the first.  It is
	// incremented each time a worker starts the job.
	Attempts int `json:"attempts"`

	// LastError records the most recent failure message; empty on success.
	LastError string `json:"last_error,omitempty"`

	EnqueuedAt  time.Time  `json:"enqueued_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewJob constructs a pending Job for the given document.
func NewJob(documentID uuid.UUID, keywordSet string) (*Job, error) {
	if documentID == uuid.Nil {
		return nil, errors.Validation("document id must not be empty")
	}
	if keywordSet == "" {
		return nil, errors.Validation("keyword set name must not be empty")
	}
	now := time.Now().UTC()
	return &Job{
		ID:         uuid.New(),
		DocumentID: documentID,
		KeywordSet: keywordSet,
		Status:     JobPending,
		EnqueuedAt: now,
		UpdatedAt:  now,
	}, nil
}

func (j *Job) transition(next JobStatus) error {
	if j.Status.Terminal() {
		return errors.Newf(errors.ErrCodeJobTerminal,
			"job %s already %s", j.ID, j.Status)
	}
	if !j.Status.CanTransitionTo(next) {
		return errors.Newf(errors.ErrCodeConflict,
			"illegal job status transition %s → %s", j.Status, next)
	}
	j.Status = next
	j.UpdatedAt = time.Now().UTC()
	return nil
}

// Start marks the job running and increments the attempt counter.
func (j *Job) Start() error {
	if err := j.transition(JobRunning); err != nil {
		return err
	}
	j.Attempts++
	now := time.Now().UTC()
	j.StartedAt = &now
	return nil
}

// Succeed marks the job succeeded and clears any recorded error.
func (j *Job) Succeed() error {
	if err := j.transition(JobSucceeded); err != nil {
		return err
	}
	j.LastError = ""
	now := time.Now().UTC()
	j.CompletedAt = &now
	return nil
}

// Fail marks the job failed and records the failure message.
func (j *Job) Fail(reason string) error {
	if err := j.transition(JobFailed); err != nil {
		return err
	}
	j.LastError = reason
	now := time.Now().UTC()
	j.CompletedAt = &now
	return nil
}

// Requeue returns a running job to pending.  Used by the recovery sweep when
// a worker died mid-run; the attempt already consumed stays counted.
func (j *Job) Requeue(reason string) error {
	if err := j.transition(JobPending); err != nil {
		return err
	}
	j.LastError = reason
	j.StartedAt = nil
	return nil
}

// Duration reports elapsed wall time from enqueue to completion, or zero when
// the job has not completed.
func (j *Job) Duration() time.Duration {
	if j.CompletedAt == nil {
		return 0
	}
	return j.CompletedAt.Sub(j.EnqueuedAt)
}
