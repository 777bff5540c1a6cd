package analysis

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/PatentSentinel/pkg/errors"
)

func newTestJob(t *testing.T) *Job {
	t.Helper()
	j, err := NewJob(uuid.New(), "artificial_intelligence")
	require.NoError(t, err)
	return j
}

func TestNewJob(t *testing.T) {
	j := newTestJob(t)
	assert.Equal(t, JobPending, j.Status)
	assert.Zero(t, j.Attempts)
	assert.False(t, j.EnqueuedAt.IsZero())

	_, err := NewJob(uuid.Nil, "set")
	assert.Equal(t, errors.ErrCodeValidation, errors.GetCode(err))

	_, err = NewJob(uuid.New(), "")
	assert.Equal(t, errors.ErrCodeValidation, errors.GetCode(err))
}

func TestJobLifecycle_Success(t *testing.T) {
	j := newTestJob(t)

	require.NoError(t, j.Start())
	assert.Equal(t, JobRunning, j.Status)
	assert.Equal(t, 1, j.Attempts)
	require.NotNil(t, j.StartedAt)

	require.NoError(t, j.Succeed())
	assert.Equal(t, JobSucceeded, j.Status)
	assert.True(t, j.Status.Terminal())
	require.NotNil(t, j.CompletedAt)
	assert.True(t, j.Duration() > 0 || j.Duration() == 0) // completed => non-negative
}

func TestJobLifecycle_Failure(t *testing.T) {
	j := newTestJob(t)

	require.NoError(t, j.Start())
	require.NoError(t, j.Fail("extraction rejected input"))

	assert.Equal(t, JobFailed, j.Status)
	assert.Equal(t, "extraction rejected input", j.LastError)
}

func TestJobRequeue(t *testing.T) {
	j := newTestJob(t)
	require.NoError(t, j.Start())

	require.NoError(t, j.Requeue("worker lost"))
	assert.Equal(t, JobPending, j.Status)
	assert.Nil(t, j.StartedAt)
	// The consumed attempt stays counted.
	assert.Equal(t, 1, j.Attempts)

	// The requeued job can run again.
	require.NoError(t, j.Start())
	assert.Equal(t, 2, j.Attempts)
}

func TestJobTerminalStatesAreFrozen(t *testing.T) {
	j := newTestJob(t)
	require.NoError(t, j.Start())
	require.NoError(t, j.Succeed())

	for _, op := range []func() error{j.Start, j.Succeed, func() error { return j.Fail("x") }} {
		err := op()
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeJobTerminal, errors.GetCode(err))
	}
}

func TestJobIllegalTransitions(t *testing.T) {
	j := newTestJob(t)

	// pending cannot complete without running first
	err := j.Succeed()
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeConflict, errors.GetCode(err))

	err = j.Requeue("x")
	require.Error(t, err)
}

func TestJobStatusPredicates(t *testing.T) {
	assert.True(t, JobPending.Active())
	assert.True(t, JobRunning.Active())
	assert.False(t, JobSucceeded.Active())
	assert.False(t, JobFailed.Active())

	assert.False(t, JobPending.Terminal())
	assert.True(t, JobFailed.Terminal())
}

func TestRiskLevelAtLeast(t *testing.T) {
	assert.True(t, RiskHigh.AtLeast(RiskMedium))
	assert.True(t, RiskMedium.AtLeast(RiskMedium))
	assert.False(t, RiskLow.AtLeast(RiskMedium))
	assert.True(t, RiskLow.AtLeast(RiskLow))
	assert.False(t, RiskLevel("bogus").AtLeast(RiskLow))

	assert.True(t, RiskHigh.IsValid())
	assert.False(t, RiskLevel("critical").IsValid())
}
