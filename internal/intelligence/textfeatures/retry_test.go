package textfeatures

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/PatentSentinel/internal/config"
	"github.com/turtacn/PatentSentinel/internal/domain/analysis"
	"github.com/turtacn/PatentSentinel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/PatentSentinel/pkg/errors"
)

// fakeExtractor returns canned responses per call, shared by all operations.
type fakeExtractor struct {
	calls int
	fn    func(call int) error
}

func (f *fakeExtractor) Entities(context.Context, string) (map[string][]analysis.ScoredText, error) {
	f.calls++
	if err := f.fn(f.calls); err != nil {
		return nil, err
	}
	return map[string][]analysis.ScoredText{}, nil
}

func (f *fakeExtractor) KeyPhrases(context.Context, string) ([]analysis.ScoredText, error) {
	f.calls++
	if err := f.fn(f.calls); err != nil {
		return nil, err
	}
	return []analysis.ScoredText{}, nil
}

func (f *fakeExtractor) Sentiment(context.Context, string) (*analysis.Sentiment, error) {
	f.calls++
	if err := f.fn(f.calls); err != nil {
		return nil, err
	}
	return &analysis.Sentiment{Label: "NEUTRAL"}, nil
}

func retryCfg(attempts int) config.ExtractionConfig {
	return config.ExtractionConfig{
		MaxAttempts:  attempts,
		RetryBackoff: time.Millisecond,
	}
}

func TestRetry_SucceedsAfterTransientFailures(t *testing.T) {
	fake := &fakeExtractor{fn: func(call int) error {
		if call < 3 {
			return errors.Transient("nlp timeout")
		}
		return nil
	}}
	r := NewRetryingExtractor(fake, retryCfg(3), nil, logging.NewNopLogger())

	phrases, err := r.KeyPhrases(context.Background(), "text")
	require.NoError(t, err)
	assert.NotNil(t, phrases)
	assert.Equal(t, 3, fake.calls)
}

func TestRetry_ExhaustionBecomesPermanent(t *testing.T) {
	fake := &fakeExtractor{fn: func(int) error {
		return errors.New(errors.ErrCodeExtractionThrottled, "throttled")
	}}
	r := NewRetryingExtractor(fake, retryCfg(3), nil, logging.NewNopLogger())

	_, err := r.Entities(context.Background(), "text")
	require.Error(t, err)
	assert.Equal(t, 3, fake.calls)
	assert.Equal(t, errors.ErrCodePermanent, errors.GetCode(err))
	// The transient cause stays in the chain for diagnostics.
	assert.True(t, errors.IsCode(err, errors.ErrCodeExtractionThrottled))
}

func TestRetry_PermanentFailsImmediately(t *testing.T) {
	fake := &fakeExtractor{fn: func(int) error {
		return errors.New(errors.ErrCodeExtractionRejected, "bad input")
	}}
	r := NewRetryingExtractor(fake, retryCfg(3), nil, logging.NewNopLogger())

	_, err := r.Sentiment(context.Background(), "text")
	require.Error(t, err)
	assert.Equal(t, 1, fake.calls)
	assert.Equal(t, errors.ErrCodeExtractionRejected, errors.GetCode(err))
}

func TestRetry_BudgetIsPerOperation(t *testing.T) {
	// One transient failure per operation: each call sequence gets its own
	// retry budget and succeeds on the second attempt.
	fail := map[int]bool{1: true, 3: true}
	fake := &fakeExtractor{fn: func(call int) error {
		if fail[call] {
			return errors.Transient("nlp timeout")
		}
		return nil
	}}
	r := NewRetryingExtractor(fake, retryCfg(2), nil, logging.NewNopLogger())

	_, err := r.KeyPhrases(context.Background(), "text")
	require.NoError(t, err)
	_, err = r.Entities(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, 4, fake.calls)
}

func TestRetry_ContextCancelledDuringBackoff(t *testing.T) {
	fake := &fakeExtractor{fn: func(int) error {
		return errors.Transient("nlp timeout")
	}}
	cfg := config.ExtractionConfig{MaxAttempts: 3, RetryBackoff: time.Minute}
	r := NewRetryingExtractor(fake, cfg, nil, logging.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := r.KeyPhrases(ctx, "text")
	require.Error(t, err)
	assert.Equal(t, 1, fake.calls)
	assert.True(t, errors.IsTransient(err))
}
