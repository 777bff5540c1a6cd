package textfeatures

import (
	"context"
	"time"

	"github.com/turtacn/PatentSentinel/internal/config"
	"github.com/turtacn/PatentSentinel/internal/domain/analysis"
	"github.com/turtacn/PatentSentinel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/PatentSentinel/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/PatentSentinel/pkg/errors"
)

// Extractor is the contract both the raw Client and the retrying decorator
// satisfy: the three feature-extraction operations over raw text.
type Extractor interface {
	Entities(ctx context.Context, text string) (map[string][]analysis.ScoredText, error)
	KeyPhrases(ctx context.Context, text string) ([]analysis.ScoredText, error)
	Sentiment(ctx context.Context, text string) (*analysis.Sentiment, error)
}

// RetryingExtractor decorates an Extractor with bounded retry on transient
// failures, applied per operation.  Backoff doubles per attempt (e.g. 1s, 2s,
// 4s).  When the retry budget is exhausted the last transient error is
// reclassified as permanent: from the pipeline's perspective further retries
// cannot succeed, and the job must fail rather than loop.
type RetryingExtractor struct {
	inner       Extractor
	maxAttempts int
	backoff     time.Duration
	metrics     *prometheus.Metrics
	log         logging.Logger
}

// NewRetryingExtractor constructs the decorator.  maxAttempts counts the
// initial call, so MaxAttempts=3 means at most two retries.
func NewRetryingExtractor(inner Extractor, cfg config.ExtractionConfig, metrics *prometheus.Metrics, log logging.Logger) *RetryingExtractor {
	return &RetryingExtractor{
		inner:       inner,
		maxAttempts: cfg.MaxAttempts,
		backoff:     cfg.RetryBackoff,
		metrics:     metrics,
		log:         log.Named("textfeatures.retry"),
	}
}

// Entities calls the wrapped extractor, retrying transient failures.
func (r *RetryingExtractor) Entities(ctx context.Context, text string) (map[string][]analysis.ScoredText, error) {
	var out map[string][]analysis.ScoredText
	err := r.retry(ctx, "entities", func(ctx context.Context) error {
		var callErr error
		out, callErr = r.inner.Entities(ctx, text)
		return callErr
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// KeyPhrases calls the wrapped extractor, retrying transient failures.
func (r *RetryingExtractor) KeyPhrases(ctx context.Context, text string) ([]analysis.ScoredText, error) {
	var out []analysis.ScoredText
	err := r.retry(ctx, "key_phrases", func(ctx context.Context) error {
		var callErr error
		out, callErr = r.inner.KeyPhrases(ctx, text)
		return callErr
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Sentiment calls the wrapped extractor, retrying transient failures.
func (r *RetryingExtractor) Sentiment(ctx context.Context, text string) (*analysis.Sentiment, error) {
	var out *analysis.Sentiment
	err := r.retry(ctx, "sentiment", func(ctx context.Context) error {
		var callErr error
		out, callErr = r.inner.Sentiment(ctx, text)
		return callErr
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// retry runs call with the bounded retry policy.
func (r *RetryingExtractor) retry(ctx context.Context, op string, call func(ctx context.Context) error) error {
	var lastErr error
	delay := r.backoff

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		err := call(ctx)
		if err == nil {
			if r.metrics != nil {
				r.metrics.ExtractionCallsTotal.WithLabelValues("ok").Inc()
			}
			return nil
		}
		lastErr = err

		if !errors.IsTransient(err) {
			if r.metrics != nil {
				r.metrics.ExtractionCallsTotal.WithLabelValues("rejected").Inc()
			}
			return err
		}
		if r.metrics != nil {
			r.metrics.ExtractionCallsTotal.WithLabelValues("transient").Inc()
		}
		if attempt == r.maxAttempts {
			break
		}

		r.log.Warn("transient extraction failure, backing off",
			logging.String("operation", op),
			logging.Int("attempt", attempt),
			logging.Duration("delay", delay),
			logging.Err(err))
		if r.metrics != nil {
			r.metrics.ExtractionRetriesTotal.Inc()
		}

		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), errors.ErrCodeTransient, "extraction cancelled during backoff")
		case <-time.After(delay):
		}
		delay *= 2
	}

	return errors.Wrap(lastErr, errors.ErrCodePermanent,
		"feature extraction failed after exhausting retries")
}
