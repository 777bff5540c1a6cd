// Package analysis implements the application-layer analysis pipeline: text
// feature extraction, similarity matching, risk assessment, alert dispatch,
// and the job orchestrator that drives them through an asynchronous worker
// pool.
package analysis

import (
	"context"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/turtacn/PatentSentinel/internal/config"
	"github.com/turtacn/PatentSentinel/internal/domain/analysis"
	"github.com/turtacn/PatentSentinel/internal/infrastructure/monitoring/logging"
)

// FeatureExtractor is the collaborator contract for the external NLP service:
// named entities grouped by type, key phrases with confidence, and sentiment.
// Implementations must classify failures: throttling and timeouts as
// transient codes, input rejection as permanent codes.
type FeatureExtractor interface {
	Entities(ctx context.Context, text string) (map[string][]analysis.ScoredText, error)
	KeyPhrases(ctx context.Context, text string) ([]analysis.ScoredText, error)
	Sentiment(ctx context.Context, text string) (*analysis.Sentiment, error)
}

// TextExtractor gathers the full feature set for a document's analyzable
// text and derives the candidate keyword list from it.  The text itself is
// assembled by the document aggregate; this type owns the per-call byte
// truncation the NLP provider requires and the keyword derivation rules.
type TextExtractor struct {
	extractor FeatureExtractor
	cfg       config.ExtractionConfig
	top       int
	log       logging.Logger
}

// NewTextExtractor constructs a TextExtractor.
func NewTextExtractor(extractor FeatureExtractor, extCfg config.ExtractionConfig, anlCfg config.AnalysisConfig, log logging.Logger) *TextExtractor {
	return &TextExtractor{
		extractor: extractor,
		cfg:       extCfg,
		top:       anlCfg.TopKeyPhrases,
		log:       log.Named("textextract"),
	}
}

// truncateUTF8 cuts s to at most max bytes without splitting a multi-byte
// rune.  The NLP service enforces a hard byte limit per request.
func truncateUTF8(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := s[:max]
	for len(cut) > 0 && !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	return cut
}

// Features runs all three extraction operations over text and assembles the
// document's feature set.  Each collaborator call receives the same
// byte-truncated input.
func (t *TextExtractor) Features(ctx context.Context, text string) (*analysis.Features, error) {
	truncated := truncateUTF8(text, t.cfg.MaxTextBytes)
	if len(truncated) < len(text) {
		t.log.Debug("truncated document text for extraction",
			logging.Int("original_bytes", len(text)),
			logging.Int("sent_bytes", len(truncated)))
	}

	entities, err := t.extractor.Entities(ctx, truncated)
	if err != nil {
		return nil, err
	}
	phrases, err := t.extractor.KeyPhrases(ctx, truncated)
	if err != nil {
		return nil, err
	}
	sentiment, err := t.extractor.Sentiment(ctx, truncated)
	if err != nil {
		return nil, err
	}

	// Key phrases are kept sorted by descending confidence in the persisted
	// feature set.
	sort.SliceStable(phrases, func(i, j int) bool { return phrases[i].Score > phrases[j].Score })

	feats := &analysis.Features{
		Entities:   entities,
		KeyPhrases: phrases,
	}
	if sentiment != nil {
		feats.Sentiment = *sentiment
	}
	return feats, nil
}

// Keywords derives the candidate keyword list from a feature set: the
// highest-scoring key phrases (at most the configured top-N) plus every
// technical entity, all lowercased, confidence-filtered and deduplicated.
// Order is deterministic: phrases by descending score, then entities, with
// first occurrence winning on duplicates.  Pure; never fails.
func (t *TextExtractor) Keywords(feats *analysis.Features) []string {
	if feats == nil {
		return nil
	}

	phrases := make([]analysis.ScoredText, 0, len(feats.KeyPhrases))
	for _, p := range feats.KeyPhrases {
		if p.Score >= t.cfg.MinConfidence {
			phrases = append(phrases, p)
		}
	}
	sort.SliceStable(phrases, func(i, j int) bool {
		return phrases[i].Score > phrases[j].Score
	})
	if len(phrases) > t.top {
		phrases = phrases[:t.top]
	}

	seen := make(map[string]struct{}, len(phrases))
	keywords := make([]string, 0, len(phrases))
	add := func(raw string) {
		kw := strings.ToLower(strings.TrimSpace(raw))
		if kw == "" {
			return
		}
		if _, dup := seen[kw]; dup {
			return
		}
		seen[kw] = struct{}{}
		keywords = append(keywords, kw)
	}

	for _, p := range phrases {
		add(p.Text)
	}
	for _, e := range feats.Entities[analysis.EntityTypeTechnical] {
		if e.Score >= t.cfg.MinConfidence {
			add(e.Text)
		}
	}

	return keywords
}
