// Package textfeatures provides the HTTP client for the external
// feature-extraction (NLP) service and its retrying decorator.  The service
// exposes three operations — named entities, key phrases and sentiment — over
// raw text; this package maps its wire protocol and failure modes onto the
// platform's error taxonomy so the pipeline can make retry decisions.
package textfeatures

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"

	"github.com/turtacn/PatentSentinel/internal/config"
	"github.com/turtacn/PatentSentinel/internal/domain/analysis"
	"github.com/turtacn/PatentSentinel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/PatentSentinel/pkg/errors"
)

// Service endpoints relative to the configured base URL.
const (
	entitiesPath   = "/v1/entities"
	keyPhrasesPath = "/v1/key-phrases"
	sentimentPath  = "/v1/sentiment"
)

// maxErrorBodyBytes bounds how much of an error response body is read for
// diagnostics.
const maxErrorBodyBytes = 4 << 10

// extractRequest is the wire request shared by all three operations.
type extractRequest struct {
	Text string `json:"text"`
}

type entitiesResponse struct {
	Entities []struct {
		Text  string  `json:"text"`
		Type  string  `json:"type"`
		Score float64 `json:"score"`
	} `json:"entities"`
}

type keyPhrasesResponse struct {
	KeyPhrases []struct {
		Text  string  `json:"text"`
		Score float64 `json:"score"`
	} `json:"key_phrases"`
}

type sentimentResponse struct {
	Sentiment string             `json:"sentiment"`
	Scores    map[string]float64 `json:"scores"`
}

// Client is the HTTP feature-extraction client.  Each operation performs a
// single call; wrap it in a RetryingExtractor for transient-failure retry.
type Client struct {
	baseURL string
	http    *http.Client
	log     logging.Logger
}

// NewClient constructs a Client from the extraction configuration.
func NewClient(cfg config.ExtractionConfig, log logging.Logger) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: cfg.Timeout},
		log:     log.Named("textfeatures"),
	}
}

// Entities detects named entities in text, grouped by entity type with
// per-entity order preserved.
func (c *Client) Entities(ctx context.Context, text string) (map[string][]analysis.ScoredText, error) {
	var wire entitiesResponse
	if err := c.post(ctx, entitiesPath, text, &wire); err != nil {
		return nil, err
	}
	grouped := make(map[string][]analysis.ScoredText, 4)
	for _, e := range wire.Entities {
		grouped[e.Type] = append(grouped[e.Type], analysis.ScoredText{Text: e.Text, Score: e.Score})
	}
	return grouped, nil
}

// KeyPhrases detects salient phrases in text, sorted by descending
// confidence.
func (c *Client) KeyPhrases(ctx context.Context, text string) ([]analysis.ScoredText, error) {
	var wire keyPhrasesResponse
	if err := c.post(ctx, keyPhrasesPath, text, &wire); err != nil {
		return nil, err
	}
	phrases := make([]analysis.ScoredText, 0, len(wire.KeyPhrases))
	for _, p := range wire.KeyPhrases {
		phrases = append(phrases, analysis.ScoredText{Text: p.Text, Score: p.Score})
	}
	sort.SliceStable(phrases, func(i, j int) bool { return phrases[i].Score > phrases[j].Score })
	return phrases, nil
}

// Sentiment classifies the overall sentiment of text.
func (c *Client) Sentiment(ctx context.Context, text string) (*analysis.Sentiment, error) {
	var wire sentimentResponse
	if err := c.post(ctx, sentimentPath, text, &wire); err != nil {
		return nil, err
	}
	return &analysis.Sentiment{Label: wire.Sentiment, Scores: wire.Scores}, nil
}

// post sends text to one service endpoint and decodes the response into out.
//
// Failure classification:
//   - network errors, timeouts, HTTP 429 and 5xx → transient codes
//   - HTTP 4xx (other than 429)                 → permanent rejection
func (c *Client) post(ctx context.Context, path, text string, out any) error {
	body, err := json.Marshal(extractRequest{Text: text})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to encode extraction request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to build extraction request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		// Connection failures and client timeouts are retryable.
		return errors.Wrap(err, errors.ErrCodeTransient, "feature extraction call failed")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decoding
	case resp.StatusCode == http.StatusTooManyRequests:
		return errors.New(errors.ErrCodeExtractionThrottled, "feature extraction throttled").
			WithDetail(readErrorBody(resp.Body))
	case resp.StatusCode >= 500:
		return errors.Newf(errors.ErrCodeTransient, "feature extraction server error (%d)", resp.StatusCode).
			WithDetail(readErrorBody(resp.Body))
	default:
		return errors.Newf(errors.ErrCodeExtractionRejected, "feature extraction rejected input (%d)", resp.StatusCode).
			WithDetail(readErrorBody(resp.Body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, errors.ErrCodeTransient, "failed to decode extraction response")
	}
	return nil
}

// readErrorBody drains up to maxErrorBodyBytes of a response body for error
// detail.
func readErrorBody(r io.Reader) string {
	b, err := io.ReadAll(io.LimitReader(r, maxErrorBodyBytes))
	if err != nil || len(b) == 0 {
		return ""
	}
	return fmt.Sprintf("response=%s", bytes.TrimSpace(b))
}
