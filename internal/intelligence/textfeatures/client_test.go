package textfeatures

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/PatentSentinel/internal/config"
	"github.com/turtacn/PatentSentinel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/PatentSentinel/pkg/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.ExtractionConfig{
		BaseURL: srv.URL,
		Timeout: 2 * time.Second,
	}, logging.NewNopLogger())
}

func TestClientEntities_GroupedByType(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/entities", r.URL.Path)

		var req extractRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "neural network accelerator", req.Text)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"entities": [
			{"text": "FPGA", "type": "TECHNICAL", "score": 0.9},
			{"text": "Alice Smith", "type": "PERSON", "score": 0.99},
			{"text": "CUDA", "type": "TECHNICAL", "score": 0.8}
		]}`))
	})

	entities, err := c.Entities(context.Background(), "neural network accelerator")
	require.NoError(t, err)
	require.Len(t, entities, 2)
	require.Len(t, entities["TECHNICAL"], 2)
	assert.Equal(t, "FPGA", entities["TECHNICAL"][0].Text)
	assert.Equal(t, "CUDA", entities["TECHNICAL"][1].Text)
	assert.Equal(t, "Alice Smith", entities["PERSON"][0].Text)
}

func TestClientKeyPhrases_SortedByScore(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/key-phrases", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"key_phrases": [
			{"text": "edge inference", "score": 0.7},
			{"text": "neural network", "score": 0.95},
			{"text": "fpga", "score": 0.9}
		]}`))
	})

	phrases, err := c.KeyPhrases(context.Background(), "text")
	require.NoError(t, err)
	require.Len(t, phrases, 3)
	assert.Equal(t, "neural network", phrases[0].Text)
	assert.Equal(t, "fpga", phrases[1].Text)
	assert.Equal(t, "edge inference", phrases[2].Text)
}

func TestClientSentiment(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/sentiment", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sentiment": "NEUTRAL", "scores": {"NEUTRAL": 0.8, "POSITIVE": 0.15, "NEGATIVE": 0.05}}`))
	})

	s, err := c.Sentiment(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, "NEUTRAL", s.Label)
	assert.InDelta(t, 0.8, s.Scores["NEUTRAL"], 1e-9)
}

func TestClient_Throttled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	})

	_, err := c.KeyPhrases(context.Background(), "text")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeExtractionThrottled, errors.GetCode(err))
	assert.True(t, errors.IsTransient(err))
}

func TestClient_ServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "oops", http.StatusBadGateway)
	})

	_, err := c.Entities(context.Background(), "text")
	require.Error(t, err)
	assert.True(t, errors.IsTransient(err))
}

func TestClient_Rejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unsupported language", http.StatusBadRequest)
	})

	_, err := c.Sentiment(context.Background(), "text")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeExtractionRejected, errors.GetCode(err))
	assert.False(t, errors.IsTransient(err))
}

func TestClient_ConnectionFailure(t *testing.T) {
	c := NewClient(config.ExtractionConfig{
		BaseURL: "http://127.0.0.1:1",
		Timeout: 500 * time.Millisecond,
	}, logging.NewNopLogger())

	_, err := c.KeyPhrases(context.Background(), "text")
	require.Error(t, err)
	assert.True(t, errors.IsTransient(err))
}
