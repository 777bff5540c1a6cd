package analysis

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/PatentSentinel/internal/config"
	"github.com/turtacn/PatentSentinel/internal/domain/analysis"
	"github.com/turtacn/PatentSentinel/internal/domain/document"
	"github.com/turtacn/PatentSentinel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/PatentSentinel/pkg/errors"
)

type recordingChannel struct {
	payloads map[string][]byte
	err      error
}

func (r *recordingChannel) Publish(_ context.Context, channel, _ string, payload []byte) error {
	if r.err != nil {
		return r.err
	}
	if r.payloads == nil {
		r.payloads = make(map[string][]byte)
	}
	r.payloads[channel] = payload
	return nil
}

const testTemplateJSON = `{
  "default": "Risk {{.RiskLevel}} for {{.DocumentTitle}}, owner {{.Recipient}}",
  "email": {
    "subject": "[{{.RiskLevel}}] Patent risk: {{.DocumentTitle}}",
    "text": "Hello {{.Recipient}}, {{.Summary}} Closest: {{range $i, $m := .TopMatches}}{{if $i}}, {{end}}{{$m.Title}} ({{$m.Similarity}}){{end}}. See {{.DashboardURL}}",
    "html": "<b>{{.DocumentTitle}}</b>: {{.RiskLevel}}"
  },
  "sms": "Patent risk {{.RiskLevel}}: {{.DocumentTitle}}"
}`

func writeTemplate(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "alert_template.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testAlertResult(level analysis.RiskLevel) *analysis.Result {
	return &analysis.Result{
		ID:         uuid.New(),
		JobID:      uuid.New(),
		DocumentID: uuid.New(),
		Matches: []analysis.Match{
			{DocumentID: uuid.New(), Title: "Inference engine for FPGAs", Similarity: 0.95},
			{DocumentID: uuid.New(), Title: "Quantized accelerator", Similarity: 0.9},
			{DocumentID: uuid.New(), Title: "Signal pipeline", Similarity: 0.85},
			{DocumentID: uuid.New(), Title: "Distant relative", Similarity: 0.45},
		},
		Assessment: analysis.RiskAssessment{
			OverallRisk:          level,
			RiskFactors:          []string{"Multiple highly similar patents found"},
			HighSimilarityCount:  3,
			AverageTopSimilarity: 0.9,
		},
	}
}

func testAlertDoc(t *testing.T) *document.Document {
	t.Helper()
	d, err := document.New(document.Fields{
		Owner:    "jdoe",
		Title:    "Edge inference unit",
		Abstract: "An FPGA based neural network accelerator.",
	})
	require.NoError(t, err)
	return d
}

func TestDispatch_RendersPerChannelParts(t *testing.T) {
	ch := &recordingChannel{}
	d := NewAlertDispatcher(ch, config.AlertConfig{
		TemplatePath:     writeTemplate(t, testTemplateJSON),
		Channels:         []string{"email", "sms", "in_app"},
		MinRiskLevel:     "medium",
		DashboardBaseURL: "http://dash.local",
	}, nil, logging.NewNopLogger())

	doc := testAlertDoc(t)
	require.NoError(t, d.Dispatch(context.Background(), doc, testAlertResult(analysis.RiskHigh)))
	require.Len(t, ch.payloads, 3)

	var email Notification
	require.NoError(t, json.Unmarshal(ch.payloads["email"], &email))
	assert.Equal(t, "[high] Patent risk: Edge inference unit", email.Subject)
	assert.Contains(t, email.Body, "Hello jdoe,")
	assert.Contains(t, email.Body, "Inference engine for FPGAs (95.0%)")
	assert.Contains(t, email.HTMLBody, "<b>Edge inference unit</b>")

	var sms Notification
	require.NoError(t, json.Unmarshal(ch.payloads["sms"], &sms))
	assert.Equal(t, "Patent risk high: Edge inference unit", sms.Body)
	assert.Empty(t, sms.Subject)

	var inApp Notification
	require.NoError(t, json.Unmarshal(ch.payloads["in_app"], &inApp))
	assert.Equal(t, "Risk high for Edge inference unit, owner jdoe", inApp.Body)
	assert.Equal(t, doc.ID.String(), inApp.DocumentID)
}

// Every notification identifies the recipient, the three strongest matches
// with display-ready percentages, a summary sentence, and a dashboard link
// pointing at the analyzed document.
func TestDispatch_NotificationCarriesRecipientMatchesAndLink(t *testing.T) {
	ch := &recordingChannel{}
	d := NewAlertDispatcher(ch, config.AlertConfig{
		TemplatePath:     writeTemplate(t, testTemplateJSON),
		Channels:         []string{"in_app"},
		MinRiskLevel:     "high",
		DashboardBaseURL: "http://dash.local/",
	}, nil, logging.NewNopLogger())

	doc := testAlertDoc(t)
	res := testAlertResult(analysis.RiskHigh)
	require.NoError(t, d.Dispatch(context.Background(), doc, res))

	var n Notification
	require.NoError(t, json.Unmarshal(ch.payloads["in_app"], &n))
	assert.Equal(t, "jdoe", n.Recipient)
	assert.Equal(t, 4, n.MatchCount)
	require.Len(t, n.TopMatches, 3)
	assert.Equal(t, "Inference engine for FPGAs", n.TopMatches[0].Title)
	assert.Equal(t, "95.0%", n.TopMatches[0].Similarity)
	assert.Equal(t, "90.0%", n.TopMatches[1].Similarity)
	assert.Equal(t, "85.0%", n.TopMatches[2].Similarity)
	assert.Equal(t, res.Matches[0].DocumentID.String(), n.TopMatches[0].DocumentID)
	assert.Equal(t,
		`Analysis of "Edge inference unit" found 4 similar patents (3 highly similar); overall risk is high.`,
		n.Summary)
	assert.Equal(t, "http://dash.local/dashboard?patent="+doc.ID.String(), n.DashboardURL)
}

func TestDispatch_BelowMinimumLevelSkips(t *testing.T) {
	ch := &recordingChannel{}
	d := NewAlertDispatcher(ch, config.AlertConfig{
		TemplatePath: writeTemplate(t, testTemplateJSON),
		Channels:     []string{"email"},
		MinRiskLevel: "medium",
	}, nil, logging.NewNopLogger())

	require.NoError(t, d.Dispatch(context.Background(), testAlertDoc(t), testAlertResult(analysis.RiskLow)))
	assert.Empty(t, ch.payloads)
}

// With the stock configuration only high-risk results alert; a medium-risk
// result publishes nothing on any channel.
func TestDispatch_DefaultMinimumSuppressesMediumRisk(t *testing.T) {
	cfg := config.Config{}
	config.ApplyDefaults(&cfg)
	cfg.Alert.TemplatePath = writeTemplate(t, testTemplateJSON)

	ch := &recordingChannel{}
	d := NewAlertDispatcher(ch, cfg.Alert, nil, logging.NewNopLogger())

	require.NoError(t, d.Dispatch(context.Background(), testAlertDoc(t), testAlertResult(analysis.RiskMedium)))
	assert.Empty(t, ch.payloads)

	require.NoError(t, d.Dispatch(context.Background(), testAlertDoc(t), testAlertResult(analysis.RiskHigh)))
	assert.NotEmpty(t, ch.payloads)
}

func TestDispatch_MissingTemplateUsesFallback(t *testing.T) {
	ch := &recordingChannel{}
	d := NewAlertDispatcher(ch, config.AlertConfig{
		TemplatePath:     filepath.Join(t.TempDir(), "missing.json"),
		Channels:         []string{"in_app"},
		MinRiskLevel:     "low",
		DashboardBaseURL: "http://dash.local",
	}, nil, logging.NewNopLogger())

	require.NoError(t, d.Dispatch(context.Background(), testAlertDoc(t), testAlertResult(analysis.RiskMedium)))

	var n Notification
	require.NoError(t, json.Unmarshal(ch.payloads["in_app"], &n))
	assert.Contains(t, n.Body, "Patent risk alert for jdoe")
	assert.Contains(t, n.Body, "Edge inference unit")
	assert.Contains(t, n.Body, "medium")
	assert.Contains(t, n.Body, "http://dash.local/dashboard?patent=")
}

func TestDispatch_DeliveryFailureReported(t *testing.T) {
	ch := &recordingChannel{err: errors.Storage("broker down")}
	d := NewAlertDispatcher(ch, config.AlertConfig{
		TemplatePath: writeTemplate(t, testTemplateJSON),
		Channels:     []string{"email", "in_app"},
		MinRiskLevel: "low",
	}, nil, logging.NewNopLogger())

	err := d.Dispatch(context.Background(), testAlertDoc(t), testAlertResult(analysis.RiskHigh))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeAlertDeliveryFailed, errors.GetCode(err))
}

func TestDispatch_MalformedTemplatePartFallsBack(t *testing.T) {
	ch := &recordingChannel{}
	d := NewAlertDispatcher(ch, config.AlertConfig{
		TemplatePath: writeTemplate(t, `{"default": "{{.Broken"}`),
		Channels:     []string{"in_app"},
		MinRiskLevel: "low",
	}, nil, logging.NewNopLogger())

	require.NoError(t, d.Dispatch(context.Background(), testAlertDoc(t), testAlertResult(analysis.RiskMedium)))
	var n Notification
	require.NoError(t, json.Unmarshal(ch.payloads["in_app"], &n))
	assert.Contains(t, n.Body, "Patent risk alert")
}
