package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/turtacn/PatentSentinel/internal/config"
	"github.com/turtacn/PatentSentinel/internal/domain/analysis"
	"github.com/turtacn/PatentSentinel/internal/domain/document"
	"github.com/turtacn/PatentSentinel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/PatentSentinel/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/PatentSentinel/pkg/errors"
)

// NotificationMatch is one of the strongest matches carried in an alert, with
// the similarity preformatted as a percentage for display.
type NotificationMatch struct {
	DocumentID string `json:"document_id"`
	Title      string `json:"title"`
	Similarity string `json:"similarity"`
}

// Notification is the rendered alert payload published to a delivery channel.
type Notification struct {
	Recipient     string              `json:"recipient"`
	DocumentID    string              `json:"document_id"`
	DocumentTitle string              `json:"document_title"`
	JobID         string              `json:"job_id"`
	Channel       string              `json:"channel"`
	RiskLevel     string              `json:"risk_level"`
	MatchCount    int                 `json:"match_count"`
	TopMatches    []NotificationMatch `json:"top_matches,omitempty"`
	Summary       string              `json:"summary"`
	DashboardURL  string              `json:"dashboard_url"`
	Subject       string              `json:"subject,omitempty"`
	Body          string              `json:"body"`
	HTMLBody      string              `json:"html_body,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
}

// NotificationChannel abstracts the delivery transport.  The production
// implementation publishes to per-channel Kafka topics.
type NotificationChannel interface {
	Publish(ctx context.Context, channel string, key string, payload []byte) error
}

// templateFile is the on-disk shape of the alert template set.  Any part may
// be omitted; the default part then applies.
type templateFile struct {
	Default string `json:"default"`
	Email   struct {
		Subject string `json:"subject"`
		Text    string `json:"text"`
		HTML    string `json:"html"`
	} `json:"email"`
	SMS string `json:"sms"`
}

// templateData is what the template parts render against.
type templateData struct {
	Recipient     string
	DocumentTitle string
	RiskLevel     string
	MatchCount    int
	TopMatches    []NotificationMatch
	Summary       string
	DashboardURL  string
}

// fallbackTemplate is used when no template file is available or a part fails
// to render.  Alerts must go out even with a broken template.
const fallbackTemplate = "Patent risk alert for {{.Recipient}}: {{.Summary}} Details: {{.DashboardURL}}"

// templateSet holds the parsed template parts, swapped atomically on reload.
type templateSet struct {
	defaultPart  *template.Template
	emailSubject *template.Template
	emailText    *template.Template
	emailHTML    *template.Template
	sms          *template.Template
}

// AlertDispatcher renders and publishes risk alerts for completed analyses
// whose risk level meets the configured minimum.
type AlertDispatcher struct {
	channel      NotificationChannel
	channels     []string
	minLevel     analysis.RiskLevel
	path         string
	dashboardURL string
	metrics      *prometheus.Metrics
	log          logging.Logger

	mu  sync.RWMutex
	set *templateSet

	watcher *fsnotify.Watcher
}

// NewAlertDispatcher constructs an AlertDispatcher and loads the template
// file.  A missing or malformed file is logged and the built-in fallback
// template used instead.
func NewAlertDispatcher(ch NotificationChannel, cfg config.AlertConfig, metrics *prometheus.Metrics, log logging.Logger) *AlertDispatcher {
	d := &AlertDispatcher{
		channel:      ch,
		channels:     cfg.Channels,
		minLevel:     analysis.RiskLevel(cfg.MinRiskLevel),
		path:         cfg.TemplatePath,
		dashboardURL: strings.TrimRight(cfg.DashboardBaseURL, "/"),
		metrics:      metrics,
		log:          log.Named("alert"),
	}
	d.set = d.loadTemplates()
	return d
}

// WatchTemplates reloads the template set whenever the file changes on disk.
// It returns after installing the watcher; reloads happen on a background
// goroutine until ctx is cancelled.
func (d *AlertDispatcher) WatchTemplates(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to create template watcher")
	}
	// Watch the directory: editors replace files on save, which drops a watch
	// installed directly on the file.
	if err := watcher.Add(filepath.Dir(d.path)); err != nil {
		watcher.Close()
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to watch template directory")
	}
	d.watcher = watcher

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != filepath.Clean(d.path) {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				set := d.loadTemplates()
				d.mu.Lock()
				d.set = set
				d.mu.Unlock()
				d.log.Info("alert templates reloaded", logging.String("path", d.path))
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				d.log.Warn("template watcher error", logging.Err(err))
			}
		}
	}()
	return nil
}

// loadTemplates parses the template file, substituting the fallback for any
// missing or unparseable part.
func (d *AlertDispatcher) loadTemplates() *templateSet {
	fallback := template.Must(template.New("fallback").Parse(fallbackTemplate))
	set := &templateSet{
		defaultPart:  fallback,
		emailSubject: fallback,
		emailText:    fallback,
		emailHTML:    fallback,
		sms:          fallback,
	}

	raw, err := os.ReadFile(d.path)
	if err != nil {
		d.log.Warn("alert template file unavailable, using fallback",
			logging.String("path", d.path), logging.Err(err))
		return set
	}
	var tf templateFile
	if err := json.Unmarshal(raw, &tf); err != nil {
		d.log.Warn("alert template file malformed, using fallback",
			logging.String("path", d.path), logging.Err(err))
		return set
	}

	parse := func(name, text string, dst **template.Template) {
		if strings.TrimSpace(text) == "" {
			return
		}
		t, err := template.New(name).Parse(text)
		if err != nil {
			d.log.Warn("alert template part failed to parse, using fallback",
				logging.String("part", name), logging.Err(err))
			return
		}
		*dst = t
	}
	parse("default", tf.Default, &set.defaultPart)
	parse("email_subject", tf.Email.Subject, &set.emailSubject)
	parse("email_text", tf.Email.Text, &set.emailText)
	parse("email_html", tf.Email.HTML, &set.emailHTML)
	parse("sms", tf.SMS, &set.sms)
	return set
}

func (d *AlertDispatcher) templates() *templateSet {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.set
}

// render executes t against data, falling back to the summary sentence when
// execution fails.
func render(t *template.Template, data templateData) string {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return fmt.Sprintf("Patent risk alert for %s: %s Details: %s",
			data.Recipient, data.Summary, data.DashboardURL)
	}
	return buf.String()
}

// summarize builds the one-sentence digest carried in every notification.
func summarize(doc *document.Document, res *analysis.Result) string {
	return fmt.Sprintf("Analysis of %q found %d similar patents (%d highly similar); overall risk is %s.",
		doc.Title, len(res.Matches), res.Assessment.HighSimilarityCount,
		string(res.Assessment.OverallRisk))
}

// deepLink builds the dashboard URL pointing at the analyzed document.
func (d *AlertDispatcher) deepLink(doc *document.Document) string {
	if d.dashboardURL == "" {
		return ""
	}
	return d.dashboardURL + "/dashboard?patent=" + doc.ID.String()
}

// Dispatch publishes one notification per configured channel for the given
// result.  Results below the minimum risk level are skipped.  Delivery
// failures are reported with ErrCodeAlertDeliveryFailed but do not stop
// delivery to the remaining channels.
func (d *AlertDispatcher) Dispatch(ctx context.Context, doc *document.Document, res *analysis.Result) error {
	if !res.Assessment.OverallRisk.AtLeast(d.minLevel) {
		d.log.Debug("risk below alert threshold, skipping dispatch",
			logging.String("document_id", doc.ID.String()),
			logging.String("overall_risk", string(res.Assessment.OverallRisk)))
		return nil
	}

	top := make([]NotificationMatch, 0, 3)
	for i, m := range res.Matches {
		if i == 3 {
			break
		}
		top = append(top, NotificationMatch{
			DocumentID: m.DocumentID.String(),
			Title:      m.Title,
			Similarity: fmt.Sprintf("%.1f%%", m.Similarity*100),
		})
	}
	summary := summarize(doc, res)
	link := d.deepLink(doc)
	data := templateData{
		Recipient:     doc.Owner,
		DocumentTitle: doc.Title,
		RiskLevel:     string(res.Assessment.OverallRisk),
		MatchCount:    len(res.Matches),
		TopMatches:    top,
		Summary:       summary,
		DashboardURL:  link,
	}
	set := d.templates()

	var firstErr error
	for _, ch := range d.channels {
		n := Notification{
			Recipient:     doc.Owner,
			DocumentID:    doc.ID.String(),
			DocumentTitle: doc.Title,
			JobID:         res.JobID.String(),
			Channel:       ch,
			RiskLevel:     string(res.Assessment.OverallRisk),
			MatchCount:    len(res.Matches),
			TopMatches:    top,
			Summary:       summary,
			DashboardURL:  link,
			CreatedAt:     time.Now().UTC(),
		}
		switch ch {
		case "email":
			n.Subject = render(set.emailSubject, data)
			n.Body = render(set.emailText, data)
			n.HTMLBody = render(set.emailHTML, data)
		case "sms":
			n.Body = render(set.sms, data)
		default:
			n.Body = render(set.defaultPart, data)
		}

		payload, err := json.Marshal(n)
		if err != nil {
			d.log.Error("failed to marshal notification", logging.Err(err))
			continue
		}
		if err := d.channel.Publish(ctx, ch, doc.ID.String(), payload); err != nil {
			d.log.Error("failed to publish alert",
				logging.String("channel", ch),
				logging.String("document_id", doc.ID.String()),
				logging.Err(err))
			if d.metrics != nil {
				d.metrics.AlertsDispatchedTotal.WithLabelValues(ch, "error").Inc()
			}
			if firstErr == nil {
				firstErr = errors.Wrap(err, errors.ErrCodeAlertDeliveryFailed,
					"failed to deliver alert on channel "+ch)
			}
			continue
		}
		if d.metrics != nil {
			d.metrics.AlertsDispatchedTotal.WithLabelValues(ch, "ok").Inc()
		}
	}
	return firstErr
}
