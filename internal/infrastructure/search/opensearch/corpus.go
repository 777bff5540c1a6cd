package opensearch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/turtacn/PatentSentinel/internal/domain/analysis"
	"github.com/turtacn/PatentSentinel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/PatentSentinel/pkg/errors"
)

const (
	defaultScrollSize = 1000
	scrollKeepAlive   = time.Minute
)

// CorpusReader streams the submitted-document corpus out of an OpenSearch
// index using the scroll API, so corpora beyond the search window size remain
// fully visible to the matching stage.  The index mirrors the documents
// table with the analyzable text denormalized into one field.
type CorpusReader struct {
	client *Client
	index  string
	size   int
	log    logging.Logger
}

var _ analysis.CorpusReader = (*CorpusReader)(nil)

// NewCorpusReader constructs a reader over the configured corpus index.
func NewCorpusReader(client *Client, log logging.Logger) *CorpusReader {
	size := client.cfg.ScrollSize
	if size <= 0 {
		size = defaultScrollSize
	}
	return &CorpusReader{client: client, index: client.cfg.Index, size: size, log: log}
}

// corpusDoc is the stored shape of one indexed document.
type corpusDoc struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	SubmittedAt time.Time `json:"submission_time"`
	Text        string    `json:"text"`
}

type scrollPage struct {
	ScrollID string `json:"_scroll_id"`
	Hits     struct {
		Hits []struct {
			Source corpusDoc `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// corpusQuery excludes the document under analysis server-side.
func corpusQuery(excluding uuid.UUID) string {
	return fmt.Sprintf(
		`{"query":{"bool":{"must_not":{"term":{"id":%q}}}},"sort":["_doc"]}`,
		excluding.String())
}

// Documents reads the corpus projection, excluding the given document and
// following the scroll cursor until the index is exhausted or limit is
// reached.
func (r *CorpusReader) Documents(ctx context.Context, excluding uuid.UUID, limit int) ([]*analysis.CorpusDocument, error) {
	raw := r.client.Raw()

	resp, err := raw.Search(
		raw.Search.WithContext(ctx),
		raw.Search.WithIndex(r.index),
		raw.Search.WithBody(strings.NewReader(corpusQuery(excluding))),
		raw.Search.WithSize(r.size),
		raw.Search.WithScroll(scrollKeepAlive),
	)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorage, "corpus search failed")
	}

	var (
		out      []*analysis.CorpusDocument
		scrollID string
	)
	defer func() {
		if scrollID != "" {
			r.clearScroll(scrollID)
		}
	}()

	for {
		page, err := decodePage(resp)
		if err != nil {
			return nil, err
		}
		scrollID = page.ScrollID

		for i := range page.Hits.Hits {
			doc := page.Hits.Hits[i].Source
			out = append(out, &analysis.CorpusDocument{
				ID:          doc.ID,
				Title:       doc.Title,
				SubmittedAt: doc.SubmittedAt,
				Text:        doc.Text,
			})
			if limit > 0 && len(out) >= limit {
				return out, nil
			}
		}
		if len(page.Hits.Hits) < r.size {
			return out, nil
		}

		resp, err = raw.Scroll(
			raw.Scroll.WithContext(ctx),
			raw.Scroll.WithScrollID(scrollID),
			raw.Scroll.WithScroll(scrollKeepAlive),
		)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeStorage, "corpus scroll failed")
		}
	}
}

func decodePage(resp *opensearchapi.Response) (*scrollPage, error) {
	defer resp.Body.Close()

	if resp.IsError() {
		return nil, errors.Newf(errors.ErrCodeStorage, "corpus query failed with status %d", resp.StatusCode)
	}
	var page scrollPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorage, "failed to decode corpus page")
	}
	return &page, nil
}

// clearScroll releases the server-side cursor; failures only cost cluster
// memory until the keep-alive lapses, so they are logged and swallowed.
func (r *CorpusReader) clearScroll(scrollID string) {
	raw := r.client.Raw()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := raw.ClearScroll(
		raw.ClearScroll.WithContext(ctx),
		raw.ClearScroll.WithScrollID(scrollID),
	)
	if err != nil {
		r.log.Warn("failed to clear corpus scroll", logging.Err(err))
		return
	}
	resp.Body.Close()
}
