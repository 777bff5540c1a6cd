package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// startAnalysisRequest selects an optional keyword set.
type startAnalysisRequest struct {
	KeywordSet string `json:"keyword_set,omitempty"`
}

// StartAnalysis requests an analysis run for the document.  An empty
// keywordSet selects the server's default.  A duplicate submission returns an
// *APIError with IsConflict() true.
func (c *Client) StartAnalysis(ctx context.Context, documentID, keywordSet string) (*Job, error) {
	var job Job
	path := "/api/v1/documents/" + url.PathEscape(documentID) + "/analysis"
	if err := c.do(ctx, http.MethodPost, path, startAnalysisRequest{KeywordSet: keywordSet}, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// GetJob fetches one analysis job by ID.
func (c *Client) GetJob(ctx context.Context, jobID string) (*Job, error) {
	var job Job
	if err := c.do(ctx, http.MethodGet, "/api/v1/analysis/jobs/"+url.PathEscape(jobID), nil, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// LatestResult fetches the most recent completed analysis for the document.
func (c *Client) LatestResult(ctx context.Context, documentID string) (*Result, error) {
	var res Result
	path := "/api/v1/documents/" + url.PathEscape(documentID) + "/analysis/results/latest"
	if err := c.do(ctx, http.MethodGet, path, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ListResults fetches up to limit past results for the document, newest
// first.  limit <= 0 uses the server default.
func (c *Client) ListResults(ctx context.Context, documentID string, limit int) ([]Result, error) {
	path := "/api/v1/documents/" + url.PathEscape(documentID) + "/analysis/results"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	var resp struct {
		Results []Result `json:"results"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}
