package client

import (
	"context"
	"net/http"
	"net/url"
)

// putKeywordSetRequest is the upsert payload.
type putKeywordSetRequest struct {
	Domain   string   `json:"domain,omitempty"`
	Keywords []string `json:"keywords"`
}

// PutKeywordSet creates or replaces a keyword set.
func (c *Client) PutKeywordSet(ctx context.Context, name, domain string, keywords []string) (*KeywordSet, error) {
	var ks KeywordSet
	path := "/api/v1/keyword-sets/" + url.PathEscape(name)
	if err := c.do(ctx, http.MethodPut, path, putKeywordSetRequest{Domain: domain, Keywords: keywords}, &ks); err != nil {
		return nil, err
	}
	return &ks, nil
}

// GetKeywordSet fetches one keyword set by name.
func (c *Client) GetKeywordSet(ctx context.Context, name string) (*KeywordSet, error) {
	var ks KeywordSet
	if err := c.do(ctx, http.MethodGet, "/api/v1/keyword-sets/"+url.PathEscape(name), nil, &ks); err != nil {
		return nil, err
	}
	return &ks, nil
}

// ListKeywordSets returns all keyword sets.
func (c *Client) ListKeywordSets(ctx context.Context) ([]KeywordSet, error) {
	var resp struct {
		KeywordSets []KeywordSet `json:"keyword_sets"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/keyword-sets", nil, &resp); err != nil {
		return nil, err
	}
	return resp.KeywordSets, nil
}

// DeleteKeywordSet removes a keyword set.
func (c *Client) DeleteKeywordSet(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/keyword-sets/"+url.PathEscape(name), nil, nil)
}
