package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// CreateDocumentRequest is the submission payload.  Title is mandatory; at
// least one of Abstract, Description or Claims must be non-empty.
type CreateDocumentRequest struct {
	Owner       string   `json:"owner,omitempty"`
	Title       string   `json:"title"`
	Inventors   []string `json:"inventors,omitempty"`
	Domain      string   `json:"domain,omitempty"`
	Abstract    string   `json:"abstract,omitempty"`
	Description string   `json:"description,omitempty"`
	Claims      string   `json:"claims,omitempty"`
}

// CreateDocument submits a new document for monitoring.
func (c *Client) CreateDocument(ctx context.Context, req CreateDocumentRequest) (*Document, error) {
	var doc Document
	if err := c.do(ctx, http.MethodPost, "/api/v1/documents", req, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// GetDocument fetches one document by ID.
func (c *Client) GetDocument(ctx context.Context, documentID string) (*Document, error) {
	var doc Document
	if err := c.do(ctx, http.MethodGet, "/api/v1/documents/"+url.PathEscape(documentID), nil, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ListDocumentsOptions filters a document listing.
type ListDocumentsOptions struct {
	Status string
	Limit  int
	Offset int
}

// ListDocuments returns documents, newest first.
func (c *Client) ListDocuments(ctx context.Context, opts ListDocumentsOptions) ([]Document, error) {
	q := url.Values{}
	if opts.Status != "" {
		q.Set("status", opts.Status)
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Offset > 0 {
		q.Set("offset", strconv.Itoa(opts.Offset))
	}
	path := "/api/v1/documents"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp struct {
		Documents []Document `json:"documents"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Documents, nil
}
