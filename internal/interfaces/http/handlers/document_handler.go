package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/turtacn/PatentSentinel/internal/domain/document"
)

// DocumentService is the application-layer contract the document endpoints
// depend on.
type DocumentService interface {
	Create(ctx context.Context, fields document.Fields) (*document.Document, error)
	Get(ctx context.Context, id uuid.UUID) (*document.Document, error)
	List(ctx context.Context, filter document.ListFilter) ([]*document.Document, error)
}

// DocumentHandler serves the /documents resource.
type DocumentHandler struct {
	svc DocumentService
}

// NewDocumentHandler constructs a DocumentHandler.
func NewDocumentHandler(svc DocumentService) *DocumentHandler {
	return &DocumentHandler{svc: svc}
}

// createDocumentRequest is the POST /documents payload.  Only the title is
// mandatory at the transport level; the aggregate enforces that at least one
// text section is present.
type createDocumentRequest struct {
	Owner       string   `json:"owner"`
	Title       string   `json:"title" binding:"required"`
	Inventors   []string `json:"inventors"`
	Domain      string   `json:"domain"`
	Abstract    string   `json:"abstract"`
	Description string   `json:"description"`
	Claims      string   `json:"claims"`
}

// Create handles POST /api/v1/documents.
func (h *DocumentHandler) Create(c *gin.Context) {
	var req createDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, validationErr(err))
		return
	}
	doc, err := h.svc.Create(c.Request.Context(), document.Fields{
		Owner:       req.Owner,
		Title:       req.Title,
		Inventors:   req.Inventors,
		Domain:      req.Domain,
		Abstract:    req.Abstract,
		Description: req.Description,
		Claims:      req.Claims,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

// Get handles GET /api/v1/documents/:documentID.
func (h *DocumentHandler) Get(c *gin.Context) {
	id, ok := parseUUIDParam(c, "documentID")
	if !ok {
		return
	}
	doc, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// List handles GET /api/v1/documents with optional status, limit and offset
// query parameters.
func (h *DocumentHandler) List(c *gin.Context) {
	filter := document.ListFilter{
		Status: document.Status(c.Query("status")),
	}
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			filter.Offset = n
		}
	}

	docs, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	if docs == nil {
		docs = []*document.Document{}
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs, "count": len(docs)})
}
