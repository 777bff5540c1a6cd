package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	domanalysis "github.com/turtacn/PatentSentinel/internal/domain/analysis"
)

// KeywordSetHandler serves CRUD for the domain keyword sets that seed the
// matching stage.
type KeywordSetHandler struct {
	repo domanalysis.KeywordSetRepository
}

// NewKeywordSetHandler constructs a KeywordSetHandler.
func NewKeywordSetHandler(repo domanalysis.KeywordSetRepository) *KeywordSetHandler {
	return &KeywordSetHandler{repo: repo}
}

// putKeywordSetRequest is the PUT payload.
type putKeywordSetRequest struct {
	Domain   string   `json:"domain"`
	Keywords []string `json:"keywords" binding:"required"`
}

// Put handles PUT /api/v1/keyword-sets/:name (create or replace).
func (h *KeywordSetHandler) Put(c *gin.Context) {
	var req putKeywordSetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, validationErr(err))
		return
	}
	ks := &domanalysis.KeywordSet{
		Name:     c.Param("name"),
		Domain:   req.Domain,
		Keywords: req.Keywords,
	}
	if err := h.repo.Put(c.Request.Context(), ks); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ks)
}

// Get handles GET /api/v1/keyword-sets/:name.
func (h *KeywordSetHandler) Get(c *gin.Context) {
	ks, err := h.repo.GetByName(c.Request.Context(), c.Param("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ks)
}

// List handles GET /api/v1/keyword-sets.
func (h *KeywordSetHandler) List(c *gin.Context) {
	sets, err := h.repo.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if sets == nil {
		sets = []*domanalysis.KeywordSet{}
	}
	c.JSON(http.StatusOK, gin.H{"keyword_sets": sets, "count": len(sets)})
}

// Delete handles DELETE /api/v1/keyword-sets/:name.
func (h *KeywordSetHandler) Delete(c *gin.Context) {
	if err := h.repo.Delete(c.Request.Context(), c.Param("name")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
