package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthChecker is anything that can report its own availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	checks map[string]HealthChecker
}

// NewHealthHandler constructs a HealthHandler over named dependency checks.
func NewHealthHandler(checks map[string]HealthChecker) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// Liveness handles GET /healthz.  It only confirms the process serves
// requests.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness handles GET /readyz.  It fails with 503 when any dependency is
// unreachable, naming the failing ones.
func (h *HealthHandler) Readiness(c *gin.Context) {
	failed := map[string]string{}
	for name, check := range h.checks {
		if err := check.HealthCheck(c.Request.Context()); err != nil {
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "failures": failed})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
