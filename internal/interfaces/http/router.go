// Package http wires the gin route tree and the HTTP server lifecycle.
package http

import (
	"github.com/gin-gonic/gin"

	"github.com/turtacn/PatentSentinel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/PatentSentinel/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/PatentSentinel/internal/interfaces/http/handlers"
	"github.com/turtacn/PatentSentinel/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handlers and infrastructure the route tree
// needs.
type RouterConfig struct {
	Documents   *handlers.DocumentHandler
	Analysis    *handlers.AnalysisHandler
	KeywordSets *handlers.KeywordSetHandler
	Health      *handlers.HealthHandler

	Mode    string
	Metrics *prometheus.Metrics
	Logger  logging.Logger
}

// NewRouter builds the complete route tree.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	r := gin.New()
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestLogging(cfg.Logger, cfg.Metrics))

	if cfg.Health != nil {
		r.GET("/healthz", cfg.Health.Liveness)
		r.GET("/readyz", cfg.Health.Readiness)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api/v1")
	{
		if cfg.Documents != nil {
			api.POST("/documents", cfg.Documents.Create)
			api.GET("/documents", cfg.Documents.List)
			api.GET("/documents/:documentID", cfg.Documents.Get)
		}
		if cfg.Analysis != nil {
			api.POST("/documents/:documentID/analysis", cfg.Analysis.Start)
			api.GET("/documents/:documentID/analysis/results", cfg.Analysis.ListResults)
			api.GET("/documents/:documentID/analysis/results/latest", cfg.Analysis.LatestResult)
			api.GET("/analysis/jobs/:jobID", cfg.Analysis.GetJob)
		}
		if cfg.KeywordSets != nil {
			api.GET("/keyword-sets", cfg.KeywordSets.List)
			api.PUT("/keyword-sets/:name", cfg.KeywordSets.Put)
			api.GET("/keyword-sets/:name", cfg.KeywordSets.Get)
			api.DELETE("/keyword-sets/:name", cfg.KeywordSets.Delete)
		}
	}
	return r
}
