// Package http wires the gin route tree and HTTP server for the import API.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chemlattice/molimport/internal/infrastructure/monitoring/logging"
	"github.com/chemlattice/molimport/internal/interfaces/http/handlers"
	"github.com/chemlattice/molimport/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handlers and infrastructure the route tree
// needs.  Nil optional fields disable their routes.
type RouterConfig struct {
	ImportHandler *handlers.ImportHandler
	HealthHandler *handlers.HealthHandler

	// MetricsHandler serves GET /metrics when non-nil.
	MetricsHandler http.Handler

	// Mode is the gin mode: "debug", "release" or "test".
	Mode string

	// MaxUploadSize caps multipart memory; zero keeps gin's default.
	MaxUploadSize int64

	Logger logging.Logger
}

// NewRouter constructs the complete route tree.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}

	r := gin.New()
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestLogger(cfg.Logger))
	if cfg.MaxUploadSize > 0 {
		r.MaxMultipartMemory = cfg.MaxUploadSize
	}

	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.Liveness)
		r.GET("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(cfg.MetricsHandler))
	}

	api := r.Group("/api/v1")
	if cfg.ImportHandler != nil {
		api.POST("/imports", cfg.ImportHandler.Import)
		api.POST("/imports/validate-mapping", cfg.ImportHandler.ValidateMapping)
	}

	return r
}
