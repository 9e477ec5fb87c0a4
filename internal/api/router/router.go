package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/speculative-artefact/compactImg/config"
	"github.com/speculative-artefact/compactImg/internal/api/handlers"
	"github.com/speculative-artefact/compactImg/internal/api/middleware"
	"github.com/speculative-artefact/compactImg/internal/storage"
)

func Setup(cfg *config.Config, storageClient storage.Client) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()

	// Tracing first so the contextual logger can pick up trace IDs.
	if cfg.Tracing.Enabled {
		r.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	}
	r.Use(middleware.ContextualLogger("api"))
	r.Use(gin.Recovery())
	r.Use(middleware.CORS())
	if cfg.Metrics.Enabled {
		r.Use(middleware.Metrics())
	}

	uploadHandler := handlers.NewUploadHandler(storageClient, cfg)
	processHandler := handlers.NewProcessHandler(storageClient)
	healthHandler := handlers.NewHealthHandler()

	r.GET("/health", healthHandler.Check)

	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Endpoint, gin.WrapH(promhttp.Handler()))
	}

	api := r.Group("/api")
	{
		api.POST("/upload", uploadHandler.Upload)
		api.POST("/process", processHandler.Process)
	}

	return r
}
