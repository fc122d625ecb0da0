package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"

	"github.com/abduss/imagemeta/internal/analysis"
	"github.com/abduss/imagemeta/internal/archive"
	"github.com/abduss/imagemeta/internal/config"
	"github.com/abduss/imagemeta/internal/logger"
	"github.com/abduss/imagemeta/internal/metadata"
	"github.com/abduss/imagemeta/internal/metrics"
)

// Dependencies groups the services required by the HTTP router.
type Dependencies struct {
	Config      config.Config
	Logger      *zap.Logger
	ObjectStore *minio.Client
	Extractor   *metadata.Service
	Analysis    *analysis.Service
	Archive     *archive.Service
}

// NewRouter builds a Gin engine with foundational middleware and routes.
func NewRouter(deps Dependencies) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	metrics.InitMetrics()

	router := gin.New()
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		deps.Logger.Error("handler panicked", zap.Any("panic", recovered), zap.String("path", c.Request.URL.Path))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
	}))
	router.Use(logger.Middleware())
	router.Use(metrics.Middleware())
	router.Use(corsMiddleware(deps.Config.Server.AllowedOrigins))
	router.MaxMultipartMemory = deps.Config.Storage.MaxUploadBytes

	registerHealthRoutes(router, deps)
	metrics.Register(router, deps.Config.Metrics.PrometheusPath)

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Image Metadata Extraction API",
			"version": metadata.APIVersion,
			"endpoints": gin.H{
				"/extract-metadata":       "POST - Upload image to extract metadata",
				"/extract-gps-only":       "POST - Upload image to extract GPS location only",
				"/analyze-image-ai":       "POST - Upload image for metadata extraction and AI analysis",
				"/save-image":             "POST - Upload image to extract metadata and save both",
				"/saved-images":           "GET - List saved images",
				"/saved-images/{id}":      "GET - Saved image metadata",
				"/saved-images/{id}/file": "GET - Saved image file",
				"/ai-status":              "GET - AI analysis availability",
				"/health":                 "GET - Health check",
			},
		})
	})

	api := router.Group("/")
	if deps.Extractor != nil {
		metadata.RegisterRoutes(api, deps.Extractor, deps.Config.Storage.MaxUploadBytes)
	}
	if deps.Analysis != nil {
		analysis.RegisterRoutes(api, deps.Analysis)
	}
	if deps.Archive != nil && deps.Extractor != nil {
		archive.RegisterRoutes(api, deps.Archive, deps.Extractor, archive.RouteOptions{
			SaveEnabled:    deps.Config.Storage.SaveEnabled,
			MaxUploadBytes: deps.Config.Storage.MaxUploadBytes,
		})
	} else {
		archive.RegisterDisabledRoutes(api)
	}

	return router
}
