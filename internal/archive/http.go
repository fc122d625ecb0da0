package archive

import (
	"errors"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/abduss/imagemeta/internal/metadata"
)

// RouteOptions configures the save endpoint.
type RouteOptions struct {
	SaveEnabled    bool
	MaxUploadBytes int64
}

// SaveResponse is the body returned by the save endpoint.
type SaveResponse struct {
	Status   string                      `json:"status"`
	Message  string                      `json:"message"`
	SaveInfo metadata.PersistenceOutcome `json:"save_info"`
	Metadata metadata.Record             `json:"metadata"`
}

// RegisterRoutes mounts the saved-image endpoints under the provided router
// group.
func RegisterRoutes(group *gin.RouterGroup, service *Service, extractor *metadata.Service, opts RouteOptions) {
	handler := &httpHandler{service: service, extractor: extractor, opts: opts}
	group.POST("/save-image", handler.save)
	group.GET("/saved-images", handler.list)
	group.GET("/saved-images/:id", handler.get)
	group.GET("/saved-images/:id/file", handler.file)
}

// RegisterDisabledRoutes mounts the saved-image endpoints for deployments
// running without an archive. Every endpoint answers 503.
func RegisterDisabledRoutes(group *gin.RouterGroup) {
	group.POST("/save-image", savingDisabled)
	group.GET("/saved-images", savingDisabled)
	group.GET("/saved-images/:id", savingDisabled)
	group.GET("/saved-images/:id/file", savingDisabled)
}

func savingDisabled(c *gin.Context) {
	c.JSON(http.StatusServiceUnavailable, gin.H{"detail": "Image saving is disabled"})
}

type httpHandler struct {
	service   *Service
	extractor *metadata.Service
	opts      RouteOptions
}

func (h *httpHandler) save(c *gin.Context) {
	if !h.opts.SaveEnabled {
		savingDisabled(c)
		return
	}

	up, ok := metadata.BindUpload(c, h.opts.MaxUploadBytes)
	if !ok {
		return
	}

	rec, err := h.extractor.Extract(c.Request.Context(), up, metadata.Options{Analyze: true})
	if err != nil {
		metadata.WriteError(c, h.service.log, err, up.Filename)
		return
	}

	entry, err := h.service.Save(c.Request.Context(), up.Data, up.Filename, rec)
	if err != nil {
		metadata.WriteError(c, h.service.log, err, up.Filename)
		return
	}

	outcome := h.service.Outcome(entry)
	rec.SaveInfo = &outcome
	c.JSON(http.StatusOK, SaveResponse{
		Status:   "success",
		Message:  "Image and metadata saved successfully",
		SaveInfo: outcome,
		Metadata: rec,
	})
}

func (h *httpHandler) list(c *gin.Context) {
	summaries, err := h.service.List(c.Request.Context())
	if err != nil {
		metadata.WriteError(c, h.service.log, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"images": summaries,
		"total":  len(summaries),
	})
}

func (h *httpHandler) get(c *gin.Context) {
	entry, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Image not found"})
			return
		}
		metadata.WriteError(c, h.service.log, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "success",
		"metadata": entry,
	})
}

func (h *httpHandler) file(c *gin.Context) {
	entry, f, err := h.service.Open(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Image not found"})
			return
		}
		metadata.WriteError(c, h.service.log, err, "")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		metadata.WriteError(c, h.service.log, err, entry.SavedFilename)
		return
	}

	contentType := entry.Metadata.FileInfo.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Disposition", `inline; filename="`+filepath.Base(entry.SavedFilename)+`"`)
	c.DataFromReader(http.StatusOK, info.Size(), contentType, f, nil)
}
