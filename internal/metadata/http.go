package metadata

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/abduss/imagemeta/internal/geo"
	"github.com/abduss/imagemeta/internal/properties"
	"github.com/abduss/imagemeta/internal/upload"
)

// Response is a record plus the request outcome.
type Response struct {
	Record
	Status  string `json:"status"`
	Message string `json:"message"`
}

// GPSResponse is the body of the geolocation-only endpoint.
type GPSResponse struct {
	Filename    string          `json:"filename"`
	GPSLocation geo.GeoLocation `json:"gps_location"`
	ProcessedAt string          `json:"processed_at"`
	Status      string          `json:"status"`
	Message     string          `json:"message"`
}

// RegisterRoutes mounts the extraction endpoints under the provided router
// group.
func RegisterRoutes(group *gin.RouterGroup, service *Service, maxUploadBytes int64) {
	handler := &httpHandler{service: service, maxUploadBytes: maxUploadBytes}
	group.POST("/extract-metadata", handler.extractMetadata)
	group.POST("/extract-gps-only", handler.extractGPS)
	group.POST("/analyze-image-ai", handler.analyzeImage)
}

type httpHandler struct {
	service        *Service
	maxUploadBytes int64
}

func (h *httpHandler) extractMetadata(c *gin.Context) {
	up, ok := BindUpload(c, h.maxUploadBytes)
	if !ok {
		return
	}

	rec, err := h.service.Extract(c.Request.Context(), up, Options{Analyze: true})
	if err != nil {
		h.fail(c, err, up.Filename)
		return
	}

	c.JSON(http.StatusOK, Response{Record: rec, Status: "success", Message: "Metadata extracted successfully"})
}

func (h *httpHandler) extractGPS(c *gin.Context) {
	up, ok := BindUpload(c, h.maxUploadBytes)
	if !ok {
		return
	}

	loc, err := h.service.ExtractGPS(c.Request.Context(), up)
	if err != nil {
		h.fail(c, err, up.Filename)
		return
	}

	resp := GPSResponse{
		Filename:    up.Filename,
		GPSLocation: loc,
		ProcessedAt: Timestamp(time.Now()),
		Status:      "success",
		Message:     "GPS location extracted successfully",
	}
	if loc.Error != "" {
		resp.Status = "no_gps_data"
		resp.Message = loc.Error
	}
	c.JSON(http.StatusOK, resp)
}

func (h *httpHandler) analyzeImage(c *gin.Context) {
	if !h.service.AnalyzerAvailable() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"detail": "AI analysis is not available. Set OPENAI_API_KEY to enable it."})
		return
	}

	up, ok := BindUpload(c, h.maxUploadBytes)
	if !ok {
		return
	}

	rec, err := h.service.Extract(c.Request.Context(), up, Options{Analyze: true})
	if err != nil {
		h.fail(c, err, up.Filename)
		return
	}

	c.JSON(http.StatusOK, Response{Record: rec, Status: "success", Message: "Metadata extracted and analyzed successfully"})
}

func (h *httpHandler) fail(c *gin.Context, err error, filename string) {
	WriteError(c, h.service.log, err, filename)
}

// BindUpload reads and validates the "file" part of a multipart request,
// writing the error response itself when it reports false.
func BindUpload(c *gin.Context, maxUploadBytes int64) (Upload, bool) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": upload.ErrMissingFile.Error()})
		return Upload{}, false
	}

	up, err := upload.Read(fileHeader, maxUploadBytes)
	if err != nil {
		switch {
		case errors.Is(err, upload.ErrNotImage), errors.Is(err, upload.ErrUnsupportedType):
			c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		case errors.Is(err, upload.ErrFileTooLarge):
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"detail": err.Error()})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"detail": "failed to read upload"})
		}
		return Upload{}, false
	}
	return up, true
}

// ErrorResponse is the generic failure body.
type ErrorResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	ErrorType string `json:"error_type"`
	Filename  string `json:"filename"`
}

// WriteError maps an extraction error to a response. Undecodable images are
// the caller's fault; anything else is logged and reported as a 500.
func WriteError(c *gin.Context, log *zap.Logger, err error, filename string) {
	if filename == "" {
		filename = "unknown"
	}

	var decodeErr *properties.DecodeError
	if errors.As(err, &decodeErr) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Status:    "error",
			Message:   fmt.Sprintf("Error processing image: %v", err),
			ErrorType: "DecodeError",
			Filename:  filename,
		})
		return
	}

	log.Error("request failed", zap.Error(err), zap.String("filename", filename), zap.String("path", c.FullPath()))
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Status:    "error",
		Message:   fmt.Sprintf("Error processing image: %v", err),
		ErrorType: errorType(err),
		Filename:  filename,
	})
}

type typedError interface {
	ErrorType() string
}

func errorType(err error) string {
	var typed typedError
	if errors.As(err, &typed) {
		return typed.ErrorType()
	}
	return "InternalError"
}
