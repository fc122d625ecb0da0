package analysis

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the availability endpoint.
func RegisterRoutes(group *gin.RouterGroup, service *Service) {
	handler := &httpHandler{service: service}
	group.GET("/ai-status", handler.status)
}

type httpHandler struct {
	service *Service
}

func (h *httpHandler) status(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Status())
}
