package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jengzang/vehicle-tracker-go/internal/service"
	"github.com/jengzang/vehicle-tracker-go/pkg/response"
)

// LiveHandler handles live state queries
type LiveHandler struct {
	liveService *service.LiveService
}

// NewLiveHandler creates a new live handler
func NewLiveHandler(liveService *service.LiveService) *LiveHandler {
	return &LiveHandler{
		liveService: liveService,
	}
}

// GetLatest handles GET /api/v1/vehicles/latest
func (h *LiveHandler) GetLatest(c *gin.Context) {
	status, err := h.liveService.Status(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, status)
}
