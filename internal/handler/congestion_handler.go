package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jengzang/vehicle-tracker-go/internal/models"
	"github.com/jengzang/vehicle-tracker-go/internal/service"
	"github.com/jengzang/vehicle-tracker-go/pkg/response"
)

// CongestionHandler handles congestion and heatmap queries
type CongestionHandler struct {
	congestionService *service.CongestionService
}

// NewCongestionHandler creates a new congestion handler
func NewCongestionHandler(congestionService *service.CongestionService) *CongestionHandler {
	return &CongestionHandler{
		congestionService: congestionService,
	}
}

// GetReport handles GET /api/v1/congestion
func (h *CongestionHandler) GetReport(c *gin.Context) {
	var filter models.CongestionFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	report, err := h.congestionService.Report(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, report)
}

// GetPolicy handles GET /api/v1/congestion/policy
func (h *CongestionHandler) GetPolicy(c *gin.Context) {
	response.Success(c, h.congestionService.Policy())
}
