package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/vehicle-tracker-go/internal/models"
	"github.com/jengzang/vehicle-tracker-go/internal/service"
	"github.com/jengzang/vehicle-tracker-go/pkg/response"
)

// HistoryHandler handles HTTP requests for historical samples
type HistoryHandler struct {
	historyService *service.HistoryService
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(historyService *service.HistoryService) *HistoryHandler {
	return &HistoryHandler{
		historyService: historyService,
	}
}

// GetHistorical handles GET /historical. The body is a bare array so the
// map UI can consume it directly.
func (h *HistoryHandler) GetHistorical(c *gin.Context) {
	var filter models.RangeFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	samples, err := h.historyService.GetSamples(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, samples)
}

// GetSamples handles GET /api/v1/samples with the standard envelope
func (h *HistoryHandler) GetSamples(c *gin.Context) {
	var filter models.RangeFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	samples, err := h.historyService.GetSamples(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{
		"samples": samples,
		"total":   len(samples),
	})
}
