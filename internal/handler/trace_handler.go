package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jengzang/vehicle-tracker-go/internal/models"
	"github.com/jengzang/vehicle-tracker-go/internal/service"
	"github.com/jengzang/vehicle-tracker-go/pkg/response"
)

// TraceHandler handles proximity queries
type TraceHandler struct {
	traceService *service.TraceService
}

// NewTraceHandler creates a new trace handler
func NewTraceHandler(traceService *service.TraceService) *TraceHandler {
	return &TraceHandler{
		traceService: traceService,
	}
}

// Search handles GET /api/v1/trace
func (h *TraceHandler) Search(c *gin.Context) {
	var filter models.TraceFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	result, err := h.traceService.Search(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, result)
}

// Pass handles GET /api/v1/trace/pass
func (h *TraceHandler) Pass(c *gin.Context) {
	var filter models.TraceFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	pass, err := h.traceService.Pass(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, pass)
}

// Nearest handles GET /api/v1/nearest
func (h *TraceHandler) Nearest(c *gin.Context) {
	var filter models.TraceFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	point, err := h.traceService.Nearest(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	if point == nil {
		response.NotFound(c, "No samples in range")
		return
	}

	response.Success(c, point)
}
