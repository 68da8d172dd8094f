package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/vehicle-tracker-go/internal/models"
	"github.com/jengzang/vehicle-tracker-go/internal/service"
	"github.com/jengzang/vehicle-tracker-go/pkg/response"
)

// RouteHandler handles route exports
type RouteHandler struct {
	routeService *service.RouteService
}

// NewRouteHandler creates a new route handler
func NewRouteHandler(routeService *service.RouteService) *RouteHandler {
	return &RouteHandler{
		routeService: routeService,
	}
}

// GetGeoJSON handles GET /api/v1/route. GeoJSON clients expect the raw
// FeatureCollection, so it is not wrapped in the envelope.
func (h *RouteHandler) GetGeoJSON(c *gin.Context) {
	var filter models.RangeFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	fc, err := h.routeService.GeoJSON(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}

	body, err := fc.MarshalJSON()
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}
	c.Data(http.StatusOK, "application/geo+json", body)
}

// GetRoutes handles GET /api/v1/routes
func (h *RouteHandler) GetRoutes(c *gin.Context) {
	var filter models.RangeFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	routes, err := h.routeService.Routes(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, routes)
}
