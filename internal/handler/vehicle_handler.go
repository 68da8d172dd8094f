package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/vehicle-tracker-go/internal/service"
	"github.com/jengzang/vehicle-tracker-go/pkg/response"
)

// VehicleHandler handles vehicle catalogue and single sample lookups
type VehicleHandler struct {
	vehicleService *service.VehicleService
}

// NewVehicleHandler creates a new vehicle handler
func NewVehicleHandler(vehicleService *service.VehicleService) *VehicleHandler {
	return &VehicleHandler{
		vehicleService: vehicleService,
	}
}

// GetVehicles handles GET /api/v1/vehicles
func (h *VehicleHandler) GetVehicles(c *gin.Context) {
	list, err := h.vehicleService.Vehicles(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, list)
}

// GetSample handles GET /api/v1/samples/:id
func (h *VehicleHandler) GetSample(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "Invalid sample ID")
		return
	}

	smp, err := h.vehicleService.Sample(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	if smp == nil {
		response.NotFound(c, "Sample not found")
		return
	}

	response.Success(c, smp)
}
