package models

import "github.com/jengzang/vehicle-tracker-go/internal/spatial"

// TraceResponse represents the trace API response
type TraceResponse struct {
	Center       spatial.Coordinate `json:"center"`
	RadiusMeters float64            `json:"radius_meters"`
	Matches      []TracePoint       `json:"matches"`
	Current      *TracePoint        `json:"current"` // earliest match, null when nothing passed
	Count        int                `json:"count"`
}

// VehicleList lists the vehicles that have reported and the stored sample count
type VehicleList struct {
	Vehicles []int64 `json:"vehicles"`
	Samples  int64   `json:"samples"`
}

// LiveStatus summarizes the live channel
type LiveStatus struct {
	Vehicles []Sample `json:"vehicles"`
	Viewers  int      `json:"viewers"`
}
