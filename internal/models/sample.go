package models

import (
	"sort"

	"github.com/jengzang/vehicle-tracker-go/internal/spatial"
)

// DefaultVehicleID is assigned when a packet does not name its vehicle
const DefaultVehicleID int64 = 1

// Sample represents one telemetry reading of a vehicle
type Sample struct {
	ID        int64     `json:"id" db:"id"` // 0 until stored
	VehicleID int64     `json:"vehicle_id" db:"vehicle_id"`
	Latitude  float64   `json:"latitude" db:"latitude"`
	Longitude float64   `json:"longitude" db:"longitude"`
	Timestamp Timestamp `json:"timestamp" db:"timestamp"` // Format: 2025-01-22 21:42:18
	RPM       *int      `json:"rpm" db:"rpm"`             // nil means no data, not zero
}

// Position returns the sample coordinates
func (s Sample) Position() spatial.Coordinate {
	return spatial.Coordinate{Lat: s.Latitude, Lng: s.Longitude}
}

// HasRPM reports whether the sample carries an engine RPM reading
func (s Sample) HasRPM() bool {
	return s.RPM != nil
}

// IntPtr is a helper for optional RPM values
func IntPtr(v int) *int {
	return &v
}

// SamplesSorted reports whether samples are in non-decreasing timestamp order
func SamplesSorted(samples []Sample) bool {
	return sort.SliceIsSorted(samples, func(i, j int) bool {
		return sampleLess(samples[i], samples[j])
	})
}

// SortSamples orders samples by timestamp, breaking ties by storage id.
// The sort is stable so samples received in the same second keep arrival order.
func SortSamples(samples []Sample) {
	sort.SliceStable(samples, func(i, j int) bool {
		return sampleLess(samples[i], samples[j])
	})
}

func sampleLess(a, b Sample) bool {
	if !a.Timestamp.Equal(b.Timestamp.Time) {
		return a.Timestamp.Before(b.Timestamp.Time)
	}
	return a.ID < b.ID
}

// TracePoint is a sample found by a trace query with its distance from the search center
type TracePoint struct {
	Sample
	DistanceMeters float64 `json:"distance_meters"`
	Index          int     `json:"index"` // position in the searched sequence
}

// VehicleRoute is the ordered path of one vehicle inside a time range
type VehicleRoute struct {
	VehicleID    int64          `json:"vehicle_id"`
	Samples      []Sample       `json:"samples"`
	LengthMeters float64        `json:"length_meters"`
	Bounds       spatial.Bounds `json:"bounds"`
}
