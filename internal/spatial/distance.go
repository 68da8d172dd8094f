package spatial

import (
	"math"

	"github.com/golang/geo/s2"
)

// Coordinate is a WGS84 position in decimal degrees
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the coordinate lies inside the latitude/longitude domain
func (c Coordinate) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lng) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// HaversineDistance calculates the great-circle distance between two points in meters.
// Every radius and displacement comparison in the service goes through this function
// so that trace radii and congestion thresholds share one Earth model.
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}

// Distance is HaversineDistance for Coordinate values
func Distance(a, b Coordinate) float64 {
	return HaversineDistance(a.Lat, a.Lng, b.Lat, b.Lng)
}

// Constants
const (
	EarthRadiusMeters = 6371000.0 // Earth's mean radius in meters
)
