package models

// RangeFilter represents the query parameters shared by every historical endpoint
type RangeFilter struct {
	Start   string `form:"start"` // 2025-06-01T10:00 or 2025-06-01T10:00:00
	End     string `form:"end"`
	Vehicle string `form:"vehicle_id"` // "all", empty or a vehicle id
}

// TraceFilter represents parameters for trace (proximity) queries
type TraceFilter struct {
	RangeFilter
	Lat    *float64 `form:"lat"`
	Lng    *float64 `form:"lng"`
	Radius *float64 `form:"radius"` // Meters, defaults to the configured trace radius
	Index  int      `form:"index"`  // Selected match for pass queries
}

// CongestionFilter represents parameters for congestion and heatmap queries
type CongestionFilter struct {
	RangeFilter
	Precision int `form:"precision"` // Geohash precision for cell aggregation, 0 for raw points
}
