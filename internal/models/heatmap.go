package models

// HeatmapPoint represents a single point in a heatmap layer
type HeatmapPoint struct {
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Weight    float64 `json:"weight"`    // Summed segmenter weight
	Intensity float64 `json:"intensity"` // Weight normalized 0-1 within the layer
	Count     int     `json:"count"`     // Samples merged into the point
	Cell      string  `json:"cell,omitempty"`
}

// HeatmapLayer is one rendered layer of the congestion heatmap
type HeatmapLayer struct {
	Points    []HeatmapPoint `json:"points"`
	MaxWeight float64        `json:"max_weight"`
}

// HeatmapResponse represents the heatmap API response.
// Normal and congested points are kept in separate layers so the client can
// render them with different gradients.
type HeatmapResponse struct {
	Normal    HeatmapLayer `json:"normal"`
	Congested HeatmapLayer `json:"congested"`
	Precision int          `json:"precision"` // geohash precision, 0 for raw points
}

// CongestionReport is the full result of a congestion request
type CongestionReport struct {
	Points   []WeightedSample    `json:"points"`
	Clusters []CongestionCluster `json:"clusters"`
	Heatmap  HeatmapResponse     `json:"heatmap"`
	Summary  CongestionSummary   `json:"summary"`
}
