package models

import (
	"time"

	"github.com/jengzang/vehicle-tracker-go/internal/spatial"
)

// WeightedSample is a sample labeled by the congestion segmenter
type WeightedSample struct {
	Sample
	Weight    float64 `json:"weight"`
	Congested bool    `json:"congested"`
	Cluster   int     `json:"cluster"` // index into the cluster list, -1 when not clustered
}

// CongestionCluster is a maximal run of consecutive samples that satisfied the
// congestion predicate. Clusters are derived on every request and never stored.
type CongestionCluster struct {
	VehicleID int64     `json:"vehicle_id"`
	StartTime Timestamp `json:"start_time"`
	EndTime   Timestamp `json:"end_time"`

	// Duration is EndTime - StartTime
	Duration        time.Duration `json:"-"`
	DurationSeconds float64       `json:"duration_seconds"`

	FirstIndex  int     `json:"first_index"` // index of the first member in the labeled stream
	MemberCount int     `json:"member_count"`
	Weight      float64 `json:"weight"`
	Congested   bool    `json:"congested"` // duration gate passed

	Center  spatial.Coordinate `json:"center"`
	MeanRPM float64            `json:"mean_rpm"`
}

// CongestionSummary aggregates one segmentation run
type CongestionSummary struct {
	PointCount         int     `json:"point_count"`
	CongestedPoints    int     `json:"congested_points"`
	ClusterCount       int     `json:"cluster_count"`
	CongestedClusters  int     `json:"congested_clusters"`
	CongestedShare     float64 `json:"congested_share"` // 0-1
	LongestCongestionS float64 `json:"longest_congestion_seconds"`
	RPMSamples         int     `json:"rpm_samples"`
	MeanRPM            float64 `json:"mean_rpm"`
	P95RPM             float64 `json:"p95_rpm"`
}
