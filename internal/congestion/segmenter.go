package congestion

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/jengzang/vehicle-tracker-go/internal/models"
	"github.com/jengzang/vehicle-tracker-go/internal/spatial"
)

// Output is the labeled stream plus the clusters found in it
type Output struct {
	Points   []models.WeightedSample
	Clusters []models.CongestionCluster
}

// Segment walks each vehicle's samples in time order and weights them.
// A pair (prev, curr) is congested when curr's RPM is inside the band and
// the step is shorter than the cluster distance. Consecutive congested pairs
// form a cluster starting at the first pair's prev sample. A cluster longer
// than MinCongestionDuration is congestion and its members get the tier
// weight; otherwise they get NormalWeight. Everything else gets BaseWeight.
//
// Every input sample appears exactly once in Output.Points, in timestamp order.
// The policy must be valid; see Policy.Validate.
func Segment(samples []models.Sample, p Policy) Output {
	sorted := make([]models.Sample, len(samples))
	copy(sorted, samples)
	models.SortSamples(sorted)

	out := Output{
		Points:   make([]models.WeightedSample, len(sorted)),
		Clusters: make([]models.CongestionCluster, 0),
	}
	for i, s := range sorted {
		out.Points[i] = models.WeightedSample{Sample: s, Weight: p.BaseWeight, Cluster: -1}
	}

	// pairs are only formed within one vehicle
	byVehicle := make(map[int64][]int)
	var vehicles []int64
	for i, s := range sorted {
		if _, ok := byVehicle[s.VehicleID]; !ok {
			vehicles = append(vehicles, s.VehicleID)
		}
		byVehicle[s.VehicleID] = append(byVehicle[s.VehicleID], i)
	}

	for _, v := range vehicles {
		segmentVehicle(&out, byVehicle[v], p)
	}

	sort.SliceStable(out.Clusters, func(i, j int) bool {
		return out.Clusters[i].FirstIndex < out.Clusters[j].FirstIndex
	})
	for ci, c := range out.Clusters {
		for _, idx := range clusterMembers(out.Points, c) {
			out.Points[idx].Cluster = ci
		}
	}

	return out
}

// segmentVehicle labels the points at idx, which are one vehicle's samples in order
func segmentVehicle(out *Output, idx []int, p Policy) {
	open := false
	var members []int

	closeCluster := func() {
		if open {
			out.Clusters = append(out.Clusters, buildCluster(out.Points, members, p))
		}
		open = false
		members = nil
	}

	for k := 1; k < len(idx); k++ {
		prev := out.Points[idx[k-1]].Sample
		curr := out.Points[idx[k]].Sample

		step := spatial.Distance(prev.Position(), curr.Position())
		if p.inBand(curr.RPM) && step < p.MaxClusterDistanceMeters {
			if !open {
				open = true
				members = append(members, idx[k-1])
			}
			members = append(members, idx[k])
			continue
		}
		// curr breaks the run and keeps BaseWeight
		closeCluster()
	}
	closeCluster()
}

// buildCluster applies the duration gate and writes member weights
func buildCluster(points []models.WeightedSample, members []int, p Policy) models.CongestionCluster {
	first := points[members[0]]
	last := points[members[len(members)-1]]
	duration := last.Timestamp.Sub(first.Timestamp.Time)

	c := models.CongestionCluster{
		VehicleID:       first.VehicleID,
		StartTime:       first.Timestamp,
		EndTime:         last.Timestamp,
		Duration:        duration,
		DurationSeconds: duration.Seconds(),
		FirstIndex:      members[0],
		MemberCount:     len(members),
		Congested:       duration > p.MinCongestionDuration,
	}
	if c.Congested {
		c.Weight = p.tierWeight(duration)
	} else {
		c.Weight = p.NormalWeight
	}

	coords := make([]spatial.Coordinate, 0, len(members))
	rpms := make([]float64, 0, len(members))
	for _, i := range members {
		points[i].Weight = c.Weight
		points[i].Congested = c.Congested
		coords = append(coords, points[i].Position())
		if points[i].HasRPM() {
			rpms = append(rpms, float64(*points[i].RPM))
		}
	}
	c.Center = spatial.Centroid(coords)
	if len(rpms) > 0 {
		c.MeanRPM = stat.Mean(rpms, nil)
	}

	return c
}

// clusterMembers finds the member indices of c again; members of one
// cluster are the vehicle's consecutive samples from FirstIndex on
func clusterMembers(points []models.WeightedSample, c models.CongestionCluster) []int {
	members := make([]int, 0, c.MemberCount)
	for i := c.FirstIndex; i < len(points) && len(members) < c.MemberCount; i++ {
		if points[i].VehicleID == c.VehicleID {
			members = append(members, i)
		}
	}
	return members
}
