package congestion

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/jengzang/vehicle-tracker-go/internal/models"
)

// Summary aggregates the run. RPM statistics cover only samples that carry RPM.
func (o Output) Summary() models.CongestionSummary {
	sum := models.CongestionSummary{
		PointCount:   len(o.Points),
		ClusterCount: len(o.Clusters),
	}

	rpms := make([]float64, 0, len(o.Points))
	for _, p := range o.Points {
		if p.Congested {
			sum.CongestedPoints++
		}
		if p.HasRPM() {
			rpms = append(rpms, float64(*p.RPM))
		}
	}

	for _, c := range o.Clusters {
		if !c.Congested {
			continue
		}
		sum.CongestedClusters++
		if c.DurationSeconds > sum.LongestCongestionS {
			sum.LongestCongestionS = c.DurationSeconds
		}
	}

	if sum.PointCount > 0 {
		sum.CongestedShare = float64(sum.CongestedPoints) / float64(sum.PointCount)
	}

	sum.RPMSamples = len(rpms)
	if len(rpms) > 0 {
		sort.Float64s(rpms)
		sum.MeanRPM = stat.Mean(rpms, nil)
		sum.P95RPM = stat.Quantile(0.95, stat.Empirical, rpms, nil)
	}

	return sum
}
