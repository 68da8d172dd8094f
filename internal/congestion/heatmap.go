package congestion

import (
	"fmt"
	"sort"

	"github.com/jengzang/vehicle-tracker-go/internal/models"
	"github.com/jengzang/vehicle-tracker-go/internal/spatial"
)

// MaxPrecision is the finest geohash precision accepted for aggregation
const MaxPrecision = spatial.MaxGeohashPrecision

// Heatmap renders the weighted points as two layers, normal and congested.
// precision 0 keeps one point per sample; otherwise points are summed per
// geohash cell and placed at the cell center.
func Heatmap(out Output, precision int) (models.HeatmapResponse, error) {
	if precision < 0 || precision > MaxPrecision {
		return models.HeatmapResponse{}, fmt.Errorf("heatmap precision must be between 0 and %d, got %d", MaxPrecision, precision)
	}

	var normal, congested []models.WeightedSample
	for _, p := range out.Points {
		if p.Congested {
			congested = append(congested, p)
		} else {
			normal = append(normal, p)
		}
	}

	return models.HeatmapResponse{
		Normal:    buildLayer(normal, precision),
		Congested: buildLayer(congested, precision),
		Precision: precision,
	}, nil
}

func buildLayer(points []models.WeightedSample, precision int) models.HeatmapLayer {
	layer := models.HeatmapLayer{Points: make([]models.HeatmapPoint, 0, len(points))}

	if precision == 0 {
		for _, p := range points {
			layer.Points = append(layer.Points, models.HeatmapPoint{
				Lat:    p.Latitude,
				Lng:    p.Longitude,
				Weight: p.Weight,
				Count:  1,
			})
		}
	} else {
		cells := make(map[string]*models.HeatmapPoint)
		for _, p := range points {
			hash := spatial.EncodeGeohash(p.Latitude, p.Longitude, precision)
			cell, ok := cells[hash]
			if !ok {
				center := spatial.DecodeGeohash(hash)
				cell = &models.HeatmapPoint{Lat: center.Lat, Lng: center.Lng, Cell: hash}
				cells[hash] = cell
			}
			cell.Weight += p.Weight
			cell.Count++
		}
		for _, c := range cells {
			layer.Points = append(layer.Points, *c)
		}
		sort.Slice(layer.Points, func(i, j int) bool {
			return layer.Points[i].Cell < layer.Points[j].Cell
		})
	}

	for _, p := range layer.Points {
		if p.Weight > layer.MaxWeight {
			layer.MaxWeight = p.Weight
		}
	}
	if layer.MaxWeight > 0 {
		for i := range layer.Points {
			layer.Points[i].Intensity = layer.Points[i].Weight / layer.MaxWeight
		}
	}

	return layer
}
