package service

import (
	"context"
	"sort"

	geojson "github.com/paulmach/go.geojson"

	"github.com/jengzang/vehicle-tracker-go/internal/models"
	"github.com/jengzang/vehicle-tracker-go/internal/spatial"
)

// RouteService groups a historical window into per-vehicle routes
type RouteService struct {
	fetcher RangeFetcher
}

// NewRouteService creates a new route service
func NewRouteService(fetcher RangeFetcher) *RouteService {
	return &RouteService{fetcher: fetcher}
}

// Routes returns one route per vehicle ordered by vehicle id
func (s *RouteService) Routes(ctx context.Context, filter models.RangeFilter) ([]models.VehicleRoute, error) {
	samples, err := fetchRange(ctx, s.fetcher, filter)
	if err != nil {
		return nil, err
	}
	return BuildRoutes(samples), nil
}

// GeoJSON returns the routes as a FeatureCollection with one LineString per
// vehicle and the overall bounding box
func (s *RouteService) GeoJSON(ctx context.Context, filter models.RangeFilter) (*geojson.FeatureCollection, error) {
	routes, err := s.Routes(ctx, filter)
	if err != nil {
		return nil, err
	}
	return RoutesToGeoJSON(routes), nil
}

// BuildRoutes splits samples by vehicle, keeping timestamp order
func BuildRoutes(samples []models.Sample) []models.VehicleRoute {
	sorted := make([]models.Sample, len(samples))
	copy(sorted, samples)
	models.SortSamples(sorted)

	byVehicle := make(map[int64][]models.Sample)
	for _, smp := range sorted {
		byVehicle[smp.VehicleID] = append(byVehicle[smp.VehicleID], smp)
	}

	routes := make([]models.VehicleRoute, 0, len(byVehicle))
	for id, smps := range byVehicle {
		coords := make([]spatial.Coordinate, len(smps))
		for i, smp := range smps {
			coords[i] = smp.Position()
		}
		routes = append(routes, models.VehicleRoute{
			VehicleID:    id,
			Samples:      smps,
			LengthMeters: spatial.PathLength(coords),
			Bounds:       spatial.BoundingBox(coords),
		})
	}
	sort.Slice(routes, func(i, j int) bool { return routes[i].VehicleID < routes[j].VehicleID })
	return routes
}

// RoutesToGeoJSON converts routes to GeoJSON. A vehicle with a single sample
// becomes a Point since a LineString needs two positions.
func RoutesToGeoJSON(routes []models.VehicleRoute) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	var all []spatial.Coordinate
	for _, r := range routes {
		line := make([][]float64, len(r.Samples))
		for i, smp := range r.Samples {
			line[i] = []float64{smp.Longitude, smp.Latitude}
			all = append(all, smp.Position())
		}

		var f *geojson.Feature
		if len(line) == 1 {
			f = geojson.NewPointFeature(line[0])
		} else {
			f = geojson.NewLineStringFeature(line)
		}
		f.SetProperty("vehicle_id", r.VehicleID)
		f.SetProperty("samples", len(r.Samples))
		f.SetProperty("length_meters", r.LengthMeters)
		if len(r.Samples) > 0 {
			f.SetProperty("start", r.Samples[0].Timestamp.String())
			f.SetProperty("end", r.Samples[len(r.Samples)-1].Timestamp.String())
		}
		fc.AddFeature(f)
	}

	if len(all) > 0 {
		b := spatial.BoundingBox(all)
		fc.BoundingBox = []float64{b.MinLng, b.MinLat, b.MaxLng, b.MaxLat}
	}
	return fc
}
