package spatial

// Bounds is a latitude/longitude bounding box
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLat float64 `json:"max_lat"`
	MaxLng float64 `json:"max_lng"`
}

// Centroid calculates the arithmetic centroid of a set of coordinates
func Centroid(points []Coordinate) Coordinate {
	if len(points) == 0 {
		return Coordinate{}
	}

	var sumLat, sumLng float64
	for _, p := range points {
		sumLat += p.Lat
		sumLng += p.Lng
	}

	return Coordinate{
		Lat: sumLat / float64(len(points)),
		Lng: sumLng / float64(len(points)),
	}
}

// BoundingBox calculates the bounding box of a set of coordinates.
// The zero Bounds is returned for an empty set.
func BoundingBox(points []Coordinate) Bounds {
	if len(points) == 0 {
		return Bounds{}
	}

	b := Bounds{
		MinLat: points[0].Lat, MaxLat: points[0].Lat,
		MinLng: points[0].Lng, MaxLng: points[0].Lng,
	}

	for _, p := range points[1:] {
		if p.Lat < b.MinLat {
			b.MinLat = p.Lat
		}
		if p.Lat > b.MaxLat {
			b.MaxLat = p.Lat
		}
		if p.Lng < b.MinLng {
			b.MinLng = p.Lng
		}
		if p.Lng > b.MaxLng {
			b.MaxLng = p.Lng
		}
	}

	return b
}

// PathLength calculates the total length of a path (sequence of coordinates) in meters
func PathLength(points []Coordinate) float64 {
	if len(points) < 2 {
		return 0
	}

	var total float64
	for i := 1; i < len(points); i++ {
		total += Distance(points[i-1], points[i])
	}

	return total
}
