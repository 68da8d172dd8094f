package spatial

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineDistance(t *testing.T) {
	t.Run("zero for coincident points", func(t *testing.T) {
		for _, c := range []Coordinate{{0, 0}, {19.4326, -99.1332}, {-33.45, -70.66}, {89.9, 179.9}} {
			assert.Equal(t, 0.0, Distance(c, c))
		}
	})

	t.Run("symmetric", func(t *testing.T) {
		a := Coordinate{Lat: 10.9685, Lng: -74.7813}
		b := Coordinate{Lat: 11.0041, Lng: -74.8070}
		assert.Equal(t, Distance(a, b), Distance(b, a))
	})

	t.Run("one degree of latitude", func(t *testing.T) {
		d := HaversineDistance(0, 0, 1, 0)
		assert.InDelta(t, 111195.0, d, 1.0)
	})

	t.Run("monotonic in separation", func(t *testing.T) {
		origin := Coordinate{}
		prev := 0.0
		for _, step := range []float64{0.00001, 0.0001, 0.001, 0.01, 0.1} {
			d := Distance(origin, Coordinate{Lat: step, Lng: step})
			assert.Greater(t, d, prev)
			prev = d
		}
	})
}

func TestCoordinateValid(t *testing.T) {
	assert.True(t, Coordinate{Lat: 90, Lng: -180}.Valid())
	assert.False(t, Coordinate{Lat: 91, Lng: 0}.Valid())
	assert.False(t, Coordinate{Lat: 0, Lng: 181}.Valid())
}

func TestBoundingBoxAndPathLength(t *testing.T) {
	pts := []Coordinate{{1, 2}, {-1, 5}, {3, -2}}
	b := BoundingBox(pts)
	assert.Equal(t, Bounds{MinLat: -1, MinLng: -2, MaxLat: 3, MaxLng: 5}, b)
	assert.Equal(t, Bounds{}, BoundingBox(nil))

	assert.Equal(t, 0.0, PathLength(pts[:1]))
	want := Distance(pts[0], pts[1]) + Distance(pts[1], pts[2])
	assert.InDelta(t, want, PathLength(pts), 1e-6)

	c := Centroid([]Coordinate{{0, 0}, {2, 4}})
	assert.Equal(t, Coordinate{Lat: 1, Lng: 2}, c)
}

func TestGeohash(t *testing.T) {
	hash := EncodeGeohash(57.64911, 10.40744, 11)
	assert.Equal(t, "u4pruydqqvj", hash)

	center := DecodeGeohash(hash)
	assert.InDelta(t, 57.64911, center.Lat, 0.0001)
	assert.InDelta(t, 10.40744, center.Lng, 0.0001)

	assert.Len(t, EncodeGeohash(1, 1, 40), MaxGeohashPrecision)
	assert.Len(t, EncodeGeohash(1, 1, 0), 1)

	// exact boundaries fall into the lower cell
	assert.Equal(t, "7", EncodeGeohash(0, 0, 1))
}
