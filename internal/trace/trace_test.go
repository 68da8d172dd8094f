package trace

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/vehicle-tracker-go/internal/models"
	"github.com/jengzang/vehicle-tracker-go/internal/spatial"
)

var t0 = models.MustTimestamp("2025-06-01 10:00:00").Time

func at(id, vehicle int64, lat, lng float64, offset time.Duration) models.Sample {
	return models.Sample{
		ID:        id,
		VehicleID: vehicle,
		Latitude:  lat,
		Longitude: lng,
		Timestamp: models.NewTimestamp(t0.Add(offset)),
		RPM:       models.IntPtr(800),
	}
}

// route walks north along lng 0, roughly 11 m per sample, one sample every 5 s
func route(vehicle int64, n int, firstID int64) []models.Sample {
	out := make([]models.Sample, n)
	for i := 0; i < n; i++ {
		out[i] = at(firstID+int64(i), vehicle, float64(i)*0.0001, 0, time.Duration(i)*5*time.Second)
	}
	return out
}

func ids(r Result) []int64 {
	out := make([]int64, len(r.Matches))
	for i, m := range r.Matches {
		out[i] = m.ID
	}
	return out
}

func TestSearchNearIdenticalSamples(t *testing.T) {
	samples := []models.Sample{
		at(1, 1, 0, 0, 0),
		at(2, 1, 0.00001, 0.00001, 5*time.Second),
	}

	res, err := Search(samples, Query{Center: spatial.Coordinate{}, RadiusMeters: 50})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ids(res))

	cur, ok := res.Current()
	require.True(t, ok)
	assert.Equal(t, int64(1), cur.ID)
	assert.Zero(t, cur.DistanceMeters)
}

func TestSearchEmptyInput(t *testing.T) {
	res, err := Search(nil, Query{Center: spatial.Coordinate{Lat: 1, Lng: 1}, RadiusMeters: 100})
	require.NoError(t, err)
	assert.True(t, res.Empty())
	assert.NotNil(t, res.Matches)

	_, ok := res.Current()
	assert.False(t, ok)
	assert.Equal(t, -1, res.Step(0, 1))
}

func TestSearchNoMatchIsNotAnError(t *testing.T) {
	res, err := Search(route(1, 5, 1), Query{Center: spatial.Coordinate{Lat: 45, Lng: 45}, RadiusMeters: 500})
	require.NoError(t, err)
	assert.True(t, res.Empty())
}

func TestSearchInvalidQuery(t *testing.T) {
	samples := route(1, 3, 1)
	for _, r := range []float64{-1, math.NaN(), math.Inf(1)} {
		_, err := Search(samples, Query{RadiusMeters: r})
		assert.ErrorIs(t, err, ErrInvalidRadius)
	}

	_, err := Search(samples, Query{Center: spatial.Coordinate{Lat: 91}, RadiusMeters: 10})
	assert.ErrorIs(t, err, ErrInvalidCenter)
}

func TestSearchZeroRadius(t *testing.T) {
	samples := route(1, 3, 1)
	res, err := Search(samples, Query{Center: spatial.Coordinate{Lat: 0.0001, Lng: 0}, RadiusMeters: 0})
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, ids(res))
}

func TestSearchRadiusMonotonic(t *testing.T) {
	samples := append(route(1, 20, 1), route(2, 20, 100)...)
	center := spatial.Coordinate{Lat: 0.001, Lng: 0.00005}

	prev := map[int64]bool{}
	for _, r := range []float64{0, 5, 20, 50, 100, 250, 1000, 5000} {
		res, err := Search(samples, Query{Center: center, RadiusMeters: r})
		require.NoError(t, err)

		cur := map[int64]bool{}
		for _, m := range res.Matches {
			cur[m.ID] = true
			assert.LessOrEqual(t, m.DistanceMeters, r)
		}
		for id := range prev {
			assert.True(t, cur[id], "radius %v lost sample %d", r, id)
		}
		prev = cur
	}
	assert.Len(t, prev, 40)
}

func TestSearchOrdersAcrossVehicles(t *testing.T) {
	// vehicle 2 runs the same route 2 s behind; input deliberately shuffled
	a := route(1, 3, 1)
	b := route(2, 3, 10)
	for i := range b {
		b[i].Timestamp = models.NewTimestamp(b[i].Timestamp.Add(2 * time.Second))
	}
	samples := []models.Sample{b[2], a[0], b[0], a[2], a[1], b[1]}

	res, err := Search(samples, Query{Center: spatial.Coordinate{Lat: 0.0001}, RadiusMeters: 1000})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 10, 2, 11, 3, 12}, ids(res))
	for i := 1; i < len(res.Matches); i++ {
		assert.False(t, res.Matches[i].Timestamp.Before(res.Matches[i-1].Timestamp.Time))
	}

	v := int64(2)
	res, err = Search(samples, Query{Center: spatial.Coordinate{Lat: 0.0001}, RadiusMeters: 1000, VehicleID: &v})
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 11, 12}, ids(res))
}

func TestResultStep(t *testing.T) {
	res, err := Search(route(1, 5, 1), Query{RadiusMeters: 1000})
	require.NoError(t, err)
	require.Equal(t, 5, res.Count())

	assert.Equal(t, 1, res.Step(0, 1))
	assert.Equal(t, 0, res.Step(0, -1))
	assert.Equal(t, 4, res.Step(4, 1))
	assert.Equal(t, 4, res.Step(2, 10))
}

func TestSessionAdjustAndMove(t *testing.T) {
	s := NewSession(route(1, 10, 1), nil)

	_, err := s.Adjust(50)
	assert.ErrorIs(t, err, ErrNoSearch)

	small, err := s.Search(spatial.Coordinate{}, 15)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ids(small))

	again, err := s.Search(spatial.Coordinate{}, 15)
	require.NoError(t, err)
	assert.Equal(t, small, again)

	wider, err := s.Adjust(40)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3, 4}, ids(wider))

	moved, err := s.Move(spatial.Coordinate{Lat: 0.0009})
	require.NoError(t, err)
	assert.Equal(t, []int64{7, 8, 9, 10}, ids(moved))
	assert.Equal(t, moved, s.Result())
}

func TestSessionPass(t *testing.T) {
	// vehicle 1 passes the origin twice; vehicle 2 is interleaved far away
	samples := route(1, 5, 1)
	back := route(1, 5, 6)
	for i := range back {
		back[i].Latitude = float64(4-i) * 0.0001
		back[i].Timestamp = models.NewTimestamp(t0.Add(time.Duration(60+i*5) * time.Second))
	}
	samples = append(samples, at(20, 1, 0.01, 0, 40*time.Second))
	samples = append(samples, back...)
	samples = append(samples, at(50, 2, 10, 10, 7*time.Second))

	s := NewSession(samples, nil)
	res, err := s.Search(spatial.Coordinate{Lat: 0.0002}, 5)
	require.NoError(t, err)
	require.Equal(t, []int64{3, 8}, ids(res))

	pass, err := s.Pass(0, 25)
	require.NoError(t, err)
	assert.Equal(t, int64(3), pass.Match.ID)
	got := make([]int64, len(pass.Samples))
	for i, p := range pass.Samples {
		got[i] = p.ID
	}
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, got, "window stays within 25 m of the match and skips vehicle 2")
	assert.Equal(t, "2025-06-01 10:00:00", pass.Entry.String())
	assert.Equal(t, "2025-06-01 10:00:20", pass.Exit.String())

	pass, err = s.Pass(1, 15)
	require.NoError(t, err)
	got = got[:0]
	for _, p := range pass.Samples {
		got = append(got, p.ID)
	}
	assert.Equal(t, []int64{7, 8, 9}, got)

	_, err = s.Pass(2, 25)
	assert.ErrorIs(t, err, ErrMatchOutOfRange)
	_, err = s.Pass(0, -3)
	assert.ErrorIs(t, err, ErrInvalidRadius)
}

func TestNearest(t *testing.T) {
	samples := route(1, 10, 1)

	p, ok := Nearest(samples, spatial.Coordinate{Lat: 0.00052, Lng: 0.00001})
	require.True(t, ok)
	assert.Equal(t, int64(6), p.ID)
	assert.Greater(t, p.DistanceMeters, 0.0)

	_, ok = Nearest(nil, spatial.Coordinate{})
	assert.False(t, ok)
}
