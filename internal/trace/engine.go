// Package trace answers "which vehicles passed near this point" over an
// already fetched set of samples.
package trace

import (
	"errors"
	"math"

	"github.com/jengzang/vehicle-tracker-go/internal/models"
	"github.com/jengzang/vehicle-tracker-go/internal/spatial"
)

// DefaultRadiusMeters is the search radius used when none is given
const DefaultRadiusMeters = 100.0

var (
	// ErrInvalidRadius is returned for negative or NaN radii
	ErrInvalidRadius = errors.New("search radius must be a non-negative number")
	// ErrInvalidCenter is returned for coordinates outside lat/lng bounds
	ErrInvalidCenter = errors.New("search center is not a valid coordinate")
)

// Query is a search circle with an optional vehicle filter
type Query struct {
	Center       spatial.Coordinate
	RadiusMeters float64
	VehicleID    *int64
}

// Validate checks the circle
func (q Query) Validate() error {
	if !validRadius(q.RadiusMeters) {
		return ErrInvalidRadius
	}
	if !q.Center.Valid() {
		return ErrInvalidCenter
	}
	return nil
}

func validRadius(r float64) bool {
	return !math.IsNaN(r) && !math.IsInf(r, 0) && r >= 0
}

// Result holds the matches of one search in chronological order
type Result struct {
	Query   Query               `json:"-"`
	Matches []models.TracePoint `json:"matches"`
}

// Empty reports whether nothing was inside the circle
func (r Result) Empty() bool {
	return len(r.Matches) == 0
}

// Count returns the number of matches
func (r Result) Count() int {
	return len(r.Matches)
}

// Current returns the match highlighted by default, the earliest one
func (r Result) Current() (models.TracePoint, bool) {
	if r.Empty() {
		return models.TracePoint{}, false
	}
	return r.Matches[0], true
}

// Step moves from match i by delta, clamped to the result. It returns -1
// for an empty result.
func (r Result) Step(i, delta int) int {
	if r.Empty() {
		return -1
	}
	next := i + delta
	if next < 0 {
		return 0
	}
	if next >= len(r.Matches) {
		return len(r.Matches) - 1
	}
	return next
}

// Search returns every sample within q.RadiusMeters of q.Center, ordered by
// timestamp across all vehicles. A radius of 0 only matches samples exactly
// at the center. No matches is an empty result, not an error.
func Search(samples []models.Sample, q Query) (Result, error) {
	if err := q.Validate(); err != nil {
		return Result{}, err
	}
	return search(ordered(samples), q), nil
}

// search expects samples already in timestamp order
func search(samples []models.Sample, q Query) Result {
	res := Result{Query: q, Matches: make([]models.TracePoint, 0)}

	for i, s := range samples {
		if q.VehicleID != nil && s.VehicleID != *q.VehicleID {
			continue
		}
		d := spatial.Distance(q.Center, s.Position())
		if d <= q.RadiusMeters {
			res.Matches = append(res.Matches, models.TracePoint{
				Sample:         s,
				DistanceMeters: d,
				Index:          i,
			})
		}
	}

	return res
}

// Nearest returns the recorded sample closest to point
func Nearest(samples []models.Sample, point spatial.Coordinate) (models.TracePoint, bool) {
	best := -1
	bestDist := math.Inf(1)

	sorted := ordered(samples)
	for i, s := range sorted {
		d := spatial.Distance(point, s.Position())
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return models.TracePoint{}, false
	}
	return models.TracePoint{Sample: sorted[best], DistanceMeters: bestDist, Index: best}, true
}

// ordered returns samples in timestamp order, copying only when a sort is needed
func ordered(samples []models.Sample) []models.Sample {
	if models.SamplesSorted(samples) {
		return samples
	}
	sorted := make([]models.Sample, len(samples))
	copy(sorted, samples)
	models.SortSamples(sorted)
	return sorted
}
