package trace

import (
	"errors"
	"fmt"

	"github.com/jengzang/vehicle-tracker-go/internal/models"
	"github.com/jengzang/vehicle-tracker-go/internal/spatial"
)

var (
	// ErrNoSearch is returned when a circle is adjusted before it was placed
	ErrNoSearch = errors.New("no search circle has been placed")
	// ErrMatchOutOfRange is returned for a match index outside the result
	ErrMatchOutOfRange = errors.New("match index out of range")
)

// Pass is the stretch of a vehicle's route around a selected match that
// stays within the radius of that match
type Pass struct {
	Match   models.TracePoint `json:"match"`
	Samples []models.Sample   `json:"samples"`
	Entry   models.Timestamp  `json:"entry"`
	Exit    models.Timestamp  `json:"exit"`
}

// Session keeps one fetched range in memory so the circle can be moved and
// resized without going back to storage
type Session struct {
	samples   []models.Sample
	vehicleID *int64

	placed bool
	center spatial.Coordinate
	radius float64
	last   Result
}

// NewSession sorts samples once. vehicleID optionally restricts every search
// to one vehicle.
func NewSession(samples []models.Sample, vehicleID *int64) *Session {
	return &Session{
		samples:   ordered(samples),
		vehicleID: vehicleID,
		radius:    DefaultRadiusMeters,
	}
}

// Samples returns the ordered sample set
func (s *Session) Samples() []models.Sample {
	return s.samples
}

// Result returns the result of the last successful search
func (s *Session) Result() Result {
	return s.last
}

// Search places the circle
func (s *Session) Search(center spatial.Coordinate, radius float64) (Result, error) {
	q := Query{Center: center, RadiusMeters: radius, VehicleID: s.vehicleID}
	if err := q.Validate(); err != nil {
		return Result{}, err
	}

	s.placed = true
	s.center = center
	s.radius = radius
	s.last = search(s.samples, q)
	return s.last, nil
}

// Adjust re-runs the last search with a new radius
func (s *Session) Adjust(radius float64) (Result, error) {
	if !s.placed {
		return Result{}, ErrNoSearch
	}
	return s.Search(s.center, radius)
}

// Move re-runs the last search around a new center, keeping the radius
func (s *Session) Move(center spatial.Coordinate) (Result, error) {
	return s.Search(center, s.radius)
}

// Pass expands around match index of the last result. Starting at the
// match, neighbouring samples of the same vehicle are added while they are
// within radius of the match itself.
func (s *Session) Pass(index int, radius float64) (Pass, error) {
	if index < 0 || index >= s.last.Count() {
		return Pass{}, fmt.Errorf("%w: %d of %d", ErrMatchOutOfRange, index, s.last.Count())
	}
	if !validRadius(radius) {
		return Pass{}, ErrInvalidRadius
	}

	match := s.last.Matches[index]
	origin := match.Position()
	vehicle := match.VehicleID

	within := func(i int) bool {
		return s.samples[i].VehicleID == vehicle &&
			spatial.Distance(origin, s.samples[i].Position()) <= radius
	}
	sameVehicle := func(i int) bool {
		return s.samples[i].VehicleID == vehicle
	}

	// other vehicles interleaved in time are skipped, not treated as exits
	first := match.Index
	for i := match.Index - 1; i >= 0; i-- {
		if !sameVehicle(i) {
			continue
		}
		if !within(i) {
			break
		}
		first = i
	}
	last := match.Index
	for i := match.Index + 1; i < len(s.samples); i++ {
		if !sameVehicle(i) {
			continue
		}
		if !within(i) {
			break
		}
		last = i
	}

	p := Pass{Match: match, Samples: make([]models.Sample, 0, last-first+1)}
	for i := first; i <= last; i++ {
		if sameVehicle(i) {
			p.Samples = append(p.Samples, s.samples[i])
		}
	}
	p.Entry = p.Samples[0].Timestamp
	p.Exit = p.Samples[len(p.Samples)-1].Timestamp
	return p, nil
}
