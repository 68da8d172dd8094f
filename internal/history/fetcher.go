// Package history validates time windows and loads their samples from storage.
package history

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/jengzang/vehicle-tracker-go/internal/models"
	"github.com/jengzang/vehicle-tracker-go/internal/timeutil"
)

var (
	ErrInvalidRange       = errors.New("start datetime must be before end datetime")
	ErrFutureRange        = errors.New("future dates/times are not allowed")
	ErrMissingBound       = errors.New("start and end are required")
	ErrInvalidBound       = errors.New("invalid datetime")
	ErrInvalidVehicle     = errors.New("vehicle_id must be \"all\" or a vehicle id")
	ErrStorageUnavailable = errors.New("sample storage unavailable")
)

// DefaultMaxConcurrent bounds simultaneous range queries against sqlite
const DefaultMaxConcurrent = 4

// Store reads samples in a closed time interval
type Store interface {
	GetRange(ctx context.Context, vehicleID *int64, start, end time.Time) ([]models.Sample, error)
}

// Request is one range query. A nil VehicleID means every vehicle.
type Request struct {
	VehicleID *int64
	Start     time.Time
	End       time.Time
}

// Validate checks the window against now. Bounds are wall clocks, so they
// are compared with the wall clock of now in its own zone.
func (r Request) Validate(now time.Time) error {
	if r.Start.IsZero() || r.End.IsZero() {
		return ErrMissingBound
	}
	now = models.WallClock(now)
	if !r.Start.Before(r.End) {
		return ErrInvalidRange
	}
	if r.Start.After(now) || r.End.After(now) {
		return ErrFutureRange
	}
	return nil
}

// Fetcher loads validated ranges, at most maxConcurrent at a time
type Fetcher struct {
	store Store
	clock timeutil.Clock
	sem   *semaphore.Weighted
}

// NewFetcher creates a fetcher. maxConcurrent <= 0 uses DefaultMaxConcurrent.
func NewFetcher(store Store, clock timeutil.Clock, maxConcurrent int) *Fetcher {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	return &Fetcher{
		store: store,
		clock: clock,
		sem:   semaphore.NewWeighted(int64(maxConcurrent)),
	}
}

// Fetch returns the samples of the window in ascending timestamp order.
// Validation failures never reach storage. A storage failure is returned
// wrapped in ErrStorageUnavailable; the caller decides whether to retry.
func (f *Fetcher) Fetch(ctx context.Context, req Request) ([]models.Sample, error) {
	if err := req.Validate(f.clock.Now()); err != nil {
		return nil, err
	}

	if err := f.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer f.sem.Release(1)

	samples, err := f.store.GetRange(ctx, req.VehicleID, req.Start, req.End)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if samples == nil {
		samples = make([]models.Sample, 0)
	}

	if !models.SamplesSorted(samples) {
		models.SortSamples(samples)
	}
	return samples, nil
}

var boundLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	models.StorageLayout,
	"2006-01-02 15:04",
}

// ParseBound parses a datetime-local value as a wall clock. The UI sends
// "2025-06-01T10:00" and sometimes appends seconds.
func ParseBound(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrMissingBound
	}
	for _, layout := range boundLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidBound, s)
}

// AllVehicles is the vehicle filter value that selects every vehicle
const AllVehicles = "all"

// ParseVehicleFilter maps "all" or an empty value to nil and anything else
// to a vehicle id
func ParseVehicleFilter(s string) (*int64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, AllVehicles) {
		return nil, nil
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidVehicle, s)
	}
	return &id, nil
}

// ParseRequest builds a request from raw query values
func ParseRequest(start, end string, vehicleID *int64) (Request, error) {
	if strings.TrimSpace(start) == "" || strings.TrimSpace(end) == "" {
		return Request{}, ErrMissingBound
	}
	s, err := ParseBound(start)
	if err != nil {
		return Request{}, err
	}
	e, err := ParseBound(end)
	if err != nil {
		return Request{}, err
	}
	return Request{VehicleID: vehicleID, Start: s, End: e}, nil
}

// IsInvalidInput reports whether err is the caller's fault rather than storage's
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidRange) ||
		errors.Is(err, ErrFutureRange) ||
		errors.Is(err, ErrMissingBound) ||
		errors.Is(err, ErrInvalidBound) ||
		errors.Is(err, ErrInvalidVehicle)
}
