package service

import (
	"context"
	"fmt"

	"github.com/jengzang/vehicle-tracker-go/internal/models"
	"github.com/jengzang/vehicle-tracker-go/internal/spatial"
	"github.com/jengzang/vehicle-tracker-go/internal/trace"
)

// TraceService answers proximity queries over a historical window
type TraceService struct {
	fetcher       RangeFetcher
	defaultRadius float64
}

// NewTraceService creates a new trace service. defaultRadius applies when a
// request does not set one.
func NewTraceService(fetcher RangeFetcher, defaultRadius float64) *TraceService {
	if defaultRadius <= 0 {
		defaultRadius = trace.DefaultRadiusMeters
	}
	return &TraceService{fetcher: fetcher, defaultRadius: defaultRadius}
}

// Search returns every sample that passed within the radius of the point
func (s *TraceService) Search(ctx context.Context, filter models.TraceFilter) (*models.TraceResponse, error) {
	session, center, radius, err := s.open(ctx, filter)
	if err != nil {
		return nil, err
	}

	res, err := session.Search(center, radius)
	if err != nil {
		return nil, err
	}

	resp := &models.TraceResponse{
		Center:       center,
		RadiusMeters: radius,
		Matches:      res.Matches,
		Count:        res.Count(),
	}
	if cur, ok := res.Current(); ok {
		resp.Current = &cur
	}
	return resp, nil
}

// Pass returns the stretch of route around match filter.Index
func (s *TraceService) Pass(ctx context.Context, filter models.TraceFilter) (*trace.Pass, error) {
	session, center, radius, err := s.open(ctx, filter)
	if err != nil {
		return nil, err
	}

	if _, err := session.Search(center, radius); err != nil {
		return nil, err
	}
	pass, err := session.Pass(filter.Index, radius)
	if err != nil {
		return nil, err
	}
	return &pass, nil
}

// Nearest returns the recorded sample closest to the point, nil when the
// window is empty
func (s *TraceService) Nearest(ctx context.Context, filter models.TraceFilter) (*models.TracePoint, error) {
	center, err := centerOf(filter)
	if err != nil {
		return nil, err
	}
	samples, err := fetchRange(ctx, s.fetcher, filter.RangeFilter)
	if err != nil {
		return nil, err
	}

	p, ok := trace.Nearest(samples, center)
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *TraceService) open(ctx context.Context, filter models.TraceFilter) (*trace.Session, spatial.Coordinate, float64, error) {
	center, err := centerOf(filter)
	if err != nil {
		return nil, center, 0, err
	}
	radius := s.defaultRadius
	if filter.Radius != nil {
		radius = *filter.Radius
	}

	req, err := rangeRequest(filter.RangeFilter)
	if err != nil {
		return nil, center, 0, err
	}
	samples, err := s.fetcher.Fetch(ctx, req)
	if err != nil {
		return nil, center, 0, err
	}
	return trace.NewSession(samples, req.VehicleID), center, radius, nil
}

func centerOf(filter models.TraceFilter) (spatial.Coordinate, error) {
	if filter.Lat == nil || filter.Lng == nil {
		return spatial.Coordinate{}, fmt.Errorf("%w: lat and lng are required", ErrInvalidQuery)
	}
	return spatial.Coordinate{Lat: *filter.Lat, Lng: *filter.Lng}, nil
}
