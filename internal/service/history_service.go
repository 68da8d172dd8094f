package service

import (
	"context"
	"errors"

	"github.com/jengzang/vehicle-tracker-go/internal/history"
	"github.com/jengzang/vehicle-tracker-go/internal/models"
)

// ErrInvalidQuery is returned for query parameters that are missing or malformed
var ErrInvalidQuery = errors.New("invalid query")

// RangeFetcher loads the samples of a validated time window
type RangeFetcher interface {
	Fetch(ctx context.Context, req history.Request) ([]models.Sample, error)
}

// HistoryService handles historical range queries
type HistoryService struct {
	fetcher RangeFetcher
}

// NewHistoryService creates a new history service
func NewHistoryService(fetcher RangeFetcher) *HistoryService {
	return &HistoryService{fetcher: fetcher}
}

// GetSamples returns the samples of the filter's window in timestamp order
func (s *HistoryService) GetSamples(ctx context.Context, filter models.RangeFilter) ([]models.Sample, error) {
	return fetchRange(ctx, s.fetcher, filter)
}

func rangeRequest(filter models.RangeFilter) (history.Request, error) {
	vehicleID, err := history.ParseVehicleFilter(filter.Vehicle)
	if err != nil {
		return history.Request{}, err
	}
	return history.ParseRequest(filter.Start, filter.End, vehicleID)
}

func fetchRange(ctx context.Context, fetcher RangeFetcher, filter models.RangeFilter) ([]models.Sample, error) {
	req, err := rangeRequest(filter)
	if err != nil {
		return nil, err
	}
	return fetcher.Fetch(ctx, req)
}
