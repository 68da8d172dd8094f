package service

import (
	"context"
	"fmt"

	"github.com/jengzang/vehicle-tracker-go/internal/congestion"
	"github.com/jengzang/vehicle-tracker-go/internal/models"
)

// CongestionService builds congestion heatmaps for a historical window
type CongestionService struct {
	fetcher RangeFetcher
	policy  congestion.Policy
}

// NewCongestionService creates a new congestion service. The policy is
// validated once here.
func NewCongestionService(fetcher RangeFetcher, policy congestion.Policy) (*CongestionService, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &CongestionService{fetcher: fetcher, policy: policy}, nil
}

// Policy returns the active policy
func (s *CongestionService) Policy() congestion.Policy {
	return s.policy
}

// Report segments the window and renders the heatmap layers
func (s *CongestionService) Report(ctx context.Context, filter models.CongestionFilter) (*models.CongestionReport, error) {
	samples, err := fetchRange(ctx, s.fetcher, filter.RangeFilter)
	if err != nil {
		return nil, err
	}

	return Analyze(samples, s.policy, filter.Precision)
}

// Analyze runs the segmenter over samples already in memory
func Analyze(samples []models.Sample, policy congestion.Policy, precision int) (*models.CongestionReport, error) {
	out := congestion.Segment(samples, policy)

	heatmap, err := congestion.Heatmap(out, precision)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}

	return &models.CongestionReport{
		Points:   out.Points,
		Clusters: out.Clusters,
		Heatmap:  heatmap,
		Summary:  out.Summary(),
	}, nil
}
