package service

import (
	"context"
	"fmt"

	"github.com/jengzang/vehicle-tracker-go/internal/live"
	"github.com/jengzang/vehicle-tracker-go/internal/models"
)

// LiveService exposes the coordinator state over HTTP
type LiveService struct {
	coord *live.Coordinator
}

// NewLiveService creates a new live service
func NewLiveService(coord *live.Coordinator) *LiveService {
	return &LiveService{coord: coord}
}

// Status returns the latest sample per vehicle and the viewer count
func (s *LiveService) Status(ctx context.Context) (*models.LiveStatus, error) {
	vehicles, err := s.coord.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get live snapshot: %w", err)
	}
	return &models.LiveStatus{
		Vehicles: vehicles,
		Viewers:  s.coord.ViewerCount(),
	}, nil
}
