package service

import (
	"context"
	"fmt"

	"github.com/jengzang/vehicle-tracker-go/internal/history"
	"github.com/jengzang/vehicle-tracker-go/internal/models"
)

// VehicleStore is the catalogue side of the sample repository
type VehicleStore interface {
	ListVehicleIDs(ctx context.Context) ([]int64, error)
	Count(ctx context.Context) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Sample, error)
}

// VehicleService lists vehicles and looks up stored samples
type VehicleService struct {
	store VehicleStore
}

// NewVehicleService creates a new vehicle service
func NewVehicleService(store VehicleStore) *VehicleService {
	return &VehicleService{store: store}
}

// Vehicles returns every vehicle that has reported, for the UI's vehicle selector
func (s *VehicleService) Vehicles(ctx context.Context) (*models.VehicleList, error) {
	ids, err := s.store.ListVehicleIDs(ctx)
	if err != nil {
		return nil, storageError(ctx, err)
	}
	n, err := s.store.Count(ctx)
	if err != nil {
		return nil, storageError(ctx, err)
	}
	if ids == nil {
		ids = make([]int64, 0)
	}
	return &models.VehicleList{Vehicles: ids, Samples: n}, nil
}

// Sample returns one stored sample, nil when the id is unknown
func (s *VehicleService) Sample(ctx context.Context, id int64) (*models.Sample, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: sample id must be positive", ErrInvalidQuery)
	}
	smp, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, storageError(ctx, err)
	}
	return smp, nil
}

func storageError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return fmt.Errorf("%w: %v", history.ErrStorageUnavailable, err)
}
