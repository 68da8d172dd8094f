package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jengzang/vehicle-tracker-go/internal/models"
)

const sampleColumns = `id, vehicle_id, latitude, longitude, timestamp, rpm`

// SampleRepository handles database operations for telemetry samples
type SampleRepository struct {
	db *sql.DB
}

// NewSampleRepository creates a new sample repository
func NewSampleRepository(db *sql.DB) *SampleRepository {
	return &SampleRepository{db: db}
}

// Insert stores a sample and sets its ID
func (r *SampleRepository) Insert(ctx context.Context, s *models.Sample) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO samples (latitude, longitude, timestamp, vehicle_id, rpm) VALUES (?, ?, ?, ?, ?)`,
		s.Latitude, s.Longitude, s.Timestamp, s.VehicleID, nullableRPM(s.RPM))
	if err != nil {
		return fmt.Errorf("failed to insert sample: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get sample id: %w", err)
	}
	s.ID = id
	return nil
}

// InsertBatch stores samples in one transaction
func (r *SampleRepository) InsertBatch(ctx context.Context, samples []models.Sample) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO samples (latitude, longitude, timestamp, vehicle_id, rpm) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := range samples {
		s := &samples[i]
		res, err := stmt.ExecContext(ctx, s.Latitude, s.Longitude, s.Timestamp, s.VehicleID, nullableRPM(s.RPM))
		if err != nil {
			return fmt.Errorf("failed to insert sample %d: %w", i, err)
		}
		if s.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("failed to get sample id: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetRange returns samples with start <= timestamp <= end ordered by
// timestamp. A nil vehicleID selects every vehicle.
func (r *SampleRepository) GetRange(ctx context.Context, vehicleID *int64, start, end time.Time) ([]models.Sample, error) {
	conditions := []string{"timestamp >= ?", "timestamp <= ?"}
	args := []interface{}{
		models.NewTimestamp(start).String(),
		models.NewTimestamp(end).String(),
	}
	if vehicleID != nil {
		conditions = append(conditions, "vehicle_id = ?")
		args = append(args, *vehicleID)
	}

	query := `SELECT ` + sampleColumns + ` FROM samples WHERE ` +
		strings.Join(conditions, " AND ") + ` ORDER BY timestamp ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query samples: %w", err)
	}
	defer rows.Close()

	return scanSamples(rows)
}

// GetByID retrieves a single sample, nil if it does not exist
func (r *SampleRepository) GetByID(ctx context.Context, id int64) (*models.Sample, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sampleColumns+` FROM samples WHERE id = ?`, id)

	s, err := scanSample(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sample: %w", err)
	}
	return &s, nil
}

// LatestPerVehicle returns the most recently stored sample of every vehicle,
// ordered by vehicle id
func (r *SampleRepository) LatestPerVehicle(ctx context.Context) ([]models.Sample, error) {
	query := `SELECT s.id, s.vehicle_id, s.latitude, s.longitude, s.timestamp, s.rpm
		FROM samples s
		JOIN (SELECT vehicle_id, MAX(id) AS max_id FROM samples GROUP BY vehicle_id) latest
		ON s.id = latest.max_id
		ORDER BY s.vehicle_id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest samples: %w", err)
	}
	defer rows.Close()

	return scanSamples(rows)
}

// ListVehicleIDs returns every vehicle that has reported at least once
func (r *SampleRepository) ListVehicleIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT vehicle_id FROM samples ORDER BY vehicle_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query vehicles: %w", err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan vehicle id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Count returns the number of stored samples
func (r *SampleRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM samples`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count samples: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSample(row rowScanner) (models.Sample, error) {
	var s models.Sample
	var rpm sql.NullInt64
	if err := row.Scan(&s.ID, &s.VehicleID, &s.Latitude, &s.Longitude, &s.Timestamp, &rpm); err != nil {
		return s, err
	}
	if rpm.Valid {
		v := int(rpm.Int64)
		s.RPM = &v
	}
	return s, nil
}

func scanSamples(rows *sql.Rows) ([]models.Sample, error) {
	samples := make([]models.Sample, 0)
	for rows.Next() {
		s, err := scanSample(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}
		samples = append(samples, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate samples: %w", err)
	}
	return samples, nil
}

func nullableRPM(rpm *int) interface{} {
	if rpm == nil {
		return nil
	}
	return *rpm
}
