package ingest

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/jengzang/vehicle-tracker-go/internal/models"
	"github.com/jengzang/vehicle-tracker-go/internal/spatial"
)

// DefaultImportBatch is the number of samples written per transaction
const DefaultImportBatch = 500

// BatchStore persists many samples in one transaction
type BatchStore interface {
	InsertBatch(ctx context.Context, samples []models.Sample) error
}

// ImportStats counts what an import did
type ImportStats struct {
	Read     int
	Stored   int
	Rejected int
}

// importRecord is a sample as exported by /historical. Pointers tell a
// missing field from a zero one.
type importRecord struct {
	VehicleID *int64            `json:"vehicle_id"`
	Latitude  *float64          `json:"latitude"`
	Longitude *float64          `json:"longitude"`
	Timestamp *models.Timestamp `json:"timestamp"`
	RPM       *int              `json:"rpm"`
}

func (r importRecord) sample() (models.Sample, error) {
	if r.Latitude == nil || r.Longitude == nil {
		return models.Sample{}, ErrMissingPosition
	}
	if !(spatial.Coordinate{Lat: *r.Latitude, Lng: *r.Longitude}).Valid() {
		return models.Sample{}, fmt.Errorf("position %f,%f out of range", *r.Latitude, *r.Longitude)
	}
	if r.Timestamp == nil {
		return models.Sample{}, errors.New("sample has no timestamp")
	}
	s := models.Sample{
		VehicleID: models.DefaultVehicleID,
		Latitude:  *r.Latitude,
		Longitude: *r.Longitude,
		Timestamp: *r.Timestamp,
		RPM:       r.RPM,
	}
	if r.VehicleID != nil && *r.VehicleID != 0 {
		s.VehicleID = *r.VehicleID
	}
	return s, nil
}

// Import reads samples from r and stores them in batches. The input is either
// a JSON array, as returned by /historical, or one JSON object per line.
// Records without a position or timestamp are logged and skipped; malformed
// JSON stops the import.
func Import(ctx context.Context, r io.Reader, store BatchStore, batchSize int) (ImportStats, error) {
	var stats ImportStats
	if batchSize <= 0 {
		batchSize = DefaultImportBatch
	}

	br := bufio.NewReader(r)
	dec := json.NewDecoder(br)

	array, err := startsWithArray(br)
	if err != nil {
		return stats, err
	}
	if array {
		if _, err := dec.Token(); err != nil {
			return stats, fmt.Errorf("failed to read import array: %w", err)
		}
	}

	batch := make([]models.Sample, 0, batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := store.InsertBatch(ctx, batch); err != nil {
			return err
		}
		stats.Stored += len(batch)
		batch = batch[:0]
		return nil
	}

	for dec.More() {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		var rec importRecord
		if err := dec.Decode(&rec); err != nil {
			return stats, fmt.Errorf("record %d: %w", stats.Read+1, err)
		}
		stats.Read++

		s, err := rec.sample()
		if err != nil {
			stats.Rejected++
			log.Printf("[Import] Skipping record %d: %v", stats.Read, err)
			continue
		}

		batch = append(batch, s)
		if len(batch) == batchSize {
			if err := flush(); err != nil {
				return stats, err
			}
		}
	}

	if err := flush(); err != nil {
		return stats, err
	}
	return stats, nil
}

// startsWithArray peeks past leading whitespace for '['
func startsWithArray(br *bufio.Reader) (bool, error) {
	for {
		b, err := br.Peek(1)
		if err == io.EOF {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		switch b[0] {
		case ' ', '\t', '\r', '\n':
			br.ReadByte()
		default:
			return b[0] == '[', nil
		}
	}
}
