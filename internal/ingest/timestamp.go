package ingest

import (
	"fmt"
	"strings"
	"time"

	"github.com/jengzang/vehicle-tracker-go/internal/models"
)

// IngestionLayout is the timestamp form sent by the devices: "HH:MM:SS - DD-MM-YYYY"
const IngestionLayout = "15:04:05 - 02-01-2006"

// ToStorageFormat reorders "HH:MM:SS - DD-MM-YYYY" into "YYYY-MM-DD HH:MM:SS".
// The conversion only moves fields around; no timezone is applied and the
// field text is preserved byte for byte.
func ToStorageFormat(raw string) (string, error) {
	parts := strings.Split(strings.TrimSpace(raw), " - ")
	if len(parts) != 2 {
		return "", fmt.Errorf("timestamp %q: expected \"HH:MM:SS - DD-MM-YYYY\"", raw)
	}
	timePart := strings.TrimSpace(parts[0])
	dateParts := strings.Split(strings.TrimSpace(parts[1]), "-")
	if len(dateParts) != 3 {
		return "", fmt.Errorf("timestamp %q: expected date DD-MM-YYYY", raw)
	}
	dd, mm, yyyy := dateParts[0], dateParts[1], dateParts[2]
	return fmt.Sprintf("%s-%s-%s %s", yyyy, mm, dd, timePart), nil
}

// ToIngestionFormat is the inverse of ToStorageFormat
func ToIngestionFormat(stored string) (string, error) {
	parts := strings.SplitN(strings.TrimSpace(stored), " ", 2)
	if len(parts) != 2 {
		return "", fmt.Errorf("timestamp %q: expected \"YYYY-MM-DD HH:MM:SS\"", stored)
	}
	dateParts := strings.Split(parts[0], "-")
	if len(dateParts) != 3 {
		return "", fmt.Errorf("timestamp %q: expected date YYYY-MM-DD", stored)
	}
	yyyy, mm, dd := dateParts[0], dateParts[1], dateParts[2]
	return fmt.Sprintf("%s - %s-%s-%s", parts[1], dd, mm, yyyy), nil
}

// ParseDeviceTimestamp converts a device timestamp to a sample time. Values
// already in storage form are accepted as well.
func ParseDeviceTimestamp(raw string) (models.Timestamp, error) {
	stored, err := ToStorageFormat(raw)
	if err != nil {
		stored = strings.TrimSpace(raw)
	}
	ts, perr := models.ParseTimestamp(stored)
	if perr != nil {
		if err != nil {
			return models.Timestamp{}, err
		}
		return models.Timestamp{}, perr
	}
	return ts, nil
}

// FormatDeviceTimestamp renders t in the device layout
func FormatDeviceTimestamp(t time.Time) string {
	return t.Format(IngestionLayout)
}
