// Package ingest turns device datagrams into samples and feeds them to storage
// and the live channel.
package ingest

import (
	"errors"
	"log"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jengzang/vehicle-tracker-go/internal/models"
)

// ErrMissingPosition is returned for packets that carry no latitude or longitude
var ErrMissingPosition = errors.New("packet has no latitude/longitude")

// ParseResult describes what a packet contained
type ParseResult struct {
	Sample       models.Sample
	SkippedLines int
	HasTimestamp bool
}

// Parse decodes a newline separated "key: value" packet. Keys are matched
// case-insensitively by substring: "latitud", "longitud", "tiempo",
// "vehiculo"/"vehicle", and exactly "rpm". Lines that cannot be decoded are
// skipped and the remaining fields still produce a sample. received is used
// as the timestamp when the packet has none that can be parsed.
func Parse(payload string, received time.Time) (ParseResult, error) {
	res := ParseResult{
		Sample: models.Sample{
			VehicleID: models.DefaultVehicleID,
		},
	}

	var hasLat, hasLng bool

	for _, line := range strings.Split(payload, "\n") {
		idx := strings.Index(line, ":")
		if idx == -1 {
			if strings.TrimSpace(line) != "" {
				res.SkippedLines++
			}
			continue
		}
		key := strings.ToLower(strings.TrimSpace(line[:idx]))
		value := strings.TrimSpace(line[idx+1:])

		switch {
		case strings.Contains(key, "latitud"):
			v, err := parseCoordinate(value, 90)
			if err != nil {
				res.SkippedLines++
				continue
			}
			res.Sample.Latitude = v
			hasLat = true
		case strings.Contains(key, "longitud"):
			v, err := parseCoordinate(value, 180)
			if err != nil {
				res.SkippedLines++
				continue
			}
			res.Sample.Longitude = v
			hasLng = true
		case strings.Contains(key, "tiempo"):
			ts, err := ParseDeviceTimestamp(value)
			if err != nil {
				res.SkippedLines++
				continue
			}
			res.Sample.Timestamp = ts
			res.HasTimestamp = true
		case strings.Contains(key, "vehiculo"), strings.Contains(key, "vehicle"):
			id, err := strconv.ParseInt(value, 10, 64)
			if err != nil || id == 0 {
				id = models.DefaultVehicleID
			}
			res.Sample.VehicleID = id
		case key == "rpm":
			res.Sample.RPM = parseRPM(value)
		}
	}

	if !res.HasTimestamp {
		res.Sample.Timestamp = models.NewTimestamp(received)
	}

	if !hasLat || !hasLng {
		return res, ErrMissingPosition
	}

	return res, nil
}

func parseCoordinate(value string, limit float64) (float64, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.Abs(v) > limit {
		return 0, strconv.ErrRange
	}
	return v, nil
}

// parseRPM returns nil for anything that is not a number; a fractional
// reading is truncated
func parseRPM(value string) *int {
	if n, err := strconv.Atoi(value); err == nil {
		return &n
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	n := int(f)
	return &n
}

// logPacket prints a compact description of a parsed packet
func logPacket(from string, res ParseResult) {
	rpm := "null"
	if res.Sample.RPM != nil {
		rpm = strconv.Itoa(*res.Sample.RPM)
	}
	log.Printf("[UDPListener] %s vehicle=%d lat=%.6f lng=%.6f ts=%s rpm=%s skipped=%d",
		from, res.Sample.VehicleID, res.Sample.Latitude, res.Sample.Longitude,
		res.Sample.Timestamp, rpm, res.SkippedLines)
}
