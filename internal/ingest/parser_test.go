package ingest

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/vehicle-tracker-go/internal/models"
)

var received = time.Date(2025, 6, 5, 14, 10, 0, 0, time.Local)

func TestParseFullPacket(t *testing.T) {
	packet := "Latitud: 10.987654\nLongitud: -74.812345\nTiempo: 14:03:22 - 05-06-2025\nVehiculo: 2\nRPM: 850\n"

	res, err := Parse(packet, received)
	require.NoError(t, err)

	s := res.Sample
	assert.Equal(t, 10.987654, s.Latitude)
	assert.Equal(t, -74.812345, s.Longitude)
	assert.Equal(t, "2025-06-05 14:03:22", s.Timestamp.String())
	assert.Equal(t, int64(2), s.VehicleID)
	require.NotNil(t, s.RPM)
	assert.Equal(t, 850, *s.RPM)
	assert.True(t, res.HasTimestamp)
	assert.Zero(t, res.SkippedLines)
}

func TestParseKeysAreCaseInsensitiveSubstrings(t *testing.T) {
	packet := "LATITUDE: 1.5\r\nlongitude : 2.5\r\ntiempo GPS: 08:00:00 - 01-01-2025\r\nvehicle id: 7"

	res, err := Parse(packet, received)
	require.NoError(t, err)
	assert.Equal(t, 1.5, res.Sample.Latitude)
	assert.Equal(t, 2.5, res.Sample.Longitude)
	assert.Equal(t, "2025-01-01 08:00:00", res.Sample.Timestamp.String())
	assert.Equal(t, int64(7), res.Sample.VehicleID)
}

func TestParseDefaults(t *testing.T) {
	res, err := Parse("Latitud: 1\nLongitud: 2", received)
	require.NoError(t, err)

	assert.Equal(t, models.DefaultVehicleID, res.Sample.VehicleID)
	assert.Nil(t, res.Sample.RPM)
	assert.False(t, res.HasTimestamp)
	assert.Equal(t, "2025-06-05 14:10:00", res.Sample.Timestamp.String())
}

func TestParseMalformedFields(t *testing.T) {
	tests := []struct {
		name    string
		packet  string
		vehicle int64
		rpm     *int
		skipped int
	}{
		{"bad vehicle falls back", "Latitud: 1\nLongitud: 2\nVehiculo: abc", 1, nil, 0},
		{"zero vehicle falls back", "Latitud: 1\nLongitud: 2\nVehiculo: 0", 1, nil, 0},
		{"non numeric rpm is null", "Latitud: 1\nLongitud: 2\nRPM: n/a", 1, nil, 0},
		{"fractional rpm truncated", "Latitud: 1\nLongitud: 2\nRPM: 912.7", 1, models.IntPtr(912), 0},
		{"rpm key must match exactly", "Latitud: 1\nLongitud: 2\nengine rpm: 900", 1, nil, 0},
		{"bad time skipped", "Latitud: 1\nLongitud: 2\nTiempo: yesterday", 1, nil, 1},
		{"line without colon skipped", "Latitud: 1\nLongitud: 2\ngarbage", 1, nil, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Parse(tt.packet, received)
			require.NoError(t, err)
			assert.Equal(t, tt.vehicle, res.Sample.VehicleID)
			assert.Equal(t, tt.rpm, res.Sample.RPM)
			assert.Equal(t, tt.skipped, res.SkippedLines)
		})
	}
}

func TestParseMissingPosition(t *testing.T) {
	_, err := Parse("Longitud: 2\nRPM: 800", received)
	assert.ErrorIs(t, err, ErrMissingPosition)

	_, err = Parse("Latitud: not-a-number\nLongitud: 2", received)
	assert.ErrorIs(t, err, ErrMissingPosition)

	_, err = Parse("Latitud: 95\nLongitud: 2", received)
	assert.ErrorIs(t, err, ErrMissingPosition)

	_, err = Parse("", received)
	assert.ErrorIs(t, err, ErrMissingPosition)
}

func TestStorageFormatRoundTrip(t *testing.T) {
	inputs := []string{
		"14:03:22 - 05-06-2025",
		"00:00:00 - 01-01-2024",
		"23:59:59 - 31-12-2030",
	}
	for _, in := range inputs {
		stored, err := ToStorageFormat(in)
		require.NoError(t, err)

		back, err := ToIngestionFormat(stored)
		require.NoError(t, err)
		assert.Equal(t, in, back)
	}

	stored, err := ToStorageFormat("14:03:22 - 05-06-2025")
	require.NoError(t, err)
	assert.Equal(t, "2025-06-05 14:03:22", stored)
}

func TestStorageFormatRejectsMalformed(t *testing.T) {
	_, err := ToStorageFormat("2025-06-05 14:03:22")
	assert.Error(t, err)
	_, err = ToStorageFormat("14:03:22 - 05/06/2025")
	assert.Error(t, err)
	_, err = ToIngestionFormat("14:03:22")
	assert.Error(t, err)
}

func TestParseDeviceTimestampAcceptsStorageForm(t *testing.T) {
	ts, err := ParseDeviceTimestamp("2025-06-05 14:03:22")
	require.NoError(t, err)
	assert.Equal(t, "14:03:22 - 05-06-2025", FormatDeviceTimestamp(ts.Time))
}

func TestParseDeviceTimestampKeepsWallClockAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	prev := time.Local
	time.Local = loc
	defer func() { time.Local = prev }()

	raw := "02:30:00 - 09-03-2025"
	stored, err := ToStorageFormat(raw)
	require.NoError(t, err)

	ts, err := ParseDeviceTimestamp(raw)
	require.NoError(t, err)
	assert.Equal(t, stored, ts.String())
	assert.Equal(t, raw, FormatDeviceTimestamp(ts.Time))
}
