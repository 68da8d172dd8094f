package models

import (
	"encoding/json"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestampJSON(t *testing.T) {
	s := Sample{
		ID:        7,
		VehicleID: 2,
		Latitude:  10.5,
		Longitude: -74.2,
		Timestamp: MustTimestamp("2025-06-01 09:15:30"),
	}

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":7,"vehicle_id":2,"latitude":10.5,"longitude":-74.2,"timestamp":"2025-06-01 09:15:30","rpm":null}`, string(data))

	var back Sample
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, back.Timestamp.Equal(s.Timestamp.Time))
	assert.Nil(t, back.RPM)
}

func TestTracePointJSONKeepsSampleFields(t *testing.T) {
	tp := TracePoint{
		Sample:         Sample{ID: 1, VehicleID: 1, Timestamp: MustTimestamp("2025-06-01 09:15:30"), RPM: IntPtr(800)},
		DistanceMeters: 12.5,
	}
	data, err := json.Marshal(tp)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "2025-06-01 09:15:30", decoded["timestamp"])
	assert.Equal(t, 12.5, decoded["distance_meters"])
	assert.Equal(t, 800.0, decoded["rpm"])
}

func TestTimestampScan(t *testing.T) {
	var ts Timestamp
	require.NoError(t, ts.Scan("2025-06-01 10:00:00"))
	assert.Equal(t, "2025-06-01 10:00:00", ts.String())

	require.NoError(t, ts.Scan([]byte("2025-06-01 11:00:00")))
	assert.Equal(t, "2025-06-01 11:00:00", ts.String())

	assert.Error(t, ts.Scan(42))
	assert.Error(t, ts.Scan("01-06-2025"))
}

// setLocal swaps time.Local for the duration of the test
func setLocal(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	require.NoError(t, err)
	prev := time.Local
	time.Local = loc
	t.Cleanup(func() { time.Local = prev })
	return loc
}

func TestTimestampIgnoresLocalZoneRules(t *testing.T) {
	loc := setLocal(t, "America/New_York")

	// 02:30 does not exist on the spring-forward day
	ts := MustTimestamp("2025-03-09 02:30:00")
	assert.Equal(t, "2025-03-09 02:30:00", ts.String())
	v, err := ts.Value()
	require.NoError(t, err)
	assert.Equal(t, "2025-03-09 02:30:00", v)

	// the fall-back day repeats 01:00-02:00 but wall clocks are two hours apart
	a := MustTimestamp("2025-11-02 00:30:00")
	b := MustTimestamp("2025-11-02 02:30:00")
	assert.Equal(t, 2*time.Hour, b.Sub(a.Time))

	// a local time keeps its wall clock
	local := time.Date(2025, 6, 1, 10, 0, 0, 0, loc)
	assert.Equal(t, "2025-06-01 10:00:00", NewTimestamp(local).String())

	var scanned Timestamp
	require.NoError(t, scanned.Scan(local))
	assert.Equal(t, "2025-06-01 10:00:00", scanned.String())
}

func TestSortSamples(t *testing.T) {
	samples := []Sample{
		{ID: 3, Timestamp: MustTimestamp("2025-06-01 10:00:05")},
		{ID: 2, Timestamp: MustTimestamp("2025-06-01 10:00:00")},
		{ID: 1, Timestamp: MustTimestamp("2025-06-01 10:00:00")},
	}
	assert.False(t, SamplesSorted(samples))

	SortSamples(samples)
	assert.True(t, SamplesSorted(samples))
	assert.Equal(t, []int64{1, 2, 3}, []int64{samples[0].ID, samples[1].ID, samples[2].ID})
}
