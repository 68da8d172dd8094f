package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(Config{})
	assert.Error(t, err)
}

func TestMigrateUpDown(t *testing.T) {
	conn, err := Open(Config{Path: filepath.Join(t.TempDir(), "tracker.db")})
	require.NoError(t, err)
	defer conn.Close()

	version, dirty, err := MigrateVersion(conn)
	require.NoError(t, err)
	assert.Zero(t, version)
	assert.False(t, dirty)

	require.NoError(t, MigrateUp(conn))
	require.NoError(t, MigrateUp(conn), "second run is a no-op")

	version, dirty, err = MigrateVersion(conn)
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)

	_, err = conn.Exec(`INSERT INTO samples (latitude, longitude, timestamp) VALUES (1, 2, '2025-06-01 10:00:00')`)
	require.NoError(t, err)

	var vehicle int64
	var rpm interface{}
	require.NoError(t, conn.QueryRow(`SELECT vehicle_id, rpm FROM samples`).Scan(&vehicle, &rpm))
	assert.Equal(t, int64(1), vehicle, "vehicle_id defaults to 1")
	assert.Nil(t, rpm)

	require.NoError(t, MigrateDown(conn))
	_, err = conn.Exec(`SELECT 1 FROM samples`)
	assert.Error(t, err, "table dropped")
}

func TestOpenAutoMigrate(t *testing.T) {
	conn, err := Open(Config{Path: filepath.Join(t.TempDir(), "auto.db"), AutoMigrate: true})
	require.NoError(t, err)
	defer conn.Close()

	var n int
	require.NoError(t, conn.QueryRow(`SELECT COUNT(*) FROM samples`).Scan(&n))
	assert.Zero(t, n)
}
