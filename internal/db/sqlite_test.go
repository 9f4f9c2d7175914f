package db

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSQLiteRejectsBadMode(t *testing.T) {
	t.Parallel()

	_, err := OpenSQLite(filepath.Join(t.TempDir(), "x.sqlite"), "readwrite", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid SQLite mode")
}

func TestBuildDSN(t *testing.T) {
	t.Parallel()

	write := buildDSN("/tmp/h.sqlite", "write")
	assert.True(t, strings.HasPrefix(write, "/tmp/h.sqlite?"))
	assert.Contains(t, write, "_journal_mode=WAL")
	assert.Contains(t, write, "_txlock=immediate")

	read := buildDSN("/tmp/h.sqlite", "read")
	assert.Contains(t, read, "_busy_timeout=5000")
	assert.NotContains(t, read, "_txlock")
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	sqlDB, err := OpenSQLite(filepath.Join(t.TempDir(), "h.sqlite"), "write", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, RunMigrations(sqlDB))
	require.NoError(t, RunMigrations(sqlDB), "re-running applied migrations is a no-op")

	var n int
	require.NoError(t, sqlDB.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'query_history'").Scan(&n))
	assert.Equal(t, 1, n)
}
