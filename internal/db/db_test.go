package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectSQLiteCreatesDirectoryAndSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.db")

	conn, err := Connect("sqlite", path, nil)
	require.NoError(t, err)
	defer conn.Close()

	var count int
	require.NoError(t, conn.Get(&count, `SELECT COUNT(*) FROM client_state`))
	assert.Equal(t, 0, count)

	// migrations are idempotent
	require.NoError(t, runMigrations(conn))
}

func TestConnectRejectsUnknownDriver(t *testing.T) {
	_, err := Connect("mongo", "whatever", nil)
	require.Error(t, err)
}
