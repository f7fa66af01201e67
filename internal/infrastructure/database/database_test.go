package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/nexuscrm/backoffice/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSQLite_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "backoffice.db")

	conn, err := Open(&config.Config{StorageDriver: config.DriverSQLite, SQLitePath: path})
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, DialectSQLite, conn.Dialect())

	var one int
	require.NoError(t, conn.QueryRowContext(context.Background(), "SELECT 1").Scan(&one))
	assert.Equal(t, 1, one)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(&config.Config{StorageDriver: config.DriverMemory})
	assert.Error(t, err)
}
