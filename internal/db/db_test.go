package db

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectAndMigrate_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "goals.db")

	database, err := Connect(DriverSQLite, path)
	require.NoError(t, err)
	defer database.Close()

	ctx := context.Background()
	require.NoError(t, Migrate(ctx, database, DriverSQLite))
	// second run must be a no-op
	require.NoError(t, Migrate(ctx, database, DriverSQLite))

	for _, table := range []string{"users", "goals", "daily_progress", "analytics_events"} {
		var name string
		err := database.QueryRow(
			`SELECT name FROM sqlite_master WHERE type='table' AND name=$1`, table,
		).Scan(&name)
		require.NoError(t, err, "table %s", table)
		assert.Equal(t, table, name)
	}

	var fk int
	require.NoError(t, database.QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)
}

func TestMigrate_UnknownDriver(t *testing.T) {
	database, err := Connect(DriverSQLite, filepath.Join(t.TempDir(), "x.db"))
	require.NoError(t, err)
	defer database.Close()

	assert.Error(t, Migrate(context.Background(), database, "mysql"))
}

func TestConstraintErrors_SQLite(t *testing.T) {
	database, err := Connect(DriverSQLite, filepath.Join(t.TempDir(), "c.db"))
	require.NoError(t, err)
	defer database.Close()
	ctx := context.Background()
	require.NoError(t, Migrate(ctx, database, DriverSQLite))

	_, err = database.Exec(`INSERT INTO users (email, is_guest) VALUES ($1, FALSE)`, "a@example.com")
	require.NoError(t, err)

	_, err = database.Exec(`INSERT INTO users (email, is_guest) VALUES ($1, FALSE)`, "a@example.com")
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
	assert.False(t, IsForeignKeyViolation(err))

	_, err = database.Exec(
		`INSERT INTO goals (user_id, id, text, position, created_at) VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP)`,
		999, "g1", "read", 0,
	)
	require.Error(t, err)
	assert.True(t, IsForeignKeyViolation(fmt.Errorf("insert goal: %w", err)))
	assert.False(t, IsUniqueViolation(err))

	assert.False(t, IsUniqueViolation(errors.New("boom")))
	assert.False(t, IsForeignKeyViolation(nil))
}
