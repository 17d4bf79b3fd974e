// Package dbtest opens throwaway SQLite databases with the schema applied.
package dbtest

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"daily-goals-backend/internal/db"
)

// Open returns a migrated database that is closed when the test ends.
func Open(t testing.TB) *sql.DB {
	t.Helper()

	database, err := db.Connect(db.DriverSQLite, filepath.Join(t.TempDir(), "goals.db"))
	if err != nil {
		t.Fatalf("Connect() failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := db.Migrate(context.Background(), database, db.DriverSQLite); err != nil {
		t.Fatalf("Migrate() failed: %v", err)
	}
	return database
}
