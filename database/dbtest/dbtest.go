// Package dbtest provides migrated SQLite databases for repository tests.
package dbtest

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/billbatista/acasinha-finance/database"
	"github.com/google/uuid"
)

// SQLite returns a freshly migrated database that is closed when the test
// ends.
func SQLite(t testing.TB) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	if err := database.Migrate(database.DriverSQLite, path); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}
	db, err := database.Open(context.Background(), database.DriverSQLite, path)
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// User inserts a user row so rows owned by it satisfy foreign keys.
func User(t testing.TB, db *sql.DB) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := db.Exec(
		`INSERT INTO users (id, email, password_hash, created_at) VALUES ($1, $2, $3, $4)`,
		id, id.String()+"@example.com", "x", time.Now().UTC(),
	)
	if err != nil {
		t.Fatalf("inserting test user: %v", err)
	}
	return id
}
