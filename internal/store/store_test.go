package store

import (
	"database/sql"
	"testing"
	"time"

	"github.com/dukerupert/chorestars/internal/database"
)

var testNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

// setupTestDB opens an in-memory database with children a and b seeded.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := NewChildStore(db).Seed([]string{"a", "b"}, testNow); err != nil {
		t.Fatalf("seed children: %v", err)
	}
	return db
}
