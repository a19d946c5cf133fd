package testutil

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

// SQLiteDB opens a private in-memory SQLite database closed at the end of t.
func SQLiteDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// Every connection to ":memory:" gets its own database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}
