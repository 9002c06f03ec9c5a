package testutil

import (
	"path/filepath"
	"testing"

	"github.com/lighthouse-ai/lighthouse/internal/db"
)

// NewTestDB returns a temporary, migrated SQLite database for tests.
//
// The caller does not need to close it; cleanup is registered on t.Cleanup.
func NewTestDB(t *testing.T) *db.DB {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "history.db")
	return NewTestDBAtPath(t, path)
}

// NewTestDBAtPath creates a migrated SQLite database at a specific path.
func NewTestDBAtPath(t *testing.T, path string) *db.DB {
	t.Helper()

	if path == "" {
		t.Fatalf("NewTestDBAtPath: path is required")
	}

	database, err := db.OpenAndMigrate(path)
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}

	t.Cleanup(func() {
		_ = database.Close()
	})

	return database
}

// MakeSession creates a session for tests.
func MakeSession(t *testing.T, database *db.DB) *db.Session {
	t.Helper()

	session := &db.Session{}
	if err := database.CreateSession(session); err != nil {
		t.Fatalf("creating test session: %v", err)
	}
	return session
}
