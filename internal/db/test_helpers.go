package db

import (
	"path/filepath"
	"testing"
)

// setupTestDB creates a fully-migrated sqlite database in a per-test
// temporary directory.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	database, err := NewDB(filepath.Join(t.TempDir(), "kiosk_test.db"))
	if err != nil {
		t.Fatalf("failed to create test DB: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}
