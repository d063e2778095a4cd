package database

import (
	"context"
	"os"
	"testing"
	"time"
)

// SetupTestDB connects to the database named by INFORMER_TEST_DSN. Tests
// that need a live registry call this and are skipped when the variable is
// unset, so the suite stays runnable without PostgreSQL.
func SetupTestDB(t *testing.T) *DB {
	t.Helper()

	dsn := os.Getenv("INFORMER_TEST_DSN")
	if dsn == "" {
		t.Skip("INFORMER_TEST_DSN not set; skipping run-registry integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := NewDBFromDSN(ctx, dsn)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	if _, err := db.pool.Exec(ctx, runRegistrySchema); err != nil {
		db.Close()
		t.Fatalf("failed to ensure test schema: %v", err)
	}

	return db
}

// TeardownTestDB closes the database connection cleanly
func TeardownTestDB(t *testing.T, db *DB) {
	t.Helper()
	db.Close()
}
