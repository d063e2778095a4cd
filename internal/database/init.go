package database

import (
	"context"
	"fmt"

	"github.com/yourusername/informer/internal/config"
)

// runRegistrySchema holds the run-registry table. A single flat table is
// enough here: trades and equity curves live in the JSON result payload and
// in the artifact directory, the table exists so runs can be listed and
// compared across machines.
const runRegistrySchema = `
CREATE TABLE IF NOT EXISTS backtest_runs (
	id            UUID PRIMARY KEY,
	mode          TEXT NOT NULL,
	start_date    TEXT NOT NULL,
	end_date      TEXT NOT NULL,
	symbols       TEXT[] NOT NULL,
	config        JSONB NOT NULL,
	summary       JSONB NOT NULL,
	trades        INTEGER NOT NULL,
	total_pnl     DOUBLE PRECISION NOT NULL,
	max_drawdown  DOUBLE PRECISION NOT NULL,
	started_at    TIMESTAMPTZ NOT NULL,
	completed_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_backtest_runs_completed_at ON backtest_runs (completed_at DESC);
CREATE INDEX IF NOT EXISTS idx_backtest_runs_mode ON backtest_runs (mode);
`

// Initialize creates a database connection pool and ensures the run-registry
// schema exists.
func Initialize(ctx context.Context, cfg *config.Config) (*DB, error) {
	db, err := NewDB(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	if _, err := db.pool.Exec(ctx, runRegistrySchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure run registry schema: %w", err)
	}

	return db, nil
}
