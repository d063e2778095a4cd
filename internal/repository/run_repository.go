package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/yourusername/informer/internal/database"
	"github.com/yourusername/informer/internal/models"
)

const errScanRunRecord = "failed to scan run record: %w"

// ErrRunNotFound is returned when no run exists for the requested ID.
var ErrRunNotFound = errors.New("run not found")

const runColumns = `id, mode, start_date, end_date, symbols, config, summary,
	trades, total_pnl, max_drawdown, started_at, completed_at`

// PostgresRunRepository implements RunRepository for PostgreSQL
type PostgresRunRepository struct {
	db *database.DB
}

// NewPostgresRunRepository creates a new run-registry repository
func NewPostgresRunRepository(db *database.DB) RunRepository {
	return &PostgresRunRepository{db: db}
}

// Save inserts a completed run into the registry
func (r *PostgresRunRepository) Save(ctx context.Context, run *models.RunRecord) error {
	query := `
		INSERT INTO backtest_runs (
			id, mode, start_date, end_date, symbols, config, summary,
			trades, total_pnl, max_drawdown, started_at, completed_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		run.ID, run.Mode, run.StartDate, run.EndDate, run.Symbols, run.Config, run.Summary,
		run.Trades, run.TotalPnL, run.MaxDrawdown, run.StartedAt, run.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save run record: %w", err)
	}
	return nil
}

// GetByID retrieves a single run by its ID
func (r *PostgresRunRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM backtest_runs WHERE id = $1`

	run := &models.RunRecord{}
	err := r.db.GetPool().QueryRow(ctx, query, id).Scan(
		&run.ID, &run.Mode, &run.StartDate, &run.EndDate, &run.Symbols, &run.Config, &run.Summary,
		&run.Trades, &run.TotalPnL, &run.MaxDrawdown, &run.StartedAt, &run.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf(errScanRunRecord, err)
	}
	return run, nil
}

// GetLatest retrieves the most recently completed runs
func (r *PostgresRunRepository) GetLatest(ctx context.Context, limit int) ([]*models.RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM backtest_runs ORDER BY completed_at DESC LIMIT $1`

	rows, err := r.db.GetPool().Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest runs: %w", err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

// GetByMode retrieves the most recent runs of one mode
func (r *PostgresRunRepository) GetByMode(ctx context.Context, mode string, limit int) ([]*models.RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM backtest_runs WHERE mode = $1 ORDER BY completed_at DESC LIMIT $2`

	rows, err := r.db.GetPool().Query(ctx, query, mode, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs by mode: %w", err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

// GetByDateRange retrieves runs completed within a time range
func (r *PostgresRunRepository) GetByDateRange(ctx context.Context, start, end time.Time) ([]*models.RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM backtest_runs
		WHERE completed_at >= $1 AND completed_at <= $2 ORDER BY completed_at DESC`

	rows, err := r.db.GetPool().Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs by date range: %w", err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

// Delete removes a run from the registry
func (r *PostgresRunRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.GetPool().Exec(ctx, `DELETE FROM backtest_runs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRunNotFound
	}
	return nil
}

func scanRuns(rows pgx.Rows) ([]*models.RunRecord, error) {
	var runs []*models.RunRecord
	for rows.Next() {
		run := &models.RunRecord{}
		if err := rows.Scan(
			&run.ID, &run.Mode, &run.StartDate, &run.EndDate, &run.Symbols, &run.Config, &run.Summary,
			&run.Trades, &run.TotalPnL, &run.MaxDrawdown, &run.StartedAt, &run.CompletedAt,
		); err != nil {
			return nil, fmt.Errorf(errScanRunRecord, err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
