package repository

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/informer/internal/backtest"
	"github.com/yourusername/informer/internal/database"
	"github.com/yourusername/informer/internal/models"
	"github.com/yourusername/informer/internal/session"
)

// Repositories holds all repository implementations
type Repositories struct {
	Runs RunRepository
}

// NewRepositories creates and returns all repository implementations
func NewRepositories(db *database.DB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		Runs: NewPostgresRunRepository(db),
	}, nil
}

// NewRunRecord builds a registry row from a completed simulation run.
func NewRunRecord(mode string, cfg backtest.BacktestConfig, result *backtest.BacktestResult, startedAt time.Time) (*models.RunRecord, error) {
	id, err := uuid.Parse(result.RunID)
	if err != nil {
		return nil, fmt.Errorf("invalid run ID %q: %w", result.RunID, err)
	}

	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode run config: %w", err)
	}
	summaryJSON, err := json.Marshal(result.Summary)
	if err != nil {
		return nil, fmt.Errorf("failed to encode run summary: %w", err)
	}

	return &models.RunRecord{
		ID:          id,
		Mode:        mode,
		StartDate:   session.FormatDate(cfg.StartDate),
		EndDate:     session.FormatDate(cfg.EndDate),
		Symbols:     cfg.Symbols,
		Config:      cfgJSON,
		Summary:     summaryJSON,
		Trades:      result.Summary.Trades,
		TotalPnL:    result.Summary.TotalPnL,
		MaxDrawdown: result.Summary.MaxDrawdown,
		StartedAt:   startedAt,
		CompletedAt: time.Now().UTC(),
	}, nil
}

// NewSweepRecord builds a registry row from the winning sweep entry.
// The stored config carries the base configuration and the winning
// parameter overrides side by side.
func NewSweepRecord(cfg backtest.BacktestConfig, best *backtest.SweepEntry, objective string, startedAt time.Time) (*models.RunRecord, error) {
	id, err := uuid.Parse(best.Result().RunID)
	if err != nil {
		return nil, fmt.Errorf("invalid run ID %q: %w", best.Result().RunID, err)
	}

	cfgJSON, err := json.Marshal(map[string]any{
		"base_config": cfg,
		"objective":   objective,
		"best_params": best.Params,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode sweep config: %w", err)
	}
	summaryJSON, err := json.Marshal(best.Summary)
	if err != nil {
		return nil, fmt.Errorf("failed to encode sweep summary: %w", err)
	}

	return &models.RunRecord{
		ID:          id,
		Mode:        models.RunModeSweep,
		StartDate:   session.FormatDate(cfg.StartDate),
		EndDate:     session.FormatDate(cfg.EndDate),
		Symbols:     cfg.Symbols,
		Config:      cfgJSON,
		Summary:     summaryJSON,
		Trades:      best.Summary.Trades,
		TotalPnL:    best.Summary.TotalPnL,
		MaxDrawdown: best.Summary.MaxDrawdown,
		StartedAt:   startedAt,
		CompletedAt: time.Now().UTC(),
	}, nil
}

// NewWalkForwardRecord builds a registry row from a walk-forward report,
// keyed on the out-of-sample summary.
func NewWalkForwardRecord(cfg backtest.BacktestConfig, report *backtest.WalkForwardReport, startedAt time.Time) (*models.RunRecord, error) {
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode run config: %w", err)
	}
	summaryJSON, err := json.Marshal(report.OOSSummary)
	if err != nil {
		return nil, fmt.Errorf("failed to encode OOS summary: %w", err)
	}

	return &models.RunRecord{
		ID:          uuid.New(),
		Mode:        models.RunModeWalkForward,
		StartDate:   session.FormatDate(cfg.StartDate),
		EndDate:     session.FormatDate(cfg.EndDate),
		Symbols:     cfg.Symbols,
		Config:      cfgJSON,
		Summary:     summaryJSON,
		Trades:      report.OOSSummary.Trades,
		TotalPnL:    report.OOSSummary.TotalPnL,
		MaxDrawdown: report.OOSSummary.MaxDrawdown,
		StartedAt:   startedAt,
		CompletedAt: time.Now().UTC(),
	}, nil
}
