package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Run modes stored in the registry.
const (
	RunModeBacktest    = "backtest"
	RunModeSweep       = "sweep"
	RunModeWalkForward = "walk_forward"
)

// RunRecord is one persisted simulation run. The config and summary payloads
// are stored as raw JSON so the registry schema does not have to chase every
// parameter or metric added to the engine.
type RunRecord struct {
	ID          uuid.UUID       `json:"id"`
	Mode        string          `json:"mode"`
	StartDate   string          `json:"start_date"`
	EndDate     string          `json:"end_date"`
	Symbols     []string        `json:"symbols"`
	Config      json.RawMessage `json:"config"`
	Summary     json.RawMessage `json:"summary"`
	Trades      int             `json:"trades"`
	TotalPnL    float64         `json:"total_pnl"`
	MaxDrawdown float64         `json:"max_drawdown"`
	StartedAt   time.Time       `json:"started_at"`
	CompletedAt time.Time       `json:"completed_at"`
}
