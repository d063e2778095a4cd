package strategy

import (
	"time"

	"github.com/yourusername/informer/internal/models"
)

// Strategy produces at most one trade candidate per symbol per trading
// day. Implementations must be causal: only bars at or before
// Context.DecisionTS may influence indicators, regimes and the score.
// A nil candidate with a nil error means no trade for that symbol today.
type Strategy interface {
	Name() string
	GenerateCandidate(sctx Context) (*Candidate, error)
}

// Context provides a strategy with temporal-safe inputs for one symbol
// and one decision instant. Bars is the full sorted sequence for the
// symbol; slicing at DecisionTS is the strategy's responsibility.
type Context struct {
	Symbol         string
	Bars           []models.Bar
	DecisionTS     time.Time
	Timeframe      string
	KStop          float64
	KTarget        float64
	ScoreThreshold float64
}

// Candidate is a potential long trade for a single symbol. Candidates
// are created fresh each trading day and never mutated afterwards.
type Candidate struct {
	Symbol      string
	DecisionTS  time.Time
	EntryTS     time.Time
	EntryPrice  float64
	StopPrice   float64
	TargetPrice float64
	Score       float64
	Context     map[string]any
}
