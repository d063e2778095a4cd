package backtest

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/yourusername/informer/internal/models"
)

// Default configuration values follow conservative risk and slippage
// assumptions.
const (
	DefaultInitialCash  = 100_000.0
	DefaultDecisionTime = "10:15"
	DefaultDecisionTZ   = "America/New_York"
	DefaultKStop        = 1.5
	DefaultKTarget      = 3.0
	DefaultRiskCapPct   = 0.005
	DefaultRiskCapFixed = 1_000.0
	DefaultTimeframe    = "15m"
)

// BacktestConfig holds all tunable parameters for a backtest run.
// Construct it with NewBacktestConfig so the whitelist and decision-time
// invariants are enforced before any simulation starts. Sweep and
// walk-forward runs clone it via WithOverrides.
type BacktestConfig struct {
	Symbols      []string
	StartDate    time.Time
	EndDate      time.Time
	InitialCash  float64
	DecisionTime string // local wall-clock "HH:MM"
	DecisionTZ   string
	KStop        float64
	KTarget      float64
	// ScoreThreshold is the minimum candidate score; candidates below it
	// are rejected by the strategy.
	ScoreThreshold float64
	// RiskCapPct caps risk per trade as a fraction of equity; the
	// smaller of RiskCapPct*equity and RiskCapFixed applies.
	RiskCapPct   float64
	RiskCapFixed float64
	Timeframe    string

	// Safety guardrails. The pre-pause check runs before any trade of
	// the day, where running daily PnL is structurally zero; the hook is
	// preserved for parity even though it cannot fire today.
	SafetyPrePauseEnabled  bool
	SafetyPrePauseLimitUSD float64
	DailyPauseLimitUSD     *float64

	// ExtraParams carries unrecognized override keys and free-form
	// strategy parameters. Values here are persisted in summary
	// artifacts but never validated.
	ExtraParams map[string]any
}

// NewBacktestConfig builds a config with defaults for the given symbols
// and date range, failing fast on any symbol outside the canonical
// whitelist. Symbols are deduplicated and sorted ascending so score
// tie-breaks are deterministic.
func NewBacktestConfig(symbols []string, start, end time.Time) (BacktestConfig, error) {
	cfg := BacktestConfig{
		Symbols:      append([]string(nil), symbols...),
		StartDate:    start,
		EndDate:      end,
		InitialCash:  DefaultInitialCash,
		DecisionTime: DefaultDecisionTime,
		DecisionTZ:   DefaultDecisionTZ,
		KStop:        DefaultKStop,
		KTarget:      DefaultKTarget,
		RiskCapPct:   DefaultRiskCapPct,
		RiskCapFixed: DefaultRiskCapFixed,
		Timeframe:    DefaultTimeframe,
		ExtraParams:  map[string]any{},
	}
	if err := cfg.normalize(); err != nil {
		return BacktestConfig{}, err
	}
	return cfg, nil
}

func (c *BacktestConfig) normalize() error {
	seen := make(map[string]struct{}, len(c.Symbols))
	unique := c.Symbols[:0]
	for _, sym := range c.Symbols {
		if !models.InWhitelist(sym) {
			return fmt.Errorf("symbol %q not in canonical whitelist", sym)
		}
		if _, ok := seen[sym]; ok {
			continue
		}
		seen[sym] = struct{}{}
		unique = append(unique, sym)
	}
	c.Symbols = unique
	sort.Strings(c.Symbols)
	return c.Validate()
}

// Validate checks the config invariants that must hold before a run.
func (c BacktestConfig) Validate() error {
	if len(c.Symbols) == 0 {
		return fmt.Errorf("at least one symbol is required")
	}
	if c.StartDate.After(c.EndDate) {
		return fmt.Errorf("start date must not be after end date")
	}
	if c.InitialCash <= 0 {
		return fmt.Errorf("initial cash must be positive")
	}
	if _, _, err := parseClock(c.DecisionTime); err != nil {
		return err
	}
	if _, err := time.LoadLocation(c.DecisionTZ); err != nil {
		return fmt.Errorf("invalid decision timezone %q: %w", c.DecisionTZ, err)
	}
	if c.RiskCapPct < 0 || c.RiskCapFixed < 0 {
		return fmt.Errorf("risk caps cannot be negative")
	}
	return nil
}

// Location returns the decision timezone. Validate must have succeeded.
func (c BacktestConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.DecisionTZ)
	if err != nil {
		return time.UTC
	}
	return loc
}

// DecisionTimestamp localizes the configured decision time on the given
// trading day and converts it to UTC.
func (c BacktestConfig) DecisionTimestamp(day time.Time) time.Time {
	hour, minute, _ := parseClock(c.DecisionTime)
	local := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, c.Location())
	return local.UTC()
}

// Clone returns a deep copy.
func (c BacktestConfig) Clone() BacktestConfig {
	out := c
	out.Symbols = append([]string(nil), c.Symbols...)
	out.ExtraParams = make(map[string]any, len(c.ExtraParams))
	for k, v := range c.ExtraParams {
		out.ExtraParams[k] = v
	}
	if c.DailyPauseLimitUSD != nil {
		v := *c.DailyPauseLimitUSD
		out.DailyPauseLimitUSD = &v
	}
	return out
}

// WithOverrides clones the config and applies parameter overrides by
// name. Recognized keys map onto typed fields; unrecognized keys are
// kept in ExtraParams so forward-compatible sweeps never fail.
func (c BacktestConfig) WithOverrides(overrides map[string]any) (BacktestConfig, error) {
	out := c.Clone()
	for key, raw := range overrides {
		switch key {
		case "k_stop":
			v, err := asFloat(key, raw)
			if err != nil {
				return BacktestConfig{}, err
			}
			out.KStop = v
		case "k_target":
			v, err := asFloat(key, raw)
			if err != nil {
				return BacktestConfig{}, err
			}
			out.KTarget = v
		case "score_threshold":
			v, err := asFloat(key, raw)
			if err != nil {
				return BacktestConfig{}, err
			}
			out.ScoreThreshold = v
		case "risk_cap_pct":
			v, err := asFloat(key, raw)
			if err != nil {
				return BacktestConfig{}, err
			}
			out.RiskCapPct = v
		case "risk_cap_fixed":
			v, err := asFloat(key, raw)
			if err != nil {
				return BacktestConfig{}, err
			}
			out.RiskCapFixed = v
		case "initial_cash":
			v, err := asFloat(key, raw)
			if err != nil {
				return BacktestConfig{}, err
			}
			out.InitialCash = v
		default:
			out.ExtraParams[key] = raw
		}
	}
	return out, out.Validate()
}

func parseClock(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid decision time %q: %w", s, err)
	}
	return t.Hour(), t.Minute(), nil
}

func asFloat(key string, raw any) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("parameter %q: cannot parse %q as number", key, v)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("parameter %q: unsupported value type %T", key, raw)
	}
}
