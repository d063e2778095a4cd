package models

import "time"

// ExitReason describes how a simulated position was closed.
type ExitReason string

const (
	ExitTargetHit ExitReason = "TARGET_HIT"
	ExitStopHit   ExitReason = "STOP_HIT"
	ExitEndOfDay  ExitReason = "END_OF_DAY"
)

// ReasonCode is a symbolic no-trade reason recorded per trading day.
// Policy rejections are data, never errors.
type ReasonCode string

const (
	ReasonSafetyPrePause     ReasonCode = "TTP_SAFETY_PRE_PAUSE"
	ReasonDailyPauseLimitHit ReasonCode = "DAILY_PAUSE_LIMIT_HIT"
	ReasonWarmupInsufficient ReasonCode = "WARMUP_INSUFFICIENT_BARS"
	ReasonNoValidCandidate   ReasonCode = "NO_VALID_CANDIDATE"
	ReasonNonPositiveRisk    ReasonCode = "NON_POSITIVE_RISK"
	ReasonInsufficientSize   ReasonCode = "INSUFFICIENT_SIZE"
)

// NoTradeReason pairs a trading date with the reason no trade happened.
type NoTradeReason struct {
	Date   string     `json:"date"`
	Reason ReasonCode `json:"reason"`
}

// Trade is one executed simulated trade. Created once by the engine and
// immutable thereafter.
type Trade struct {
	Symbol        string     `json:"symbol"`
	Date          string     `json:"date"` // local trading date, YYYY-MM-DD
	EntryTS       time.Time  `json:"entry_ts"`
	EntryPrice    float64    `json:"entry_price"` // raw, before costs
	Shares        int        `json:"shares"`
	StopPrice     float64    `json:"stop_price"`
	TargetPrice   float64    `json:"target_price"`
	ExitTS        time.Time  `json:"exit_ts"`
	ExitPrice     float64    `json:"exit_price"` // raw, before costs
	ExitReason    ExitReason `json:"exit_reason"`
	PnL           float64    `json:"pnl"` // cost-adjusted
	Risk          float64    `json:"risk"`
	RMultiple     float64    `json:"r_multiple"`
	Score         float64    `json:"score"`
	VolRegime15m  string     `json:"vol_regime_15m"`
	TrendRegime1h string     `json:"trend_regime_1h"`
}
