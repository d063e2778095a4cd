package backtest

import "github.com/yourusername/informer/internal/models"

// EquityPoint is one day on the equity curve.
type EquityPoint struct {
	Date   string  `json:"date"`
	Equity float64 `json:"equity"`
}

// BuildEquityCurve computes the daily equity curve from executed trades.
// Equity on each day is the starting cash plus the cumulative PnL of all
// trades dated up to and including that day. The curve is aligned to the
// full list of trading day strings, so days without trades carry the
// prior equity forward.
func BuildEquityCurve(trades []models.Trade, startCash float64, dates []string) []EquityPoint {
	daily := make(map[string]float64, len(dates))
	for _, tr := range trades {
		daily[tr.Date] += tr.PnL
	}
	curve := make([]EquityPoint, 0, len(dates))
	running := 0.0
	for _, d := range dates {
		running += daily[d]
		curve = append(curve, EquityPoint{Date: d, Equity: startCash + running})
	}
	return curve
}
