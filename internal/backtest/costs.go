package backtest

// CostModel applies deterministic slippage and commission. Slippage is
// expressed in basis points per side, or as a fixed USD amount per share
// when SlippagePerShare > 0 (the per-share mode overrides basis points).
// Commission is charged per share on each of the two legs. All methods
// are pure functions of immutable state.
type CostModel struct {
	SlippageBps        float64
	CommissionPerShare float64
	SlippagePerShare   float64
}

// DefaultCostModel returns the conservative default: 2 bps slippage per
// side, no commission.
func DefaultCostModel() CostModel {
	return CostModel{SlippageBps: 2.0}
}

// ApplyEntry adjusts a long entry price adversely. The adjusted price is
// never below the raw price.
func (c CostModel) ApplyEntry(price float64) float64 {
	if c.SlippagePerShare > 0 {
		return price + c.SlippagePerShare
	}
	return price * (1.0 + c.SlippageBps/10000.0)
}

// ApplyExit adjusts a long exit price adversely (symmetric decrease).
func (c CostModel) ApplyExit(price float64) float64 {
	if c.SlippagePerShare > 0 {
		return price - c.SlippagePerShare
	}
	return price * (1.0 - c.SlippageBps/10000.0)
}

// TotalCommission returns the round-trip commission for a share count.
func (c CostModel) TotalCommission(shares int) float64 {
	return float64(shares) * c.CommissionPerShare * 2.0
}
