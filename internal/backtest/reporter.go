package backtest

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/yourusername/informer/internal/models"
	"github.com/yourusername/informer/internal/session"
)

// Reporter writes run artifacts under a base directory. Column order is
// fixed so artifacts diff cleanly between runs.
type Reporter struct {
	baseDir string
}

// NewReporter creates a reporter rooted at dir.
func NewReporter(dir string) *Reporter {
	return &Reporter{baseDir: dir}
}

var tradeColumns = []string{
	"symbol", "date", "entry_ts", "entry_price", "shares",
	"stop_price", "target_price", "exit_ts", "exit_price", "exit_reason",
	"pnl", "risk", "r_multiple", "score", "vol_regime_15m", "trend_regime_1h",
}

// WriteTrades writes executed trades to trades.csv. The header row is
// written even when no trades exist so the expected columns stay
// documented.
func (r *Reporter) WriteTrades(trades []models.Trade) error {
	return r.writeCSV("trades.csv", tradeColumns, func(w *csv.Writer) error {
		for _, tr := range trades {
			row := []string{
				tr.Symbol,
				tr.Date,
				tr.EntryTS.Format(time.RFC3339),
				formatFloat(tr.EntryPrice),
				strconv.Itoa(tr.Shares),
				formatFloat(tr.StopPrice),
				formatFloat(tr.TargetPrice),
				tr.ExitTS.Format(time.RFC3339),
				formatFloat(tr.ExitPrice),
				string(tr.ExitReason),
				formatFloat(tr.PnL),
				formatFloat(tr.Risk),
				formatFloat(tr.RMultiple),
				formatFloat(tr.Score),
				tr.VolRegime15m,
				tr.TrendRegime1h,
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteEquityCurve writes the daily equity curve to equity_curve.csv.
func (r *Reporter) WriteEquityCurve(curve []EquityPoint) error {
	return r.writeCSV("equity_curve.csv", []string{"date", "equity"}, func(w *csv.Writer) error {
		for _, p := range curve {
			if err := w.Write([]string{p.Date, formatFloat(p.Equity)}); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteReasons writes per-day no-trade reasons to reasons.csv.
func (r *Reporter) WriteReasons(reasons []models.NoTradeReason) error {
	return r.writeCSV("reasons.csv", []string{"date", "reason"}, func(w *csv.Writer) error {
		for _, row := range reasons {
			if err := w.Write([]string{row.Date, string(row.Reason)}); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteSummary writes summary.json containing the universe version, the
// run configuration and the computed metrics.
func (r *Reporter) WriteSummary(summary Summary, cfg BacktestConfig) error {
	out := map[string]any{
		"universe_version": models.UniverseVersion,
		"config": map[string]any{
			"symbols":         cfg.Symbols,
			"start_date":      session.FormatDate(cfg.StartDate),
			"end_date":        session.FormatDate(cfg.EndDate),
			"initial_cash":    cfg.InitialCash,
			"decision_time":   cfg.DecisionTime,
			"decision_tz":     cfg.DecisionTZ,
			"k_stop":          cfg.KStop,
			"k_target":        cfg.KTarget,
			"score_threshold": cfg.ScoreThreshold,
			"risk_cap_pct":    cfg.RiskCapPct,
			"risk_cap_fixed":  cfg.RiskCapFixed,
			"extra_params":    cfg.ExtraParams,
		},
		"metrics": summary,
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(r.baseDir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(r.baseDir, "summary.json"), data, 0o644)
}

// WriteResult writes the full artifact set for a completed run.
func (r *Reporter) WriteResult(res *BacktestResult, cfg BacktestConfig) error {
	if err := r.WriteTrades(res.Trades); err != nil {
		return fmt.Errorf("write trades: %w", err)
	}
	if err := r.WriteEquityCurve(res.EquityCurve); err != nil {
		return fmt.Errorf("write equity curve: %w", err)
	}
	if err := r.WriteReasons(res.Reasons); err != nil {
		return fmt.Errorf("write reasons: %w", err)
	}
	if err := r.WriteSummary(res.Summary, cfg); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}

// WriteWalkForward writes the walk-forward report to walk_forward.json.
func (r *Reporter) WriteWalkForward(report *WalkForwardReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(r.baseDir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(r.baseDir, "walk_forward.json"), data, 0o644)
}

// WriteSweep writes the ranked sweep entries and the winning point to
// sweep.json.
func (r *Reporter) WriteSweep(entries []SweepEntry, best *SweepEntry, objective string) error {
	out := map[string]any{
		"objective": objective,
		"entries":   entries,
		"best":      best,
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(r.baseDir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(r.baseDir, "sweep.json"), data, 0o644)
}

func (r *Reporter) writeCSV(name string, header []string, writeRows func(*csv.Writer) error) error {
	if err := os.MkdirAll(r.baseDir, 0o755); err != nil {
		return err
	}
	f, err := os.Create(filepath.Join(r.baseDir, name))
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := writeRows(w); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
