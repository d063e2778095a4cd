package backtest

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yourusername/informer/internal/models"
	"github.com/yourusername/informer/internal/session"
)

// GenerateParamGrid expands a parameter specification into the full
// cartesian product of assignments. Keys are iterated in sorted order so
// the grid ordering is stable across runs. An empty spec yields a single
// empty assignment.
func GenerateParamGrid(spec map[string][]any) []map[string]any {
	if len(spec) == 0 {
		return []map[string]any{{}}
	}
	keys := make([]string, 0, len(spec))
	for k := range spec {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	grid := []map[string]any{{}}
	for _, k := range keys {
		next := make([]map[string]any, 0, len(grid)*len(spec[k]))
		for _, combo := range grid {
			for _, v := range spec[k] {
				extended := make(map[string]any, len(combo)+1)
				for ck, cv := range combo {
					extended[ck] = cv
				}
				extended[k] = v
				next = append(next, extended)
			}
		}
		grid = next
	}
	return grid
}

// SweepEntry is one evaluated point of the parameter grid.
type SweepEntry struct {
	Params  map[string]any `json:"params"`
	Summary Summary        `json:"metrics"`
	// ObjectiveValue is nil when the objective metric is undefined for
	// this run, e.g. an infinite profit factor.
	ObjectiveValue *float64 `json:"objective_value"`

	sortVal    float64
	paramsJSON string
	result     *BacktestResult
}

// Result returns the full backtest result behind this entry.
func (e SweepEntry) Result() *BacktestResult { return e.result }

// RunForParams clones the base config, applies overrides and an optional
// date range, and runs a backtest. Bars are trimmed by end date only:
// earlier bars stay available so indicator warmup is unaffected, while
// nothing after the end date can leak into the run.
func RunForParams(ctx context.Context, bars map[string][]models.Bar, baseCfg BacktestConfig, overrides map[string]any, start, end *time.Time, opts ...Option) (*BacktestResult, error) {
	cfg, err := baseCfg.WithOverrides(overrides)
	if err != nil {
		return nil, err
	}
	if start != nil {
		cfg.StartDate = *start
	}
	if end != nil {
		cfg.EndDate = *end
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	trimmed := trimBarsByEndDate(bars, cfg.EndDate, cfg.Location())
	return NewEngine(cfg, opts...).Run(ctx, trimmed)
}

func trimBarsByEndDate(bars map[string][]models.Bar, end time.Time, loc *time.Location) map[string][]models.Bar {
	endDate := session.FormatDate(end)
	out := make(map[string][]models.Bar, len(bars))
	for sym, series := range bars {
		kept := make([]models.Bar, 0, len(series))
		for _, b := range series {
			if session.FormatDate(b.TS.In(loc)) <= endDate {
				kept = append(kept, b)
			}
		}
		out[sym] = kept
	}
	return out
}

// RunParameterSweep evaluates every grid point over [start, end] and
// returns entries sorted best-first plus the winning entry. The
// objective is minimized for max_drawdown and max_drawdown_pct and
// maximized otherwise. Runs execute in parallel; ordering is decided
// only after all runs finish, so results are deterministic. Undefined
// objective values rank best when maximizing and worst when minimizing.
// Ties break by the lexicographically smaller canonical JSON of the
// params. topN <= 0 returns the full sorted list.
func RunParameterSweep(ctx context.Context, bars map[string][]models.Bar, baseCfg BacktestConfig, spec map[string][]any, objective string, start, end time.Time, topN int, opts ...Option) ([]SweepEntry, *SweepEntry, error) {
	grid := GenerateParamGrid(spec)
	minimize := objective == "max_drawdown" || objective == "max_drawdown_pct"

	entries := make([]SweepEntry, len(grid))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, params := range grid {
		g.Go(func() error {
			result, err := RunForParams(gctx, bars, baseCfg, params, &start, &end, opts...)
			if err != nil {
				return fmt.Errorf("sweep params %v: %w", params, err)
			}
			paramsJSON, err := json.Marshal(params)
			if err != nil {
				return err
			}
			entry := SweepEntry{
				Params:     params,
				Summary:    result.Summary,
				sortVal:    math.Inf(1),
				paramsJSON: string(paramsJSON),
				result:     result,
			}
			if v, ok := result.Summary.Objective(objective); ok {
				entry.ObjectiveValue = &v
				entry.sortVal = v
			}
			entries[i] = entry
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].sortVal != entries[j].sortVal {
			if minimize {
				return entries[i].sortVal < entries[j].sortVal
			}
			return entries[i].sortVal > entries[j].sortVal
		}
		return entries[i].paramsJSON < entries[j].paramsJSON
	})

	best := entries[0]
	if topN > 0 && topN < len(entries) {
		entries = entries[:topN]
	}
	return entries, &best, nil
}
