// Package main provides the informer backtesting CLI.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/informer/internal/backtest"
	"github.com/yourusername/informer/internal/config"
	"github.com/yourusername/informer/internal/database"
	"github.com/yourusername/informer/internal/health"
	"github.com/yourusername/informer/internal/logger"
	"github.com/yourusername/informer/internal/marketdata"
	"github.com/yourusername/informer/internal/metrics"
	"github.com/yourusername/informer/internal/models"
	"github.com/yourusername/informer/internal/repository"
	"github.com/yourusername/informer/internal/scheduler"
	"github.com/yourusername/informer/internal/strategy"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	configFile string
	startDate  string
	endDate    string
	outputDir  string

	cfg    *config.Config
	log    *logrus.Logger
	runLog *logger.RunLogger
	db     *database.DB
	repos  *repository.Repositories
)

var rootCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Deterministic intraday strategy simulation",
	Long: `Runs deterministic event-driven simulations of the baseline intraday
strategy over the canonical symbol universe, sweeps its parameters, and
validates them with walk-forward splits.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if db != nil {
			db.Close()
		}
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a single backtest and write its artifacts",
	RunE:  runBacktest,
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Sweep the configured parameter grid and rank results",
	RunE:  runSweep,
}

var walkForwardCmd = &cobra.Command{
	Use:   "walk-forward",
	Short: "Run walk-forward validation with a holdout segment",
	RunE:  runWalkForward,
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run walk-forward revalidation on the configured cron schedule",
	RunE:  runSchedule,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("informer backtest %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&startDate, "start-date", "", "Override backtest start date (YYYY-MM-DD)")
	rootCmd.PersistentFlags().StringVar(&endDate, "end-date", "", "Override backtest end date (YYYY-MM-DD)")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output", "o", "", "Override artifact output directory")

	rootCmd.AddCommand(runCmd, sweepCmd, walkForwardCmd, scheduleCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.LoadWithDefaults(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if startDate != "" {
		cfg.Backtest.StartDate = startDate
	}
	if endDate != "" {
		cfg.Backtest.EndDate = endDate
	}
	if outputDir != "" {
		cfg.Backtest.OutputPath = outputDir
	}

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.App.LogFile != "" {
		log = logger.NewFileLogger(cfg.App.LogLevel, cfg.App.LogFile)
	} else {
		log = logger.NewLogger(cfg.App.LogLevel)
	}
	runLog = logger.NewRunLogger(log)

	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		go serveMetrics()
	}

	if cfg.DatabaseEnabled() {
		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()
		db, err = database.Initialize(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to run registry: %w", err)
		}
		repos, err = repository.NewRepositories(db)
		if err != nil {
			return err
		}
	}

	return nil
}

func serveMetrics() {
	path := cfg.Metrics.Path
	if path == "" {
		path = "/metrics"
	}
	mux := http.NewServeMux()
	mux.Handle(path, metrics.Handler())
	addr := fmt.Sprintf(":%d", cfg.Metrics.Port)
	log.WithField("addr", addr).Info("Serving Prometheus metrics")
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.WithError(err).Error("Metrics server stopped")
	}
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func engineOptions() []backtest.Option {
	return []backtest.Option{
		backtest.WithCostModel(cfg.ToCostModel()),
		backtest.WithStrategy(strategy.NewBaselineStrategy()),
		backtest.WithLogger(log),
	}
}

// loadBars reads bar history for all configured symbols. Files are read
// in full; the engine's own date gating decides what is simulated, so
// pre-range history stays available for indicator warmup.
func loadBars(ctx context.Context, symbols []string) (map[string][]models.Bar, error) {
	loader := marketdata.NewLoader(cfg.Data.BarsDir, log)
	return loader.LoadAll(ctx, symbols)
}

func saveRun(ctx context.Context, record *models.RunRecord) {
	if repos == nil {
		return
	}
	saveCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if saveErr := repos.Runs.Save(saveCtx, record); saveErr != nil {
		log.WithError(saveErr).Warn("Failed to persist run to registry")
	}
}

func runBacktest(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	engCfg, err := cfg.ToEngineConfig()
	if err != nil {
		return err
	}
	bars, err := loadBars(ctx, engCfg.Symbols)
	if err != nil {
		return err
	}

	runLog.LogRunStarted(len(engCfg.Symbols), cfg.Backtest.StartDate, cfg.Backtest.EndDate)
	started := time.Now()

	engine := backtest.NewEngine(engCfg, engineOptions()...)
	result, err := engine.Run(ctx, bars)
	if err != nil {
		metrics.RecordBacktestRun(models.RunModeBacktest, "error")
		return err
	}
	duration := time.Since(started)

	metrics.RecordBacktestRun(models.RunModeBacktest, "success")
	metrics.RecordBacktestDuration(duration.Seconds())
	metrics.UpdateLastRun(result.Summary.Trades, result.Summary.TotalPnL, result.Summary.MaxDrawdown)
	for _, trade := range result.Trades {
		metrics.RecordTrade(string(trade.ExitReason))
	}
	for _, reason := range result.Reasons {
		metrics.RecordNoTradeDay(string(reason.Reason))
		runLog.LogNoTradeDay(reason.Date, string(reason.Reason))
	}
	runLog.LogRunCompleted(result.RunID, result.Summary.Trades,
		result.Summary.TotalPnL, result.Summary.MaxDrawdown, float64(duration.Milliseconds()))

	reporter := backtest.NewReporter(cfg.Backtest.OutputPath)
	if err := reporter.WriteResult(result, engCfg); err != nil {
		return fmt.Errorf("failed to write artifacts: %w", err)
	}

	if repos != nil {
		record, recErr := repository.NewRunRecord(models.RunModeBacktest, engCfg, result, started.UTC())
		if recErr != nil {
			return recErr
		}
		saveRun(ctx, record)
	}

	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	engCfg, err := cfg.ToEngineConfig()
	if err != nil {
		return err
	}
	spec := cfg.SweepParamSpec()
	if len(spec) == 0 {
		return fmt.Errorf("no sweep parameters configured under sweep.params")
	}
	bars, err := loadBars(ctx, engCfg.Symbols)
	if err != nil {
		return err
	}

	objective := cfg.SweepObjective()
	started := time.Now()

	entries, best, err := backtest.RunParameterSweep(ctx, bars, engCfg, spec, objective,
		engCfg.StartDate, engCfg.EndDate, cfg.Sweep.TopN, engineOptions()...)
	if err != nil {
		metrics.RecordBacktestRun(models.RunModeSweep, "error")
		return err
	}
	duration := time.Since(started)

	metrics.RecordBacktestRun(models.RunModeSweep, "success")
	metrics.RecordSweep(duration.Seconds())
	runLog.LogSweepCompleted(objective, len(entries), best.Params, float64(duration.Milliseconds()))

	reporter := backtest.NewReporter(cfg.Backtest.OutputPath)
	if err := reporter.WriteSweep(entries, best, objective); err != nil {
		return fmt.Errorf("failed to write sweep artifacts: %w", err)
	}

	if repos != nil {
		record, recErr := repository.NewSweepRecord(engCfg, best, objective, started.UTC())
		if recErr != nil {
			return recErr
		}
		saveRun(ctx, record)
	}

	return nil
}

func runWalkForward(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	return walkForwardOnce(ctx)
}

// walkForwardOnce is shared by the walk-forward command and scheduled
// revalidation.
func walkForwardOnce(ctx context.Context) error {
	engCfg, err := cfg.ToEngineConfig()
	if err != nil {
		return err
	}
	spec, err := cfg.ToWalkForwardSpec()
	if err != nil {
		return err
	}
	bars, err := loadBars(ctx, engCfg.Symbols)
	if err != nil {
		return err
	}

	started := time.Now()
	report, err := backtest.RunWalkForward(ctx, bars, engCfg, spec, engineOptions()...)
	if err != nil {
		metrics.RecordBacktestRun(models.RunModeWalkForward, "error")
		return err
	}

	metrics.RecordBacktestRun(models.RunModeWalkForward, "success")
	metrics.RecordWalkForwardFolds(len(report.Folds))
	for _, fold := range report.Folds {
		runLog.LogFoldCompleted(fold.FoldID, fold.TestStart, fold.TestEnd,
			fold.TestSummary.Trades, fold.TestSummary.TotalPnL)
	}
	log.WithFields(logrus.Fields{
		"folds":      len(report.Folds),
		"oos_trades": report.OOSSummary.Trades,
		"oos_pnl":    report.OOSSummary.TotalPnL,
	}).Info("Walk-forward validation completed")

	reporter := backtest.NewReporter(cfg.Backtest.OutputPath)
	if err := reporter.WriteWalkForward(report); err != nil {
		return fmt.Errorf("failed to write walk-forward artifacts: %w", err)
	}

	if repos != nil {
		record, recErr := repository.NewWalkForwardRecord(engCfg, report, started.UTC())
		if recErr != nil {
			return recErr
		}
		saveRun(ctx, record)
	}

	return nil
}

func runSchedule(cmd *cobra.Command, args []string) error {
	if !cfg.Scheduler.Enabled {
		return fmt.Errorf("scheduler is disabled; set scheduler.enabled to true")
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	sched := scheduler.NewScheduler(log)
	if err := sched.ScheduleRevalidation(cfg.Scheduler.Cron, "walk_forward", walkForwardOnce); err != nil {
		return err
	}

	probeCfg := health.Config{
		ServiceName: "informer-schedule",
		Version:     Version,
		Logger:      log,
		Scheduler:   sched,
	}
	if db != nil {
		probeCfg.Registry = db
	}
	probes := health.NewServer(probeCfg)
	if err := probes.Start(ctx); err != nil {
		return err
	}

	if err := sched.Start(); err != nil {
		return err
	}
	probes.SetReady(true)
	log.WithField("next_run", sched.GetNextRun().Format(time.RFC3339)).Info("Awaiting scheduled revalidations")

	<-ctx.Done()
	probes.SetReady(false)
	return sched.Stop()
}
