// Package config provides configuration management for the informer
// backtesting service.
package config

import (
	"fmt"

	"github.com/yourusername/informer/internal/backtest"
	"github.com/yourusername/informer/internal/session"
)

// Config represents the complete application configuration.
type Config struct {
	App         AppConfig         `mapstructure:"app" validate:"required"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Data        DataConfig        `mapstructure:"data" validate:"required"`
	Backtest    BacktestConfig    `mapstructure:"backtest" validate:"required"`
	Sweep       SweepConfig       `mapstructure:"sweep"`
	WalkForward WalkForwardConfig `mapstructure:"walk_forward"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
	Scheduler   SchedulerConfig   `mapstructure:"scheduler"`
}

// AppConfig represents application-level configuration.
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
	LogFile     string `mapstructure:"log_file"`
}

// DatabaseConfig represents the optional run-registry database. When
// Host is empty, run persistence is disabled and all results go to the
// artifact directory only.
type DatabaseConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Name           string `mapstructure:"name"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	SSLMode        string `mapstructure:"ssl_mode" validate:"omitempty,oneof=disable require verify-full"`
	MaxConnections int    `mapstructure:"max_connections" validate:"omitempty,gt=0"`
}

// DataConfig points at the bar data on disk.
type DataConfig struct {
	// BarsDir holds one <SYMBOL>.csv file per symbol.
	BarsDir string `mapstructure:"bars_dir" validate:"required"`
}

// BacktestConfig represents the run parameters as expressed in the
// configuration file. Dates are strings here; ToEngineConfig parses and
// validates them.
type BacktestConfig struct {
	Symbols            []string `mapstructure:"symbols" validate:"required,min=1,symbols"`
	StartDate          string   `mapstructure:"start_date" validate:"required,tradingdate"`
	EndDate            string   `mapstructure:"end_date" validate:"required,tradingdate"`
	InitialCash        float64  `mapstructure:"initial_cash" validate:"required,gt=0"`
	DecisionTime       string   `mapstructure:"decision_time"`
	DecisionTZ         string   `mapstructure:"decision_tz"`
	KStop              float64  `mapstructure:"k_stop" validate:"omitempty,gt=0"`
	KTarget            float64  `mapstructure:"k_target" validate:"omitempty,gt=0"`
	ScoreThreshold     float64  `mapstructure:"score_threshold"`
	RiskCapPct         float64  `mapstructure:"risk_cap_pct" validate:"omitempty,gt=0,lte=1"`
	RiskCapFixed       float64  `mapstructure:"risk_cap_fixed" validate:"omitempty,gt=0"`
	SlippageBps        float64  `mapstructure:"slippage_bps" validate:"gte=0"`
	CommissionPerShare float64  `mapstructure:"commission_per_share" validate:"gte=0"`
	OutputPath         string   `mapstructure:"output_path" validate:"required"`
}

// SweepConfig represents parameter sweep settings.
type SweepConfig struct {
	Objective string               `mapstructure:"objective"`
	TopN      int                  `mapstructure:"top_n" validate:"gte=0"`
	Params    map[string][]float64 `mapstructure:"params"`
}

// WalkForwardConfig represents walk-forward validation settings.
type WalkForwardConfig struct {
	TrainDays    int    `mapstructure:"train_days" validate:"omitempty,gt=0"`
	TestDays     int    `mapstructure:"test_days" validate:"omitempty,gt=0"`
	StepDays     int    `mapstructure:"step_days" validate:"gte=0"`
	HoldoutDays  int    `mapstructure:"holdout_days" validate:"gte=0"`
	HoldoutStart string `mapstructure:"holdout_start" validate:"omitempty,tradingdate"`
}

// MetricsConfig represents the Prometheus endpoint settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Path    string `mapstructure:"path"`
}

// SchedulerConfig represents scheduled revalidation settings.
type SchedulerConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Cron is a standard five-field cron expression.
	Cron string `mapstructure:"cron"`
}

// IsDevelopment checks if the application runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction checks if the application runs in production mode.
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// DatabaseEnabled reports whether a run-registry database is configured.
func (c *Config) DatabaseEnabled() bool {
	return c.Database.Host != ""
}

// GetDatabaseDSN returns a PostgreSQL DSN string.
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// ToEngineConfig converts file-level backtest settings into a validated
// engine configuration.
func (c *Config) ToEngineConfig() (backtest.BacktestConfig, error) {
	start, err := session.ParseDate(c.Backtest.StartDate)
	if err != nil {
		return backtest.BacktestConfig{}, fmt.Errorf("invalid start_date: %w", err)
	}
	end, err := session.ParseDate(c.Backtest.EndDate)
	if err != nil {
		return backtest.BacktestConfig{}, fmt.Errorf("invalid end_date: %w", err)
	}
	cfg, err := backtest.NewBacktestConfig(c.Backtest.Symbols, start, end)
	if err != nil {
		return backtest.BacktestConfig{}, err
	}
	cfg.InitialCash = c.Backtest.InitialCash
	if c.Backtest.DecisionTime != "" {
		cfg.DecisionTime = c.Backtest.DecisionTime
	}
	if c.Backtest.DecisionTZ != "" {
		cfg.DecisionTZ = c.Backtest.DecisionTZ
	}
	if c.Backtest.KStop > 0 {
		cfg.KStop = c.Backtest.KStop
	}
	if c.Backtest.KTarget > 0 {
		cfg.KTarget = c.Backtest.KTarget
	}
	cfg.ScoreThreshold = c.Backtest.ScoreThreshold
	if c.Backtest.RiskCapPct > 0 {
		cfg.RiskCapPct = c.Backtest.RiskCapPct
	}
	if c.Backtest.RiskCapFixed > 0 {
		cfg.RiskCapFixed = c.Backtest.RiskCapFixed
	}
	return cfg, cfg.Validate()
}

// ToCostModel builds the cost model from file settings, keeping the
// default slippage when none is set.
func (c *Config) ToCostModel() backtest.CostModel {
	cm := backtest.DefaultCostModel()
	if c.Backtest.SlippageBps > 0 {
		cm.SlippageBps = c.Backtest.SlippageBps
	}
	cm.CommissionPerShare = c.Backtest.CommissionPerShare
	return cm
}

// ToWalkForwardSpec converts walk-forward file settings into an
// executable spec over the configured date range.
func (c *Config) ToWalkForwardSpec() (backtest.WalkForwardSpec, error) {
	start, err := session.ParseDate(c.Backtest.StartDate)
	if err != nil {
		return backtest.WalkForwardSpec{}, err
	}
	end, err := session.ParseDate(c.Backtest.EndDate)
	if err != nil {
		return backtest.WalkForwardSpec{}, err
	}
	spec := backtest.WalkForwardSpec{
		StartDate:   start,
		EndDate:     end,
		TrainDays:   c.WalkForward.TrainDays,
		TestDays:    c.WalkForward.TestDays,
		StepDays:    c.WalkForward.StepDays,
		ParamSpec:   c.SweepParamSpec(),
		Objective:   c.SweepObjective(),
		HoldoutDays: c.WalkForward.HoldoutDays,
	}
	if c.WalkForward.HoldoutStart != "" {
		hs, err := session.ParseDate(c.WalkForward.HoldoutStart)
		if err != nil {
			return backtest.WalkForwardSpec{}, fmt.Errorf("invalid holdout_start: %w", err)
		}
		spec.HoldoutStart = &hs
	}
	return spec, nil
}

// SweepObjective returns the configured objective, defaulting to
// total_pnl.
func (c *Config) SweepObjective() string {
	if c.Sweep.Objective == "" {
		return "total_pnl"
	}
	return c.Sweep.Objective
}

// SweepParamSpec converts the configured numeric parameter grid to the
// generic form the sweep consumes.
func (c *Config) SweepParamSpec() map[string][]any {
	out := make(map[string][]any, len(c.Sweep.Params))
	for k, vals := range c.Sweep.Params {
		anyVals := make([]any, len(vals))
		for i, v := range vals {
			anyVals[i] = v
		}
		out[k] = anyVals
	}
	return out
}
