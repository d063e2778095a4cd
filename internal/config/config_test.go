// Package config provides configuration management for the informer
// backtesting service.
package config

import (
	"os"
	"strings"
	"testing"
)

const validConfigPath = "testdata/valid_config.yaml"

func loadValid(t *testing.T) *Config {
	t.Helper()
	t.Setenv("TEST_DB_PASSWORD", "secret-value")
	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf("expected no error loading config, got %v", err)
	}
	if cfg == nil {
		t.Fatal("expected non-nil config")
	}
	return cfg
}

func TestLoadConfigSuccess(t *testing.T) {
	cfg := loadValid(t)

	if cfg.App.Name != "informer" {
		t.Errorf("expected app name 'informer', got '%s'", cfg.App.Name)
	}
	if cfg.App.Environment != "development" {
		t.Errorf("expected environment 'development', got '%s'", cfg.App.Environment)
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("expected database port 5432, got %d", cfg.Database.Port)
	}
	if len(cfg.Backtest.Symbols) != 2 {
		t.Errorf("expected 2 symbols, got %d", len(cfg.Backtest.Symbols))
	}
	if cfg.Sweep.TopN != 10 {
		t.Errorf("expected sweep top_n 10, got %d", cfg.Sweep.TopN)
	}
}

func TestLoadConfigExpandsEnvPlaceholders(t *testing.T) {
	cfg := loadValid(t)
	if cfg.Database.Password != "secret-value" {
		t.Errorf("expected expanded password, got '%s'", cfg.Database.Password)
	}
}

func TestLoadConfigFileNotFound(t *testing.T) {
	_, err := Load("testdata/nonexistent_config.yaml")
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
	if !strings.Contains(err.Error(), "not found") && !os.IsNotExist(err) {
		t.Errorf("expected not-found error, got %v", err)
	}
}

func TestLoadWithDefaultsMissingFile(t *testing.T) {
	cfg, err := LoadWithDefaults("testdata/nonexistent_config.yaml")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.App.Environment != "development" {
		t.Errorf("expected default environment, got '%s'", cfg.App.Environment)
	}
	if cfg.Backtest.DecisionTime != "10:15" {
		t.Errorf("expected default decision time, got '%s'", cfg.Backtest.DecisionTime)
	}
}

func TestValidateConfigSuccess(t *testing.T) {
	cfg := loadValid(t)
	if err := Validate(cfg); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidateRejectsUnknownSymbol(t *testing.T) {
	cfg := loadValid(t)
	cfg.Backtest.Symbols = []string{"AAPL", "NOTREAL"}
	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error for unknown symbol")
	}
	if !strings.Contains(err.Error(), "canonical universe") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestValidateRejectsInvertedDates(t *testing.T) {
	cfg := loadValid(t)
	cfg.Backtest.StartDate = "2024-07-01"
	cfg.Backtest.EndDate = "2024-06-01"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected validation error for inverted date range")
	}
}

func TestValidateRejectsConflictingHoldout(t *testing.T) {
	cfg := loadValid(t)
	cfg.WalkForward.HoldoutDays = 5
	cfg.WalkForward.HoldoutStart = "2024-06-20"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected validation error for conflicting holdout settings")
	}
}

func TestGetDatabaseDSN(t *testing.T) {
	cfg := loadValid(t)
	dsn := cfg.GetDatabaseDSN()
	if !strings.HasPrefix(dsn, "postgres://") {
		t.Errorf("expected postgres DSN, got '%s'", dsn)
	}
	if !strings.Contains(dsn, "sslmode=disable") {
		t.Errorf("expected sslmode in DSN, got '%s'", dsn)
	}
}

func TestToEngineConfig(t *testing.T) {
	cfg := loadValid(t)
	engineCfg, err := cfg.ToEngineConfig()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(engineCfg.Symbols) != 2 {
		t.Errorf("expected 2 symbols, got %d", len(engineCfg.Symbols))
	}
	if engineCfg.KStop != 1.5 {
		t.Errorf("expected k_stop 1.5, got %v", engineCfg.KStop)
	}
	if engineCfg.DecisionTZ != "America/New_York" {
		t.Errorf("unexpected decision tz '%s'", engineCfg.DecisionTZ)
	}
}

func TestSweepParamSpec(t *testing.T) {
	cfg := loadValid(t)
	spec := cfg.SweepParamSpec()
	if len(spec["k_stop"]) != 3 {
		t.Errorf("expected 3 k_stop values, got %d", len(spec["k_stop"]))
	}
	if len(spec["k_target"]) != 2 {
		t.Errorf("expected 2 k_target values, got %d", len(spec["k_target"]))
	}
}
