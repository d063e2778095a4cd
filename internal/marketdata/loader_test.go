package marketdata

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func writeBarFile(t *testing.T, dir, symbol, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, symbol+".csv"), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write bar file: %v", err)
	}
}

func TestLoadSymbol(t *testing.T) {
	dir := t.TempDir()
	writeBarFile(t, dir, "AAPL", `ts,open,high,low,close,volume
2024-06-03T13:30:00Z,100.5,101.0,100.1,100.8,125000
2024-06-03T13:45:00Z,100.8,101.2,100.6,101.1,98000
`)

	loader := NewLoader(dir, testLogger())
	bars, err := loader.LoadSymbol("AAPL")
	if err != nil {
		t.Fatalf("failed to load bars: %v", err)
	}

	if len(bars) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(bars))
	}
	want := time.Date(2024, 6, 3, 13, 30, 0, 0, time.UTC)
	if !bars[0].TS.Equal(want) {
		t.Errorf("expected first bar at %s, got %s", want, bars[0].TS)
	}
	if bars[0].Open != 100.5 || bars[0].Close != 100.8 {
		t.Errorf("unexpected first bar prices: %+v", bars[0])
	}
	if bars[1].Volume != 98000 {
		t.Errorf("expected volume 98000, got %v", bars[1].Volume)
	}
}

func TestLoadSymbolNormalizesOrderAndDuplicates(t *testing.T) {
	dir := t.TempDir()
	// Out of order with a duplicate timestamp; normalization sorts and
	// keeps the first occurrence.
	writeBarFile(t, dir, "MSFT", `ts,open,high,low,close,volume
2024-06-03T13:45:00Z,101.0,101.5,100.9,101.2,50000
2024-06-03T13:30:00Z,100.0,100.5,99.9,100.2,60000
2024-06-03T13:45:00Z,999.0,999.0,999.0,999.0,1
`)

	loader := NewLoader(dir, testLogger())
	bars, err := loader.LoadSymbol("MSFT")
	if err != nil {
		t.Fatalf("failed to load bars: %v", err)
	}

	if len(bars) != 2 {
		t.Fatalf("expected 2 bars after dedup, got %d", len(bars))
	}
	if !bars[0].TS.Before(bars[1].TS) {
		t.Error("expected bars sorted ascending")
	}
	if bars[1].Open != 101.0 {
		t.Errorf("expected first occurrence kept on duplicate, got open %v", bars[1].Open)
	}
}

func TestLoadSymbolAcceptsHeaderVariants(t *testing.T) {
	dir := t.TempDir()
	writeBarFile(t, dir, "NVDA", `timestamp,volume,close,low,high,open
2024-06-03 13:30:00,125000,100.8,100.1,101.0,100.5
`)

	loader := NewLoader(dir, testLogger())
	bars, err := loader.LoadSymbol("NVDA")
	if err != nil {
		t.Fatalf("failed to load bars: %v", err)
	}
	if len(bars) != 1 || bars[0].High != 101.0 || bars[0].Open != 100.5 {
		t.Errorf("column mapping by header failed: %+v", bars)
	}
}

func TestLoadSymbolMissingFile(t *testing.T) {
	loader := NewLoader(t.TempDir(), testLogger())
	if _, err := loader.LoadSymbol("AAPL"); err == nil {
		t.Fatal("expected error for missing bar file")
	}
}

func TestLoadSymbolMissingColumn(t *testing.T) {
	dir := t.TempDir()
	writeBarFile(t, dir, "AAPL", `ts,open,high,low,close
2024-06-03T13:30:00Z,100.5,101.0,100.1,100.8
`)

	loader := NewLoader(dir, testLogger())
	if _, err := loader.LoadSymbol("AAPL"); err == nil {
		t.Fatal("expected error for missing volume column")
	}
}

func TestLoadSymbolBadPrice(t *testing.T) {
	dir := t.TempDir()
	writeBarFile(t, dir, "AAPL", `ts,open,high,low,close,volume
2024-06-03T13:30:00Z,not-a-price,101.0,100.1,100.8,125000
`)

	loader := NewLoader(dir, testLogger())
	if _, err := loader.LoadSymbol("AAPL"); err == nil {
		t.Fatal("expected error for malformed price")
	}
}

func TestLoadAll(t *testing.T) {
	dir := t.TempDir()
	for _, symbol := range []string{"AAPL", "MSFT"} {
		writeBarFile(t, dir, symbol, `ts,open,high,low,close,volume
2024-06-03T13:30:00Z,100.5,101.0,100.1,100.8,125000
`)
	}

	loader := NewLoader(dir, testLogger())
	bars, err := loader.LoadAll(context.Background(), []string{"AAPL", "MSFT"})
	if err != nil {
		t.Fatalf("failed to load all symbols: %v", err)
	}
	if len(bars) != 2 || len(bars["AAPL"]) != 1 || len(bars["MSFT"]) != 1 {
		t.Errorf("unexpected load result: %d symbols", len(bars))
	}
}

func TestLoadAllMissingSymbolFails(t *testing.T) {
	dir := t.TempDir()
	writeBarFile(t, dir, "AAPL", `ts,open,high,low,close,volume
2024-06-03T13:30:00Z,100.5,101.0,100.1,100.8,125000
`)

	loader := NewLoader(dir, testLogger())
	if _, err := loader.LoadAll(context.Background(), []string{"AAPL", "MSFT"}); err == nil {
		t.Fatal("expected error when a symbol has no bar file")
	}
}

func TestWarmupStartDate(t *testing.T) {
	// 200 warmup bars at 26 bars/day -> ceil = 8, +2 buffer = 10
	// trading days back from Monday 2024-06-17.
	start := time.Date(2024, 6, 17, 0, 0, 0, 0, time.UTC)
	got := WarmupStartDate(start, "15m")
	want := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("expected warmup start %s, got %s", want.Format("2006-01-02"), got.Format("2006-01-02"))
	}
	if wd := got.Weekday(); wd == time.Saturday || wd == time.Sunday {
		t.Errorf("warmup start landed on a weekend: %s", wd)
	}
}
