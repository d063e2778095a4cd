// Package marketdata loads OHLCV bar history from per-symbol CSV files.
package marketdata

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/informer/internal/models"
	"github.com/yourusername/informer/internal/session"
)

// barsPerRegularSession is the 15m bar count of one Regular Trading
// Hours session, used to translate a warmup bar requirement into a
// lookback in trading days.
const barsPerRegularSession = 26

// Loader reads bar files from a directory holding one <SYMBOL>.csv per
// symbol. Expected columns are ts, open, high, low, close, volume with a
// header row; column order is taken from the header.
type Loader struct {
	dir string
	log *logrus.Entry
}

// NewLoader creates a loader rooted at dir.
func NewLoader(dir string, logger *logrus.Logger) *Loader {
	return &Loader{
		dir: dir,
		log: logger.WithField("component", "marketdata"),
	}
}

// LoadSymbol reads, normalizes and validates the bar history for one
// symbol. Prices are parsed through decimals so values like "187.45"
// survive the trip from text without artifacts from intermediate math.
func (l *Loader) LoadSymbol(symbol string) ([]models.Bar, error) {
	path := filepath.Join(l.dir, symbol+".csv")
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open bar file for %s: %w", symbol, err)
	}
	defer f.Close()

	bars, err := parseBars(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bar file %s: %w", path, err)
	}

	bars = models.NormalizeBars(bars)
	if err := models.ValidateBars(bars); err != nil {
		return nil, fmt.Errorf("bar file %s failed validation: %w", path, err)
	}

	l.log.WithFields(logrus.Fields{
		"symbol": symbol,
		"bars":   len(bars),
	}).Debug("Loaded bar history")

	return bars, nil
}

// LoadAll loads bar histories for all given symbols. Every symbol must
// have a bar file; a missing symbol is an error rather than a silently
// empty series.
func (l *Loader) LoadAll(ctx context.Context, symbols []string) (map[string][]models.Bar, error) {
	out := make(map[string][]models.Bar, len(symbols))
	for _, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		bars, err := l.LoadSymbol(symbol)
		if err != nil {
			return nil, err
		}
		out[symbol] = bars
	}
	return out, nil
}

// WarmupStartDate returns the earliest trading day worth loading so the
// warmup gate can be satisfied on the first requested day. The lookback
// is ceil(warmupBars/26) trading days plus two extra for partial
// sessions, walked backwards over weekdays from start.
func WarmupStartDate(start time.Time, timeframe string) time.Time {
	warmupBars := session.RequiredWarmupBars(timeframe)
	daysNeeded := (warmupBars+barsPerRegularSession-1)/barsPerRegularSession + 2

	d := start
	count := 0
	for count < daysNeeded {
		d = d.AddDate(0, 0, -1)
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			count++
		}
	}
	return d
}

func parseBars(r io.Reader) ([]models.Bar, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	cols, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	var bars []models.Bar
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		ts, err := parseTimestamp(record[cols.ts])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		bar := models.Bar{TS: ts}
		for _, field := range []struct {
			idx int
			dst *float64
		}{
			{cols.open, &bar.Open},
			{cols.high, &bar.High},
			{cols.low, &bar.Low},
			{cols.close, &bar.Close},
			{cols.volume, &bar.Volume},
		} {
			d, err := decimal.NewFromString(strings.TrimSpace(record[field.idx]))
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid numeric field %q: %w", line, record[field.idx], err)
			}
			*field.dst = d.InexactFloat64()
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

type columnIndex struct {
	ts, open, high, low, close, volume int
}

func mapColumns(header []string) (columnIndex, error) {
	idx := columnIndex{ts: -1, open: -1, high: -1, low: -1, close: -1, volume: -1}
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "ts", "timestamp", "time":
			idx.ts = i
		case "open":
			idx.open = i
		case "high":
			idx.high = i
		case "low":
			idx.low = i
		case "close":
			idx.close = i
		case "volume":
			idx.volume = i
		}
	}
	for name, i := range map[string]int{
		"ts": idx.ts, "open": idx.open, "high": idx.high,
		"low": idx.low, "close": idx.close, "volume": idx.volume,
	} {
		if i < 0 {
			return columnIndex{}, fmt.Errorf("missing required column %q", name)
		}
	}
	return idx, nil
}

// parseTimestamp accepts RFC 3339 timestamps, with naive values assumed
// to be UTC.
func parseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts.UTC(), nil
	}
	if ts, err := time.Parse("2006-01-02T15:04:05", value); err == nil {
		return ts.UTC(), nil
	}
	if ts, err := time.Parse("2006-01-02 15:04:05", value); err == nil {
		return ts.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", value)
}
