// Package models defines the core domain types shared across the
// backtesting engine, strategies and persistence layers.
package models

import (
	"fmt"
	"sort"
	"time"
)

// Bar represents a single OHLCV bar. Timestamps are timezone-aware UTC
// values marking the bar's start time. Bars are immutable values owned
// by the caller; the engine only reads them.
type Bar struct {
	TS     time.Time `json:"ts"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// NormalizeBars sorts bars ascending by timestamp, drops zero timestamps
// and coerces naive timestamps to UTC. Within one symbol's sequence
// timestamps must be unique; duplicates are collapsed keeping the first
// occurrence. All normalization happens here, once, at the boundary
// where external bars enter the engine.
func NormalizeBars(bars []Bar) []Bar {
	out := make([]Bar, 0, len(bars))
	for _, b := range bars {
		if b.TS.IsZero() {
			continue
		}
		b.TS = b.TS.UTC()
		out = append(out, b)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TS.Before(out[j].TS) })
	deduped := out[:0]
	var prev time.Time
	for _, b := range out {
		if !prev.IsZero() && b.TS.Equal(prev) {
			continue
		}
		deduped = append(deduped, b)
		prev = b.TS
	}
	return deduped
}

// ValidateBars checks the sorted-unique timestamp invariant on a
// normalized sequence.
func ValidateBars(bars []Bar) error {
	for i := 1; i < len(bars); i++ {
		if !bars[i].TS.After(bars[i-1].TS) {
			return fmt.Errorf("bars not strictly increasing at index %d (%s)", i, bars[i].TS)
		}
	}
	return nil
}
