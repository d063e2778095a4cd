// Package session provides trading-day enumeration, regular-trading-hours
// filtering, bar slicing and timeframe aggregation. All functions are
// pure and deterministic; they never modify their inputs.
package session

import (
	"fmt"
	"time"

	"github.com/yourusername/informer/internal/models"
)

const dateLayout = "2006-01-02"

// rth bounds, local clock time
var (
	rthOpenHour    = 9
	rthOpenMinute  = 30
	rthCloseHour   = 16
	rthCloseMinute = 0
)

// TradingDays returns every weekday between start and end inclusive as
// UTC-midnight dates. Market holidays are not excluded; callers supply
// ranges that avoid holiday periods.
func TradingDays(start, end time.Time) []time.Time {
	var days []time.Time
	d := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	last := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	for !d.After(last) {
		wd := d.Weekday()
		if wd != time.Saturday && wd != time.Sunday {
			days = append(days, d)
		}
		d = d.AddDate(0, 0, 1)
	}
	return days
}

// FormatDate renders a date as YYYY-MM-DD.
func FormatDate(d time.Time) string {
	return d.Format(dateLayout)
}

// ParseDate parses a YYYY-MM-DD date into a UTC-midnight time.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return d, nil
}

// FilterRegularHours keeps bars whose local start time falls within the
// regular trading session [09:30, 16:00) in the given timezone. Order is
// preserved.
func FilterRegularHours(bars []models.Bar, loc *time.Location) []models.Bar {
	out := make([]models.Bar, 0, len(bars))
	for _, b := range bars {
		local := b.TS.In(loc)
		minutes := local.Hour()*60 + local.Minute()
		if minutes >= rthOpenHour*60+rthOpenMinute && minutes < rthCloseHour*60+rthCloseMinute {
			out = append(out, b)
		}
	}
	return out
}

// BarsUpTo returns bars with timestamps at or before the cutoff. Input
// must be sorted ascending.
func BarsUpTo(bars []models.Bar, cutoff time.Time) []models.Bar {
	out := make([]models.Bar, 0, len(bars))
	for _, b := range bars {
		if b.TS.After(cutoff) {
			break
		}
		out = append(out, b)
	}
	return out
}

// BarsAfter returns bars strictly after the start timestamp. Input must
// be sorted ascending.
func BarsAfter(bars []models.Bar, start time.Time) []models.Bar {
	var out []models.Bar
	for _, b := range bars {
		if b.TS.After(start) {
			out = append(out, b)
		}
	}
	return out
}

// GroupByLocalDay buckets bars by their local calendar date in the given
// timezone, keyed by YYYY-MM-DD. Within each bucket input order is kept.
func GroupByLocalDay(bars []models.Bar, loc *time.Location) map[string][]models.Bar {
	grouped := make(map[string][]models.Bar)
	for _, b := range bars {
		key := b.TS.In(loc).Format(dateLayout)
		grouped[key] = append(grouped[key], b)
	}
	return grouped
}

// Aggregate resamples ascending bars into fixed-width buckets of
// freqMinutes anchored at the first bar's timestamp: open of the first
// constituent, max high, min low, close of the last, summed volume.
// Buckets with no constituent bars are dropped.
func Aggregate(bars []models.Bar, freqMinutes int) []models.Bar {
	if len(bars) == 0 || freqMinutes <= 0 {
		return nil
	}
	width := time.Duration(freqMinutes) * time.Minute
	origin := bars[0].TS

	var out []models.Bar
	bucketIdx := int64(-1)
	for _, b := range bars {
		idx := int64(b.TS.Sub(origin) / width)
		if idx != bucketIdx {
			out = append(out, models.Bar{
				TS:     origin.Add(time.Duration(idx) * width),
				Open:   b.Open,
				High:   b.High,
				Low:    b.Low,
				Close:  b.Close,
				Volume: b.Volume,
			})
			bucketIdx = idx
			continue
		}
		agg := &out[len(out)-1]
		if b.High > agg.High {
			agg.High = b.High
		}
		if b.Low < agg.Low {
			agg.Low = b.Low
		}
		agg.Close = b.Close
		agg.Volume += b.Volume
	}
	return out
}

// RequiredWarmupBars returns the minimum bar history that must exist
// before a trading decision may be evaluated, preventing cold-start
// look-ahead bias. The value is driven by the longest indicator lookback
// (EMA200); unknown timeframes fall back to the same constant.
func RequiredWarmupBars(timeframe string) int {
	switch timeframe {
	case "15m", "1h", "daily":
		return 200
	default:
		return 200
	}
}
