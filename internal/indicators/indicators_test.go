package indicators

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/informer/internal/models"
)

func flatBars(n int, price float64) []models.Bar {
	base := time.Date(2024, 6, 10, 13, 30, 0, 0, time.UTC)
	bars := make([]models.Bar, n)
	for i := range bars {
		bars[i] = models.Bar{
			TS:     base.Add(time.Duration(i) * 15 * time.Minute),
			Open:   price,
			High:   price,
			Low:    price,
			Close:  price,
			Volume: 1000,
		}
	}
	return bars
}

func TestComputeEmptyInput(t *testing.T) {
	assert.Nil(t, Compute(nil, "15m"))
}

func TestComputeFlatSeries(t *testing.T) {
	points := Compute(flatBars(30, 50.0), "15m")
	require.Len(t, points, 30)

	last := points[len(points)-1]
	assert.InDelta(t, 50.0, last.EMA20, 1e-9)
	assert.InDelta(t, 50.0, last.EMA50, 1e-9)
	assert.InDelta(t, 50.0, last.EMA200, 1e-9)
	assert.InDelta(t, 0.0, last.ATR14, 1e-9)

	// No movement: average gain and loss are both zero.
	require.NotNil(t, last.RSI14)
	assert.Equal(t, 0.0, *last.RSI14)

	// First bar has no delta, so RSI is undefined there.
	assert.Nil(t, points[0].RSI14)

	// Flat prices: VWAP equals the price.
	require.NotNil(t, last.VWAP)
	assert.InDelta(t, 50.0, *last.VWAP, 1e-9)
}

func TestComputeRSIAllGains(t *testing.T) {
	base := time.Date(2024, 6, 10, 13, 30, 0, 0, time.UTC)
	var bars []models.Bar
	for i := 0; i < 20; i++ {
		price := 100.0 + float64(i)
		bars = append(bars, models.Bar{TS: base.Add(time.Duration(i) * 15 * time.Minute),
			Open: price, High: price, Low: price, Close: price, Volume: 1})
	}
	points := Compute(bars, "15m")
	last := points[len(points)-1]
	require.NotNil(t, last.RSI14)
	assert.Equal(t, 100.0, *last.RSI14)
}

func TestComputeCausality(t *testing.T) {
	base := time.Date(2024, 6, 10, 13, 30, 0, 0, time.UTC)
	var bars []models.Bar
	for i := 0; i < 40; i++ {
		price := 100.0 + math.Sin(float64(i)/3.0)*5
		bars = append(bars, models.Bar{TS: base.Add(time.Duration(i) * 15 * time.Minute),
			Open: price, High: price + 1, Low: price - 1, Close: price, Volume: 100})
	}

	full := Compute(bars, "15m")
	truncated := Compute(bars[:25], "15m")
	for i := range truncated {
		assert.Equal(t, full[i].EMA20, truncated[i].EMA20, "ema20 at %d", i)
		assert.Equal(t, full[i].ATR14, truncated[i].ATR14, "atr14 at %d", i)
		if full[i].VWAP != nil {
			require.NotNil(t, truncated[i].VWAP)
			assert.Equal(t, *full[i].VWAP, *truncated[i].VWAP, "vwap at %d", i)
		}
	}
}

func TestVWAPOnlyIntraday(t *testing.T) {
	points := Compute(flatBars(5, 10), "daily")
	for _, p := range points {
		assert.Nil(t, p.VWAP)
	}
}

func TestVWAPResetsPerLocalDay(t *testing.T) {
	base := time.Date(2024, 6, 10, 13, 30, 0, 0, time.UTC) // 09:30 New York
	bars := []models.Bar{
		{TS: base, Open: 10, High: 10, Low: 10, Close: 10, Volume: 100},
		{TS: base.Add(15 * time.Minute), Open: 20, High: 20, Low: 20, Close: 20, Volume: 100},
		// next New York day
		{TS: base.AddDate(0, 0, 1), Open: 30, High: 30, Low: 30, Close: 30, Volume: 100},
	}
	points := Compute(bars, "15m")
	require.NotNil(t, points[1].VWAP)
	assert.InDelta(t, 15.0, *points[1].VWAP, 1e-9)
	require.NotNil(t, points[2].VWAP)
	assert.InDelta(t, 30.0, *points[2].VWAP, 1e-9)
}

func TestComputeRegimesTrend(t *testing.T) {
	base := time.Date(2024, 6, 10, 13, 30, 0, 0, time.UTC)
	var bars []models.Bar
	for i := 0; i < 300; i++ {
		price := 100.0 + float64(i)*0.5
		bars = append(bars, models.Bar{TS: base.Add(time.Duration(i) * 15 * time.Minute),
			Open: price, High: price + 0.5, Low: price - 0.5, Close: price, Volume: 10})
	}
	points := Compute(bars, "15m")
	regimes := ComputeRegimes(bars, points, "15m")
	require.Len(t, regimes, 300)
	assert.Equal(t, TrendUp, regimes[len(regimes)-1].Trend)
	// Enough history for the rolling quantiles to produce a label.
	assert.NotEqual(t, VolUnknown, regimes[len(regimes)-1].Vol)
}

func TestComputeRegimesUnknownVolDuringWarmup(t *testing.T) {
	bars := flatBars(10, 25)
	points := Compute(bars, "15m")
	regimes := ComputeRegimes(bars, points, "15m")
	for _, r := range regimes {
		assert.Equal(t, VolUnknown, r.Vol)
	}
}

func TestQuantileLinearInterpolation(t *testing.T) {
	vals := []float64{1, 2, 3, 4}
	assert.InDelta(t, 1.99, quantile(vals, 0.33), 1e-9)
	assert.InDelta(t, 2.98, quantile(vals, 0.66), 1e-9)
	assert.Equal(t, 1.0, quantile(vals, 0))
	assert.Equal(t, 4.0, quantile(vals, 1))
}
