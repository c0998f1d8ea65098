package indicator

import (
	"math"
	"testing"

	"github.com/tridxis/price-agent/internal/market"
)

func TestRSISaturatesOnMonotonicSeries(t *testing.T) {
	up := make([]float64, 50)
	down := make([]float64, 50)
	for i := range up {
		up[i] = 100 + float64(i)
		down[i] = 200 - float64(i)
	}

	if got := RSI(up, 14); got < 99.9 {
		t.Fatalf("expected RSI near 100 for rising series, got %.4f", got)
	}
	if got := RSI(down, 14); got > 0.1 {
		t.Fatalf("expected RSI near 0 for falling series, got %.4f", got)
	}
}

func TestRSINeutralOnShortSeries(t *testing.T) {
	if got := RSI([]float64{1, 2, 3}, 14); got != 50 {
		t.Fatalf("expected neutral 50, got %.4f", got)
	}
}

func TestEMAOfConstantSeries(t *testing.T) {
	const px = 42.5
	for _, period := range []int{2, 9, 20} {
		series := make([]float64, 60)
		for i := range series {
			series[i] = px
		}
		if got := EMA(series, period); math.Abs(got-px) > 1e-9 {
			t.Fatalf("EMA(%d) of constant %.1f = %.6f", period, px, got)
		}
	}
}

func TestEMAShortSeriesReturnsLastPrice(t *testing.T) {
	if got := EMA([]float64{1, 2, 7}, 10); got != 7 {
		t.Fatalf("expected last price 7, got %.4f", got)
	}
}

func TestMACDZeroOnShortSeries(t *testing.T) {
	got := MACD(make([]float64, 25))
	if got.Line != 0 || got.Signal != 0 || got.Histogram != 0 {
		t.Fatalf("expected zero MACD, got %+v", got)
	}
}

func TestMACDPositiveInUptrend(t *testing.T) {
	series := make([]float64, 100)
	for i := range series {
		series[i] = 100 * math.Pow(1.01, float64(i))
	}
	got := MACD(series)
	if got.Line <= 0 {
		t.Fatalf("expected positive MACD line in uptrend, got %.6f", got.Line)
	}
}

func TestBollingerSymmetry(t *testing.T) {
	series := []float64{9, 11, 10, 12, 8, 13, 10, 9, 11, 12, 10, 11, 9, 10, 12, 11, 10, 13, 9, 10, 11, 12}
	bb := Bollinger(series, 20, 2)
	if math.Abs((bb.Upper-bb.Middle)-(bb.Middle-bb.Lower)) > 1e-9 {
		t.Fatalf("bands not symmetric: upper=%.6f middle=%.6f lower=%.6f", bb.Upper, bb.Middle, bb.Lower)
	}
}

func TestBollingerDegeneratesOnShortSeries(t *testing.T) {
	bb := Bollinger([]float64{5, 6}, 20, 2)
	if bb.Upper != 6 || bb.Middle != 6 || bb.Lower != 6 || bb.Bandwidth != 0 {
		t.Fatalf("expected degenerate bands at last price, got %+v", bb)
	}
}

func TestDivergenceBullish(t *testing.T) {
	// Price makes a new window low while the RSI floor is behind it.
	prices := []float64{10, 9.5, 9, 8.5, 8, 7.8, 7.5, 7.3, 7.1, 7.0}
	rsi := []float64{40, 35, 30, 25, 22, 24, 26, 28, 30, 32}
	bull, bear := Divergence(prices, rsi, 10)
	if !bull {
		t.Fatalf("expected bullish divergence")
	}
	if bear {
		t.Fatalf("did not expect bearish divergence")
	}
}

func TestVolumeTrend(t *testing.T) {
	base := candleWindow(25, 100, 0, 10)
	spike := append(append([]market.Candle{}, base...), candle(100, 100, 25))
	if got := VolumeTrend(spike, 20); got != "increasing" {
		t.Fatalf("expected increasing, got %s", got)
	}
	drop := append(append([]market.Candle{}, base...), candle(100, 100, 2))
	if got := VolumeTrend(drop, 20); got != "decreasing" {
		t.Fatalf("expected decreasing, got %s", got)
	}
	if got := VolumeTrend(base, 20); got != "neutral" {
		t.Fatalf("expected neutral, got %s", got)
	}
}

func TestSupportResistancePivots(t *testing.T) {
	// Flat series with one high-volume peak and one high-volume trough.
	candles := candleWindow(30, 100, 0, 10)
	candles[12].High = 110
	candles[12].Volume = 50
	candles[20].Low = 90
	candles[20].Volume = 50

	support, resistance := SupportResistance(candles, 5)
	if len(resistance) == 0 || resistance[len(resistance)-1] != 110 {
		t.Fatalf("expected resistance at 110, got %v", resistance)
	}
	if len(support) == 0 || support[0] != 90 {
		t.Fatalf("expected support at 90, got %v", support)
	}
}

func TestSupportResistanceFallback(t *testing.T) {
	// No qualifying pivots: falls back to the trailing-20 range.
	candles := candleWindow(30, 100, 0.5, 10)
	support, resistance := SupportResistance(candles, 5)
	if len(support) != 1 || len(resistance) != 1 {
		t.Fatalf("expected single fallback levels, got %v / %v", support, resistance)
	}
	if support[0] >= resistance[0] {
		t.Fatalf("fallback support %.2f not below resistance %.2f", support[0], resistance[0])
	}
}

func TestIchimokuDeterminism(t *testing.T) {
	candles := candleWindow(60, 100, 0.7, 10)
	first := Ichimoku(candles)
	second := Ichimoku(candles)
	if first != second {
		t.Fatalf("ichimoku not deterministic: %+v vs %+v", first, second)
	}
	if first.LeadingSpanA != (first.ConversionLine+first.BaseLine)/2 {
		t.Fatalf("leading span A is not the conversion/base mean")
	}
}

// candleWindow builds n synthetic candles with linear drift per bar.
func candleWindow(n int, start, drift, volume float64) []market.Candle {
	out := make([]market.Candle, n)
	px := start
	for i := range out {
		out[i] = candle(px, px+drift, volume)
		px += drift
	}
	return out
}

func candle(open, close, volume float64) market.Candle {
	high := math.Max(open, close) + 0.5
	low := math.Min(open, close) - 0.5
	return market.Candle{Open: open, High: high, Low: low, Close: close, Volume: volume}
}
