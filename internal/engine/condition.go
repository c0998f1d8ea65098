// Package engine fuses multi-timeframe indicator output into directional
// trading signals with confidence scores.
package engine

import (
	"math"

	"github.com/tridxis/price-agent/internal/indicator"
	"github.com/tridxis/price-agent/internal/market"
)

// TrendState labels the EMA20/EMA50 relationship on one timeframe.
type TrendState string

const (
	TrendBullish TrendState = "bullish"
	TrendBearish TrendState = "bearish"
	TrendNeutral TrendState = "neutral"
)

// VolatilityBucket coarsens the return-stddev of a candle window.
type VolatilityBucket string

const (
	VolatilityLow    VolatilityBucket = "low"
	VolatilityMedium VolatilityBucket = "medium"
	VolatilityHigh   VolatilityBucket = "high"
)

// Condition is the per-timeframe derived snapshot every evaluator reads.
// Ephemeral: rebuilt on every evaluation, never retained.
type Condition struct {
	Interval    market.Interval
	Trend       TrendState
	Volatility  VolatilityBucket
	Momentum    float64
	RSI         float64
	RSISeries   []float64
	MACD        indicator.MACDResult
	Support     []float64
	Resistance  []float64
	VolumeTrend string
	Candles     []market.Candle
}

// BuildCondition derives the snapshot from an oldest-first candle window.
func BuildCondition(candles []market.Candle, interval market.Interval) Condition {
	closes := market.Closes(candles)
	support, resistance := indicator.SupportResistance(candles, 5)

	cond := Condition{
		Interval:    interval,
		Trend:       trendState(closes),
		Volatility:  volatilityBucket(closes),
		RSI:         indicator.RSI(closes, indicator.DefaultRSIPeriod),
		RSISeries:   indicator.RSISeries(closes, indicator.DefaultRSIPeriod),
		MACD:        indicator.MACD(closes),
		Support:     support,
		Resistance:  resistance,
		VolumeTrend: indicator.VolumeTrend(candles, 20),
		Candles:     candles,
	}
	if len(closes) > 0 && closes[0] != 0 {
		cond.Momentum = (closes[len(closes)-1] - closes[0]) / closes[0]
	}
	return cond
}

func trendState(closes []float64) TrendState {
	if len(closes) == 0 {
		return TrendNeutral
	}
	fast := indicator.EMA(closes, 20)
	slow := indicator.EMA(closes, 50)
	switch {
	case fast > slow:
		return TrendBullish
	case fast < slow:
		return TrendBearish
	}
	return TrendNeutral
}

func volatilityBucket(closes []float64) VolatilityBucket {
	if len(closes) < 3 {
		return VolatilityLow
	}
	returns := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			continue
		}
		returns = append(returns, (closes[i]-closes[i-1])/closes[i-1])
	}
	sd := returnStddev(returns)
	switch {
	case sd > 0.03:
		return VolatilityHigh
	case sd >= 0.01:
		return VolatilityMedium
	}
	return VolatilityLow
}

func returnStddev(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	var m float64
	for _, r := range returns {
		m += r
	}
	m /= float64(len(returns))
	var acc float64
	for _, r := range returns {
		d := r - m
		acc += d * d
	}
	return math.Sqrt(acc / float64(len(returns)))
}
