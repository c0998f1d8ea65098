package engine

import (
	"fmt"
	"math"

	"github.com/tridxis/price-agent/internal/config"
	"github.com/tridxis/price-agent/internal/indicator"
	"github.com/tridxis/price-agent/internal/market"
)

// Style names one of the four trading-style evaluators.
type Style string

const (
	Scalping Style = "scalping"
	DayTrade Style = "day"
	Swing    Style = "swing"
	Position Style = "position"
)

// Styles lists the evaluators in evaluation order.
var Styles = []Style{Scalping, DayTrade, Swing, Position}

// Analysis is one evaluator's ephemeral verdict.
type Analysis struct {
	Style      Style
	Side       market.Side
	Confidence float64
	Reasons    []string
	StopLoss   float64
	TakeProfit float64
}

// styleSpec fixes each evaluator's timeframes, RSI extremes, level-proximity
// tolerance, and stop/target distance multipliers. Shorter styles run tighter
// tolerances and distances.
type styleSpec struct {
	primary   market.Interval
	confirm   market.Interval // empty for position trading
	rsiLow    float64
	rsiHigh   float64
	tolerance float64
	slDist    float64
	tpDist    float64
}

var styleSpecs = map[Style]styleSpec{
	Scalping: {primary: market.Interval3m, confirm: market.Interval15m, rsiLow: 25, rsiHigh: 75, tolerance: 0.005, slDist: 0.005, tpDist: 0.01},
	DayTrade: {primary: market.Interval15m, confirm: market.Interval1h, rsiLow: 30, rsiHigh: 70, tolerance: 0.01, slDist: 0.015, tpDist: 0.03},
	Swing:    {primary: market.Interval1h, confirm: market.Interval4h, rsiLow: 35, rsiHigh: 65, tolerance: 0.02, slDist: 0.03, tpDist: 0.06},
	Position: {primary: market.Interval4h, rsiLow: 40, rsiHigh: 60, tolerance: 0.03, slDist: 0.05, tpDist: 0.1},
}

// Evaluate runs one style's weighted checks against the per-timeframe
// conditions. Pure: same inputs, same verdict. Returns nil when neither side
// accumulates any score.
func Evaluate(style Style, conditions map[market.Interval]Condition, price float64, weights config.Weights) *Analysis {
	spec, ok := styleSpecs[style]
	if !ok || price <= 0 {
		return nil
	}
	primary, ok := conditions[spec.primary]
	if !ok {
		return nil
	}
	confirm := primary
	if spec.confirm != "" {
		confirm, ok = conditions[spec.confirm]
		if !ok {
			return nil
		}
	}

	var long, short float64
	var longReasons, shortReasons []string

	// Cross-timeframe trend alignment.
	if primary.Trend == TrendBullish && confirm.Trend == TrendBullish {
		long += weights.TrendAlignment
		longReasons = append(longReasons, fmt.Sprintf("%s/%s trend aligned bullish", spec.primary, spec.confirm))
	} else if primary.Trend == TrendBearish && confirm.Trend == TrendBearish {
		short += weights.TrendAlignment
		shortReasons = append(shortReasons, fmt.Sprintf("%s/%s trend aligned bearish", spec.primary, spec.confirm))
	}

	// RSI extremes scaled to the style's timeframe.
	if primary.RSI < spec.rsiLow {
		long += weights.RSIExtreme
		longReasons = append(longReasons, fmt.Sprintf("RSI %.1f oversold", primary.RSI))
	} else if primary.RSI > spec.rsiHigh {
		short += weights.RSIExtreme
		shortReasons = append(shortReasons, fmt.Sprintf("RSI %.1f overbought", primary.RSI))
	}

	// Proximity to support/resistance within the style's tolerance band.
	if lvl, ok := nearestLevel(primary.Support, price, spec.tolerance); ok {
		long += weights.SupportResistance
		longReasons = append(longReasons, fmt.Sprintf("price near support %.4g", lvl))
	}
	if lvl, ok := nearestLevel(primary.Resistance, price, spec.tolerance); ok {
		short += weights.SupportResistance
		shortReasons = append(shortReasons, fmt.Sprintf("price near resistance %.4g", lvl))
	}

	// MACD histogram sign.
	if primary.MACD.Histogram > 0 {
		long += weights.MACDHistogram
		longReasons = append(longReasons, "MACD histogram positive")
	} else if primary.MACD.Histogram < 0 {
		short += weights.MACDHistogram
		shortReasons = append(shortReasons, "MACD histogram negative")
	}

	// Bollinger band touch.
	closes := market.Closes(primary.Candles)
	bb := indicator.Bollinger(closes, 20, 2)
	if price <= bb.Lower {
		long += weights.BollingerConfirm
		longReasons = append(longReasons, "price at lower Bollinger band")
	} else if price >= bb.Upper {
		short += weights.BollingerConfirm
		shortReasons = append(shortReasons, "price at upper Bollinger band")
	}

	// Ichimoku cloud position.
	cloud := indicator.Ichimoku(primary.Candles)
	above := price > cloud.LeadingSpanA && price > cloud.LeadingSpanB
	below := price < cloud.LeadingSpanA && price < cloud.LeadingSpanB
	if above {
		long += weights.IchimokuConfirm
		longReasons = append(longReasons, "price above Ichimoku cloud")
	} else if below {
		short += weights.IchimokuConfirm
		shortReasons = append(shortReasons, "price below Ichimoku cloud")
	}

	// RSI/price divergence.
	bullDiv, bearDiv := indicator.Divergence(closes, primary.RSISeries, 10)
	if bullDiv {
		long += weights.Divergence
		longReasons = append(longReasons, "bullish RSI divergence")
	}
	if bearDiv {
		short += weights.Divergence
		shortReasons = append(shortReasons, "bearish RSI divergence")
	}

	// Volume confirms whichever side leads.
	if primary.VolumeTrend == "increasing" {
		if long > short {
			long += weights.VolumeConfirm
			longReasons = append(longReasons, "volume expanding")
		} else if short > long {
			short += weights.VolumeConfirm
			shortReasons = append(shortReasons, "volume expanding")
		}
	}

	if long == 0 && short == 0 || long == short {
		return nil
	}

	a := &Analysis{Style: style}
	if long > short {
		a.Side = market.Long
		a.Confidence = math.Min(long, 100)
		a.Reasons = longReasons
		a.StopLoss = price * (1 - spec.slDist)
		a.TakeProfit = price * (1 + spec.tpDist)
	} else {
		a.Side = market.Short
		a.Confidence = math.Min(short, 100)
		a.Reasons = shortReasons
		a.StopLoss = price * (1 + spec.slDist)
		a.TakeProfit = price * (1 - spec.tpDist)
	}
	return a
}

// nearestLevel reports the closest level within tolerance of price.
func nearestLevel(levels []float64, price, tolerance float64) (float64, bool) {
	best, found := 0.0, false
	bestDist := math.Inf(1)
	for _, lvl := range levels {
		if lvl <= 0 {
			continue
		}
		dist := math.Abs(price-lvl) / price
		if dist <= tolerance && dist < bestDist {
			best, bestDist, found = lvl, dist, true
		}
	}
	return best, found
}
