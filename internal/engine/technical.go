package engine

import (
	"context"
	"strings"

	"github.com/tridxis/price-agent/internal/indicator"
	"github.com/tridxis/price-agent/internal/market"
)

// TAResult carries the output of one named indicator; only the fields for
// the requested indicator are populated.
type TAResult struct {
	Indicator   string
	Value       float64
	MACD        *indicator.MACDResult
	Bollinger   *indicator.BollingerResult
	Ichimoku    *indicator.IchimokuResult
	Support     []float64
	Resistance  []float64
	VolumeTrend string
	BullishDiv  bool
	BearishDiv  bool
}

// TechnicalAnalysis computes a single named indicator over the symbol's 1h
// window. Unknown indicators and missing history both come back as absent,
// never as errors.
func (e *Engine) TechnicalAnalysis(ctx context.Context, symbol, name string, period int) (TAResult, bool) {
	candles := e.data.GetCandles(ctx, symbol, market.Interval1h, e.cfg.CandleLimit)
	if len(candles) == 0 {
		return TAResult{}, false
	}
	closes := market.Closes(candles)

	result := TAResult{Indicator: strings.ToLower(name)}
	switch result.Indicator {
	case "rsi":
		if period <= 0 {
			period = indicator.DefaultRSIPeriod
		}
		result.Value = indicator.RSI(closes, period)
	case "ema":
		if period <= 0 {
			period = 20
		}
		result.Value = indicator.EMA(closes, period)
	case "macd":
		macd := indicator.MACD(closes)
		result.MACD = &macd
	case "bollinger":
		if period <= 0 {
			period = 20
		}
		bb := indicator.Bollinger(closes, period, 2)
		result.Bollinger = &bb
	case "ichimoku":
		cloud := indicator.Ichimoku(candles)
		result.Ichimoku = &cloud
	case "levels", "support_resistance":
		result.Support, result.Resistance = indicator.SupportResistance(candles, 5)
	case "volume":
		if period <= 0 {
			period = 20
		}
		result.VolumeTrend = indicator.VolumeTrend(candles, period)
	case "divergence":
		rsiSeries := indicator.RSISeries(closes, indicator.DefaultRSIPeriod)
		result.BullishDiv, result.BearishDiv = indicator.Divergence(closes, rsiSeries, 10)
	default:
		return TAResult{}, false
	}
	return result, true
}
