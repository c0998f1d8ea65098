package indicator

import "github.com/tridxis/price-agent/internal/market"

// VolumeTrend labels the latest volume against its trailing simple average:
// "increasing" above 1.5×, "decreasing" below 0.5×, otherwise "neutral".
func VolumeTrend(candles []market.Candle, period int) string {
	if period <= 0 {
		period = 20
	}
	if len(candles) < 2 {
		return "neutral"
	}
	window := candles
	if len(window) > period {
		window = window[len(window)-period:]
	}

	var sum float64
	for _, c := range window {
		sum += c.Volume
	}
	avg := sum / float64(len(window))
	if avg == 0 {
		return "neutral"
	}

	latest := candles[len(candles)-1].Volume
	switch {
	case latest > 1.5*avg:
		return "increasing"
	case latest < 0.5*avg:
		return "decreasing"
	default:
		return "neutral"
	}
}
