package indicator

import (
	"sort"

	"github.com/tridxis/price-agent/internal/market"
)

// SupportResistance extracts pivot-based levels from an oldest-first candle
// window. A candle is a resistance pivot when its high is the local maximum
// across a ±window neighborhood and its volume exceeds the preceding candle's
// volume; support is the mirror rule on lows. When no pivot qualifies the
// trailing 20 candles' extremes serve as fallback levels. Both slices come
// back deduplicated and sorted ascending.
func SupportResistance(candles []market.Candle, window int) (support, resistance []float64) {
	if window <= 0 {
		window = 5
	}
	for i := window; i < len(candles)-window; i++ {
		if candles[i].Volume <= candles[i-1].Volume {
			continue
		}
		if isLocalMax(candles, i, window) {
			resistance = append(resistance, candles[i].High)
		}
		if isLocalMin(candles, i, window) {
			support = append(support, candles[i].Low)
		}
	}

	if len(support) == 0 || len(resistance) == 0 {
		lo, hi := trailingRange(candles, 20)
		if len(support) == 0 && len(candles) > 0 {
			support = append(support, lo)
		}
		if len(resistance) == 0 && len(candles) > 0 {
			resistance = append(resistance, hi)
		}
	}
	return dedupSorted(support), dedupSorted(resistance)
}

func isLocalMax(candles []market.Candle, i, window int) bool {
	for j := i - window; j <= i+window; j++ {
		if j == i {
			continue
		}
		if candles[j].High >= candles[i].High {
			return false
		}
	}
	return true
}

func isLocalMin(candles []market.Candle, i, window int) bool {
	for j := i - window; j <= i+window; j++ {
		if j == i {
			continue
		}
		if candles[j].Low <= candles[i].Low {
			return false
		}
	}
	return true
}

func trailingRange(candles []market.Candle, period int) (low, high float64) {
	if len(candles) == 0 {
		return 0, 0
	}
	if len(candles) < period {
		period = len(candles)
	}
	window := candles[len(candles)-period:]
	low, high = window[0].Low, window[0].High
	for _, c := range window[1:] {
		if c.Low < low {
			low = c.Low
		}
		if c.High > high {
			high = c.High
		}
	}
	return low, high
}

func dedupSorted(levels []float64) []float64 {
	if len(levels) == 0 {
		return levels
	}
	sort.Float64s(levels)
	out := levels[:1]
	for _, v := range levels[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}
