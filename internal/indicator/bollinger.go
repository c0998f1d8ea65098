package indicator

// BollingerResult describes the three bands plus relative width.
type BollingerResult struct {
	Upper     float64
	Middle    float64
	Lower     float64
	Bandwidth float64
}

// Bollinger computes period-SMA bands at k standard deviations. With fewer
// than period prices it degenerates to the last price with zero bandwidth.
func Bollinger(prices []float64, period int, k float64) BollingerResult {
	if period <= 0 {
		period = 20
	}
	if k <= 0 {
		k = 2
	}
	if len(prices) < period {
		last := 0.0
		if len(prices) > 0 {
			last = prices[len(prices)-1]
		}
		return BollingerResult{Upper: last, Middle: last, Lower: last}
	}

	window := prices[len(prices)-period:]
	middle := mean(window)
	dev := stddev(window)
	upper := middle + k*dev
	lower := middle - k*dev
	bandwidth := 0.0
	if middle != 0 {
		bandwidth = (upper - lower) / middle
	}
	return BollingerResult{Upper: upper, Middle: middle, Lower: lower, Bandwidth: bandwidth}
}
