package indicator

// EMA computes the exponential moving average of the series, seeded with the
// simple average of the first period values. Returns the last price when the
// series is shorter than the period.
func EMA(prices []float64, period int) float64 {
	if len(prices) == 0 {
		return 0
	}
	if period <= 0 || len(prices) < period {
		return prices[len(prices)-1]
	}

	sum := 0.0
	for i := 0; i < period; i++ {
		sum += prices[i]
	}
	ema := sum / float64(period)

	multiplier := 2.0 / float64(period+1)
	for i := period; i < len(prices); i++ {
		ema = ((prices[i] - ema) * multiplier) + ema
	}
	return ema
}
