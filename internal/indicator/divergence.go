package indicator

// Divergence reports price/RSI divergence over the trailing lookback window.
// Bullish: the latest price is the window minimum while the latest RSI sits
// above the window's RSI minimum. Bearish is the mirror condition on maxima.
func Divergence(prices, rsiSeries []float64, lookback int) (bullish, bearish bool) {
	if lookback <= 0 {
		lookback = 10
	}
	if len(prices) < lookback || len(rsiSeries) < lookback {
		return false, false
	}

	pw := prices[len(prices)-lookback:]
	rw := rsiSeries[len(rsiSeries)-lookback:]
	lastPrice := pw[len(pw)-1]
	lastRSI := rw[len(rw)-1]

	minPrice, maxPrice := pw[0], pw[0]
	minRSI, maxRSI := rw[0], rw[0]
	for i := 1; i < lookback; i++ {
		if pw[i] < minPrice {
			minPrice = pw[i]
		}
		if pw[i] > maxPrice {
			maxPrice = pw[i]
		}
		if rw[i] < minRSI {
			minRSI = rw[i]
		}
		if rw[i] > maxRSI {
			maxRSI = rw[i]
		}
	}

	bullish = lastPrice <= minPrice && lastRSI > minRSI
	bearish = lastPrice >= maxPrice && lastRSI < maxRSI
	return bullish, bearish
}
