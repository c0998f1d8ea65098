package indicator

// DefaultRSIPeriod is the conventional Wilder lookback.
const DefaultRSIPeriod = 14

// RSI computes the Relative Strength Index using Wilder's smoothing.
// Returns the neutral 50 when the series is shorter than period+1. When the
// running average loss reaches exactly zero the value saturates at 100.
func RSI(prices []float64, period int) float64 {
	if period <= 0 {
		period = DefaultRSIPeriod
	}
	if len(prices) < period+1 {
		return 50
	}

	avgGain, avgLoss := seedAverages(prices, period)
	for i := period + 1; i < len(prices); i++ {
		change := prices[i] - prices[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = ((avgGain * float64(period-1)) + gain) / float64(period)
		avgLoss = ((avgLoss * float64(period-1)) + loss) / float64(period)
	}
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// RSISeries returns the RSI aligned index-for-index with the input series.
// Positions without enough history carry the neutral 50.
func RSISeries(prices []float64, period int) []float64 {
	if period <= 0 {
		period = DefaultRSIPeriod
	}
	out := make([]float64, len(prices))
	for i := range out {
		out[i] = 50
	}
	if len(prices) < period+1 {
		return out
	}

	avgGain, avgLoss := seedAverages(prices, period)
	out[period] = rsiFrom(avgGain, avgLoss)
	for i := period + 1; i < len(prices); i++ {
		change := prices[i] - prices[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = ((avgGain * float64(period-1)) + gain) / float64(period)
		avgLoss = ((avgLoss * float64(period-1)) + loss) / float64(period)
		out[i] = rsiFrom(avgGain, avgLoss)
	}
	return out
}

func seedAverages(prices []float64, period int) (avgGain, avgLoss float64) {
	for i := 1; i <= period; i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	return avgGain / float64(period), avgLoss / float64(period)
}

func rsiFrom(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}
