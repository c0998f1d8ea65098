package indicator

// MACDResult carries the MACD line, its signal line, and their difference.
type MACDResult struct {
	Line      float64
	Signal    float64
	Histogram float64
}

// MACD computes the 12/26 MACD line with a 9-period signal. The signal line
// is the EMA of the MACD value recomputed at every prefix length, which is
// quadratic but fine for the ~100-candle windows the engine feeds in.
// Returns all zeros when the series is shorter than 26.
func MACD(prices []float64) MACDResult {
	const (
		fastPeriod   = 12
		slowPeriod   = 26
		signalPeriod = 9
	)
	if len(prices) < slowPeriod {
		return MACDResult{}
	}

	line := make([]float64, 0, len(prices)-slowPeriod+1)
	for i := slowPeriod; i <= len(prices); i++ {
		prefix := prices[:i]
		line = append(line, EMA(prefix, fastPeriod)-EMA(prefix, slowPeriod))
	}

	latest := line[len(line)-1]
	signal := EMA(line, signalPeriod)
	return MACDResult{
		Line:      latest,
		Signal:    signal,
		Histogram: latest - signal,
	}
}
