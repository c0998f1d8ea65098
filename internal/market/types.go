// Package market standardizes the payloads shared between the acquisition,
// storage, and analysis layers.
package market

import "time"

// Interval identifies a candle timeframe in exchange notation.
type Interval string

const (
	Interval3m  Interval = "3m"
	Interval15m Interval = "15m"
	Interval1h  Interval = "1h"
	Interval4h  Interval = "4h"
	Interval1d  Interval = "1d"
)

// Duration returns the wall-clock span of one candle at this interval.
func (i Interval) Duration() time.Duration {
	switch i {
	case Interval3m:
		return 3 * time.Minute
	case Interval15m:
		return 15 * time.Minute
	case Interval1h:
		return time.Hour
	case Interval4h:
		return 4 * time.Hour
	case Interval1d:
		return 24 * time.Hour
	}
	return time.Minute
}

// Candle is one OHLCV bar for a symbol/interval. Within a series candles are
// ordered oldest first with strictly increasing OpenTime.
type Candle struct {
	Symbol   string
	Interval Interval
	OpenTime time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   float64
}

// Closes extracts the close series from an oldest-first candle window.
func Closes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// ExchangeQuote is one exchange's contribution to an aggregated snapshot.
type ExchangeQuote struct {
	Exchange  string
	Price     float64
	Timestamp time.Time
	Volume    *float64
}

// PriceSnapshot aggregates the per-exchange quotes that succeeded in one
// refresh cycle. AveragePrice is the arithmetic mean of the contributing
// quotes; the contributing set may vary cycle to cycle.
type PriceSnapshot struct {
	Symbol       string
	Quotes       []ExchangeQuote
	AveragePrice float64
	Timestamp    time.Time
}

// ExchangeRate is one exchange's funding-rate contribution.
type ExchangeRate struct {
	Exchange  string
	Rate      float64
	Timestamp time.Time
}

// FundingSnapshot is the funding-rate counterpart of PriceSnapshot.
type FundingSnapshot struct {
	Symbol      string
	Rates       []ExchangeRate
	AverageRate float64
	Timestamp   time.Time
}

// Change horizons recorded on a HistoricalPoint, keyed into Changes.
const (
	Change1h   = "1h"
	Change24h  = "24h"
	Change7d   = "7d"
	Change30d  = "30d"
	Change90d  = "90d"
	Change180d = "180d"
	Change365d = "365d"
)

// HistoricalPoint extends a PriceSnapshot with per-horizon percentage changes
// and optional day extremes. Immutable once written for a calendar day.
type HistoricalPoint struct {
	PriceSnapshot
	Changes map[string]float64
	DayHigh *float64
	DayLow  *float64
	Date    string // YYYY-MM-DD, set by the history recorder
}

// Side enumerates signal directions.
type Side string

const (
	Long  Side = "long"
	Short Side = "short"
)

// TradingSignal is the final fused decision. It is returned and logged, never
// persisted.
type TradingSignal struct {
	Symbol     string
	Side       Side
	Size       float64
	EntryPrice float64
	StopLoss   float64
	TakeProfit float64
	Confidence float64
	Reasons    []string
	Style      string
	Ts         time.Time
}
