package engine

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tridxis/price-agent/internal/cache"
	"github.com/tridxis/price-agent/internal/config"
	"github.com/tridxis/price-agent/internal/market"
	"github.com/tridxis/price-agent/internal/metrics"
)

// timeframes the engine evaluates, shortest first.
var timeframes = []market.Interval{market.Interval3m, market.Interval15m, market.Interval1h, market.Interval4h}

// MarketData is the slice of the acquisition layer the engine consumes.
type MarketData interface {
	GetCandles(ctx context.Context, symbol string, interval market.Interval, limit int) []market.Candle
	GetPrice(ctx context.Context, symbol string) (market.PriceSnapshot, error)
}

// Engine runs the per-symbol multi-timeframe evaluation.
type Engine struct {
	data   MarketData
	quotes *cache.QuoteCache
	cfg    config.Engine
	log    zerolog.Logger
}

// New wires the fusion engine; quotes may not be nil.
func New(data MarketData, quotes *cache.QuoteCache, cfg config.Engine, log zerolog.Logger) *Engine {
	return &Engine{data: data, quotes: quotes, cfg: cfg, log: log}
}

// AnalyzeTradeOpportunity evaluates a symbol and returns a signal only when
// the selected style's confidence clears the configured threshold. It never
// returns an error: a data failure and a low-confidence evaluation are both
// "no signal" to the caller. An empty style evaluates all four and keeps the
// highest-confidence verdict.
func (e *Engine) AnalyzeTradeOpportunity(ctx context.Context, symbol string, style Style) (market.TradingSignal, bool) {
	price, ok := e.midPrice(ctx, symbol)
	if !ok {
		e.log.Warn().Str("symbol", symbol).Msg("no price available, skipping analysis")
		return market.TradingSignal{}, false
	}

	conditions, ok := e.buildConditions(ctx, symbol)
	if !ok {
		return market.TradingSignal{}, false
	}

	best := e.selectAnalysis(conditions, price, style)
	if best == nil || best.Confidence < e.cfg.ConfidenceThreshold {
		return market.TradingSignal{}, false
	}

	signal := market.TradingSignal{
		Symbol:     symbol,
		Side:       best.Side,
		Size:       best.Confidence / 100,
		EntryPrice: price,
		StopLoss:   best.StopLoss,
		TakeProfit: best.TakeProfit,
		Confidence: best.Confidence,
		Reasons:    best.Reasons,
		Style:      string(best.Style),
		Ts:         time.Now().UTC(),
	}
	metrics.SignalsTotal.WithLabelValues(symbol, string(signal.Side)).Inc()
	e.log.Info().
		Str("symbol", symbol).
		Str("side", string(signal.Side)).
		Str("style", signal.Style).
		Float64("confidence", signal.Confidence).
		Float64("entry", signal.EntryPrice).
		Msg("trade opportunity")
	return signal, true
}

// midPrice serves from the quote cache first and falls back to a live
// aggregate, warming the cache on the way out.
func (e *Engine) midPrice(ctx context.Context, symbol string) (float64, bool) {
	if snap, ok := e.quotes.GetPrice(symbol); ok {
		return snap.AveragePrice, true
	}
	snap, err := e.data.GetPrice(ctx, symbol)
	if err != nil {
		return 0, false
	}
	e.quotes.PutPrice(symbol, snap)
	return snap.AveragePrice, true
}

// buildConditions fetches all four candle windows concurrently and derives a
// condition per timeframe. Any window under the minimum aborts the whole
// evaluation.
func (e *Engine) buildConditions(ctx context.Context, symbol string) (map[market.Interval]Condition, bool) {
	windows := make(map[market.Interval][]market.Candle, len(timeframes))
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, tf := range timeframes {
		wg.Add(1)
		go func(tf market.Interval) {
			defer wg.Done()
			candles := e.data.GetCandles(ctx, symbol, tf, e.cfg.CandleLimit)
			mu.Lock()
			windows[tf] = candles
			mu.Unlock()
		}(tf)
	}
	wg.Wait()

	conditions := make(map[market.Interval]Condition, len(timeframes))
	for _, tf := range timeframes {
		candles := windows[tf]
		if len(candles) < e.cfg.MinCandles {
			e.log.Warn().Str("symbol", symbol).Str("interval", string(tf)).Int("candles", len(candles)).Msg("insufficient history, skipping analysis")
			return nil, false
		}
		conditions[tf] = BuildCondition(candles, tf)
	}
	return conditions, true
}

// selectAnalysis runs the requested evaluator, or all four concurrently,
// keeping the highest-confidence non-nil verdict. Evaluation order breaks
// confidence ties deterministically.
func (e *Engine) selectAnalysis(conditions map[market.Interval]Condition, price float64, style Style) *Analysis {
	if style != "" {
		return Evaluate(style, conditions, price, e.cfg.Weights)
	}

	results := make([]*Analysis, len(Styles))
	var wg sync.WaitGroup
	for i, s := range Styles {
		wg.Add(1)
		go func(i int, s Style) {
			defer wg.Done()
			results[i] = Evaluate(s, conditions, price, e.cfg.Weights)
		}(i, s)
	}
	wg.Wait()

	var best *Analysis
	for _, r := range results {
		if r == nil {
			continue
		}
		if best == nil || r.Confidence > best.Confidence {
			best = r
		}
	}
	return best
}
