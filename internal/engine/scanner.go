package engine

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tridxis/price-agent/internal/config"
	"github.com/tridxis/price-agent/internal/market"
	"github.com/tridxis/price-agent/internal/metrics"
)

// Scanner walks the supported symbols in fixed-size batches, analyzing each
// batch concurrently with a pause between batches to stay inside exchange
// rate limits. One symbol's failure never aborts the scan.
type Scanner struct {
	engine *Engine
	cfg    config.Scan
	log    zerolog.Logger
}

// NewScanner wires a scanner over the fusion engine.
func NewScanner(engine *Engine, cfg config.Scan, log zerolog.Logger) *Scanner {
	return &Scanner{engine: engine, cfg: cfg, log: log}
}

// Scan evaluates every symbol and returns the signals that cleared the
// threshold. Result order follows completion order of the concurrent
// analyses, not a stable priority.
func (s *Scanner) Scan(ctx context.Context, symbols []string) []market.TradingSignal {
	start := time.Now()
	defer func() { metrics.ScanDuration.Observe(time.Since(start).Seconds()) }()

	out := make(chan market.TradingSignal, len(symbols))
	for i := 0; i < len(symbols); i += s.cfg.BatchSize {
		if ctx.Err() != nil {
			break
		}
		end := i + s.cfg.BatchSize
		if end > len(symbols) {
			end = len(symbols)
		}

		var wg sync.WaitGroup
		for _, symbol := range symbols[i:end] {
			wg.Add(1)
			go func(symbol string) {
				defer wg.Done()
				if signal, ok := s.engine.AnalyzeTradeOpportunity(ctx, symbol, ""); ok {
					out <- signal
				}
			}(symbol)
		}
		wg.Wait()

		if end < len(symbols) {
			select {
			case <-ctx.Done():
			case <-time.After(time.Duration(s.cfg.BatchDelaySecs) * time.Second):
			}
		}
	}
	close(out)

	signals := make([]market.TradingSignal, 0, len(symbols))
	for signal := range out {
		signals = append(signals, signal)
	}
	s.log.Info().Int("symbols", len(symbols)).Int("signals", len(signals)).Dur("took", time.Since(start)).Msg("scan complete")
	return signals
}
