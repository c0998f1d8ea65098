package exchange

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tridxis/price-agent/internal/config"
	"github.com/tridxis/price-agent/internal/market"
	"github.com/tridxis/price-agent/internal/metrics"
)

// Throttle serializes all outbound requests to one venue through a FIFO
// queue, enforcing a minimum inter-request spacing. A failed request is
// retried exactly once after a fixed delay; a second failure surfaces as the
// error the caller degrades from. Each attempt carries its own timeout.
type Throttle struct {
	inner      Client
	log        zerolog.Logger
	spacing    time.Duration
	retryDelay time.Duration
	timeout    time.Duration
	requests   chan func()
}

// NewThrottle wraps a client with the configured request gate. Start must be
// called before any fetch goes through.
func NewThrottle(inner Client, cfg config.Throttle, log zerolog.Logger) *Throttle {
	return &Throttle{
		inner:      inner,
		log:        log.With().Str("exchange", inner.Name()).Logger(),
		spacing:    time.Duration(cfg.MinSpacingMs) * time.Millisecond,
		retryDelay: time.Duration(cfg.RetryDelayMs) * time.Millisecond,
		timeout:    time.Duration(cfg.RequestTimeoutMs) * time.Millisecond,
		requests:   make(chan func(), 256),
	}
}

// Start launches the drain loop; it exits when ctx is canceled.
func (t *Throttle) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case fn := <-t.requests:
				fn()
				select {
				case <-ctx.Done():
					return
				case <-time.After(t.spacing):
				}
			}
		}
	}()
}

// Name proxies the wrapped venue's identifier.
func (t *Throttle) Name() string { return t.inner.Name() }

// FetchCandles queues the candle request behind the gate.
func (t *Throttle) FetchCandles(ctx context.Context, symbol string, interval market.Interval, limit int) ([]market.Candle, error) {
	var out []market.Candle
	err := t.run(ctx, func(ctx context.Context) error {
		candles, err := t.inner.FetchCandles(ctx, symbol, interval, limit)
		if err != nil {
			return err
		}
		out = candles
		return nil
	})
	return out, err
}

// FetchPrice queues the price request behind the gate.
func (t *Throttle) FetchPrice(ctx context.Context, symbol string) (market.ExchangeQuote, error) {
	var out market.ExchangeQuote
	err := t.run(ctx, func(ctx context.Context) error {
		quote, err := t.inner.FetchPrice(ctx, symbol)
		if err != nil {
			return err
		}
		out = quote
		return nil
	})
	return out, err
}

// FetchFunding queues the funding request behind the gate.
func (t *Throttle) FetchFunding(ctx context.Context, symbol string) (market.ExchangeRate, error) {
	var out market.ExchangeRate
	err := t.run(ctx, func(ctx context.Context) error {
		rate, err := t.inner.FetchFunding(ctx, symbol)
		if err != nil {
			return err
		}
		out = rate
		return nil
	})
	return out, err
}

func (t *Throttle) run(ctx context.Context, call func(context.Context) error) error {
	done := make(chan error, 1)
	job := func() { done <- t.attempt(ctx, call) }

	select {
	case t.requests <- job:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// attempt runs the call with a bounded retry loop: at most two tries with a
// fixed delay in between, each under its own timeout.
func (t *Throttle) attempt(ctx context.Context, call func(context.Context) error) error {
	var lastErr error
	for try := 0; try < 2; try++ {
		if try > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(t.retryDelay):
			}
		}
		metrics.FetchRequestsTotal.WithLabelValues(t.inner.Name()).Inc()
		attemptCtx, cancel := context.WithTimeout(ctx, t.timeout)
		lastErr = call(attemptCtx)
		cancel()
		if lastErr == nil {
			return nil
		}
	}
	metrics.FetchFailuresTotal.WithLabelValues(t.inner.Name()).Inc()
	t.log.Warn().Err(lastErr).Msg("request failed after retry")
	return lastErr
}
