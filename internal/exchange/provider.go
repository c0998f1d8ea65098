package exchange

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tridxis/price-agent/internal/market"
)

// Provider fans requests out across the configured venues and aggregates
// whichever subset succeeds. GetPrice/GetFunding fail only when every venue
// fails; GetCandles never fails at all, it degrades to fewer or zero candles.
type Provider struct {
	clients []Client
	log     zerolog.Logger
}

// NewProvider wires the venue clients (usually throttled) into one fan-out.
func NewProvider(clients []Client, log zerolog.Logger) *Provider {
	return &Provider{clients: clients, log: log}
}

// GetPrice queries all venues concurrently and averages the successful
// quotes. Returns ErrNoData when zero venues succeed.
func (p *Provider) GetPrice(ctx context.Context, symbol string) (market.PriceSnapshot, error) {
	quotes := make([]market.ExchangeQuote, len(p.clients))
	oks := make([]bool, len(p.clients))

	var wg sync.WaitGroup
	for i, c := range p.clients {
		wg.Add(1)
		go func(i int, c Client) {
			defer wg.Done()
			quote, err := c.FetchPrice(ctx, symbol)
			if err != nil {
				p.log.Warn().Err(err).Str("exchange", c.Name()).Str("symbol", symbol).Msg("price fetch failed")
				return
			}
			quotes[i], oks[i] = quote, true
		}(i, c)
	}
	wg.Wait()

	snapshot := market.PriceSnapshot{Symbol: symbol, Timestamp: time.Now().UTC()}
	var sum float64
	for i, ok := range oks {
		if !ok {
			continue
		}
		snapshot.Quotes = append(snapshot.Quotes, quotes[i])
		sum += quotes[i].Price
	}
	if len(snapshot.Quotes) == 0 {
		return market.PriceSnapshot{}, ErrNoData
	}
	snapshot.AveragePrice = sum / float64(len(snapshot.Quotes))
	return snapshot, nil
}

// GetFunding is the funding-rate counterpart of GetPrice.
func (p *Provider) GetFunding(ctx context.Context, symbol string) (market.FundingSnapshot, error) {
	rates := make([]market.ExchangeRate, len(p.clients))
	oks := make([]bool, len(p.clients))

	var wg sync.WaitGroup
	for i, c := range p.clients {
		wg.Add(1)
		go func(i int, c Client) {
			defer wg.Done()
			rate, err := c.FetchFunding(ctx, symbol)
			if err != nil {
				p.log.Warn().Err(err).Str("exchange", c.Name()).Str("symbol", symbol).Msg("funding fetch failed")
				return
			}
			rates[i], oks[i] = rate, true
		}(i, c)
	}
	wg.Wait()

	snapshot := market.FundingSnapshot{Symbol: symbol, Timestamp: time.Now().UTC()}
	var sum float64
	for i, ok := range oks {
		if !ok {
			continue
		}
		snapshot.Rates = append(snapshot.Rates, rates[i])
		sum += rates[i].Rate
	}
	if len(snapshot.Rates) == 0 {
		return market.FundingSnapshot{}, ErrNoData
	}
	snapshot.AverageRate = sum / float64(len(snapshot.Rates))
	return snapshot, nil
}

// GetCandles is best-effort: venues are tried in configuration order and the
// first non-empty window wins. Every failure is logged, none propagate; the
// caller may receive fewer than limit candles or none at all.
func (p *Provider) GetCandles(ctx context.Context, symbol string, interval market.Interval, limit int) []market.Candle {
	for _, c := range p.clients {
		candles, err := c.FetchCandles(ctx, symbol, interval, limit)
		if err != nil {
			p.log.Warn().Err(err).Str("exchange", c.Name()).Str("symbol", symbol).Str("interval", string(interval)).Msg("candle fetch failed")
			continue
		}
		if len(candles) > 0 {
			return candles
		}
	}
	return nil
}
