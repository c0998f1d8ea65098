package exchange

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/tridxis/price-agent/internal/market"
)

const defaultBybitBaseURL = "https://api.bybit.com"

// Bybit talks to the Bybit v5 linear-perpetual REST API.
type Bybit struct {
	baseURL string
	client  *http.Client
}

// NewBybit builds the client; an empty baseURL uses the production API.
func NewBybit(baseURL string) *Bybit {
	if baseURL == "" {
		baseURL = defaultBybitBaseURL
	}
	return &Bybit{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{},
	}
}

// Name identifies the venue in snapshots and metrics labels.
func (b *Bybit) Name() string { return "bybit" }

func bybitSymbol(symbol string) string { return strings.ToUpper(symbol) + "USDT" }

func bybitInterval(interval market.Interval) string {
	switch interval {
	case market.Interval3m:
		return "3"
	case market.Interval15m:
		return "15"
	case market.Interval1h:
		return "60"
	case market.Interval4h:
		return "240"
	case market.Interval1d:
		return "D"
	}
	return "1"
}

// FetchCandles returns up to limit oldest-first candles. Bybit responds
// newest first, so the rows are reversed before returning.
func (b *Bybit) FetchCandles(ctx context.Context, symbol string, interval market.Interval, limit int) ([]market.Candle, error) {
	u := fmt.Sprintf("%s/v5/market/kline?category=linear&symbol=%s&interval=%s&limit=%d",
		b.baseURL, url.QueryEscape(bybitSymbol(symbol)), bybitInterval(interval), limit)
	body, err := getBody(ctx, b.client, u)
	if err != nil {
		return nil, fmt.Errorf("bybit kline: %w", err)
	}

	rows := gjson.GetBytes(body, "result.list")
	if !rows.IsArray() {
		return nil, fmt.Errorf("bybit kline: unexpected payload")
	}
	raw := rows.Array()
	candles := make([]market.Candle, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		cols := raw[i].Array()
		if len(cols) < 6 {
			continue
		}
		candles = append(candles, market.Candle{
			Symbol:   symbol,
			Interval: interval,
			OpenTime: time.UnixMilli(cols[0].Int()),
			Open:     cols[1].Float(),
			High:     cols[2].Float(),
			Low:      cols[3].Float(),
			Close:    cols[4].Float(),
			Volume:   cols[5].Float(),
		})
	}
	return candles, nil
}

// FetchPrice returns the last traded price from the linear ticker.
func (b *Bybit) FetchPrice(ctx context.Context, symbol string) (market.ExchangeQuote, error) {
	body, err := b.ticker(ctx, symbol)
	if err != nil {
		return market.ExchangeQuote{}, err
	}
	px := gjson.GetBytes(body, "result.list.0.lastPrice").Float()
	if px <= 0 {
		return market.ExchangeQuote{}, fmt.Errorf("bybit ticker: missing price")
	}
	quote := market.ExchangeQuote{
		Exchange:  b.Name(),
		Price:     px,
		Timestamp: time.Now().UTC(),
	}
	if vol := gjson.GetBytes(body, "result.list.0.turnover24h").Float(); vol > 0 {
		quote.Volume = &vol
	}
	return quote, nil
}

// FetchFunding returns the current funding rate from the same ticker.
func (b *Bybit) FetchFunding(ctx context.Context, symbol string) (market.ExchangeRate, error) {
	body, err := b.ticker(ctx, symbol)
	if err != nil {
		return market.ExchangeRate{}, err
	}
	rate := gjson.GetBytes(body, "result.list.0.fundingRate")
	if !rate.Exists() || rate.String() == "" {
		return market.ExchangeRate{}, fmt.Errorf("bybit ticker: missing funding rate")
	}
	return market.ExchangeRate{
		Exchange:  b.Name(),
		Rate:      rate.Float(),
		Timestamp: time.Now().UTC(),
	}, nil
}

func (b *Bybit) ticker(ctx context.Context, symbol string) ([]byte, error) {
	u := fmt.Sprintf("%s/v5/market/tickers?category=linear&symbol=%s",
		b.baseURL, url.QueryEscape(bybitSymbol(symbol)))
	body, err := getBody(ctx, b.client, u)
	if err != nil {
		return nil, fmt.Errorf("bybit ticker: %w", err)
	}
	return body, nil
}
