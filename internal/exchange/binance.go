package exchange

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/tridxis/price-agent/internal/market"
)

const defaultBinanceBaseURL = "https://fapi.binance.com"

// Binance talks to the Binance USDT-margined futures REST API.
type Binance struct {
	baseURL string
	client  *http.Client
}

// NewBinance builds the client; an empty baseURL uses the production API.
func NewBinance(baseURL string) *Binance {
	if baseURL == "" {
		baseURL = defaultBinanceBaseURL
	}
	return &Binance{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{},
	}
}

// Name identifies the venue in snapshots and metrics labels.
func (b *Binance) Name() string { return "binance" }

// BinanceSymbol maps a bare coin symbol to the venue's perpetual pair.
func BinanceSymbol(symbol string) string {
	return strings.ToUpper(symbol) + "USDT"
}

// FetchCandles returns up to limit oldest-first candles for the interval.
func (b *Binance) FetchCandles(ctx context.Context, symbol string, interval market.Interval, limit int) ([]market.Candle, error) {
	u := fmt.Sprintf("%s/fapi/v1/klines?symbol=%s&interval=%s&limit=%d",
		b.baseURL, url.QueryEscape(BinanceSymbol(symbol)), interval, limit)
	body, err := getBody(ctx, b.client, u)
	if err != nil {
		return nil, fmt.Errorf("binance klines: %w", err)
	}

	rows := gjson.ParseBytes(body)
	if !rows.IsArray() {
		return nil, fmt.Errorf("binance klines: unexpected payload")
	}
	candles := make([]market.Candle, 0, limit)
	for _, row := range rows.Array() {
		cols := row.Array()
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

// FetchPrice returns the latest traded price with 24h volume attached.
func (b *Binance) FetchPrice(ctx context.Context, symbol string) (market.ExchangeQuote, error) {
	u := fmt.Sprintf("%s/fapi/v1/ticker/24hr?symbol=%s", b.baseURL, url.QueryEscape(BinanceSymbol(symbol)))
	body, err := getBody(ctx, b.client, u)
	if err != nil {
		return market.ExchangeQuote{}, fmt.Errorf("binance ticker: %w", err)
	}

	px, err := strconv.ParseFloat(gjson.GetBytes(body, "lastPrice").String(), 64)
	if err != nil || px <= 0 {
		return market.ExchangeQuote{}, fmt.Errorf("binance ticker: missing price")
	}
	quote := market.ExchangeQuote{
		Exchange:  b.Name(),
		Price:     px,
		Timestamp: time.Now().UTC(),
	}
	if vol := gjson.GetBytes(body, "quoteVolume").Float(); vol > 0 {
		quote.Volume = &vol
	}
	return quote, nil
}

// FetchFunding returns the current funding rate from the premium index.
func (b *Binance) FetchFunding(ctx context.Context, symbol string) (market.ExchangeRate, error) {
	u := fmt.Sprintf("%s/fapi/v1/premiumIndex?symbol=%s", b.baseURL, url.QueryEscape(BinanceSymbol(symbol)))
	body, err := getBody(ctx, b.client, u)
	if err != nil {
		return market.ExchangeRate{}, fmt.Errorf("binance funding: %w", err)
	}
	rate := gjson.GetBytes(body, "lastFundingRate")
	if !rate.Exists() {
		return market.ExchangeRate{}, fmt.Errorf("binance funding: missing rate")
	}
	return market.ExchangeRate{
		Exchange:  b.Name(),
		Rate:      rate.Float(),
		Timestamp: time.Now().UTC(),
	}, nil
}
