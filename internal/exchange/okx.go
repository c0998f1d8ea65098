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

const defaultOKXBaseURL = "https://www.okx.com"

// OKX talks to the OKX v5 perpetual-swap REST API.
type OKX struct {
	baseURL string
	client  *http.Client
}

// NewOKX builds the client; an empty baseURL uses the production API.
func NewOKX(baseURL string) *OKX {
	if baseURL == "" {
		baseURL = defaultOKXBaseURL
	}
	return &OKX{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{},
	}
}

// Name identifies the venue in snapshots and metrics labels.
func (o *OKX) Name() string { return "okx" }

func okxInstrument(symbol string) string { return strings.ToUpper(symbol) + "-USDT-SWAP" }

func okxBar(interval market.Interval) string {
	switch interval {
	case market.Interval1h:
		return "1H"
	case market.Interval4h:
		return "4H"
	case market.Interval1d:
		return "1D"
	}
	return string(interval)
}

// FetchCandles returns up to limit oldest-first candles. OKX responds newest
// first, so the rows are reversed before returning.
func (o *OKX) FetchCandles(ctx context.Context, symbol string, interval market.Interval, limit int) ([]market.Candle, error) {
	u := fmt.Sprintf("%s/api/v5/market/candles?instId=%s&bar=%s&limit=%d",
		o.baseURL, url.QueryEscape(okxInstrument(symbol)), okxBar(interval), limit)
	body, err := getBody(ctx, o.client, u)
	if err != nil {
		return nil, fmt.Errorf("okx candles: %w", err)
	}

	rows := gjson.GetBytes(body, "data")
	if !rows.IsArray() {
		return nil, fmt.Errorf("okx candles: unexpected payload")
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

// FetchPrice returns the last traded price for the swap instrument.
func (o *OKX) FetchPrice(ctx context.Context, symbol string) (market.ExchangeQuote, error) {
	u := fmt.Sprintf("%s/api/v5/market/ticker?instId=%s", o.baseURL, url.QueryEscape(okxInstrument(symbol)))
	body, err := getBody(ctx, o.client, u)
	if err != nil {
		return market.ExchangeQuote{}, fmt.Errorf("okx ticker: %w", err)
	}
	px := gjson.GetBytes(body, "data.0.last").Float()
	if px <= 0 {
		return market.ExchangeQuote{}, fmt.Errorf("okx ticker: missing price")
	}
	quote := market.ExchangeQuote{
		Exchange:  o.Name(),
		Price:     px,
		Timestamp: time.Now().UTC(),
	}
	if vol := gjson.GetBytes(body, "data.0.volCcy24h").Float(); vol > 0 {
		quote.Volume = &vol
	}
	return quote, nil
}

// FetchFunding returns the current funding rate for the swap instrument.
func (o *OKX) FetchFunding(ctx context.Context, symbol string) (market.ExchangeRate, error) {
	u := fmt.Sprintf("%s/api/v5/public/funding-rate?instId=%s", o.baseURL, url.QueryEscape(okxInstrument(symbol)))
	body, err := getBody(ctx, o.client, u)
	if err != nil {
		return market.ExchangeRate{}, fmt.Errorf("okx funding: %w", err)
	}
	rate := gjson.GetBytes(body, "data.0.fundingRate")
	if !rate.Exists() || rate.String() == "" {
		return market.ExchangeRate{}, fmt.Errorf("okx funding: missing rate")
	}
	return market.ExchangeRate{
		Exchange:  o.Name(),
		Rate:      rate.Float(),
		Timestamp: time.Now().UTC(),
	}, nil
}
