// Package exchange hosts the REST and websocket connectors for the upstream
// perpetual-futures venues plus the throttling and aggregation layers in
// front of them.
package exchange

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/tridxis/price-agent/internal/market"
)

// ErrNoData marks the case where every configured exchange failed; callers
// translate it into an explicit empty result.
var ErrNoData = errors.New("no exchange returned data")

// Client is one venue's view of the market.
type Client interface {
	Name() string
	FetchCandles(ctx context.Context, symbol string, interval market.Interval, limit int) ([]market.Candle, error)
	FetchPrice(ctx context.Context, symbol string) (market.ExchangeQuote, error)
	FetchFunding(ctx context.Context, symbol string) (market.ExchangeRate, error)
}

func getBody(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "price-agent/1.0")
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}
