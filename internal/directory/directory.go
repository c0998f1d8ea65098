// Package directory maintains the list of supported perpetual symbols the
// scanner and history recorder operate over.
package directory

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"github.com/tridxis/price-agent/internal/config"
)

// Coin is one supported symbol with its display name.
type Coin struct {
	Symbol      string
	DisplayName string
}

// Directory starts from the configured symbol seed and can optionally refresh
// itself from the venue's instrument list. It reports ready once it holds at
// least one symbol.
type Directory struct {
	log        zerolog.Logger
	cfg        config.Directory
	client     *http.Client
	refreshURL string

	mu    sync.RWMutex
	coins []Coin
	ready bool
}

// New seeds a directory from configuration.
func New(cfg config.Directory, log zerolog.Logger) *Directory {
	d := &Directory{
		log:        log,
		cfg:        cfg,
		client:     &http.Client{},
		refreshURL: "https://fapi.binance.com/fapi/v1/exchangeInfo",
	}
	coins := make([]Coin, 0, len(cfg.Symbols))
	for _, sym := range cfg.Symbols {
		sym = strings.ToUpper(strings.TrimSpace(sym))
		if sym == "" {
			continue
		}
		coins = append(coins, Coin{Symbol: sym, DisplayName: sym})
	}
	d.coins = coins
	d.ready = len(coins) > 0
	return d
}

// Symbols returns a copy of the current coin list.
func (d *Directory) Symbols() []Coin {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Coin, len(d.coins))
	copy(out, d.coins)
	return out
}

// Ready reports whether the directory holds at least one symbol.
func (d *Directory) Ready() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.ready
}

// Refresh replaces the coin list with the venue's tradable USDT perpetuals,
// capped at the configured maximum. The configured seed survives a failed or
// disabled refresh untouched.
func (d *Directory) Refresh(ctx context.Context) error {
	if !d.cfg.RefreshFromWire {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.refreshURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("exchange info: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("exchange info: unexpected status %d", resp.StatusCode)
	}

	buf, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("exchange info: read body: %w", err)
	}

	coins := make([]Coin, 0, d.cfg.MaxSymbols)
	gjson.GetBytes(buf, "symbols").ForEach(func(_, sym gjson.Result) bool {
		if sym.Get("contractType").String() != "PERPETUAL" {
			return true
		}
		if sym.Get("quoteAsset").String() != "USDT" {
			return true
		}
		if sym.Get("status").String() != "TRADING" {
			return true
		}
		base := sym.Get("baseAsset").String()
		coins = append(coins, Coin{Symbol: base, DisplayName: base})
		return len(coins) < d.cfg.MaxSymbols
	})
	if len(coins) == 0 {
		return fmt.Errorf("exchange info: no tradable perpetuals found")
	}

	d.mu.Lock()
	d.coins = coins
	d.ready = true
	d.mu.Unlock()
	d.log.Info().Int("symbols", len(coins)).Msg("directory refreshed")
	return nil
}
