// Package history maintains the daily per-symbol snapshots that back the
// calendar queries: one HistoricalPoint per coin per UTC day, derived from
// the venue candle aggregates.
package history

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tridxis/price-agent/internal/cache"
	"github.com/tridxis/price-agent/internal/config"
	"github.com/tridxis/price-agent/internal/directory"
	"github.com/tridxis/price-agent/internal/market"
	"github.com/tridxis/price-agent/internal/pathstore"
)

// MarketSource is the slice of the acquisition layer the recorder needs.
type MarketSource interface {
	GetCandles(ctx context.Context, symbol string, interval market.Interval, limit int) []market.Candle
	GetPrice(ctx context.Context, symbol string) (market.PriceSnapshot, error)
}

// SymbolDirectory lists the coins a refresh cycle walks.
type SymbolDirectory interface {
	Ready() bool
	Symbols() []directory.Coin
}

// Availability describes how much history the store currently holds.
type Availability struct {
	StartDate  string
	LastUpdate time.Time
	Ready      bool
}

// dailyHorizons maps change keys to a lookback in daily candles.
var dailyHorizons = []struct {
	key  string
	back int
}{
	{market.Change24h, 1},
	{market.Change7d, 7},
	{market.Change30d, 30},
	{market.Change90d, 90},
	{market.Change180d, 180},
	{market.Change365d, 365},
}

// Recorder builds daily HistoricalPoints and inserts them into the path
// store. Batch refreshes are serialized through a RefreshGuard so scheduled
// and triggered runs cannot stack.
type Recorder struct {
	src     MarketSource
	store   *pathstore.Store
	dir     SymbolDirectory
	guard   *cache.RefreshGuard
	cfg     config.History
	log     zerolog.Logger
	backoff time.Duration
	now     func() time.Time

	mu         sync.Mutex
	startDate  string
	lastUpdate time.Time
}

// NewRecorder wires the refresh cycle together.
func NewRecorder(src MarketSource, store *pathstore.Store, dir SymbolDirectory, guard *cache.RefreshGuard, cfg config.History, log zerolog.Logger) *Recorder {
	return &Recorder{
		src:     src,
		store:   store,
		dir:     dir,
		guard:   guard,
		cfg:     cfg,
		log:     log,
		backoff: time.Duration(cfg.InitBackoffSecs) * time.Second,
		now:     time.Now,
	}
}

// Start waits for the directory to hold symbols, retrying up to the
// configured attempt cap, then runs the initial refresh. It returns an error
// only when the directory never becomes ready.
func (r *Recorder) Start(ctx context.Context) error {
	ready := false
	for attempt := 1; attempt <= r.cfg.InitAttempts; attempt++ {
		if r.dir.Ready() {
			ready = true
			break
		}
		r.log.Debug().Int("attempt", attempt).Msg("waiting for symbol directory")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.backoff):
		}
	}
	if !ready {
		return fmt.Errorf("symbol directory not ready after %d attempts", r.cfg.InitAttempts)
	}
	r.RefreshAll(ctx)
	return nil
}

// RefreshAll refreshes every directory symbol and returns how many succeeded.
// A run that starts while another is in flight, or within the guard cooldown,
// is a no-op returning zero.
func (r *Recorder) RefreshAll(ctx context.Context) int {
	if !r.guard.TryBegin() {
		r.log.Debug().Msg("history refresh already in flight or cooling down")
		return 0
	}
	defer r.guard.End()

	refreshed := 0
	for _, coin := range r.dir.Symbols() {
		if err := r.RefreshSymbol(ctx, coin.Symbol); err != nil {
			r.log.Warn().Err(err).Str("symbol", coin.Symbol).Msg("history refresh failed")
			continue
		}
		refreshed++
	}
	if refreshed > 0 {
		r.mu.Lock()
		r.lastUpdate = r.now().UTC()
		if r.startDate == "" {
			r.startDate = r.lastUpdate.Format("2006-01-02")
		}
		r.mu.Unlock()
	}
	r.log.Info().Int("refreshed", refreshed).Msg("history refresh complete")
	return refreshed
}

// RefreshSymbol builds today's HistoricalPoint for one symbol and inserts it
// at the calendar path. Points for the same day overwrite by appending; reads
// always take the latest.
func (r *Recorder) RefreshSymbol(ctx context.Context, symbol string) error {
	snapshot, err := r.src.GetPrice(ctx, symbol)
	if err != nil {
		return fmt.Errorf("price for %s: %w", symbol, err)
	}

	point := market.HistoricalPoint{
		PriceSnapshot: snapshot,
		Changes:       make(map[string]float64),
	}

	days := r.src.GetCandles(ctx, symbol, market.Interval1d, 366)
	for _, h := range dailyHorizons {
		idx := len(days) - 1 - h.back
		if idx < 0 {
			continue
		}
		past := days[idx].Close
		if past <= 0 {
			continue
		}
		point.Changes[h.key] = (snapshot.AveragePrice - past) / past * 100
	}
	if len(days) > 0 {
		latest := days[len(days)-1]
		point.DayHigh = &latest.High
		point.DayLow = &latest.Low
	}
	if hours := r.src.GetCandles(ctx, symbol, market.Interval1h, 2); len(hours) >= 2 {
		if past := hours[len(hours)-2].Close; past > 0 {
			point.Changes[market.Change1h] = (snapshot.AveragePrice - past) / past * 100
		}
	}

	day := r.now().UTC()
	point.Date = day.Format("2006-01-02")
	r.store.Insert(pathstore.DayPath(symbol, day), pathstore.Value{
		Kind:  pathstore.KindPrice,
		Price: &point,
		At:    snapshot.Timestamp,
	})
	return nil
}

// Availability reports when recording started and when it last ran.
func (r *Recorder) Availability() Availability {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Availability{
		StartDate:  r.startDate,
		LastUpdate: r.lastUpdate,
		Ready:      !r.lastUpdate.IsZero(),
	}
}
