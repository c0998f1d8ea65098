// Package cache fronts the acquisition layer with a per-symbol quote cache.
// Entries expire lazily on read; there is no background sweep. The cache is
// process-local state owned by the composition root.
package cache

import (
	"sync"
	"time"

	"github.com/tridxis/price-agent/internal/market"
	"github.com/tridxis/price-agent/internal/metrics"
)

type priceEntry struct {
	snapshot market.PriceSnapshot
	storedAt time.Time
}

type fundingEntry struct {
	snapshot market.FundingSnapshot
	storedAt time.Time
}

// QuoteCache stores the latest price and funding snapshot per symbol with
// kind-specific TTLs. Writes unconditionally overwrite.
type QuoteCache struct {
	mu         sync.Mutex
	priceTTL   time.Duration
	fundingTTL time.Duration
	prices     map[string]priceEntry
	funding    map[string]fundingEntry
	now        func() time.Time
}

// NewQuoteCache builds a cache with the given kind TTLs.
func NewQuoteCache(priceTTL, fundingTTL time.Duration) *QuoteCache {
	return &QuoteCache{
		priceTTL:   priceTTL,
		fundingTTL: fundingTTL,
		prices:     make(map[string]priceEntry),
		funding:    make(map[string]fundingEntry),
		now:        time.Now,
	}
}

// PutPrice overwrites the cached price snapshot for the symbol.
func (c *QuoteCache) PutPrice(symbol string, s market.PriceSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prices[symbol] = priceEntry{snapshot: s, storedAt: c.now()}
}

// GetPrice returns the cached snapshot while it is younger than the price
// TTL; an expired entry is removed and reported as a miss.
func (c *QuoteCache) GetPrice(symbol string) (market.PriceSnapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.prices[symbol]
	if !ok {
		metrics.CacheMissesTotal.WithLabelValues("price").Inc()
		return market.PriceSnapshot{}, false
	}
	if c.now().Sub(entry.storedAt) >= c.priceTTL {
		delete(c.prices, symbol)
		metrics.CacheMissesTotal.WithLabelValues("price").Inc()
		return market.PriceSnapshot{}, false
	}
	metrics.CacheHitsTotal.WithLabelValues("price").Inc()
	return entry.snapshot, true
}

// PutFunding overwrites the cached funding snapshot for the symbol.
func (c *QuoteCache) PutFunding(symbol string, s market.FundingSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.funding[symbol] = fundingEntry{snapshot: s, storedAt: c.now()}
}

// GetFunding is the funding-kind counterpart of GetPrice.
func (c *QuoteCache) GetFunding(symbol string) (market.FundingSnapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.funding[symbol]
	if !ok {
		metrics.CacheMissesTotal.WithLabelValues("funding").Inc()
		return market.FundingSnapshot{}, false
	}
	if c.now().Sub(entry.storedAt) >= c.fundingTTL {
		delete(c.funding, symbol)
		metrics.CacheMissesTotal.WithLabelValues("funding").Inc()
		return market.FundingSnapshot{}, false
	}
	metrics.CacheHitsTotal.WithLabelValues("funding").Inc()
	return entry.snapshot, true
}
