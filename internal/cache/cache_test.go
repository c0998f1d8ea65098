package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/tridxis/price-agent/internal/market"
)

func TestGetPriceWithinTTL(t *testing.T) {
	c := NewQuoteCache(30*time.Second, time.Hour)
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }

	c.PutPrice("BTC", market.PriceSnapshot{Symbol: "BTC", AveragePrice: 50000})

	clock = clock.Add(29 * time.Second)
	got, ok := c.GetPrice("BTC")
	if !ok || got.AveragePrice != 50000 {
		t.Fatalf("expected hit before TTL, got ok=%v %+v", ok, got)
	}
}

func TestGetPriceExpiresLazily(t *testing.T) {
	c := NewQuoteCache(30*time.Second, time.Hour)
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }

	c.PutPrice("BTC", market.PriceSnapshot{Symbol: "BTC", AveragePrice: 50000})

	clock = clock.Add(30 * time.Second)
	if _, ok := c.GetPrice("BTC"); ok {
		t.Fatalf("expected miss at exactly TTL with no explicit invalidation")
	}
	// The expired entry is gone, not resurrected.
	if _, ok := c.GetPrice("BTC"); ok {
		t.Fatalf("expected entry removed after lazy expiry")
	}
}

func TestFundingTTLIsIndependent(t *testing.T) {
	c := NewQuoteCache(30*time.Second, time.Hour)
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }

	c.PutPrice("BTC", market.PriceSnapshot{Symbol: "BTC", AveragePrice: 50000})
	c.PutFunding("BTC", market.FundingSnapshot{Symbol: "BTC", AverageRate: 0.0001})

	clock = clock.Add(5 * time.Minute)
	if _, ok := c.GetPrice("BTC"); ok {
		t.Fatalf("price should have expired")
	}
	if got, ok := c.GetFunding("BTC"); !ok || got.AverageRate != 0.0001 {
		t.Fatalf("funding should still be cached, got ok=%v", ok)
	}
}

func TestPutOverwrites(t *testing.T) {
	c := NewQuoteCache(time.Minute, time.Hour)
	c.PutPrice("ETH", market.PriceSnapshot{Symbol: "ETH", AveragePrice: 3000})
	c.PutPrice("ETH", market.PriceSnapshot{Symbol: "ETH", AveragePrice: 3100})
	got, ok := c.GetPrice("ETH")
	if !ok || got.AveragePrice != 3100 {
		t.Fatalf("expected latest write to win, got %+v", got)
	}
}

func TestRefreshGuardCooldown(t *testing.T) {
	g := NewRefreshGuard(30 * time.Second)
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return clock }

	if !g.TryBegin() {
		t.Fatalf("first trigger must win the slot")
	}
	if g.TryBegin() {
		t.Fatalf("trigger while in flight must be a no-op")
	}
	g.End()
	if g.TryBegin() {
		t.Fatalf("trigger inside cooldown must be a no-op")
	}
	clock = clock.Add(31 * time.Second)
	if !g.TryBegin() {
		t.Fatalf("trigger after cooldown must win")
	}
}

func TestRefreshGuardConcurrentClaims(t *testing.T) {
	g := NewRefreshGuard(time.Minute)
	var wg sync.WaitGroup
	wins := make(chan struct{}, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.TryBegin() {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)
	count := 0
	for range wins {
		count++
	}
	if count != 1 {
		t.Fatalf("expected exactly one concurrent winner, got %d", count)
	}
}
