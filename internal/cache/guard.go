package cache

import (
	"sync"
	"time"
)

// RefreshGuard serializes batch-refresh triggers. While a refresh is in
// flight, or within the cooldown window after one finished, TryBegin reports
// false and callers must treat their trigger as a no-op.
type RefreshGuard struct {
	mu          sync.Mutex
	cooldown    time.Duration
	inFlight    bool
	lastStarted time.Time
	now         func() time.Time
}

// NewRefreshGuard builds a guard with the given cooldown window.
func NewRefreshGuard(cooldown time.Duration) *RefreshGuard {
	return &RefreshGuard{cooldown: cooldown, now: time.Now}
}

// TryBegin claims the refresh slot. The check-then-set runs under one lock so
// at most one refresh is ever in flight.
func (g *RefreshGuard) TryBegin() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.inFlight {
		return false
	}
	if !g.lastStarted.IsZero() && g.now().Sub(g.lastStarted) < g.cooldown {
		return false
	}
	g.inFlight = true
	g.lastStarted = g.now()
	return true
}

// End releases the slot; the cooldown keeps running from the claim time.
func (g *RefreshGuard) End() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.inFlight = false
}
