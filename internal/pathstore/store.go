// Package pathstore implements an in-memory hierarchical time-series store.
// Values live under an ordered sequence of string segments; each exact path
// owns a bounded, insertion-ordered window of timestamped values plus derived
// trend/volatility metadata. The store is owned by the process composition
// root and dies with it.
package pathstore

import (
	"math"
	"strings"
	"sync"
	"time"

	"github.com/tridxis/price-agent/internal/market"
)

// DefaultCapacity bounds the per-path window; the oldest value is evicted
// first once the window is full.
const DefaultCapacity = 1000

// ValueKind discriminates what a stored Value carries. The kind is fixed by
// the caller at insert time; the store never infers it from the payload shape.
type ValueKind int

const (
	// KindPrice marks a historical price point; inserts of this kind drive
	// the per-path trend/volatility metadata.
	KindPrice ValueKind = iota
	// KindFunding marks a funding-rate snapshot.
	KindFunding
)

// Value is the tagged union stored at a path.
type Value struct {
	Kind    ValueKind
	Price   *market.HistoricalPoint
	Funding *market.FundingSnapshot
	At      time.Time
}

// Trend labels the direction of the two most recent price points at a path.
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// Metadata is recomputed on every price insert at a path.
//
// Volatility is the standard deviation of log-returns over the retained
// window scaled by 100. It is a display-scaled figure, not annualized: there
// is deliberately no time-unit normalization.
type Metadata struct {
	Trend      Trend
	Volatility float64
	Volume     float64
}

// Query filters Search results. A nil Query asks for the latest value only.
type Query struct {
	From  *time.Time
	To    *time.Time
	Trend *Trend
}

type node struct {
	values []Value
	meta   Metadata
}

// Store is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	capacity int
	nodes    map[string]*node
}

// NewStore builds an empty store; capacity <= 0 uses DefaultCapacity.
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{capacity: capacity, nodes: make(map[string]*node)}
}

func key(path []string) string { return strings.Join(path, "/") }

// Insert appends v to the window at the exact path, evicting the oldest value
// once the window exceeds capacity, and refreshes metadata for price values.
func (s *Store) Insert(path []string, v Value) {
	if len(path) == 0 {
		return
	}
	if v.At.IsZero() {
		v.At = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.nodes[key(path)]
	if n == nil {
		n = &node{}
		s.nodes[key(path)] = n
	}
	n.values = append(n.values, v)
	if len(n.values) > s.capacity {
		n.values = n.values[len(n.values)-s.capacity:]
	}
	if v.Kind == KindPrice {
		n.meta = computeMetadata(n.values)
	}
}

// Search returns the retained values at the exact path. With a nil query only
// the most recent value comes back (or nothing); with a query, every retained
// value matching it. Unknown paths yield an empty result, never an error.
func (s *Store) Search(path []string, q *Query) []Value {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := s.nodes[key(path)]
	if n == nil || len(n.values) == 0 {
		return nil
	}
	if q == nil {
		return []Value{n.values[len(n.values)-1]}
	}

	var out []Value
	for _, v := range n.values {
		if q.From != nil && v.At.Before(*q.From) {
			continue
		}
		if q.To != nil && v.At.After(*q.To) {
			continue
		}
		if q.Trend != nil && n.meta.Trend != *q.Trend {
			continue
		}
		out = append(out, v)
	}
	return out
}

// Metadata returns the derived metadata at the exact path.
func (s *Store) Metadata(path []string) (Metadata, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := s.nodes[key(path)]
	if n == nil {
		return Metadata{}, false
	}
	return n.meta, true
}

// Len reports how many values a path currently retains.
func (s *Store) Len(path []string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := s.nodes[key(path)]
	if n == nil {
		return 0
	}
	return len(n.values)
}

func computeMetadata(values []Value) Metadata {
	prices := make([]float64, 0, len(values))
	var volume float64
	for _, v := range values {
		if v.Kind != KindPrice || v.Price == nil {
			continue
		}
		prices = append(prices, v.Price.AveragePrice)
		for _, q := range v.Price.Quotes {
			if q.Volume != nil {
				volume += *q.Volume
			}
		}
	}

	meta := Metadata{Trend: TrendStable, Volume: volume}
	if len(prices) >= 2 {
		prev, last := prices[len(prices)-2], prices[len(prices)-1]
		if prev != 0 {
			change := (last - prev) / prev
			switch {
			case change > 0.01:
				meta.Trend = TrendUp
			case change < -0.01:
				meta.Trend = TrendDown
			}
		}
		meta.Volatility = logReturnStddev(prices) * 100
	}
	return meta
}

func logReturnStddev(prices []float64) float64 {
	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] <= 0 || prices[i] <= 0 {
			continue
		}
		returns = append(returns, math.Log(prices[i]/prices[i-1]))
	}
	if len(returns) < 2 {
		return 0
	}
	m := 0.0
	for _, r := range returns {
		m += r
	}
	m /= float64(len(returns))
	var acc float64
	for _, r := range returns {
		d := r - m
		acc += d * d
	}
	return math.Sqrt(acc / float64(len(returns)))
}
