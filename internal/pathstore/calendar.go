package pathstore

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/tridxis/price-agent/internal/market"
)

// historicalRoot anchors the day-level paths the history recorder writes to:
// ["historical", SYMBOL, YYYY, MM, DD].
const historicalRoot = "historical"

// ExtremeKind selects which end of the range an extremum query reduces to.
type ExtremeKind string

const (
	Highest ExtremeKind = "highest"
	Lowest  ExtremeKind = "lowest"
)

// DayPath builds the canonical day-level path for a symbol.
func DayPath(symbol string, day time.Time) []string {
	return []string{
		historicalRoot,
		symbol,
		fmt.Sprintf("%04d", day.Year()),
		fmt.Sprintf("%02d", int(day.Month())),
		fmt.Sprintf("%02d", day.Day()),
	}
}

// SearchByDate returns the most recent historical point recorded for the
// exact calendar day, if any.
func (s *Store) SearchByDate(symbol string, day time.Time) (market.HistoricalPoint, bool) {
	values := s.Search(DayPath(symbol, day), nil)
	for i := len(values) - 1; i >= 0; i-- {
		if values[i].Kind == KindPrice && values[i].Price != nil {
			return *values[i].Price, true
		}
	}
	return market.HistoricalPoint{}, false
}

// SearchByMonth concatenates the day-level lookups for every day of the
// month, in calendar order. At most daysIn(year, month) entries come back.
func (s *Store) SearchByMonth(symbol string, year int, month time.Month) []market.HistoricalPoint {
	var out []market.HistoricalPoint
	for day := 1; day <= daysIn(year, month); day++ {
		date := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
		if p, ok := s.SearchByDate(symbol, date); ok {
			out = append(out, p)
		}
	}
	return out
}

// SearchByYear concatenates the month queries for every month of the year.
func (s *Store) SearchByYear(symbol string, year int) []market.HistoricalPoint {
	var out []market.HistoricalPoint
	for month := time.January; month <= time.December; month++ {
		out = append(out, s.SearchByMonth(symbol, year, month)...)
	}
	return out
}

// SearchAllTime walks every recorded day for the symbol in chronological
// order. Zero-padded path segments make the lexical key order the calendar
// order.
func (s *Store) SearchAllTime(symbol string) []market.HistoricalPoint {
	prefix := historicalRoot + "/" + symbol + "/"

	s.mu.RLock()
	keys := make([]string, 0)
	for k := range s.nodes {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	s.mu.RUnlock()

	sort.Strings(keys)
	var out []market.HistoricalPoint
	for _, k := range keys {
		values := s.Search(strings.Split(k, "/"), nil)
		for i := len(values) - 1; i >= 0; i-- {
			if values[i].Kind == KindPrice && values[i].Price != nil {
				out = append(out, *values[i].Price)
				break
			}
		}
	}
	return out
}

// SearchLocalExtremum reduces the trailing-days window ending today to its
// extremum.
func (s *Store) SearchLocalExtremum(symbol string, kind ExtremeKind, days int) (market.HistoricalPoint, bool) {
	if days <= 0 {
		return market.HistoricalPoint{}, false
	}
	now := time.Now().UTC()
	var candidates []market.HistoricalPoint
	for i := days - 1; i >= 0; i-- {
		if p, ok := s.SearchByDate(symbol, now.AddDate(0, 0, -i)); ok {
			candidates = append(candidates, p)
		}
	}
	return Extremum(candidates, kind)
}

// Extremum reduces day-level candidates to the single entry whose dayHigh (or
// averagePrice when absent) is the overall maximum, or the dayLow/averagePrice
// minimum for Lowest. The returned record's AveragePrice is overwritten with
// the extreme value for display; ties keep the first match in iteration
// order.
func Extremum(points []market.HistoricalPoint, kind ExtremeKind) (market.HistoricalPoint, bool) {
	if len(points) == 0 {
		return market.HistoricalPoint{}, false
	}

	best := points[0]
	bestVal := extremeValue(points[0], kind)
	for _, p := range points[1:] {
		v := extremeValue(p, kind)
		if (kind == Lowest && v < bestVal) || (kind != Lowest && v > bestVal) {
			best, bestVal = p, v
		}
	}
	best.AveragePrice = bestVal
	return best, true
}

func extremeValue(p market.HistoricalPoint, kind ExtremeKind) float64 {
	if kind == Lowest {
		if p.DayLow != nil {
			return *p.DayLow
		}
		return p.AveragePrice
	}
	if p.DayHigh != nil {
		return *p.DayHigh
	}
	return p.AveragePrice
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
