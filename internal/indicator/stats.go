// Package indicator provides pure, deterministic technical-analysis functions
// over oldest-first price or candle series. Every function degrades to a
// documented neutral default instead of returning an error when the input is
// too short.
package indicator

import "math"

func mean(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range series {
		sum += v
	}
	return sum / float64(len(series))
}

func stddev(series []float64) float64 {
	if len(series) < 2 {
		return 0
	}
	m := mean(series)
	var acc float64
	for _, v := range series {
		d := v - m
		acc += d * d
	}
	return math.Sqrt(acc / float64(len(series)))
}
