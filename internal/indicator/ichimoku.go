package indicator

import "github.com/tridxis/price-agent/internal/market"

// IchimokuResult carries the five Ichimoku cloud lines.
type IchimokuResult struct {
	ConversionLine float64
	BaseLine       float64
	LeadingSpanA   float64
	LeadingSpanB   float64
	LaggingSpan    float64
}

// Ichimoku computes the cloud from an oldest-first candle window using the
// conventional 9/26/52 lookbacks. Shorter windows use whatever history is
// available; the lagging span falls back to the last close when the series
// cannot be shifted back 26 periods.
func Ichimoku(candles []market.Candle) IchimokuResult {
	if len(candles) == 0 {
		return IchimokuResult{}
	}

	conversion := midpoint(candles, 9)
	base := midpoint(candles, 26)
	lagging := candles[len(candles)-1].Close
	if len(candles) > 26 {
		lagging = candles[len(candles)-1-26].Close
	}
	return IchimokuResult{
		ConversionLine: conversion,
		BaseLine:       base,
		LeadingSpanA:   (conversion + base) / 2,
		LeadingSpanB:   midpoint(candles, 52),
		LaggingSpan:    lagging,
	}
}

// midpoint returns (highest high + lowest low)/2 over the trailing period.
func midpoint(candles []market.Candle, period int) float64 {
	if len(candles) < period {
		period = len(candles)
	}
	window := candles[len(candles)-period:]
	high := window[0].High
	low := window[0].Low
	for _, c := range window[1:] {
		if c.High > high {
			high = c.High
		}
		if c.Low < low {
			low = c.Low
		}
	}
	return (high + low) / 2
}
