package exchange

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tridxis/price-agent/internal/market"
)

func TestBinanceFetchCandles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/fapi/v1/klines" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("symbol"); got != "BTCUSDT" {
			t.Fatalf("unexpected symbol %s", got)
		}
		w.Write([]byte(`[
			[1700000000000,"100.0","101.0","99.0","100.5","12.3",0,"0",0,"0","0","0"],
			[1700000180000,"100.5","102.0","100.0","101.5","15.0",0,"0",0,"0","0","0"]
		]`))
	}))
	defer srv.Close()

	b := NewBinance(srv.URL)
	candles, err := b.FetchCandles(context.Background(), "BTC", market.Interval3m, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candles) != 2 {
		t.Fatalf("expected 2 candles, got %d", len(candles))
	}
	if candles[0].Open != 100.0 || candles[1].Close != 101.5 {
		t.Fatalf("unexpected candle values: %+v", candles)
	}
	if !candles[0].OpenTime.Before(candles[1].OpenTime) {
		t.Fatalf("candles must be oldest first")
	}
}

func TestBinanceFetchPriceAndFunding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/fapi/v1/ticker/24hr":
			w.Write([]byte(`{"symbol":"BTCUSDT","lastPrice":"50000.5","quoteVolume":"123456.7"}`))
		case "/fapi/v1/premiumIndex":
			w.Write([]byte(`{"symbol":"BTCUSDT","lastFundingRate":"0.00010000"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	b := NewBinance(srv.URL)
	quote, err := b.FetchPrice(context.Background(), "BTC")
	if err != nil {
		t.Fatalf("price: %v", err)
	}
	if quote.Price != 50000.5 || quote.Volume == nil || *quote.Volume != 123456.7 {
		t.Fatalf("unexpected quote: %+v", quote)
	}

	rate, err := b.FetchFunding(context.Background(), "BTC")
	if err != nil {
		t.Fatalf("funding: %v", err)
	}
	if rate.Rate != 0.0001 {
		t.Fatalf("unexpected funding rate: %+v", rate)
	}
}

func TestBinanceFetchPriceBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	if _, err := NewBinance(srv.URL).FetchPrice(context.Background(), "BTC"); err == nil {
		t.Fatalf("expected error on 429")
	}
}

func TestBybitFetchCandlesReversesRows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("interval"); got != "60" {
			t.Fatalf("expected bybit interval 60, got %s", got)
		}
		// Newest first, as the venue responds.
		w.Write([]byte(`{"result":{"list":[
			["1700003600000","101.0","102.0","100.0","101.5","10","1000"],
			["1700000000000","100.0","101.0","99.0","100.5","12","1200"]
		]}}`))
	}))
	defer srv.Close()

	candles, err := NewBybit(srv.URL).FetchCandles(context.Background(), "BTC", market.Interval1h, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candles) != 2 {
		t.Fatalf("expected 2 candles, got %d", len(candles))
	}
	if !candles[0].OpenTime.Before(candles[1].OpenTime) {
		t.Fatalf("bybit rows must be reversed to oldest first")
	}
}

func TestOKXFetchPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("instId"); got != "ETH-USDT-SWAP" {
			t.Fatalf("unexpected instId %s", got)
		}
		w.Write([]byte(`{"data":[{"last":"3000.25","volCcy24h":"98765"}]}`))
	}))
	defer srv.Close()

	quote, err := NewOKX(srv.URL).FetchPrice(context.Background(), "ETH")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote.Price != 3000.25 {
		t.Fatalf("unexpected price: %+v", quote)
	}
}
