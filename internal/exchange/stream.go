package exchange

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"github.com/tridxis/price-agent/internal/market"
)

const defaultStreamURL = "wss://fstream.binance.com/stream"

// QuoteSink receives live per-exchange quotes, usually the quote cache.
type QuoteSink interface {
	PutPrice(symbol string, s market.PriceSnapshot)
}

// MarkPriceStream keeps the quote cache warm with Binance futures mark-price
// updates between REST refresh cycles. Reconnects with capped exponential
// backoff; a lost stream is never fatal, the REST path still works.
type MarkPriceStream struct {
	log     zerolog.Logger
	baseURL string
	symbols []string
	sink    QuoteSink
}

// NewMarkPriceStream builds a stream for the given bare symbols; an empty
// baseURL uses the production endpoint.
func NewMarkPriceStream(symbols []string, sink QuoteSink, log zerolog.Logger, baseURL string) *MarkPriceStream {
	if baseURL == "" {
		baseURL = defaultStreamURL
	}
	return &MarkPriceStream{
		log:     log,
		baseURL: baseURL,
		symbols: append([]string(nil), symbols...),
		sink:    sink,
	}
}

// Run blocks until ctx is canceled, reconnecting on stream errors.
func (s *MarkPriceStream) Run(ctx context.Context) error {
	if len(s.symbols) == 0 {
		return fmt.Errorf("mark price stream requires at least one symbol")
	}

	streams := make([]string, len(s.symbols))
	for i, sym := range s.symbols {
		streams[i] = strings.ToLower(BinanceSymbol(sym)) + "@markPrice@1s"
	}
	url := fmt.Sprintf("%s?streams=%s", s.baseURL, strings.Join(streams, "/"))

	backoff := time.Second
	const maxBackoff = 30 * time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := s.consume(ctx, url); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.log.Warn().Err(err).Msg("mark price stream disconnected, retrying")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff = time.Duration(math.Min(float64(maxBackoff), float64(backoff)*1.8))
			continue
		}
		return nil
	}
}

func (s *MarkPriceStream) consume(ctx context.Context, url string) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	s.log.Info().Strs("symbols", s.symbols).Msg("connected mark price stream")

	conn.SetReadLimit(1 << 20)
	conn.SetReadDeadline(time.Now().Add(30 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(30 * time.Second))
		return nil
	})

	pingCtx, pingCancel := context.WithCancel(ctx)
	defer pingCancel()
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-pingCtx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		data := gjson.GetBytes(message, "data")
		pair := data.Get("s").String()
		px := data.Get("p").Float()
		if pair == "" || px <= 0 {
			continue
		}
		symbol := strings.TrimSuffix(pair, "USDT")
		quote := market.ExchangeQuote{
			Exchange:  "binance",
			Price:     px,
			Timestamp: time.UnixMilli(data.Get("E").Int()),
		}
		s.sink.PutPrice(symbol, market.PriceSnapshot{
			Symbol:       symbol,
			Quotes:       []market.ExchangeQuote{quote},
			AveragePrice: px,
			Timestamp:    quote.Timestamp,
		})
	}
}
