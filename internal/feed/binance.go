package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"fxbacktest-go/internal/tick"
)

// Binance streams top-of-book quotes from the public bookTicker
// websocket, reconnecting with backoff on drops. Unlike the recorded
// producers it never ends on its own; cancel the context to stop it.
type Binance struct {
	ctx     context.Context
	url     string
	log     zerolog.Logger
	conn    *websocket.Conn
	backoff time.Duration
}

const (
	binanceMaxBackoff       = 30 * time.Second
	binanceHandshakeTimeout = 10 * time.Second
	binanceReadTimeout      = 30 * time.Second
)

type bookTicker struct {
	Symbol string `json:"s"`
	Bid    string `json:"b"`
	BidQty string `json:"B"`
	Ask    string `json:"a"`
	AskQty string `json:"A"`
}

// DialBinance connects to the symbol's bookTicker stream.
func DialBinance(ctx context.Context, symbol string, log zerolog.Logger) (*Binance, error) {
	if symbol == "" {
		return nil, fmt.Errorf("binance feed requires a symbol")
	}
	b := &Binance{
		ctx:     ctx,
		url:     fmt.Sprintf("wss://stream.binance.com:9443/ws/%s@bookTicker", strings.ToLower(symbol)),
		log:     log,
		backoff: time.Second,
	}
	if err := b.dial(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Binance) dial() error {
	dialer := websocket.Dialer{HandshakeTimeout: binanceHandshakeTimeout}
	conn, _, err := dialer.DialContext(b.ctx, b.url, nil)
	if err != nil {
		return fmt.Errorf("dial binance: %w", err)
	}
	conn.SetReadLimit(1 << 20)
	conn.SetReadDeadline(time.Now().Add(binanceReadTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(binanceReadTimeout))
		return nil
	})
	b.conn = conn
	b.log.Info().Str("url", b.url).Msg("connected quote stream")
	return nil
}

func (b *Binance) Next() (tick.Tick, error) {
	for {
		if b.ctx.Err() != nil {
			return tick.Tick{}, ErrEndOfFeed
		}

		_, message, err := b.conn.ReadMessage()
		if err != nil {
			if b.ctx.Err() != nil {
				return tick.Tick{}, ErrEndOfFeed
			}
			b.log.Warn().Err(err).Msg("quote stream disconnected, retrying")
			b.conn.Close()
			select {
			case <-time.After(b.backoff):
			case <-b.ctx.Done():
				return tick.Tick{}, ErrEndOfFeed
			}
			b.backoff = time.Duration(math.Min(float64(binanceMaxBackoff), float64(b.backoff)*1.8))
			if err := b.dial(); err != nil {
				return tick.Tick{}, err
			}
			continue
		}
		b.conn.SetReadDeadline(time.Now().Add(binanceReadTimeout))
		b.backoff = time.Second

		var quote bookTicker
		if err := json.Unmarshal(message, &quote); err != nil {
			b.log.Warn().Err(err).Msg("failed to decode quote message")
			continue
		}
		bid, err := strconv.ParseFloat(quote.Bid, 64)
		if err != nil {
			b.log.Warn().Err(err).Msg("invalid bid from stream")
			continue
		}
		ask, err := strconv.ParseFloat(quote.Ask, 64)
		if err != nil {
			b.log.Warn().Err(err).Msg("invalid ask from stream")
			continue
		}

		ts := float64(time.Now().UnixNano()) / 1e9
		return tick.New(ts, bid, ask), nil
	}
}

// Close tears the connection down.
func (b *Binance) Close() error {
	if b.conn == nil {
		return nil
	}
	return b.conn.Close()
}
