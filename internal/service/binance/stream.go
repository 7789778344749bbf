package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"CryptoPulse/internal/domain/models"
	drepo "CryptoPulse/internal/domain/repository"

	"github.com/gorilla/websocket"
)

// Stream implements a PriceStream backed by the Binance trade
// WebSocket. It is an optional ingestion path for deployments that
// want sub-minute sampling instead of polling.
type Stream struct {
	baseURL        string
	symbol         string
	reconnectDelay time.Duration
	pingInterval   time.Duration

	conn      *websocket.Conn
	connected bool
}

// New creates a Binance trade stream for one symbol (e.g. "btcusdt").
func New(baseURL, symbol string, reconnectDelay, pingInterval time.Duration) drepo.PriceStream {
	return &Stream{
		baseURL:        baseURL,
		symbol:         strings.ToLower(symbol),
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
	}
}

// Connect establishes the WebSocket connection. The trade stream is
// addressed by path, so Subscribe is a no-op.
func (s *Stream) Connect(ctx context.Context) error {
	u := fmt.Sprintf("%s/ws/%s@trade", strings.TrimRight(s.baseURL, "/"), s.symbol)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("binance connect: %w", err)
	}
	s.conn = conn
	s.connected = true
	return nil
}

func (s *Stream) Subscribe(ctx context.Context) error {
	if s.conn == nil || !s.connected {
		return fmt.Errorf("binance not connected")
	}
	return nil
}

type tradeEvent struct {
	EventType string `json:"e"`
	Symbol    string `json:"s"`
	Price     string `json:"p"`
	TradeTime int64  `json:"T"` // ms
}

// Read streams samples and errors until the context is done or the
// connection drops. The pinger's lifetime is bound to this read loop,
// so a reconnect followed by a new Read never leaves two goroutines
// writing to the same connection.
func (s *Stream) Read(ctx context.Context) (<-chan *models.Sample, <-chan error) {
	samples := make(chan *models.Sample, 1024)
	errs := make(chan error, 1)
	done := make(chan struct{})

	go func() {
		ticker := time.NewTicker(s.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				if s.conn != nil {
					_ = s.conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	go func() {
		defer close(samples)
		defer close(errs)
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if s.conn == nil {
					errs <- fmt.Errorf("binance conn nil")
					return
				}
				_, b, err := s.conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("binance read: %w", err)
					return
				}
				var ev tradeEvent
				if err := json.Unmarshal(b, &ev); err != nil || ev.EventType != "trade" {
					continue
				}
				price, err := strconv.ParseFloat(ev.Price, 64)
				if err != nil || price <= 0 {
					continue
				}
				sample := &models.Sample{
					Timestamp: time.UnixMilli(ev.TradeTime).UTC(),
					Symbol:    ev.Symbol,
					Price:     price,
					Source:    "binance",
				}
				select {
				case samples <- sample:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return samples, errs
}

// Reconnect closes and redials after the configured delay.
func (s *Stream) Reconnect(ctx context.Context) error {
	_ = s.Close()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.reconnectDelay):
	}
	return s.Connect(ctx)
}

func (s *Stream) Close() error {
	s.connected = false
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

func (s *Stream) IsConnected() bool { return s.connected }
