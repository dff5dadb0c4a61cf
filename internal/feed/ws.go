package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/altmarkets/parimutuel/internal/domain"
)

const (
	// writeWait is the time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// pongWait is the time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// pingPeriod sends pings to the peer at this interval. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// reconnectDelay is the base delay before attempting to reconnect.
	reconnectDelay = 2 * time.Second

	// maxReconnectDelay caps the exponential backoff for reconnection.
	maxReconnectDelay = 60 * time.Second
)

// wsTick is one price update pushed by the oracle stream.
type wsTick struct {
	Asset string `json:"asset"`
	Price int64  `json:"price"`
	TS    int64  `json:"ts"`
}

// WSFeed keeps a streaming WebSocket subscription to the oracle and serves
// GetPrice from the latest tick per asset. Ticks older than maxAge are not
// served; callers get ErrInvalidPrice instead of a stale quote.
type WSFeed struct {
	wsURL  string
	assets []string
	maxAge time.Duration
	logger *slog.Logger

	mu     sync.RWMutex
	latest map[string]wsTick

	closeOnce sync.Once
	done      chan struct{}
}

// NewWSFeed creates a streaming feed subscribed to the given assets. Run must
// be started for GetPrice to return anything.
func NewWSFeed(wsURL string, assets []string, maxAge time.Duration, logger *slog.Logger) *WSFeed {
	if maxAge <= 0 {
		maxAge = time.Minute
	}
	return &WSFeed{
		wsURL:  wsURL,
		assets: assets,
		maxAge: maxAge,
		logger: logger.With(slog.String("component", "ws_feed")),
		latest: make(map[string]wsTick),
		done:   make(chan struct{}),
	}
}

// GetPrice returns the most recent streamed price for the asset.
func (f *WSFeed) GetPrice(ctx context.Context, asset string) (int64, error) {
	f.mu.RLock()
	tick, ok := f.latest[asset]
	f.mu.RUnlock()

	if !ok {
		return 0, fmt.Errorf("feed: no tick for %s: %w", asset, domain.ErrInvalidPrice)
	}
	if time.Since(time.UnixMilli(tick.TS)) > f.maxAge {
		return 0, fmt.Errorf("feed: stale tick for %s: %w", asset, domain.ErrInvalidPrice)
	}
	if tick.Price <= 0 {
		return 0, fmt.Errorf("feed: tick for %s: %w", asset, domain.ErrInvalidPrice)
	}
	return tick.Price, nil
}

// Run connects, subscribes to the configured assets and consumes ticks until
// ctx is cancelled. Reconnects with exponential backoff on disconnect.
func (f *WSFeed) Run(ctx context.Context) error {
	delay := reconnectDelay
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-f.done:
			return nil
		default:
		}

		err := f.runConnection(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		select {
		case <-f.done:
			return nil
		default:
		}

		f.logger.Warn("oracle stream disconnected, reconnecting",
			slog.String("error", err.Error()),
			slog.Duration("delay", delay))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-f.done:
			return nil
		case <-time.After(delay):
		}

		delay *= 2
		if delay > maxReconnectDelay {
			delay = maxReconnectDelay
		}
	}
}

// Close stops the feed.
func (f *WSFeed) Close() {
	f.closeOnce.Do(func() { close(f.done) })
}

func (f *WSFeed) runConnection(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 15 * time.Second}
	conn, _, err := dialer.DialContext(ctx, f.wsURL, nil)
	if err != nil {
		return fmt.Errorf("feed: connect %s: %w", f.wsURL, err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	sub := struct {
		Type   string   `json:"type"`
		Assets []string `json:"assets"`
	}{Type: "subscribe", Assets: f.assets}

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(sub); err != nil {
		return fmt.Errorf("feed: subscribe: %w", err)
	}
	f.logger.InfoContext(ctx, "oracle stream subscribed", slog.Int("assets", len(f.assets)))

	// Close the connection when the context ends so ReadMessage unblocks.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
		case <-f.done:
		case <-stop:
			return
		}
		_ = conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		)
		_ = conn.Close()
	}()

	pinger := time.NewTicker(pingPeriod)
	defer pinger.Stop()
	go func() {
		for {
			select {
			case <-stop:
				return
			case <-pinger.C:
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("feed: read: %w", err)
		}
		f.handleTick(message)
	}
}

func (f *WSFeed) handleTick(raw []byte) {
	var tick wsTick
	if err := json.Unmarshal(raw, &tick); err != nil {
		return // drop unparseable messages
	}
	if tick.Asset == "" || tick.Price <= 0 {
		return
	}
	if tick.TS == 0 {
		tick.TS = time.Now().UnixMilli()
	}

	f.mu.Lock()
	f.latest[tick.Asset] = tick
	f.mu.Unlock()
}

// Compile-time interface check.
var _ domain.PriceFeed = (*WSFeed)(nil)
