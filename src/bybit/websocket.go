package bybit

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"coin-control/src/logger"
	"coin-control/src/models"

	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// StreamManager
//
// One persistent websocket to the exchange's public spot stream, shared by all
// subscriptions. Reconnects on read failure; per-symbol subscriber channels
// receive accepted ticks. Slow subscribers are skipped, never blocked on.
// -----------------------------------------------------------------------------

type StreamManager struct {
	url         string
	quote       string
	conn        *websocket.Conn
	subscribers map[string][]chan models.MPriceTick
	mu          sync.RWMutex
	isConnected bool
	ctx         context.Context
	cancel      context.CancelFunc
	Logger      *logger.Logger
}

// -----------------------------------------------------------------------------

func NewStreamManager(cfg *models.MConfig, log *logger.Logger) *StreamManager {
	ctx, cancel := context.WithCancel(context.Background())
	return &StreamManager{
		url:         cfg.Bybit.StreamURL,
		quote:       cfg.Bybit.Quote,
		subscribers: make(map[string][]chan models.MPriceTick),
		ctx:         ctx,
		cancel:      cancel,
		Logger:      log,
	}
}

// -----------------------------------------------------------------------------

// Start launches the connection loop. Call once.
func (sm *StreamManager) Start() {
	go sm.connectionManager()
}

// -----------------------------------------------------------------------------

func (sm *StreamManager) connectionManager() {
	for {
		select {
		case <-sm.ctx.Done():
			return
		default:
			if err := sm.connect(); err != nil {
				sm.Logger.Warning("Stream connection failed: %v", err)
				time.Sleep(5 * time.Second)
				continue
			}
			sm.resubscribeAll()
			sm.handleMessages()
		}
	}
}

// -----------------------------------------------------------------------------

func (sm *StreamManager) connect() error {
	sm.Logger.Debug("Connecting to price stream %s", sm.url)
	conn, _, err := websocket.DefaultDialer.Dial(sm.url, nil)
	if err != nil {
		return err
	}

	sm.mu.Lock()
	sm.conn = conn
	sm.isConnected = true
	sm.mu.Unlock()

	sm.Logger.Info("Price stream connected")
	return nil
}

// -----------------------------------------------------------------------------

// resubscribeAll replays topic subscriptions after a reconnect.
func (sm *StreamManager) resubscribeAll() {
	sm.mu.RLock()
	pairs := make([]string, 0, len(sm.subscribers))
	for pair := range sm.subscribers {
		pairs = append(pairs, pair)
	}
	sm.mu.RUnlock()

	for _, pair := range pairs {
		if err := sm.sendCommand("subscribe", pair); err != nil {
			sm.Logger.Warning("Resubscribe failed for %s: %v", pair, err)
		}
	}
}

// -----------------------------------------------------------------------------

func (sm *StreamManager) handleMessages() {
	defer func() {
		sm.mu.Lock()
		if sm.conn != nil {
			sm.conn.Close()
		}
		sm.isConnected = false
		sm.mu.Unlock()
	}()

	for {
		select {
		case <-sm.ctx.Done():
			return
		default:
			var response tickerStreamResponse
			if err := sm.conn.ReadJSON(&response); err != nil {
				sm.Logger.Warning("Stream read error: %v", err)
				return
			}

			if response.Type == "snapshot" || response.Type == "delta" {
				ts := response.Data.Ts
				if ts == 0 {
					ts = response.TsOuter
				}
				sm.broadcast(models.MPriceTick{
					Symbol:    response.Data.Symbol,
					Price:     response.Data.LastPrice,
					Timestamp: ts,
				})
			}
		}
	}
}

// -----------------------------------------------------------------------------

func (sm *StreamManager) broadcast(tick models.MPriceTick) {
	// The sends are non-blocking, so the read lock can be held across them.
	// Unsubscribe closes channels under the write lock; holding the read lock
	// here keeps a send from racing that close.
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for _, ch := range sm.subscribers[tick.Symbol] {
		select {
		case ch <- tick:
		default:
			// Subscriber is full, skip
		}
	}
}

// -----------------------------------------------------------------------------

// pair maps a base symbol onto the traded spot pair, e.g. BTC -> BTCUSDT.
func (sm *StreamManager) pair(symbol string) string {
	return strings.ToUpper(symbol) + sm.quote
}

// -----------------------------------------------------------------------------

// Subscribe registers a channel for the symbol's ticks and asks the exchange
// to start pushing them.
func (sm *StreamManager) Subscribe(symbol string) (chan models.MPriceTick, error) {
	pair := sm.pair(symbol)
	ch := make(chan models.MPriceTick, 10)

	sm.mu.Lock()
	sm.subscribers[pair] = append(sm.subscribers[pair], ch)
	isConnected := sm.isConnected
	sm.mu.Unlock()

	if isConnected {
		if err := sm.sendCommand("subscribe", pair); err != nil {
			sm.Logger.Warning("Failed to subscribe to %s: %v", pair, err)
			sm.removeSubscriber(pair, ch)
			return nil, err
		}
	}
	// Not connected yet: resubscribeAll replays the topic once the
	// connection loop gets through.

	return ch, nil
}

// -----------------------------------------------------------------------------

// removeSubscriber drops and closes a channel that never became a live
// subscription, so a failed start is not replayed on reconnect.
func (sm *StreamManager) removeSubscriber(pair string, ch chan models.MPriceTick) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	subscribers := sm.subscribers[pair]
	for i, subscriber := range subscribers {
		if subscriber == ch {
			close(ch)
			sm.subscribers[pair] = append(subscribers[:i], subscribers[i+1:]...)
			break
		}
	}
	if len(sm.subscribers[pair]) == 0 {
		delete(sm.subscribers, pair)
	}
}

// -----------------------------------------------------------------------------

// Unsubscribe drops the channel; the last channel for a pair also stops the
// exchange-side topic.
func (sm *StreamManager) Unsubscribe(symbol string, ch chan models.MPriceTick) {
	pair := sm.pair(symbol)

	sm.mu.Lock()
	defer sm.mu.Unlock()

	subscribers := sm.subscribers[pair]
	for i, subscriber := range subscribers {
		if subscriber == ch {
			close(ch)
			sm.subscribers[pair] = append(subscribers[:i], subscribers[i+1:]...)
			break
		}
	}

	if len(sm.subscribers[pair]) == 0 {
		delete(sm.subscribers, pair)
		if sm.isConnected {
			if err := sm.sendCommandLocked("unsubscribe", pair); err != nil {
				sm.Logger.Warning("Failed to unsubscribe from %s: %v", pair, err)
			}
		}
	}
}

// -----------------------------------------------------------------------------

func (sm *StreamManager) sendCommand(op, pair string) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.sendCommandLocked(op, pair)
}

func (sm *StreamManager) sendCommandLocked(op, pair string) error {
	if sm.conn == nil {
		return fmt.Errorf("connection not established")
	}
	return sm.conn.WriteJSON(streamCommand{
		Op:   op,
		Args: []string{"tickers." + pair},
	})
}

// -----------------------------------------------------------------------------

// Close tears down the connection and every subscriber channel.
func (sm *StreamManager) Close() {
	if sm.cancel != nil {
		sm.cancel()
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.conn != nil {
		sm.conn.Close()
	}

	for _, subscribers := range sm.subscribers {
		for _, ch := range subscribers {
			close(ch)
		}
	}
	sm.subscribers = make(map[string][]chan models.MPriceTick)
}
