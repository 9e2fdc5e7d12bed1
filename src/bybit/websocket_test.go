package bybit

import (
	"testing"

	"coin-control/src/logger"
	"coin-control/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------

func newTestStreamManager() *StreamManager {
	cfg := &models.MConfig{
		Bybit: models.MBybitConfig{
			StreamURL: "wss://stream.example.test/v5/public/spot",
			Quote:     "USDT",
		},
	}
	return NewStreamManager(cfg, logger.NewLogger("ERROR", "test"))
}

// -----------------------------------------------------------------------------

func TestSubscribeAndUnsubscribe(t *testing.T) {
	sm := newTestStreamManager()

	ch, err := sm.Subscribe("BTC")
	require.NoError(t, err)
	require.NotNil(t, ch)

	sm.mu.RLock()
	assert.Len(t, sm.subscribers["BTCUSDT"], 1)
	sm.mu.RUnlock()

	sm.Unsubscribe("BTC", ch)

	sm.mu.RLock()
	assert.Empty(t, sm.subscribers)
	sm.mu.RUnlock()

	// Unsubscribe closed the channel
	_, open := <-ch
	assert.False(t, open)
}

// -----------------------------------------------------------------------------

// Ticks keep arriving while a subscriber leaves. A send must never hit a
// channel that Unsubscribe already closed.
func TestBroadcastDuringUnsubscribeDoesNotPanic(t *testing.T) {
	sm := newTestStreamManager()
	tick := models.MPriceTick{Symbol: "BTCUSDT", Price: "100", Timestamp: 1}

	for i := 0; i < 1000; i++ {
		ch, err := sm.Subscribe("BTC")
		require.NoError(t, err)

		done := make(chan struct{})
		go func() {
			for j := 0; j < 50; j++ {
				sm.broadcast(tick)
			}
			close(done)
		}()

		sm.Unsubscribe("BTC", ch)
		<-done
	}
}

// -----------------------------------------------------------------------------

func TestBroadcastSkipsFullSubscribers(t *testing.T) {
	sm := newTestStreamManager()

	ch, err := sm.Subscribe("BTC")
	require.NoError(t, err)

	// Overfill the buffer; the extra sends are dropped, never blocked on
	for i := 0; i < 50; i++ {
		sm.broadcast(models.MPriceTick{Symbol: "BTCUSDT", Price: "100", Timestamp: int64(i)})
	}

	assert.Equal(t, cap(ch), len(ch))
	sm.Unsubscribe("BTC", ch)
}

// -----------------------------------------------------------------------------

// A subscribe command that fails must not leave the channel registered, or a
// reconnect would replay a subscription nobody holds.
func TestSubscribeFailureLeavesNoRegistration(t *testing.T) {
	sm := newTestStreamManager()

	// Connected but with no live conn, so the command write fails
	sm.mu.Lock()
	sm.isConnected = true
	sm.mu.Unlock()

	ch, err := sm.Subscribe("BTC")
	require.Error(t, err)
	assert.Nil(t, ch)

	sm.mu.RLock()
	assert.Empty(t, sm.subscribers)
	sm.mu.RUnlock()
}
