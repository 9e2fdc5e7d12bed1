package pricefeed

import (
	"context"
	"strings"
	"sync"
	"time"

	"coin-control/src/helpers"
	"coin-control/src/icons"
	"coin-control/src/interfaces"
	"coin-control/src/logger"
	"coin-control/src/models"
	"coin-control/src/utils"

	"github.com/shopspring/decimal"
)

const historyCapacity = 120

// -----------------------------------------------------------------------------
// Manager
//
// One live price subscription per consumer context. Changing focus always
// tears the previous subscription down - cancel the handler, then stop the
// remote stream - before anything starts for the new symbol. Inbound updates
// are gated by stream key and generation, so a late event for a symbol the
// user already left can never touch the current slot.
// -----------------------------------------------------------------------------

type Manager struct {
	Market  interfaces.IMarketGateway
	Warmer  *icons.Warmer
	Bus     interfaces.IEventBus
	Session interfaces.ISessionReader
	Logger  *logger.Logger

	mu         sync.Mutex
	slot       *subscription
	generation int
}

// -----------------------------------------------------------------------------

// subscription is the single slot: the focused symbol and everything known
// about its stream.
type subscription struct {
	symbol     string
	topic      string
	generation int
	state      models.StreamState
	handle     interfaces.IEventHandle
	icon       models.MIconEntry
	hasIcon    bool
	price      string
	available  bool
	lastUpdate int64
	history    *utils.RingBuffer
}

// -----------------------------------------------------------------------------

func NewManager(market interfaces.IMarketGateway, warmer *icons.Warmer, bus interfaces.IEventBus, session interfaces.ISessionReader, log *logger.Logger) *Manager {
	return &Manager{
		Market:  market,
		Warmer:  warmer,
		Bus:     bus,
		Session: session,
		Logger:  log,
	}
}

// -----------------------------------------------------------------------------
// Focus
// -----------------------------------------------------------------------------

// Focus subscribes to the symbol, replacing whatever was focused before.
// Re-focusing the current symbol restarts it, which is also the manual retry
// path after a failed snapshot fetch.
func (m *Manager) Focus(ctx context.Context, symbol string) error {
	snap := m.Session.Snapshot()
	if snap.Loading {
		return helpers.NewBackendUnavailable("session still validating", nil)
	}
	if !snap.Authenticated() {
		return helpers.NewAuthenticationFailed("not authenticated", nil)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.teardownLocked()

	m.generation++
	sub := &subscription{
		symbol:     symbol,
		topic:      models.PriceTopic(symbol),
		generation: m.generation,
		state:      models.StreamStarting,
		price:      models.PriceUnavailable,
		history:    utils.NewRingBuffer(historyCapacity),
	}
	m.slot = sub

	// Display icon, theme variant picked later at render time.
	if resolved, err := m.Warmer.ResolveIcons(ctx, []string{symbol}); err == nil {
		if entry, ok := resolved[strings.ToUpper(strings.TrimSpace(symbol))]; ok {
			sub.icon = entry
			sub.hasIcon = true
		}
	} else {
		m.Logger.Debug("Icon resolve failed for %s: %v", symbol, err)
	}

	// Initial snapshot before the stream goes live. A failure shows the
	// unavailable marker; the consumer retries by re-focusing.
	if price, err := m.Market.GetCurrentPrice(ctx, symbol); err == nil {
		if d, derr := decimal.NewFromString(price); derr == nil && d.IsPositive() {
			sub.price = price
			sub.available = true
			sub.lastUpdate = time.Now().UnixMilli()
		}
	} else {
		m.Logger.Info("Initial price fetch failed for %s: %v", symbol, err)
	}

	if err := m.Market.StartPriceStream(symbol); err != nil {
		m.Logger.Warning("Stream start failed for %s: %v", symbol, err)
		return helpers.NewDataUnavailable("price stream unavailable", err)
	}

	gen := sub.generation
	topic := sub.topic
	sub.handle = m.Bus.Subscribe(topic, func(payload interface{}) {
		m.handleUpdate(topic, gen, payload)
	})
	sub.state = models.StreamLive

	return nil
}

// -----------------------------------------------------------------------------
// Updates
// -----------------------------------------------------------------------------

// handleUpdate applies one inbound event to the slot, provided the event's
// key and generation still match the active subscription.
func (m *Manager) handleUpdate(topic string, generation int, payload interface{}) {
	price, ok := extractPrice(payload)
	if !ok {
		// Bad or non-positive value: keep the last good one.
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	sub := m.slot
	if sub == nil || sub.generation != generation || sub.topic != topic {
		return
	}
	if sub.state != models.StreamLive {
		return
	}

	sub.price = price
	sub.available = true
	sub.lastUpdate = time.Now().UnixMilli()
	sub.history.Append(models.MPriceTick{
		Symbol:    sub.symbol,
		Price:     price,
		Timestamp: sub.lastUpdate,
	})
}

// -----------------------------------------------------------------------------

// extractPrice accepts the two payload shapes the backend may send - a map
// with a price field or a bare price value - and validates the number.
// Returns false for anything unparsable or non-positive.
func extractPrice(payload interface{}) (string, bool) {
	var raw string

	switch v := payload.(type) {
	case map[string]interface{}:
		switch p := v["price"].(type) {
		case string:
			raw = p
		case float64:
			raw = decimal.NewFromFloat(p).String()
		default:
			return "", false
		}
	case string:
		raw = v
	case models.MPriceTick:
		raw = v.Price
	default:
		return "", false
	}

	d, err := decimal.NewFromString(raw)
	if err != nil || !d.IsPositive() {
		return "", false
	}
	return raw, true
}

// -----------------------------------------------------------------------------
// Reads
// -----------------------------------------------------------------------------

// Quote returns the render snapshot for the focused asset, or nil when
// nothing is focused. The icon URL is picked against the current theme here,
// at read time.
func (m *Manager) Quote() *models.MAssetQuote {
	m.mu.Lock()
	defer m.mu.Unlock()

	sub := m.slot
	if sub == nil {
		return nil
	}

	quote := &models.MAssetQuote{
		Symbol:     sub.symbol,
		State:      sub.state,
		Price:      sub.price,
		LastUpdate: sub.lastUpdate,
		History:    sub.history.GetAll(),
	}
	if !sub.available {
		quote.Price = models.PriceUnavailable
	}
	if sub.hasIcon {
		quote.IconURL = m.Warmer.PickURL(sub.icon)
	}
	return quote
}

// -----------------------------------------------------------------------------
// Teardown
// -----------------------------------------------------------------------------

// Dispose tears down the active subscription. Idempotent; disposing an empty
// manager is a no-op.
func (m *Manager) Dispose() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teardownLocked()
}

// -----------------------------------------------------------------------------

// teardownLocked unregisters the update handler, then asks the backend to
// stop the previous symbol's stream - in that order. The remote stop is
// best-effort: a failure is logged and the slot still reaches Stopped, the
// caller never hangs on network teardown.
func (m *Manager) teardownLocked() {
	sub := m.slot
	if sub == nil {
		return
	}

	sub.state = models.StreamStopping

	if sub.handle != nil {
		sub.handle.Cancel()
	}
	if err := m.Market.StopPriceStream(sub.symbol); err != nil {
		m.Logger.Warning("Stream stop failed for %s: %v", sub.symbol, err)
	}

	sub.state = models.StreamStopped
	m.slot = nil
}
