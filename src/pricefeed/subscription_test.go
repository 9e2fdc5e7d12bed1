package pricefeed

import (
	"context"
	"testing"

	"coin-control/src/events"
	"coin-control/src/helpers"
	"coin-control/src/icons"
	"coin-control/src/logger"
	"coin-control/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------
// Fakes
// -----------------------------------------------------------------------------

type fakeMarket struct {
	price    string
	priceErr error
	startErr error
	stopErr  error
	calls    []string
}

func (f *fakeMarket) FetchHoldings(context.Context, string) ([]models.MHolding, error) {
	return nil, nil
}

func (f *fakeMarket) GetCurrentPrice(_ context.Context, symbol string) (string, error) {
	f.calls = append(f.calls, "price:"+symbol)
	if f.priceErr != nil {
		return "", f.priceErr
	}
	return f.price, nil
}

func (f *fakeMarket) StartPriceStream(symbol string) error {
	f.calls = append(f.calls, "start:"+symbol)
	return f.startErr
}

func (f *fakeMarket) StopPriceStream(symbol string) error {
	f.calls = append(f.calls, "stop:"+symbol)
	return f.stopErr
}

// -----------------------------------------------------------------------------

type fakeIcons struct{}

func (fakeIcons) ResolveIconURLs(_ context.Context, symbols []string) ([]models.MIconEntry, error) {
	entries := make([]models.MIconEntry, 0, len(symbols))
	for _, s := range symbols {
		entries = append(entries, models.MIconEntry{
			Coin:     s,
			LightURL: "https://icons/" + s + "-light.png",
			DarkURL:  "https://icons/" + s + "-dark.png",
		})
	}
	return entries, nil
}

func (fakeIcons) WarmIconCache([]string) error { return nil }

// -----------------------------------------------------------------------------

type fixedSession struct {
	snap models.MSessionSnapshot
}

func (s fixedSession) Snapshot() models.MSessionSnapshot { return s.snap }

func authenticatedSession() fixedSession {
	return fixedSession{snap: models.MSessionSnapshot{
		State:   models.SessionAuthenticated,
		Session: &models.MSession{UserID: "u1", Nickname: "alice"},
	}}
}

// -----------------------------------------------------------------------------

func newTestFeed(market *fakeMarket) (*Manager, *events.Bus) {
	log := logger.NewLogger("ERROR", "test")
	bus := events.NewBus()
	warmer := icons.NewWarmer(fakeIcons{}, icons.NewThemeStore("light"), log)
	return NewManager(market, warmer, bus, authenticatedSession(), log), bus
}

// -----------------------------------------------------------------------------
// Focus
// -----------------------------------------------------------------------------

func TestFocusProducesLiveQuote(t *testing.T) {
	market := &fakeMarket{price: "50000.5"}
	feed, _ := newTestFeed(market)

	require.NoError(t, feed.Focus(context.Background(), "BTC"))

	quote := feed.Quote()
	require.NotNil(t, quote)
	assert.Equal(t, "BTC", quote.Symbol)
	assert.Equal(t, models.StreamLive, quote.State)
	assert.Equal(t, "50000.5", quote.Price)
	assert.Equal(t, "https://icons/BTC-light.png", quote.IconURL)
}

// -----------------------------------------------------------------------------

func TestFocusRequiresAuthentication(t *testing.T) {
	market := &fakeMarket{price: "1"}
	feed, _ := newTestFeed(market)
	feed.Session = fixedSession{snap: models.MSessionSnapshot{State: models.SessionAnonymous}}

	err := feed.Focus(context.Background(), "BTC")
	assert.True(t, helpers.IsAuthenticationFailed(err))
	assert.Empty(t, market.calls)
}

// -----------------------------------------------------------------------------

func TestRefocusStopsOldStreamBeforeStartingNew(t *testing.T) {
	market := &fakeMarket{price: "1"}
	feed, _ := newTestFeed(market)

	require.NoError(t, feed.Focus(context.Background(), "BTC"))
	require.NoError(t, feed.Focus(context.Background(), "ETH"))
	require.NoError(t, feed.Focus(context.Background(), "BTC"))

	indexOf := func(call string) int {
		for i, c := range market.calls {
			if c == call {
				return i
			}
		}
		return -1
	}

	// The old stream is always stopped before the next one starts
	require.GreaterOrEqual(t, indexOf("stop:BTC"), 0)
	assert.Less(t, indexOf("stop:BTC"), indexOf("start:ETH"))

	lastStartBTC := -1
	for i, c := range market.calls {
		if c == "start:BTC" {
			lastStartBTC = i
		}
	}
	require.GreaterOrEqual(t, indexOf("stop:ETH"), 0)
	assert.Less(t, indexOf("stop:ETH"), lastStartBTC)
}

// -----------------------------------------------------------------------------

func TestRefocusSurvivesTeardownFailure(t *testing.T) {
	market := &fakeMarket{price: "1", stopErr: helpers.NewBackendUnavailable("stream gone", nil)}
	feed, _ := newTestFeed(market)

	require.NoError(t, feed.Focus(context.Background(), "BTC"))
	require.NoError(t, feed.Focus(context.Background(), "ETH"))

	assert.Equal(t, "ETH", feed.Quote().Symbol)
}

// -----------------------------------------------------------------------------

func TestFocusWithFailedSnapshotShowsUnavailable(t *testing.T) {
	market := &fakeMarket{priceErr: helpers.NewDataUnavailable("no price", nil)}
	feed, _ := newTestFeed(market)

	require.NoError(t, feed.Focus(context.Background(), "BTC"))

	quote := feed.Quote()
	require.NotNil(t, quote)
	assert.Equal(t, models.PriceUnavailable, quote.Price)
	assert.Equal(t, models.StreamLive, quote.State)
}

// -----------------------------------------------------------------------------
// Updates
// -----------------------------------------------------------------------------

func TestUpdateAcceptsBothPayloadShapes(t *testing.T) {
	market := &fakeMarket{price: "100"}
	feed, bus := newTestFeed(market)
	require.NoError(t, feed.Focus(context.Background(), "BTC"))

	topic := models.PriceTopic("BTC")

	bus.Emit(topic, map[string]interface{}{"symbol": "btc", "price": "101.5"})
	assert.Equal(t, "101.5", feed.Quote().Price)

	bus.Emit(topic, "102.25")
	assert.Equal(t, "102.25", feed.Quote().Price)
}

// -----------------------------------------------------------------------------

func TestUpdateIgnoresBadPrices(t *testing.T) {
	market := &fakeMarket{price: "100"}
	feed, bus := newTestFeed(market)
	require.NoError(t, feed.Focus(context.Background(), "BTC"))

	topic := models.PriceTopic("BTC")
	bus.Emit(topic, "0")
	bus.Emit(topic, "-5")
	bus.Emit(topic, "not-a-number")
	bus.Emit(topic, map[string]interface{}{"price": 0.0})

	// The last good value stays on screen
	assert.Equal(t, "100", feed.Quote().Price)
}

// -----------------------------------------------------------------------------

func TestStaleUpdateAfterRefocusIsDropped(t *testing.T) {
	market := &fakeMarket{price: "100"}
	feed, bus := newTestFeed(market)

	require.NoError(t, feed.Focus(context.Background(), "BTC"))
	require.NoError(t, feed.Focus(context.Background(), "ETH"))

	// A late event for the abandoned symbol must not leak into the new slot
	bus.Emit(models.PriceTopic("BTC"), "999")

	quote := feed.Quote()
	assert.Equal(t, "ETH", quote.Symbol)
	assert.Equal(t, "100", quote.Price)
}

// -----------------------------------------------------------------------------

func TestUpdatesAccumulateHistory(t *testing.T) {
	market := &fakeMarket{price: "100"}
	feed, bus := newTestFeed(market)
	require.NoError(t, feed.Focus(context.Background(), "BTC"))

	topic := models.PriceTopic("BTC")
	bus.Emit(topic, "101")
	bus.Emit(topic, "102")

	quote := feed.Quote()
	require.Len(t, quote.History, 2)
	assert.Equal(t, "101", quote.History[0].Price)
	assert.Equal(t, "102", quote.History[1].Price)
}

// -----------------------------------------------------------------------------
// Theme
// -----------------------------------------------------------------------------

func TestQuoteIconFollowsThemeAtReadTime(t *testing.T) {
	market := &fakeMarket{price: "100"}
	feed, _ := newTestFeed(market)
	require.NoError(t, feed.Focus(context.Background(), "BTC"))

	assert.Equal(t, "https://icons/BTC-light.png", feed.Quote().IconURL)

	// No re-fetch needed, the next read picks the other variant
	feed.Warmer.Theme.Set("dark")
	assert.Equal(t, "https://icons/BTC-dark.png", feed.Quote().IconURL)
}

// -----------------------------------------------------------------------------
// Dispose
// -----------------------------------------------------------------------------

func TestDisposeStopsStreamAndIsIdempotent(t *testing.T) {
	market := &fakeMarket{price: "100"}
	feed, bus := newTestFeed(market)
	require.NoError(t, feed.Focus(context.Background(), "BTC"))

	feed.Dispose()
	assert.Contains(t, market.calls, "stop:BTC")
	assert.Nil(t, feed.Quote())

	// Events after disposal hit nothing
	bus.Emit(models.PriceTopic("BTC"), "200")
	assert.Nil(t, feed.Quote())

	calls := len(market.calls)
	feed.Dispose()
	assert.Equal(t, calls, len(market.calls))
}
