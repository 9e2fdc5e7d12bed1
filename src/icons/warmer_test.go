package icons

import (
	"context"
	"testing"
	"time"

	"coin-control/src/logger"
	"coin-control/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------
// Fakes
// -----------------------------------------------------------------------------

type recordingGateway struct {
	resolveCalls [][]string
	warmCalls    chan []string
	block        chan struct{}
}

func (g *recordingGateway) ResolveIconURLs(_ context.Context, symbols []string) ([]models.MIconEntry, error) {
	g.resolveCalls = append(g.resolveCalls, symbols)

	entries := make([]models.MIconEntry, 0, len(symbols))
	for _, s := range symbols {
		entries = append(entries, models.MIconEntry{Coin: s, LightURL: s + "-light", DarkURL: s + "-dark"})
	}
	return entries, nil
}

func (g *recordingGateway) WarmIconCache(symbols []string) error {
	if g.block != nil {
		<-g.block
	}
	if g.warmCalls != nil {
		g.warmCalls <- symbols
	}
	return nil
}

// -----------------------------------------------------------------------------

func newTestWarmer(gateway *recordingGateway, theme string) *Warmer {
	return NewWarmer(gateway, NewThemeStore(theme), logger.NewLogger("ERROR", "test"))
}

// -----------------------------------------------------------------------------
// Normalize
// -----------------------------------------------------------------------------

func TestNormalizeDedupesAndSorts(t *testing.T) {
	got := Normalize([]string{"eth", "BTC", "btc", " xrp ", ""})
	assert.Equal(t, []string{"BTC", "ETH", "XRP"}, got)
}

// -----------------------------------------------------------------------------
// ResolveIcons
// -----------------------------------------------------------------------------

func TestResolveIconsBatchesIntoOneCall(t *testing.T) {
	gateway := &recordingGateway{}
	warmer := newTestWarmer(gateway, "light")

	resolved, err := warmer.ResolveIcons(context.Background(), []string{"BTC", "eth", "BTC"})
	require.NoError(t, err)

	require.Len(t, gateway.resolveCalls, 1)
	assert.Equal(t, []string{"BTC", "ETH"}, gateway.resolveCalls[0])

	require.Len(t, resolved, 2)
	assert.Equal(t, "BTC-light", resolved["BTC"].LightURL)
}

// -----------------------------------------------------------------------------

func TestResolveIconsEmptySetSkipsGateway(t *testing.T) {
	gateway := &recordingGateway{}
	warmer := newTestWarmer(gateway, "light")

	resolved, err := warmer.ResolveIcons(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, resolved)
	assert.Empty(t, gateway.resolveCalls)
}

// -----------------------------------------------------------------------------
// Warm
// -----------------------------------------------------------------------------

func TestWarmNeverBlocksTheCaller(t *testing.T) {
	gateway := &recordingGateway{
		warmCalls: make(chan []string, 1),
		block:     make(chan struct{}),
	}
	warmer := newTestWarmer(gateway, "light")

	done := make(chan struct{})
	go func() {
		// Must return immediately even though the gateway is stuck
		warmer.Warm([]string{"BTC", "ETH"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Warm blocked on a slow gateway")
	}

	close(gateway.block)
	select {
	case symbols := <-gateway.warmCalls:
		assert.Equal(t, []string{"BTC", "ETH"}, symbols)
	case <-time.After(time.Second):
		t.Fatal("warm call never reached the gateway")
	}
}

// -----------------------------------------------------------------------------
// PickURL
// -----------------------------------------------------------------------------

func TestPickURLFollowsTheme(t *testing.T) {
	entry := models.MIconEntry{LightURL: "light.png", DarkURL: "dark.png", GenericURL: "generic.png"}

	warmer := newTestWarmer(&recordingGateway{}, "light")
	assert.Equal(t, "light.png", warmer.PickURL(entry))

	warmer.Theme.Set("dark")
	assert.Equal(t, "dark.png", warmer.PickURL(entry))
}

// -----------------------------------------------------------------------------

func TestPickURLFallsBackAcrossVariants(t *testing.T) {
	warmer := newTestWarmer(&recordingGateway{}, "dark")

	// Missing preferred variant falls back to the other, then to generic
	assert.Equal(t, "light.png", warmer.PickURL(models.MIconEntry{LightURL: "light.png", GenericURL: "generic.png"}))
	assert.Equal(t, "generic.png", warmer.PickURL(models.MIconEntry{GenericURL: "generic.png"}))
	assert.Equal(t, "", warmer.PickURL(models.MIconEntry{}))
}
