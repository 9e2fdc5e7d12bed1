package bybit

import (
	"encoding/json"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------

func TestSignV5IsCanonical(t *testing.T) {
	a := url.Values{}
	a.Set("symbol", "BTCUSDT")
	a.Set("category", "spot")

	b := url.Values{}
	b.Set("category", "spot")
	b.Set("symbol", "BTCUSDT")

	// Same parameters sign identically regardless of construction order
	sigA := signV5("key", "secret", a, "1700000000000", "5000")
	sigB := signV5("key", "secret", b, "1700000000000", "5000")
	assert.Equal(t, sigA, sigB)
	assert.Len(t, sigA, 64)

	// Anything in the payload changes the signature
	assert.NotEqual(t, sigA, signV5("key", "other", a, "1700000000000", "5000"))
	assert.NotEqual(t, sigA, signV5("key", "secret", a, "1700000000001", "5000"))
}

// -----------------------------------------------------------------------------

func TestTickerStreamResponseDecoding(t *testing.T) {
	body := []byte(`{
		"topic": "tickers.BTCUSDT",
		"type": "snapshot",
		"data": {"symbol": "BTCUSDT", "lastPrice": "50123.5", "ts": 1700000000123},
		"ts": 1700000000125
	}`)

	var msg tickerStreamResponse
	require.NoError(t, json.Unmarshal(body, &msg))

	assert.Equal(t, "tickers.BTCUSDT", msg.Topic)
	assert.Equal(t, "50123.5", msg.Data.LastPrice)
	assert.Equal(t, int64(1700000000123), msg.Data.Ts)
}
