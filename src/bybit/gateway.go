package bybit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"coin-control/src/helpers"
	"coin-control/src/interfaces"
	"coin-control/src/logger"
	"coin-control/src/models"
	"coin-control/src/network"
)

const recvWindow = "5000"

// -----------------------------------------------------------------------------
// Gateway
//
// Exchange collaborator behind the client core: REST for balances, prices and
// icon URLs, websocket for push streams. Price updates are re-emitted on the
// event bus under the symbol's stream key.
// -----------------------------------------------------------------------------

type Gateway struct {
	Config *models.MConfig
	Net    *network.Manager
	Stream *StreamManager
	Bus    interfaces.IEventBus
	Logger *logger.Logger

	icons iconIndex

	mu      sync.Mutex
	streams map[string]chan models.MPriceTick
}

// -----------------------------------------------------------------------------

func NewGateway(cfg *models.MConfig, net *network.Manager, stream *StreamManager, bus interfaces.IEventBus, log *logger.Logger) *Gateway {
	return &Gateway{
		Config:  cfg,
		Net:     net,
		Stream:  stream,
		Bus:     bus,
		Logger:  log,
		streams: make(map[string]chan models.MPriceTick),
	}
}

// -----------------------------------------------------------------------------
// Holdings
// -----------------------------------------------------------------------------

// FetchHoldings returns the account's balances in the order the exchange
// reports them. No filtering happens here.
func (g *Gateway) FetchHoldings(ctx context.Context, userID string) ([]models.MHolding, error) {
	params := url.Values{}
	params.Set("accountType", "FUND")

	body, err := g.doSignedGet(ctx, "/v5/asset/transfer/query-account-coins-balance", params)
	if err != nil {
		return nil, helpers.NewBackendUnavailable("holdings request failed", err)
	}

	var resp walletBalanceResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, helpers.NewBackendUnavailable("holdings response parse failed", err)
	}
	if resp.RetCode != 0 {
		return nil, helpers.NewBackendUnavailable(fmt.Sprintf("holdings request rejected: %s", resp.RetMsg), nil)
	}

	holdings := make([]models.MHolding, 0, len(resp.Result.Balance))
	for _, b := range resp.Result.Balance {
		free := b.TransferBalance
		if free == "" {
			free = b.WalletBalance
		}
		holdings = append(holdings, models.MHolding{
			Coin:   strings.ToUpper(b.Coin),
			Free:   free,
			Locked: b.Locked,
		})
	}

	return holdings, nil
}

// -----------------------------------------------------------------------------
// Prices
// -----------------------------------------------------------------------------

// GetCurrentPrice fetches the last traded spot price as a decimal string.
func (g *Gateway) GetCurrentPrice(ctx context.Context, symbol string) (string, error) {
	pair := strings.ToUpper(symbol) + g.Config.Bybit.Quote

	body, err := g.Net.Get(g.Config.Bybit.RestURL+"/v5/market/tickers", map[string]string{
		"category": "spot",
		"symbol":   pair,
	})
	if err != nil {
		return "", helpers.NewDataUnavailable("price request failed", err)
	}

	var resp tickerPriceResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", helpers.NewDataUnavailable("price response parse failed", err)
	}
	if resp.RetCode != 0 || len(resp.Result.List) == 0 {
		return "", helpers.NewDataUnavailable(fmt.Sprintf("no ticker for %s", pair), nil)
	}

	return resp.Result.List[0].LastPrice, nil
}

// -----------------------------------------------------------------------------
// Streams
// -----------------------------------------------------------------------------

// StartPriceStream subscribes to the symbol's push stream and bridges its
// ticks onto the event bus. Starting an already-running stream is a no-op.
func (g *Gateway) StartPriceStream(symbol string) error {
	key := strings.ToUpper(symbol)

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.streams[key]; exists {
		return nil
	}

	ch, err := g.Stream.Subscribe(symbol)
	if err != nil {
		return helpers.NewBackendUnavailable("stream subscribe failed", err)
	}

	g.streams[key] = ch
	go g.pumpPriceUpdates(symbol, ch)

	return nil
}

// -----------------------------------------------------------------------------

// StopPriceStream tears down the symbol's stream. Idempotent.
func (g *Gateway) StopPriceStream(symbol string) error {
	key := strings.ToUpper(symbol)

	g.mu.Lock()
	defer g.mu.Unlock()

	if ch, exists := g.streams[key]; exists {
		g.Stream.Unsubscribe(symbol, ch)
		delete(g.streams, key)
	}
	return nil
}

// -----------------------------------------------------------------------------

// pumpPriceUpdates forwards accepted ticks to the bus. The topic is derived
// from the symbol the caller subscribed with, not from the exchange payload,
// so emitter and listener always agree on the key.
func (g *Gateway) pumpPriceUpdates(symbol string, ch chan models.MPriceTick) {
	topic := models.PriceTopic(symbol)
	coin := strings.ToLower(symbol)

	for tick := range ch {
		if tick.Price == "" {
			continue
		}
		g.Bus.Emit(topic, map[string]interface{}{
			"symbol": coin,
			"price":  tick.Price,
		})
	}
}

// -----------------------------------------------------------------------------
// Icons
// -----------------------------------------------------------------------------

// ResolveIconURLs resolves icon URLs for the symbols in one batched index
// lookup. Symbols without an entry are simply absent from the result.
func (g *Gateway) ResolveIconURLs(ctx context.Context, symbols []string) ([]models.MIconEntry, error) {
	err := g.icons.ensure(func() ([]byte, error) {
		return g.Net.Get(g.Config.Bybit.RestURL+"/x-api/contract/v5/product/brief-symbol-list", nil)
	})
	if err != nil {
		return nil, helpers.NewDataUnavailable("icon index unavailable", err)
	}

	entries := make([]models.MIconEntry, 0, len(symbols))
	for _, sym := range symbols {
		if entry, ok := g.icons.lookup(strings.ToUpper(sym)); ok {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// -----------------------------------------------------------------------------

// WarmIconCache downloads both icon variants for each symbol into the local
// disk cache. Best-effort: failures are logged at debug and swallowed.
func (g *Gateway) WarmIconCache(symbols []string) error {
	dir := g.Config.Storage.IconCacheDir
	if dir == "" {
		return nil
	}

	entries, err := g.ResolveIconURLs(context.Background(), symbols)
	if err != nil {
		g.Logger.Debug("Icon warm skipped: %v", err)
		return nil
	}

	for _, entry := range entries {
		for variant, rawURL := range map[string]string{"dark": entry.DarkURL, "light": entry.LightURL} {
			if rawURL == "" {
				continue
			}
			name := cacheFileName(entry.Coin, variant, rawURL)
			if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
				continue
			}
			data, err := g.Net.Get(rawURL, nil)
			if err != nil {
				g.Logger.Debug("Icon fetch failed for %s: %v", entry.Coin, err)
				continue
			}
			if err := writeCacheFile(dir, name, data); err != nil {
				g.Logger.Debug("Icon cache write failed for %s: %v", entry.Coin, err)
			}
		}
	}
	return nil
}

// -----------------------------------------------------------------------------
// Signed Requests
// -----------------------------------------------------------------------------

// doSignedGet performs an authenticated v5 GET with the account API keys.
// Each retry attempt re-signs with a fresh timestamp.
func (g *Gateway) doSignedGet(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	attempts := g.Config.Network.MaxRetries + 1

	res, err := helpers.RetryWithBackoff("signed exchange request", attempts, time.Second, func() (interface{}, error) {
		return g.signedGetOnce(ctx, endpoint, params)
	})
	if err != nil {
		return nil, err
	}
	return res.([]byte), nil
}

// -----------------------------------------------------------------------------

func (g *Gateway) signedGetOnce(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	apiKey := g.Config.Bybit.APIKey
	apiSecret := g.Config.Bybit.APISecret
	if apiKey == "" || apiSecret == "" {
		return nil, fmt.Errorf("exchange API credentials not configured")
	}

	timestamp := strconv.FormatInt(time.Now().UnixMilli(), 10)
	sign := signV5(apiKey, apiSecret, params, timestamp, recvWindow)

	reqURL := g.Config.Bybit.RestURL + endpoint
	if encoded := params.Encode(); encoded != "" {
		reqURL += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-BAPI-API-KEY", apiKey)
	req.Header.Set("X-BAPI-TIMESTAMP", timestamp)
	req.Header.Set("X-BAPI-RECV-WINDOW", recvWindow)
	req.Header.Set("X-BAPI-SIGN", sign)

	resp, err := g.Net.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("bad status %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}
