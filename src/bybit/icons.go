package bybit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"coin-control/src/models"
)

const iconIndexTTL = 24 * time.Hour

// -----------------------------------------------------------------------------
// Icon Index
//
// Symbol -> (dark, light) icon URLs, built in one batched call against the
// exchange's brief-symbol-list endpoint and refreshed at most once per TTL.
// Freshness beyond the TTL is the exchange's problem, not this layer's.
// -----------------------------------------------------------------------------

type iconPair struct {
	dark  string
	light string
}

type iconIndex struct {
	mu        sync.Mutex
	entries   map[string]iconPair
	fetchedAt time.Time
}

// Static fallback for popular coins when the brief list is unreachable.
var basicIcons = map[string]string{
	"BTC":  "https://s2.coinmarketcap.com/static/img/coins/64x64/1.png",
	"ETH":  "https://s2.coinmarketcap.com/static/img/coins/64x64/1027.png",
	"USDT": "https://s2.coinmarketcap.com/static/img/coins/64x64/825.png",
	"BNB":  "https://s2.coinmarketcap.com/static/img/coins/64x64/1839.png",
	"XRP":  "https://s2.coinmarketcap.com/static/img/coins/64x64/52.png",
	"ADA":  "https://s2.coinmarketcap.com/static/img/coins/64x64/2010.png",
	"SOL":  "https://s2.coinmarketcap.com/static/img/coins/64x64/5426.png",
	"LINK": "https://s2.coinmarketcap.com/static/img/coins/64x64/1975.png",
	"AVAX": "https://s2.coinmarketcap.com/static/img/coins/64x64/5805.png",
	"DOGE": "https://s2.coinmarketcap.com/static/img/coins/64x64/74.png",
	"LTC":  "https://s2.coinmarketcap.com/static/img/coins/64x64/2.png",
	"TRX":  "https://s2.coinmarketcap.com/static/img/coins/64x64/1958.png",
	"DOT":  "https://s2.coinmarketcap.com/static/img/coins/64x64/6636.png",
	"ATOM": "https://s2.coinmarketcap.com/static/img/coins/64x64/3794.png",
	"NEAR": "https://s2.coinmarketcap.com/static/img/coins/64x64/6535.png",
}

// -----------------------------------------------------------------------------

// ensure builds or refreshes the index. fetch is injected by the gateway so
// the index stays transport-free.
func (idx *iconIndex) ensure(fetch func() ([]byte, error)) error {
	idx.mu.Lock()
	if idx.entries != nil && time.Since(idx.fetchedAt) < iconIndexTTL {
		idx.mu.Unlock()
		return nil
	}
	idx.mu.Unlock()

	assembled := map[string]iconPair{}
	if body, err := fetch(); err == nil {
		if parsed, perr := parseBriefList(body); perr == nil {
			for k, v := range parsed {
				assembled[k] = v
			}
		}
	}

	// Merge fallback for missing coins (same URL for both variants)
	for coin, u := range basicIcons {
		cu := strings.ToUpper(coin)
		if _, ok := assembled[cu]; !ok {
			assembled[cu] = iconPair{dark: u, light: u}
		}
	}

	if len(assembled) == 0 {
		return fmt.Errorf("no icons available from brief list and fallback")
	}

	idx.mu.Lock()
	idx.entries = assembled
	idx.fetchedAt = time.Now()
	idx.mu.Unlock()
	return nil
}

// -----------------------------------------------------------------------------

// lookup returns the icon entry for an uppercase symbol.
func (idx *iconIndex) lookup(coin string) (models.MIconEntry, bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	pair, ok := idx.entries[coin]
	if !ok {
		return models.MIconEntry{}, false
	}
	return models.MIconEntry{
		Coin:       coin,
		DarkURL:    pair.dark,
		LightURL:   pair.light,
		GenericURL: pair.dark,
	}, true
}

// -----------------------------------------------------------------------------
// Brief List Parsing
// -----------------------------------------------------------------------------

// parseBriefList extracts coin -> icon URLs from the brief-symbol-list
// payload. The endpoint's shape has drifted before, so parsing is defensive:
// result.list, bare list and top-level arrays are all accepted.
func parseBriefList(body []byte) (map[string]iconPair, error) {
	var raw interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}

	items := []interface{}{}
	if m, ok := raw.(map[string]interface{}); ok {
		if r, ok := m["result"]; ok {
			switch t := r.(type) {
			case map[string]interface{}:
				if l, ok := t["list"].([]interface{}); ok {
					items = l
				}
			case []interface{}:
				items = t
			}
		}
		if len(items) == 0 {
			if l, ok := m["list"].([]interface{}); ok {
				items = l
			}
		}
	} else if arr, ok := raw.([]interface{}); ok {
		items = arr
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("no items in brief-symbol-list")
	}

	idx := make(map[string]iconPair, len(items))
	for _, it := range items {
		m, _ := it.(map[string]interface{})
		if m == nil {
			continue
		}

		coin := extractBaseCoin(m)
		if coin == "" {
			continue
		}

		dark := stringField(m, "di", "darkIcon", "darkIconUrl")
		light := stringField(m, "li", "lightIcon", "lightIconUrl")
		if dark == "" && light == "" {
			continue
		}
		if dark == "" {
			dark = light
		}
		if light == "" {
			light = dark
		}

		cu := strings.ToUpper(coin)
		if _, exists := idx[cu]; !exists {
			idx[cu] = iconPair{dark: dark, light: light}
		}
	}
	return idx, nil
}

// -----------------------------------------------------------------------------

func extractBaseCoin(m map[string]interface{}) string {
	for _, k := range []string{"baseCoin", "base", "bc", "coin"} {
		if v, ok := m[k]; ok {
			s := strings.ToUpper(fmt.Sprintf("%v", v))
			if s != "" && s != "<NIL>" {
				return s
			}
		}
	}

	// Derive from the pair symbol by stripping the quote coin
	sym := fmt.Sprintf("%v", m["symbol"])
	if sym == "" || sym == "<nil>" {
		return ""
	}
	us := strings.ToUpper(sym)
	if q, ok := m["quoteCoin"]; ok {
		qs := strings.ToUpper(fmt.Sprintf("%v", q))
		if qs != "" && strings.HasSuffix(us, qs) {
			return strings.TrimSuffix(us, qs)
		}
	}
	for _, suf := range []string{"USDT", "USDC", "USD", "BTC", "ETH"} {
		if strings.HasSuffix(us, suf) {
			return strings.TrimSuffix(us, suf)
		}
	}
	return ""
}

// -----------------------------------------------------------------------------

func stringField(m map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			s := fmt.Sprintf("%v", v)
			if s != "" && s != "<nil>" {
				return s
			}
		}
	}
	return ""
}

// -----------------------------------------------------------------------------
// Disk Cache
// -----------------------------------------------------------------------------

// cacheFileName maps an icon URL to its on-disk name inside the cache dir.
func cacheFileName(coin, variant, rawURL string) string {
	ext := filepath.Ext(rawURL)
	if ext == "" || len(ext) > 5 {
		ext = ".png"
	}
	return strings.ToLower(coin) + "_" + variant + ext
}

// -----------------------------------------------------------------------------

func writeCacheFile(dir, name string, data []byte) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, name), data, 0644)
}
