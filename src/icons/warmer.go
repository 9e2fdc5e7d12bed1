package icons

import (
	"context"
	"sort"
	"strings"
	"sync/atomic"

	"coin-control/src/interfaces"
	"coin-control/src/logger"
	"coin-control/src/models"
)

// -----------------------------------------------------------------------------
// ThemeStore
//
// Ambient light/dark flag. Which icon variant a consumer shows is decided at
// render time against this store, so a theme toggle takes effect on the next
// draw without re-fetching anything.
// -----------------------------------------------------------------------------

type ThemeStore struct {
	dark atomic.Bool
}

func NewThemeStore(mode string) *ThemeStore {
	t := &ThemeStore{}
	t.Set(mode)
	return t
}

// Set accepts "dark" or "light"; anything else means light.
func (t *ThemeStore) Set(mode string) {
	t.dark.Store(strings.EqualFold(mode, "dark"))
}

func (t *ThemeStore) IsDark() bool {
	return t.dark.Load()
}

func (t *ThemeStore) Mode() string {
	if t.IsDark() {
		return "dark"
	}
	return "light"
}

// -----------------------------------------------------------------------------
// Warmer
//
// Batched icon URL resolution plus fire-and-forget disk cache warming.
// -----------------------------------------------------------------------------

type Warmer struct {
	Gateway interfaces.IIconGateway
	Theme   *ThemeStore
	Logger  *logger.Logger
}

// -----------------------------------------------------------------------------

func NewWarmer(gateway interfaces.IIconGateway, theme *ThemeStore, log *logger.Logger) *Warmer {
	return &Warmer{
		Gateway: gateway,
		Theme:   theme,
		Logger:  log,
	}
}

// -----------------------------------------------------------------------------

// Normalize uppercases, dedupes and sorts a symbol set.
func Normalize(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		u := strings.ToUpper(strings.TrimSpace(s))
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}

// -----------------------------------------------------------------------------

// ResolveIcons resolves entries for the symbol set in exactly one gateway
// call. The result is keyed by uppercase symbol; symbols the backend does not
// know are absent.
func (w *Warmer) ResolveIcons(ctx context.Context, symbols []string) (map[string]models.MIconEntry, error) {
	normalized := Normalize(symbols)
	if len(normalized) == 0 {
		return map[string]models.MIconEntry{}, nil
	}

	entries, err := w.Gateway.ResolveIconURLs(ctx, normalized)
	if err != nil {
		return nil, err
	}

	result := make(map[string]models.MIconEntry, len(entries))
	for _, e := range entries {
		result[strings.ToUpper(e.Coin)] = e
	}
	return result, nil
}

// -----------------------------------------------------------------------------

// Warm asks the backend to populate its local disk cache for the symbols.
// Detached: the caller never waits on it, and its errors are only visible in
// the debug log.
func (w *Warmer) Warm(symbols []string) {
	normalized := Normalize(symbols)
	if len(normalized) == 0 {
		return
	}

	go func() {
		if err := w.Gateway.WarmIconCache(normalized); err != nil {
			w.Logger.Debug("Icon cache warm failed: %v", err)
		}
	}()
}

// -----------------------------------------------------------------------------

// PickURL chooses the display URL for the entry against the current theme:
// preferred variant, then the other variant, then the generic URL.
func (w *Warmer) PickURL(entry models.MIconEntry) string {
	if w.Theme.IsDark() {
		if entry.DarkURL != "" {
			return entry.DarkURL
		}
		if entry.LightURL != "" {
			return entry.LightURL
		}
	} else {
		if entry.LightURL != "" {
			return entry.LightURL
		}
		if entry.DarkURL != "" {
			return entry.DarkURL
		}
	}
	return entry.GenericURL
}
