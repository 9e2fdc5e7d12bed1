package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"coin-control/src/events"
	"coin-control/src/helpers"
	"coin-control/src/holdings"
	"coin-control/src/icons"
	"coin-control/src/logger"
	"coin-control/src/models"
	"coin-control/src/pricefeed"
	"coin-control/src/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------
// Fakes
// -----------------------------------------------------------------------------

type fakeAuth struct{}

func (fakeAuth) ValidateToken(string) (*models.MClaims, error) {
	return nil, helpers.NewInvalidCredential("no token", nil)
}

func (fakeAuth) GetIdentityByID(context.Context, string) (*models.MIdentity, error) {
	return nil, helpers.NewInvalidCredential("not found", nil)
}

func (fakeAuth) Login(_ context.Context, nickname, password string) (*models.MIdentity, string, error) {
	if nickname == "alice" && password == "secret" {
		return &models.MIdentity{ID: "a1", Nickname: "alice", UserID: "u1"}, "tok1", nil
	}
	return nil, "", helpers.NewAuthenticationFailed("invalid credentials", nil)
}

func (fakeAuth) CreateIdentityWithCredential(_ context.Context, nickname, _, _, _ string) (*models.MIdentity, error) {
	return &models.MIdentity{ID: "a1", Nickname: nickname, UserID: "u1"}, nil
}

// -----------------------------------------------------------------------------

type memCreds struct{ stored string }

func (m *memCreds) Initialize() error { return nil }
func (m *memCreds) Close() error      { return nil }
func (m *memCreds) Read() (string, error) {
	return m.stored, nil
}
func (m *memCreds) Write(token string) error { m.stored = token; return nil }
func (m *memCreds) Clear() error             { m.stored = ""; return nil }

// -----------------------------------------------------------------------------

type fakeMarket struct{}

func (fakeMarket) FetchHoldings(context.Context, string) ([]models.MHolding, error) {
	return []models.MHolding{{Coin: "BTC", Free: "1", Locked: "0"}}, nil
}
func (fakeMarket) GetCurrentPrice(context.Context, string) (string, error) { return "100", nil }
func (fakeMarket) StartPriceStream(string) error                           { return nil }
func (fakeMarket) StopPriceStream(string) error                            { return nil }

type fakeIconGateway struct{}

func (fakeIconGateway) ResolveIconURLs(_ context.Context, symbols []string) ([]models.MIconEntry, error) {
	entries := make([]models.MIconEntry, 0, len(symbols))
	for _, s := range symbols {
		entries = append(entries, models.MIconEntry{Coin: s, LightURL: s + ".png"})
	}
	return entries, nil
}
func (fakeIconGateway) WarmIconCache([]string) error { return nil }

// -----------------------------------------------------------------------------

func newTestBridge(t *testing.T) *Bridge {
	t.Helper()

	cfg := &models.MConfig{
		Name:     "coin-control",
		Host:     "127.0.0.1",
		Port:     8090,
		LogLevel: "ERROR",
		Theme:    "light",
	}
	log := logger.NewLogger("ERROR", "test")

	sess := session.NewManager(fakeAuth{}, &memCreds{}, log)
	sess.Initialize(context.Background())

	theme := icons.NewThemeStore(cfg.Theme)
	warmer := icons.NewWarmer(fakeIconGateway{}, theme, log)
	loader := holdings.NewLoader(fakeMarket{}, warmer, sess, log)
	bus := events.NewBus()

	newFeed := func() *pricefeed.Manager {
		return pricefeed.NewManager(fakeMarket{}, warmer, bus, sess, log)
	}

	return NewBridge(cfg, log, sess, loader, theme, newFeed)
}

// -----------------------------------------------------------------------------

func doJSON(b *Bridge, method, path, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	b.engine.ServeHTTP(w, req)
	return w
}

// -----------------------------------------------------------------------------
// Session Endpoints
// -----------------------------------------------------------------------------

func TestSessionStartsAnonymous(t *testing.T) {
	b := newTestBridge(t)

	w := doJSON(b, http.MethodGet, "/api/session", "")
	require.Equal(t, http.StatusOK, w.Code)

	var snap models.MSessionSnapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, models.SessionAnonymous, snap.State)
	assert.False(t, snap.Loading)
}

// -----------------------------------------------------------------------------

func TestLoginEndpoint(t *testing.T) {
	b := newTestBridge(t)

	w := doJSON(b, http.MethodPost, "/api/login", `{"nickname": "alice", "password": "wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(b, http.MethodPost, "/api/login", `{"nickname": "alice", "password": "secret"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var snap models.MSessionSnapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, models.SessionAuthenticated, snap.State)
	require.NotNil(t, snap.Session)
	assert.Equal(t, "alice", snap.Session.Nickname)
}

// -----------------------------------------------------------------------------

func TestLoginEndpointRejectsMissingFields(t *testing.T) {
	b := newTestBridge(t)

	w := doJSON(b, http.MethodPost, "/api/login", `{"nickname": "alice"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// -----------------------------------------------------------------------------

func TestLogoutEndpoint(t *testing.T) {
	b := newTestBridge(t)
	doJSON(b, http.MethodPost, "/api/login", `{"nickname": "alice", "password": "secret"}`)

	w := doJSON(b, http.MethodPost, "/api/logout", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, models.SessionAnonymous, b.Session.Snapshot().State)
}

// -----------------------------------------------------------------------------
// Holdings
// -----------------------------------------------------------------------------

func TestHoldingsEndpointGatesOnAuthentication(t *testing.T) {
	b := newTestBridge(t)

	w := doJSON(b, http.MethodGet, "/api/holdings", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	doJSON(b, http.MethodPost, "/api/login", `{"nickname": "alice", "password": "secret"}`)

	w = doJSON(b, http.MethodGet, "/api/holdings", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Holdings []models.MHolding `json:"holdings"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Holdings, 1)
	assert.Equal(t, "BTC", resp.Holdings[0].Coin)
	assert.Equal(t, "BTC.png", resp.Holdings[0].IconURL)
}

// -----------------------------------------------------------------------------
// Theme + Health
// -----------------------------------------------------------------------------

func TestThemeEndpoint(t *testing.T) {
	b := newTestBridge(t)

	w := doJSON(b, http.MethodPut, "/api/theme", `{"mode": "dark"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, b.Theme.IsDark())

	w = doJSON(b, http.MethodPut, "/api/theme", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// -----------------------------------------------------------------------------

func TestHealthEndpoint(t *testing.T) {
	b := newTestBridge(t)

	w := doJSON(b, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, "ANONYMOUS", resp["session"])
}
