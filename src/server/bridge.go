package server

import (
	"fmt"
	"net/http"
	"strings"
	"sync"

	"coin-control/src/holdings"
	"coin-control/src/icons"
	"coin-control/src/logger"
	"coin-control/src/models"
	"coin-control/src/pricefeed"
	"coin-control/src/session"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// Bridge
//
// Local HTTP/WebSocket surface the desktop view talks to. REST covers the
// request/response side (login, register, holdings, theme); the websocket
// carries pushed state - session changes and price updates for the asset each
// connected view has focused. One price subscription per connected client.
// -----------------------------------------------------------------------------

type Bridge struct {
	Config   *models.MConfig
	Logger   *logger.Logger
	Session  *session.Manager
	Holdings *holdings.Loader
	Theme    *icons.ThemeStore
	NewFeed  func() *pricefeed.Manager

	engine *gin.Engine

	// WebSocket clients
	clients    map[*Client]struct{}
	clientsMu  sync.RWMutex
	broadcast  chan models.MBridgeMessage
	register   chan *Client
	unregister chan *Client
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewBridge(cfg *models.MConfig, log *logger.Logger, sess *session.Manager, loader *holdings.Loader, theme *icons.ThemeStore, newFeed func() *pricefeed.Manager) *Bridge {
	// Set Gin mode
	if cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	b := &Bridge{
		Config:   cfg,
		Logger:   log,
		Session:  sess,
		Holdings: loader,
		Theme:    theme,
		NewFeed:  newFeed,
		engine:   gin.Default(),
		clients:  make(map[*Client]struct{}),
		// Buffered channel to prevent lock/blocking
		broadcast:  make(chan models.MBridgeMessage, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}

	// Local-only CORS, the view runs on a loopback port
	b.engine.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if strings.HasPrefix(origin, "http://127.0.0.1:") || strings.HasPrefix(origin, "http://localhost:") {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	b.setupRoutes()
	return b
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (b *Bridge) setupRoutes() {
	// REST API endpoints
	b.engine.POST("/api/login", b.postLogin)
	b.engine.POST("/api/register", b.postRegister)
	b.engine.POST("/api/logout", b.postLogout)
	b.engine.GET("/api/session", b.getSession)
	b.engine.GET("/api/holdings", b.getHoldings)
	b.engine.PUT("/api/theme", b.putTheme)
	b.engine.GET("/api/health", b.getHealth)

	// WebSocket endpoint
	b.engine.GET("/ws", b.handleWebSocket)
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

// Start runs the hub loop and blocks serving HTTP. Call it only once session
// initialization has resolved, so the first snapshot a view sees is never
// stuck on Loading.
func (b *Bridge) Start() error {
	addr := fmt.Sprintf("%s:%d", b.Config.Host, b.Config.Port)
	b.Logger.Info("Starting bridge on %s", addr)

	go b.handleWebsockets()

	return b.engine.Run(addr)
}

// -----------------------------------------------------------------------------

// NotifySession pushes a session snapshot to every connected view. Wired to
// the session manager's OnChange hook.
func (b *Bridge) NotifySession(snap models.MSessionSnapshot) {
	b.broadcast <- models.MBridgeMessage{Type: "session", Data: snap}
}

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

func (b *Bridge) postLogin(c *gin.Context) {
	var req models.MLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nickname and password are required"})
		return
	}

	if err := b.Session.Login(c.Request.Context(), req.Nickname, req.Password); err != nil {
		writeTaxonomyError(c, err)
		return
	}

	c.JSON(http.StatusOK, b.Session.Snapshot())
}

// -----------------------------------------------------------------------------

func (b *Bridge) postRegister(c *gin.Context) {
	var req models.MRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nickname and password are required"})
		return
	}

	if err := b.Session.Register(c.Request.Context(), req.Nickname, req.Password, req.FirstName, req.LastName); err != nil {
		writeTaxonomyError(c, err)
		return
	}

	c.JSON(http.StatusOK, b.Session.Snapshot())
}

// -----------------------------------------------------------------------------

func (b *Bridge) postLogout(c *gin.Context) {
	b.Session.Logout()
	c.Status(http.StatusNoContent)
}

// -----------------------------------------------------------------------------

func (b *Bridge) getSession(c *gin.Context) {
	c.JSON(http.StatusOK, b.Session.Snapshot())
}

// -----------------------------------------------------------------------------

func (b *Bridge) getHoldings(c *gin.Context) {
	snap := b.Session.Snapshot()
	userID := ""
	if snap.Session != nil {
		userID = snap.Session.UserID
	}

	held, err := b.Holdings.Load(c.Request.Context(), userID)
	if err != nil {
		writeTaxonomyError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"holdings": held})
}

// -----------------------------------------------------------------------------

func (b *Bridge) putTheme(c *gin.Context) {
	var req models.MThemeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "mode is required"})
		return
	}

	b.Theme.Set(req.Mode)
	c.JSON(http.StatusOK, gin.H{"theme": b.Theme.Mode()})
}

// -----------------------------------------------------------------------------

func (b *Bridge) getHealth(c *gin.Context) {
	b.clientsMu.RLock()
	connections := len(b.clients)
	b.clientsMu.RUnlock()

	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"connections": connections,
		"session":     b.Session.Snapshot().State.String(),
	})
}
