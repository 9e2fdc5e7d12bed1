package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"coin-control/src/auth"
	"coin-control/src/bybit"
	"coin-control/src/config"
	"coin-control/src/events"
	"coin-control/src/holdings"
	"coin-control/src/icons"
	"coin-control/src/logger"
	"coin-control/src/network"
	"coin-control/src/pricefeed"
	"coin-control/src/server"
	"coin-control/src/session"
	"coin-control/src/storage"

	"github.com/joho/godotenv"
)

// -----------------------------------------------------------------------------

func main() {

	// Parse command line flags
	configPath := flag.String("config", "../../config/default.yaml", "path to config file")
	flag.Parse()

	// Secrets come from the environment; a .env file is a convenience for
	// local runs and is allowed to be absent
	_ = godotenv.Load()

	// Load config from YAML file
	cfg, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	appLogger := logger.NewLogger(cfg.LogLevel, cfg.Name)

	// 2. Storage: credential vault and account database
	creds := storage.NewCredentialStore(cfg.Storage.CredentialsPath, appLogger)
	if err := creds.Initialize(); err != nil {
		appLogger.Critical("Failed to init credential store: %v", err)
	}
	defer creds.Close()

	accounts := storage.NewAccountDB(cfg.MConfig, appLogger)
	if err := accounts.Initialize(); err != nil {
		appLogger.Critical("Failed to init account db: %v", err)
	}
	defer accounts.Close()

	// 3. Backend services
	authService := auth.NewAuthService(cfg.MConfig, accounts, appLogger)
	netManager := network.NewManager(cfg.MConfig, appLogger)
	stream := bybit.NewStreamManager(cfg.MConfig, appLogger)
	bus := events.NewBus()
	gateway := bybit.NewGateway(cfg.MConfig, netManager, stream, bus, appLogger)

	stream.Start()
	defer stream.Close()

	// 4. Session: resolve the persisted credential before any surface opens
	sessionManager := session.NewManager(authService, creds, appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appLogger.Info("Validating stored session...")
	sessionManager.Initialize(ctx)
	appLogger.Info("Session resolved: %s", sessionManager.Snapshot().State)

	// 5. Consumers
	theme := icons.NewThemeStore(cfg.Theme)
	warmer := icons.NewWarmer(gateway, theme, appLogger)
	loader := holdings.NewLoader(gateway, warmer, sessionManager, appLogger)

	newFeed := func() *pricefeed.Manager {
		return pricefeed.NewManager(gateway, warmer, bus, sessionManager, appLogger)
	}

	// 6. UI bridge, started only now that the session state is known
	bridge := server.NewBridge(cfg.MConfig, appLogger, sessionManager, loader, theme, newFeed)
	sessionManager.OnChange(bridge.NotifySession)

	go func() {
		if err := bridge.Start(); err != nil {
			appLogger.Error("Bridge failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	appLogger.Info("Shutting down...")
}
