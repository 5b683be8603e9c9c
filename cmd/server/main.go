/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the finance engine server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env + environment, flag overrides)
  2. Build the zap logger
  3. Open the selected store (memory, sqlite, or postgres)
  4. Wire engine, manager, handler, router
  5. Start the drift sweeper (if SWEEP_INTERVAL is set)
  6. Serve HTTP with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (overrides PORT)
  -db      SQLite database path (overrides SQLITE_PATH)
           Use ":memory:" for an in-memory database

ENVIRONMENT:
  PORT            HTTP listen port (default 8080)
  STORE_DRIVER    memory | sqlite | postgres (default memory)
  SQLITE_PATH     sqlite database file
  POSTGRES_URL    postgres connection string
  ALLOW_NEGATIVE  "true" permits negative balances
  SWEEP_INTERVAL  e.g. "15m"; empty disables the sweeper
  LOG_LEVEL, LOG_FORMAT, LOG_DEV

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the sweeper, close the store
  4. Exit

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: Environment loading
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/centavo/finance-engine/api"
	"github.com/centavo/finance-engine/config"
	"github.com/centavo/finance-engine/ledger"
	memstore "github.com/centavo/finance-engine/ledger/store"
	"github.com/centavo/finance-engine/logging"
	"github.com/centavo/finance-engine/store/postgres"
	"github.com/centavo/finance-engine/store/sqlite"
)

func main() {
	port := flag.Int("port", 0, "HTTP server port (overrides PORT)")
	dbPath := flag.String("db", "", "SQLite database path (overrides SQLITE_PATH)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *dbPath != "" {
		cfg.StoreDriver = config.DriverSQLite
		cfg.SQLitePath = *dbPath
	}

	log, err := logging.NewFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	store, closeStore, err := openStore(cfg)
	if err != nil {
		log.Fatal("failed to open store", zap.Error(err))
	}
	defer closeStore()

	engine := ledger.NewEngine(store, log)
	engine.AllowNegative = cfg.AllowNegative
	manager := ledger.NewManager(store, engine, log)
	handler := api.NewHandler(manager, engine, log)
	router := api.NewRouter(handler)

	sweeper := api.NewSweeper(store, engine, log, cfg.SweepInterval)
	sweeper.Start()
	defer sweeper.Stop()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server starting",
			zap.Int("port", cfg.Port),
			zap.String("store", cfg.StoreDriver),
			zap.Bool("allow_negative", cfg.AllowNegative))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}

func openStore(cfg *config.Config) (ledger.TxStore, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		return memstore.NewMemory(), func() {}, nil
	case config.DriverSQLite:
		s, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	case config.DriverPostgres:
		s, err := postgres.New(context.Background(), cfg.PostgresURL)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver: %q", cfg.StoreDriver)
	}
}
