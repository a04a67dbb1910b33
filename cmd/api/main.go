package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/mintgate/mintgate-backend/internal/api"
	"github.com/mintgate/mintgate-backend/internal/bridge"
	"github.com/mintgate/mintgate-backend/internal/config"
	"github.com/mintgate/mintgate-backend/internal/ledger"
	"github.com/mintgate/mintgate-backend/internal/log"
	"github.com/mintgate/mintgate-backend/internal/metrics"
	"github.com/mintgate/mintgate-backend/internal/repository"
	"github.com/mintgate/mintgate-backend/internal/store"
	"github.com/mintgate/mintgate-backend/internal/ws"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	logger, err := log.NewSugar(cfg.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Infow("Starting MintGate bridge API server",
		"env", cfg.Env,
		"addr", cfg.HTTPAddr,
		"version", "v1.0.0",
	)

	// Setup metrics
	metricsObj, metricsHandler, err := metrics.Setup("mintgate-api")
	if err != nil {
		logger.Fatalw("Failed to setup metrics", "error", err)
	}

	// Setup Redis cache (falls back to in-memory when Redis is unavailable)
	cache, err := store.NewCache(cfg.Cache.RedisAddr, logger, metricsObj)
	if err != nil {
		logger.Fatalw("Failed to setup cache", "error", err)
	}
	defer cache.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := cache.Ping(ctx); err != nil {
		logger.Fatalw("Cache ping failed", "error", err)
	}
	logger.Infow("Cache connection established")

	// Optional Postgres audit trail
	svcOpts := []bridge.ServiceOption{
		bridge.WithPublisher(cache),
		bridge.WithRecorder(metricsObj),
	}
	var repo *repository.Repository
	if cfg.Database.Enabled {
		db, err := sql.Open("pgx", cfg.Database.PostgresDSN)
		if err != nil {
			logger.Fatalw("Failed to open database", "error", err)
		}
		defer db.Close()

		repo = repository.NewRepository(db, logger)
		if err := repo.Ping(ctx); err != nil {
			logger.Fatalw("Database ping failed", "error", err)
		}
		svcOpts = append(svcOpts, bridge.WithAuditSink(repo))
		logger.Infow("Database audit trail enabled")
	}

	// Setup bridge service
	bridgeSvc := bridge.NewService(ledger.NewMemory(), logger, svcOpts...)

	if cfg.Bridge.AutoInitialize {
		signerKey, err := cfg.Bridge.ParseSignerKey()
		if err != nil {
			logger.Fatalw("Invalid signer key", "error", err)
		}
		chains, err := cfg.Bridge.ParseSupportedChainIDs()
		if err != nil {
			logger.Fatalw("Invalid supported chain list", "error", err)
		}

		if _, err := bridgeSvc.Initialize(ctx, bridge.InitParams{
			Authority:         cfg.Bridge.Authority,
			TrustedSignerKey:  signerKey,
			RelayIdentifier:   cfg.Bridge.RelayIdentifier,
			SupportedChainIDs: chains,
		}); err != nil {
			logger.Fatalw("Bridge initialization failed", "error", err)
		}
		logger.Infow("Bridge initialized",
			"authority", cfg.Bridge.Authority,
			"relay", cfg.Bridge.RelayIdentifier,
			"scheme", cfg.Bridge.SignerKeyScheme,
			"chains", chains,
		)
	}

	// Setup WebSocket hub and SSE handler
	wsHub := ws.NewHub(cache, logger, metricsObj)
	sseHandler := ws.NewSSEHandler(cache, logger)

	// Create context for background services
	hubCtx, hubCancel := context.WithCancel(context.Background())
	defer hubCancel()

	// Start WebSocket hub in background
	go wsHub.Run(hubCtx)

	// Setup API handler and middleware
	handler := api.NewHandler(bridgeSvc, wsHub, sseHandler, cache, repoOrNil(repo), cfg, logger, metricsObj)
	middleware := api.NewMiddleware(logger, metricsObj)

	// Create router with middleware and routes - pass security config to Routes
	router := handler.Routes(middleware, cfg.Security.CORSAllowedOrigins, cfg.Security.RateLimitRPM)

	// Log configured CORS origins for easier debugging in dev
	logger.Infow("CORS configured", "allowed_origins", cfg.Security.CORSAllowedOrigins)

	// Add metrics endpoint
	router.Handle("/metrics", metricsHandler)

	// Setup HTTP server
	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	serverErrors := make(chan error, 1)
	go func() {
		logger.Infow("API server starting", "addr", server.Addr)
		serverErrors <- server.ListenAndServe()
	}()

	// Wait for interrupt signal
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Fatalw("Server startup failed", "error", err)
	case sig := <-shutdown:
		logger.Infow("Shutdown signal received", "signal", sig.String())

		// Give outstanding requests 30 seconds to complete
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Errorw("Graceful shutdown failed", "error", err)
			server.Close()
		}

		logger.Infow("Server stopped")
	}
}

// repoOrNil keeps the typed-nil *Repository out of the handler's AuditStore
// interface when Postgres is disabled.
func repoOrNil(repo *repository.Repository) api.AuditStore {
	if repo == nil {
		return nil
	}
	return repo
}
