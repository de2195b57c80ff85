package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/TushxrTxndon/CampusBazaar/internal/api"
	"github.com/TushxrTxndon/CampusBazaar/internal/checkout"
	"github.com/TushxrTxndon/CampusBazaar/internal/db"
	"github.com/TushxrTxndon/CampusBazaar/internal/gateway"
	"github.com/TushxrTxndon/CampusBazaar/internal/metrics"
	"github.com/TushxrTxndon/CampusBazaar/internal/models"
	"github.com/TushxrTxndon/CampusBazaar/internal/services"
	"github.com/TushxrTxndon/CampusBazaar/internal/store"
	"github.com/TushxrTxndon/CampusBazaar/pkg/config"
	"github.com/gorilla/mux"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Load configuration
	cfg := config.LoadConfig()

	// Initialize OpenTelemetry metrics
	ctx := context.Background()
	appMetrics, meterProvider, err := metrics.InitMetrics(ctx, cfg)
	if err != nil {
		logger.Error("failed to initialize metrics", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			logger.Error("error shutting down meter provider", "error", err)
		}
	}()

	// Client state persistence
	backend, closeBackend, err := openStateBackend(ctx, cfg)
	if err != nil {
		logger.Error("failed to open state backend", "backend", cfg.StateBackend, "error", err)
		os.Exit(1)
	}
	defer closeBackend()
	backend = store.WithMetrics(backend, appMetrics)

	cartDoc := store.NewDocument[[]models.CartLine](backend, store.KeyCart, logger)
	userDoc := store.NewDocument[*models.UserProfile](backend, store.KeyUser, logger)

	// Remote backend
	gw, err := gateway.New(cfg.BackendURL, gateway.WithMetrics(appMetrics), gateway.WithLogger(logger))
	if err != nil {
		logger.Error("invalid backend URL", "url", cfg.BackendURL, "error", err)
		os.Exit(1)
	}

	// Initialize services
	session := services.NewSessionService(userDoc, appMetrics, logger)
	go session.Restore(ctx)

	svc := api.Services{
		Products: services.NewProductService(gw, appMetrics, logger),
		Cart:     services.NewCartService(ctx, cartDoc, appMetrics, logger),
		Session:  session,
		Users:    services.NewUserService(gw, session, logger),
		Orders:   services.NewOrderService(gw, session, logger),
		Listings: services.NewListingService(gw, session, cfg.ImageMaxWidth, logger),
		OAuth:    services.NewOAuthHandler(session, logger),
	}
	checkouts := checkout.NewManager(gw, svc.Cart, session,
		checkout.WithMetrics(appMetrics),
		checkout.WithLogger(logger),
	)

	// Initialize app
	app := api.NewApp(cfg, appMetrics, gw, svc, checkouts, logger)

	// Setup router
	router := mux.NewRouter()
	app.SetupRoutes(router)

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.GetAppPortInt()),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server starting",
			"port", cfg.AppPort,
			"backend_url", cfg.BackendURL,
			"state_backend", backend.Name(),
			"otlp_endpoint", cfg.OTELExporterOTLPEndpoint,
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	_ = checkouts.Abandon()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}

// openStateBackend connects the configured client state store
func openStateBackend(ctx context.Context, cfg *config.Config) (store.Backend, func(), error) {
	switch cfg.StateBackend {
	case config.StateBackendMySQL:
		database, err := db.NewDB(ctx, cfg.GetDSN(), cfg.OTELServiceName)
		if err != nil {
			return nil, nil, err
		}
		if err := database.InitSchema(ctx, store.Schema); err != nil {
			database.Close()
			return nil, nil, err
		}
		return store.NewSQLBackend(database, cfg.StateNamespace), func() { database.Close() }, nil

	case config.StateBackendRedis:
		rb, err := store.NewRedisBackend(ctx, cfg.RedisURL, cfg.StateNamespace)
		if err != nil {
			return nil, nil, err
		}
		return rb, func() { rb.Close() }, nil

	case config.StateBackendMemory:
		slog.Warn("using in-memory state; cart and session are lost on restart")
		return store.NewMemoryBackend(), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown STATE_BACKEND %q", cfg.StateBackend)
	}
}
