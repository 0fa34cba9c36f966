package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rahatc/paydesh/internal/bootstrap"
	"github.com/rahatc/paydesh/internal/controller"
	infraRedis "github.com/rahatc/paydesh/internal/infrastructure/redis"
	"github.com/rahatc/paydesh/internal/notification"
	"github.com/rahatc/paydesh/internal/repository/postgres"
	"github.com/rahatc/paydesh/internal/service"
)

func main() {
	ctx := context.Background()

	app, err := bootstrap.New(ctx, "paydesh-api", "paydesh")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	// --- Repositories ---
	accountRepo := postgres.NewAccountRepository(app.Pool)
	ledgerRepo := postgres.NewLedgerRepository(app.Pool)
	requestRepo := postgres.NewRequestRepository(app.Pool)
	notificationRepo := postgres.NewNotificationRepository(app.Pool)
	txManager := postgres.NewTxManager(app.Pool)

	// --- Services ---
	streamProducer := infraRedis.NewStreamProducer(app.Redis)
	notifier := notification.NewStreamNotifier(streamProducer, app.Logger, app.Config.Ledger.CircuitBreakerThreshold)

	accountService := service.NewAccountService(accountRepo, app.Logger)
	transferService := service.NewTransferService(
		accountRepo,
		ledgerRepo,
		requestRepo,
		txManager,
		service.BcryptVerifier{},
		notifier,
		app.Logger,
		service.LedgerConfig{
			DuplicateWindow:       app.Config.Ledger.DuplicateWindow,
			CashOutFeeBasisPoints: app.Config.Ledger.CashOutFeeBasisPoints,
			RequestTTL:            app.Config.Ledger.RequestTTL,
		},
	)

	// --- Build router ---
	router := controller.NewRouter(controller.RouterDeps{
		Pool:             app.Pool,
		RedisClient:      app.Redis,
		AccountService:   accountService,
		TransferService:  transferService,
		NotificationRepo: notificationRepo,
		Metrics:          app.Metrics,
		CORSConfig:       app.Config.Server.CORS,
		JWTSecret:        app.Config.Auth.JWTSecret,
	})

	// --- HTTP server ---
	addr := fmt.Sprintf(":%d", app.Config.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  app.Config.Server.ReadTimeout,
		WriteTimeout: app.Config.Server.WriteTimeout,
		IdleTimeout:  app.Config.Server.IdleTimeout,
	}

	go func() {
		app.Logger.Info().Str("addr", addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.Logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	app.Logger.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		app.Logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	app.Logger.Info().Msg("Server exited")
}
