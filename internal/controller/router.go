package controller

import (
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/rahatc/paydesh/internal/domain/notification"
	"github.com/rahatc/paydesh/internal/infrastructure/config"
	"github.com/rahatc/paydesh/internal/infrastructure/observability"
	customMW "github.com/rahatc/paydesh/internal/middleware"
	"github.com/rahatc/paydesh/internal/service"
)

type RouterDeps struct {
	Pool             *pgxpool.Pool
	RedisClient      *redis.Client
	AccountService   *service.AccountService
	TransferService  *service.TransferService
	NotificationRepo notification.Repository
	Metrics          *observability.Metrics
	CORSConfig       config.CORSConfig
	JWTSecret        string
}

func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(customMW.Tracing())
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.CORSConfig.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: deps.CORSConfig.AllowCredentials,
		MaxAge:           300,
	}))
	r.Use(customMW.Metrics(deps.Metrics))

	healthH := NewHealthController(deps.Pool, deps.RedisClient)
	accountH := NewAccountController(deps.AccountService, deps.TransferService, deps.NotificationRepo)
	walletH := NewWalletController(deps.TransferService, deps.Metrics)

	r.Get("/health", healthH.Health)
	r.Get("/health/live", healthH.Liveness)
	r.Get("/health/ready", healthH.Readiness)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(customMW.RequireAuth(deps.JWTSecret))

		// Accounts
		r.Post("/accounts", accountH.Create)
		r.Get("/wallet/balance", accountH.Balance)
		r.Get("/notifications", accountH.Notifications)
		r.Post("/notifications/{id}/read", accountH.MarkNotificationRead)

		// Money movement
		r.Post("/transfers", walletH.Transfer)
		r.Post("/cash-in", walletH.CashIn)
		r.Post("/cash-out", walletH.CashOut)

		// Money requests
		r.Post("/requests", walletH.CreateRequest)
		r.Get("/requests", accountH.ListRequests)
		r.Post("/requests/{id}/approve", walletH.ApproveRequest)
		r.Post("/requests/{id}/decline", walletH.DeclineRequest)
		r.Post("/requests/{id}/cancel", walletH.CancelRequest)

		// History
		r.Get("/transactions", walletH.History)
		r.Get("/transactions/{id}", walletH.Detail)
	})

	return r
}
