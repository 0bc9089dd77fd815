package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kyilmaz/dealerpool/internal/adapter/http/handler"
	"github.com/kyilmaz/dealerpool/internal/adapter/http/middleware"
	"github.com/kyilmaz/dealerpool/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	DepositHandler    *handler.DepositHandler
	WithdrawalHandler *handler.WithdrawalHandler
	PoolHandler       *handler.PoolHandler
	AdjustmentHandler *handler.AdjustmentHandler
	DealerHandler     *handler.DealerHandler
	HealthHandler     *handler.HealthHandler
	IdempotencyStore  usecase.IdempotencyStore
	RateLimiter       *middleware.RateLimiter
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Recovery)
	r.Use(middleware.Metrics)

	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore)
			r.Use(idempotencyMiddleware.Wrap)
		}

		// External surface
		r.Route("/deposits", func(r chi.Router) {
			r.Post("/", cfg.DepositHandler.Create)
			r.Post("/confirm", cfg.DepositHandler.Confirm)
		})

		r.Route("/withdrawals", func(r chi.Router) {
			r.Post("/", cfg.WithdrawalHandler.Create)
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", cfg.WithdrawalHandler.List)
			r.Get("/{id}", cfg.WithdrawalHandler.Get)
		})

		// Dealers
		r.Route("/dealers", func(r chi.Router) {
			r.Post("/", cfg.DealerHandler.Create)
			r.Get("/", cfg.DealerHandler.List)
			r.Get("/{id}", cfg.DealerHandler.Get)
			r.Post("/{id}/refresh-balance", cfg.DealerHandler.RefreshBalance)
			r.Post("/{id}/bank-accounts", cfg.DealerHandler.CreateBankAccount)
			r.Get("/{id}/bank-accounts", cfg.DealerHandler.ListBankAccounts)
		})

		r.Put("/bank-accounts/{accountID}/active", cfg.DealerHandler.SetBankAccountActive)

		// Admin surface: pool management and manual adjustments
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.Actor)

			r.Route("/pool", func(r chi.Router) {
				r.Get("/", cfg.PoolHandler.List)
				r.Post("/{id}/assign", cfg.PoolHandler.Assign)
			})

			r.Route("/transactions/{id}", func(r chi.Router) {
				r.Post("/approve", cfg.PoolHandler.Approve)
				r.Post("/reject", cfg.PoolHandler.Reject)
				r.Post("/requeue", cfg.PoolHandler.Requeue)
				r.Post("/return-to-pool", cfg.PoolHandler.ReturnToPool)
			})

			r.Post("/adjustments", cfg.AdjustmentHandler.Create)
		})
	})

	return r
}
