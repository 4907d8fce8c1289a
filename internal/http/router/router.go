package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fmworks/estimate-api/internal/auth"
	"github.com/fmworks/estimate-api/internal/config"
	"github.com/fmworks/estimate-api/internal/database"
	"github.com/fmworks/estimate-api/internal/http/handler"
	"github.com/fmworks/estimate-api/internal/http/middleware"

	_ "github.com/fmworks/estimate-api/docs" // Import generated swagger docs
)

type Router struct {
	cfg             *config.Config
	logger          *zap.Logger
	db              *gorm.DB
	authMiddleware  *auth.Middleware
	rateLimiter     *middleware.RateLimiter
	estimateHandler *handler.EstimateHandler
	quoteHandler    *handler.QuoteHandler
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	authMiddleware *auth.Middleware,
	rateLimiter *middleware.RateLimiter,
	estimateHandler *handler.EstimateHandler,
	quoteHandler *handler.QuoteHandler,
) *Router {
	return &Router{
		cfg:             cfg,
		logger:          logger,
		db:              db,
		authMiddleware:  authMiddleware,
		rateLimiter:     rateLimiter,
		estimateHandler: estimateHandler,
		quoteHandler:    quoteHandler,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP)

	// Health check (basic liveness probe)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Database health check (readiness probe with detailed stats)
	r.Get("/health/db", func(w http.ResponseWriter, r *http.Request) {
		stats, err := database.HealthCheckWithStats(rt.db)
		if err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"status":  "unhealthy",
				"error":   err.Error(),
				"service": "database",
			})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "healthy",
			"service": "database",
			"stats": map[string]interface{}{
				"max_open_connections": stats.MaxOpenConnections,
				"open_connections":     stats.OpenConnections,
				"in_use":               stats.InUse,
				"idle":                 stats.Idle,
				"wait_count":           stats.WaitCount,
				"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
			},
		})
	})

	// Swagger documentation
	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware.Authenticate)
			r.Use(rt.rateLimiter.Limit)

			// Estimates
			r.Route("/estimates", func(r chi.Router) {
				r.Get("/", rt.estimateHandler.List)
				r.Post("/", rt.estimateHandler.Create)
				r.Get("/{id}", rt.estimateHandler.GetByID)
				r.Put("/{id}", rt.estimateHandler.Update)

				// Pricing helpers
				r.Post("/{id}/solve-discount", rt.estimateHandler.SolveDiscount)

				// Workflow endpoints
				r.Post("/{id}/submit", rt.estimateHandler.Submit)
				r.Post("/{id}/resubmit", rt.estimateHandler.Resubmit)
				r.Post("/{id}/approve", rt.estimateHandler.Approve)
				r.Post("/{id}/request-revision", rt.estimateHandler.RequestRevision)
				r.Post("/{id}/reject", rt.estimateHandler.Reject)
				r.Post("/{id}/cancel", rt.estimateHandler.Cancel)
				r.Post("/{id}/revisions", rt.estimateHandler.CreateRevision)
				r.Post("/{id}/convert-to-quote", rt.estimateHandler.ConvertToQuote)

				// Sub-resources
				r.Get("/{id}/versions", rt.estimateHandler.ListVersions)
				r.Get("/{id}/activities", rt.estimateHandler.ListActivities)
			})

			// Quotes
			r.Route("/quotes", func(r chi.Router) {
				r.Get("/", rt.quoteHandler.List)
				r.Get("/{id}", rt.quoteHandler.GetByID)
			})
		})
	})

	return r
}
