// Package apiserver provides the JSON API HTTP server.
package apiserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/platewise/v2/internal/infrastructure/config"
	"github.com/platewise/v2/internal/infrastructure/http/handlers"
	"github.com/platewise/v2/internal/infrastructure/http/middleware"
	"github.com/platewise/v2/internal/infrastructure/monitoring"
	"github.com/platewise/v2/internal/ports/inbound"
	"go.uber.org/zap"
)

// APIServer serves the meal generation API.
type APIServer struct {
	config      *config.Config
	logger      *zap.Logger
	server      *http.Server
	router      *chi.Mux
	mealService inbound.MealService
	metrics     *monitoring.MetricsCollector
}

// NewAPIServer creates a new API server instance
func NewAPIServer(
	cfg *config.Config,
	log *zap.Logger,
	mealService inbound.MealService,
	metrics *monitoring.MetricsCollector,
) *APIServer {
	server := &APIServer{
		config:      cfg,
		logger:      log,
		mealService: mealService,
		metrics:     metrics,
	}

	server.router = server.setupRoutes()
	server.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      server.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return server
}

// setupRoutes configures the JSON API routes
func (s *APIServer) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimiddleware.Recoverer)
	if s.metrics != nil && s.config.Monitoring.EnableMetrics {
		r.Use(middleware.Metrics(s.metrics))
	}

	// Generation calls hold an upstream round trip or two, so the request
	// timeout is much longer than a typical API budget.
	r.Use(chimiddleware.Timeout(s.config.Server.RequestTimeout))

	r.Get(s.config.Monitoring.HealthCheckPath, s.handleHealthCheck)
	if s.metrics != nil && s.config.Monitoring.EnableMetrics {
		r.Handle(s.config.Monitoring.MetricsPath, s.metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.JSONOnly())
		s.setupAPIV1Routes(r)
	})

	return r
}

// setupAPIV1Routes configures API v1 endpoints
func (s *APIServer) setupAPIV1Routes(r chi.Router) {
	h := handlers.NewMealAPIHandlers(s.mealService, s.logger)

	r.Route("/meals", func(r chi.Router) {
		r.Post("/generate", h.GenerateMeal)
		r.Post("/build", h.BuildMeal)
		r.Post("/swap", h.SwapIngredient)
		r.Post("/full-day", h.GenerateFullDay)
		r.Post("/full-week", h.GenerateFullWeek)
	})
}

// Start starts the API HTTP server
func (s *APIServer) Start() error {
	s.logger.Info("Starting JSON API server",
		zap.String("address", s.server.Addr),
	)
	return s.server.ListenAndServe()
}

// Server returns the underlying HTTP server instance
func (s *APIServer) Server() *http.Server {
	return s.server
}

// Router returns the configured router, mainly for tests.
func (s *APIServer) Router() http.Handler {
	return s.router
}

// Shutdown gracefully shuts down the API server
func (s *APIServer) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server...")
	return s.server.Shutdown(ctx)
}

// handleHealthCheck provides the health check endpoint
func (s *APIServer) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "healthy",
		"service":   "platewise-api",
		"version":   s.config.App.Version,
		"timestamp": time.Now().Unix(),
	})
}
