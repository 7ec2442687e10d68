package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aerodesk/call-intake/internal/config"
	"github.com/aerodesk/call-intake/pkg/logger"
)

// Router is the API router
type Router struct {
	handler    *Handler
	middleware *Middleware
	config     *config.Config
	logger     *logger.Logger
}

// NewRouter creates a new API router
func NewRouter(handler *Handler, config *config.Config, logger *logger.Logger) *Router {
	return &Router{
		handler:    handler,
		middleware: NewMiddleware(logger),
		config:     config,
		logger:     logger.Named("api-router"),
	}
}

// Routes returns the API routes
func (r *Router) Routes() http.Handler {
	router := chi.NewRouter()

	// Middleware
	router.Use(r.middleware.RequestID)
	router.Use(r.middleware.Logger)
	router.Use(r.middleware.Recoverer)
	router.Use(r.middleware.CORS(r.config.Server.CORSAllowedOrigins))

	// API routes
	router.Route("/api/v1", func(router chi.Router) {
		// Call routes
		router.Post("/calls", r.handler.AnalyzeCall)
		router.Post("/calls/audio", r.handler.CreateCallFromAudio)
		router.Get("/calls", r.handler.ListCalls)
		router.Get("/calls/{id}", r.handler.GetCall)

		// Daily summary routes
		router.Get("/summaries/daily", r.handler.ListDailySummaries)
		router.Post("/summaries/daily/run", r.handler.RunDailyAggregation)

		// Administration
		router.Post("/admin/seed", r.handler.SeedAirports)

		// Health check
		router.Get("/health", r.handler.GetHealth)
	})

	return router
}
