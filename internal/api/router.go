package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sqlscribe/sqlscribe/internal/api/handler"
	customMiddleware "github.com/sqlscribe/sqlscribe/internal/api/middleware"
	"github.com/sqlscribe/sqlscribe/internal/config"
	"github.com/sqlscribe/sqlscribe/internal/llm"
	"github.com/sqlscribe/sqlscribe/internal/repository/redis"
	"github.com/sqlscribe/sqlscribe/internal/service"
)

// Deps carries everything the router needs. The composition root builds the
// services because the storage backend behind them is selected at startup.
type Deps struct {
	Config      *config.Config
	LLMService  *llm.Service
	Sessions    *service.SessionService
	Dictionary  *service.DictionaryService
	Query       *service.QueryService
	RateLimiter *redis.RateLimiter // nil when redis is disabled
	DB          handler.Pinger     // nil for the sqlite backend
}

// NewRouter creates and configures the HTTP router
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(deps.Config.Server.RequestTimeout))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	sessionHandler := handler.NewSessionHandler(deps.Sessions)
	dictionaryHandler := handler.NewDictionaryHandler(deps.Dictionary, deps.Config.LLM)
	queryHandler := handler.NewQueryHandler(deps.Query, deps.Config.LLM)

	r.Route("/api/v1", func(r chi.Router) {
		// Health check
		r.Get("/health", handler.HealthCheck)
		r.Get("/ready", handler.ReadyCheck(deps.DB))

		r.Group(func(r chi.Router) {
			if deps.RateLimiter != nil {
				r.Use(customMiddleware.NewRateLimitMiddleware(deps.RateLimiter).Limit)
			}

			// LLM providers
			r.Get("/providers", handler.ListProviders(deps.LLMService))

			// Session routes
			r.Route("/sessions", func(r chi.Router) {
				r.Get("/", sessionHandler.List)
				r.Post("/", sessionHandler.Create)

				r.Route("/{sessionID}", func(r chi.Router) {
					r.Use(customMiddleware.SessionContext)

					r.Get("/", sessionHandler.Get)

					// Dictionary endpoints
					r.Route("/dictionary", func(r chi.Router) {
						r.Post("/generate", dictionaryHandler.Generate)
						r.Get("/", dictionaryHandler.Get)
						r.Put("/", dictionaryHandler.Update)
						r.Delete("/", dictionaryHandler.Delete)
					})

					// Query endpoints
					r.Post("/generate", queryHandler.Generate)
					r.Post("/generate/stream", queryHandler.GenerateStream)
					r.Post("/repair", queryHandler.Repair)
					r.Post("/suggestions", queryHandler.Suggest)
					r.Get("/history", queryHandler.History)
				})
			})
		})
	})

	return r
}
