package handler

import (
	"context"
	"net/http"

	"github.com/sqlscribe/sqlscribe/internal/api/response"
	"github.com/sqlscribe/sqlscribe/internal/llm"
)

// Pinger reports storage connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheck returns a simple health check response
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]string{
		"status": "ok",
	})
}

// ReadyCheck returns readiness status including storage connectivity.
// A nil pinger (sqlite backend) reports ready as long as the process is up.
func ReadyCheck(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.Ping(r.Context()); err != nil {
				response.Error(w, http.StatusServiceUnavailable, "storage not ready")
				return
			}
		}

		response.OK(w, map[string]string{
			"status": "ready",
		})
	}
}

// ListProviders returns the registered LLM providers
func ListProviders(llmService *llm.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.OK(w, map[string]any{
			"providers":        llmService.ProvidersInfo(),
			"default_provider": llmService.DefaultProvider(),
		})
	}
}
