package handler

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/sqlscribe/sqlscribe/internal/api/response"
	"github.com/sqlscribe/sqlscribe/internal/config"
	"github.com/sqlscribe/sqlscribe/internal/domain"
	"github.com/sqlscribe/sqlscribe/internal/interpret"
	"github.com/sqlscribe/sqlscribe/internal/llm"
	"github.com/sqlscribe/sqlscribe/internal/service"
)

var validate = validator.New()

// fillProviderDefaults resolves the effective provider configuration for one
// call. A key supplied on the request always wins; the server-side config
// key is only a fallback and is never echoed back to the client.
func fillProviderDefaults(llmCfg config.LLMConfig, pc *domain.ProviderConfig) {
	if pc.Provider == "" {
		pc.Provider = llmCfg.DefaultProvider
	}
	fallback := llmCfg.Provider(pc.Provider)
	if pc.APIKey == "" {
		pc.APIKey = fallback.APIKey
	}
	if pc.Model == "" {
		pc.Model = fallback.Model
	}
}

// writeError maps pipeline errors onto HTTP statuses. Provider-side
// failures surface as 502 so the client can tell them apart from this
// service's own faults.
func writeError(w http.ResponseWriter, err error) {
	var invalidDictErr *service.InvalidDictionaryError
	var unsupportedErr *llm.UnsupportedProviderError
	var providerErr *llm.ProviderError
	var transportErr *llm.TransportError
	var malformedErr *interpret.MalformedResponseError

	switch {
	case errors.Is(err, service.ErrDictionaryMissing):
		response.Conflict(w, "no complete field dictionary for this session; generate one first")
	case errors.Is(err, domain.ErrNotFound):
		response.NotFound(w, "not found")
	case errors.As(err, &invalidDictErr):
		response.BadRequest(w, err.Error())
	case errors.As(err, &unsupportedErr):
		response.BadRequest(w, err.Error())
	case errors.As(err, &providerErr):
		response.BadGateway(w, map[string]any{
			"provider": providerErr.Provider,
			"status":   providerErr.StatusCode,
			"message":  providerErr.Message,
		})
	case errors.As(err, &transportErr):
		response.BadGateway(w, err.Error())
	case errors.As(err, &malformedErr):
		response.BadGateway(w, map[string]any{
			"reason":  malformedErr.Reason,
			"preview": malformedErr.Preview,
		})
	default:
		response.InternalError(w, err.Error())
	}
}
