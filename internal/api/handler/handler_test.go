package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/sqlscribe/sqlscribe/internal/config"
	"github.com/sqlscribe/sqlscribe/internal/domain"
	"github.com/sqlscribe/sqlscribe/internal/interpret"
	"github.com/sqlscribe/sqlscribe/internal/llm"
	"github.com/sqlscribe/sqlscribe/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCheck(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()

	HealthCheck(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var response map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	assert.Equal(t, true, response["success"])
}

func TestReadyCheckWithoutPinger(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/ready", nil)
	rec := httptest.NewRecorder()

	ReadyCheck(nil)(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{
			name:     "missing dictionary",
			err:      &service.DictionaryMissingError{SessionID: uuid.New()},
			expected: http.StatusConflict,
		},
		{
			name:     "not found",
			err:      domain.ErrNotFound,
			expected: http.StatusNotFound,
		},
		{
			name:     "invalid dictionary edit",
			err:      &service.InvalidDictionaryError{Err: errors.New(`duplicate table "users"`)},
			expected: http.StatusBadRequest,
		},
		{
			name:     "unsupported provider",
			err:      &llm.UnsupportedProviderError{Provider: "nope"},
			expected: http.StatusBadRequest,
		},
		{
			name:     "provider error",
			err:      &llm.ProviderError{Provider: "openai", StatusCode: 401, Message: "bad key"},
			expected: http.StatusBadGateway,
		},
		{
			name:     "transport error",
			err:      &llm.TransportError{Provider: "openai", Err: errors.New("connection refused")},
			expected: http.StatusBadGateway,
		},
		{
			name:     "malformed model response",
			err:      &interpret.MalformedResponseError{Raw: "eh", Preview: "eh", Reason: "invalid JSON"},
			expected: http.StatusBadGateway,
		},
		{
			name:     "anything else",
			err:      errors.New("boom"),
			expected: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, tt.err)
			assert.Equal(t, tt.expected, rec.Code)
		})
	}
}

func TestFillProviderDefaults(t *testing.T) {
	llmCfg := config.LLMConfig{
		DefaultProvider: "qianwen",
		Qianwen:         config.ProviderConfig{APIKey: "server-key", Model: "qwen-plus"},
		OpenAI:          config.ProviderConfig{APIKey: "openai-key"},
	}

	t.Run("empty config resolves to server defaults", func(t *testing.T) {
		pc := domain.ProviderConfig{}
		fillProviderDefaults(llmCfg, &pc)

		assert.Equal(t, "qianwen", pc.Provider)
		assert.Equal(t, "server-key", pc.APIKey)
		assert.Equal(t, "qwen-plus", pc.Model)
	})

	t.Run("request key always wins", func(t *testing.T) {
		pc := domain.ProviderConfig{Provider: "openai", APIKey: "user-key"}
		fillProviderDefaults(llmCfg, &pc)

		assert.Equal(t, "user-key", pc.APIKey)
	})

	t.Run("unknown provider keeps its name for the dispatcher to reject", func(t *testing.T) {
		pc := domain.ProviderConfig{Provider: "mystery"}
		fillProviderDefaults(llmCfg, &pc)

		assert.Equal(t, "mystery", pc.Provider)
		assert.Empty(t, pc.APIKey)
	})
}
