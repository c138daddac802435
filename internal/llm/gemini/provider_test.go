package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sqlscribe/sqlscribe/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		var gotPath, gotKey string
		var gotReq geminiRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotKey = r.URL.Query().Get("key")
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
			assert.Empty(t, r.Header.Get("Authorization"), "the key travels in the URL, not a header")

			json.NewEncoder(w).Encode(map[string]any{
				"candidates": []map[string]any{
					{"content": map[string]any{"parts": []map[string]any{
						{"text": "SELECT"}, {"text": " 1"},
					}}},
				},
				"usageMetadata": map[string]any{"promptTokenCount": 7, "candidatesTokenCount": 2, "totalTokenCount": 9},
			})
		}))
		defer server.Close()

		p := newProvider(server.URL, "gemini-1.5-flash")
		resp, err := p.Generate(context.Background(), []llm.Message{
			{Role: llm.RoleSystem, Content: "answer with SQL only"},
			{Role: llm.RoleUser, Content: "one"},
			{Role: llm.RoleAssistant, Content: "SELECT 1"},
			{Role: llm.RoleUser, Content: "again"},
		}, llm.Options{APIKey: "g-key", Temperature: 0.7, MaxTokens: 4000})
		require.NoError(t, err)

		assert.Equal(t, "SELECT 1", resp.Content, "candidate parts concatenate")
		assert.Equal(t, 9, resp.Usage.TotalTokens)
		assert.Equal(t, "/models/gemini-1.5-flash:generateContent", gotPath)
		assert.Equal(t, "g-key", gotKey)

		require.NotNil(t, gotReq.SystemInstruction)
		require.Len(t, gotReq.SystemInstruction.Parts, 1)
		assert.Equal(t, "answer with SQL only", gotReq.SystemInstruction.Parts[0].Text)

		require.Len(t, gotReq.Contents, 3, "system turns never appear under contents")
		assert.Equal(t, "user", gotReq.Contents[0].Role)
		assert.Equal(t, "model", gotReq.Contents[1].Role, "assistant maps to model")
		assert.Equal(t, 0.7, gotReq.GenerationConfig.Temperature)
		assert.Equal(t, 4000, gotReq.GenerationConfig.MaxOutputTokens)
	})

	t.Run("key is query-escaped", func(t *testing.T) {
		var gotKey string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotKey = r.URL.Query().Get("key")
			json.NewEncoder(w).Encode(map[string]any{
				"candidates": []map[string]any{
					{"content": map[string]any{"parts": []map[string]any{{"text": "x"}}}},
				},
			})
		}))
		defer server.Close()

		_, err := newProvider(server.URL, "").Generate(context.Background(), nil, llm.Options{APIKey: "k e&y"})
		require.NoError(t, err)
		assert.Equal(t, "k e&y", gotKey)
	})

	t.Run("vendor error message surfaces", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"error": {"message": "API key not valid. Please pass a valid API key.", "status": "INVALID_ARGUMENT"}}`)
		}))
		defer server.Close()

		_, err := newProvider(server.URL, "").Generate(context.Background(), nil, llm.Options{APIKey: "bad"})

		var providerErr *llm.ProviderError
		require.ErrorAs(t, err, &providerErr)
		assert.Equal(t, http.StatusBadRequest, providerErr.StatusCode)
		assert.Equal(t, "API key not valid. Please pass a valid API key.", providerErr.Message)
	})

	t.Run("no candidates is a provider error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"candidates": []}`)
		}))
		defer server.Close()

		_, err := newProvider(server.URL, "").Generate(context.Background(), nil, llm.Options{})

		var providerErr *llm.ProviderError
		require.ErrorAs(t, err, &providerErr)
	})

	t.Run("unreachable host is a transport error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close()

		_, err := newProvider(server.URL, "").Generate(context.Background(), nil, llm.Options{})

		var transportErr *llm.TransportError
		require.ErrorAs(t, err, &transportErr)
	})
}

func TestGenerateStream(t *testing.T) {
	t.Run("ends at EOF without a sentinel", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/models/gemini-1.5-flash:streamGenerateContent", r.URL.Path)
			assert.Equal(t, "sse", r.URL.Query().Get("alt"))

			w.Header().Set("Content-Type", "text/event-stream")
			fmt.Fprint(w, "data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"SELECT\"}]}}]}\n\n")
			fmt.Fprint(w, "data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":\" 1\"}]}}]}\n\n")
		}))
		defer server.Close()

		stream, err := newProvider(server.URL, "gemini-1.5-flash").GenerateStream(context.Background(), nil, llm.Options{})
		require.NoError(t, err)

		var chunks []llm.StreamChunk
		for chunk := range stream {
			chunks = append(chunks, chunk)
		}
		require.Len(t, chunks, 3)
		assert.Equal(t, "SELECT", chunks[0].Content)
		assert.Equal(t, " 1", chunks[1].Content)
		assert.True(t, chunks[2].Done)
	})

	t.Run("empty frames are skipped", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "data: {\"candidates\":[]}\n\n")
			fmt.Fprint(w, "data: not-json\n\n")
			fmt.Fprint(w, "data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"ok\"}]}}]}\n\n")
		}))
		defer server.Close()

		stream, err := newProvider(server.URL, "").GenerateStream(context.Background(), nil, llm.Options{})
		require.NoError(t, err)

		var chunks []llm.StreamChunk
		for chunk := range stream {
			chunks = append(chunks, chunk)
		}
		require.Len(t, chunks, 2)
		assert.Equal(t, "ok", chunks[0].Content)
		assert.True(t, chunks[1].Done)
	})
}
