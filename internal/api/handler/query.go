package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/sqlscribe/sqlscribe/internal/api/middleware"
	"github.com/sqlscribe/sqlscribe/internal/api/response"
	"github.com/sqlscribe/sqlscribe/internal/config"
	"github.com/sqlscribe/sqlscribe/internal/domain"
	"github.com/sqlscribe/sqlscribe/internal/service"
)

// QueryHandler handles SQL generation endpoints
type QueryHandler struct {
	queryService *service.QueryService
	llmCfg       config.LLMConfig
}

// NewQueryHandler creates a new query handler
func NewQueryHandler(queryService *service.QueryService, llmCfg config.LLMConfig) *QueryHandler {
	return &QueryHandler{queryService: queryService, llmCfg: llmCfg}
}

type generateRequest struct {
	Goal     string                `json:"goal" validate:"required"`
	Provider domain.ProviderConfig `json:"providerConfig"`
}

type repairRequest struct {
	Goal     string                `json:"goal" validate:"required"`
	SQL      string                `json:"sql" validate:"required"`
	Error    string                `json:"error" validate:"required"`
	Provider domain.ProviderConfig `json:"providerConfig"`
}

type suggestRequest struct {
	Provider domain.ProviderConfig `json:"providerConfig"`
}

// Generate turns a natural-language goal into SQL
func (h *QueryHandler) Generate(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := middleware.GetSessionID(r.Context())
	if !ok {
		response.BadRequest(w, "missing session ID")
		return
	}

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}
	fillProviderDefaults(h.llmCfg, &req.Provider)

	result, err := h.queryService.Generate(r.Context(), sessionID, req.Goal, req.Provider)
	if err != nil {
		writeError(w, err)
		return
	}

	response.OK(w, result)
}

// GenerateStream streams the raw model reply as server-sent events. The
// client assembles the chunks and interprets the full reply once the final
// done event arrives.
func (h *QueryHandler) GenerateStream(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := middleware.GetSessionID(r.Context())
	if !ok {
		response.BadRequest(w, "missing session ID")
		return
	}

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}
	fillProviderDefaults(h.llmCfg, &req.Provider)

	flusher, ok := w.(http.Flusher)
	if !ok {
		response.InternalError(w, "streaming not supported")
		return
	}

	stream, err := h.queryService.GenerateStream(r.Context(), sessionID, req.Goal, req.Provider)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	enc := json.NewEncoder(w)
	for chunk := range stream {
		w.Write([]byte("data: "))
		enc.Encode(map[string]any{
			"content": chunk.Content,
			"done":    chunk.Done,
		})
		w.Write([]byte("\n"))
		flusher.Flush()
	}
}

// Repair asks the model to fix a failing query
func (h *QueryHandler) Repair(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := middleware.GetSessionID(r.Context())
	if !ok {
		response.BadRequest(w, "missing session ID")
		return
	}

	var req repairRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}
	fillProviderDefaults(h.llmCfg, &req.Provider)

	result, err := h.queryService.Repair(r.Context(), sessionID, req.Goal, req.SQL, req.Error, req.Provider)
	if err != nil {
		writeError(w, err)
		return
	}

	response.OK(w, result)
}

// Suggest proposes analysis queries for the session's dictionary
func (h *QueryHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := middleware.GetSessionID(r.Context())
	if !ok {
		response.BadRequest(w, "missing session ID")
		return
	}

	var req suggestRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid request body")
			return
		}
	}
	fillProviderDefaults(h.llmCfg, &req.Provider)

	set, err := h.queryService.Suggest(r.Context(), sessionID, req.Provider)
	if err != nil {
		writeError(w, err)
		return
	}

	response.OK(w, set)
}

// History returns the session's persisted queries
func (h *QueryHandler) History(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := middleware.GetSessionID(r.Context())
	if !ok {
		response.BadRequest(w, "missing session ID")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 100
	}

	entries, err := h.queryService.History(r.Context(), sessionID, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	response.OK(w, map[string]any{
		"entries": entries,
	})
}
