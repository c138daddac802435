package handler

import (
	"encoding/json"
	"net/http"

	"github.com/sqlscribe/sqlscribe/internal/api/middleware"
	"github.com/sqlscribe/sqlscribe/internal/api/response"
	"github.com/sqlscribe/sqlscribe/internal/config"
	"github.com/sqlscribe/sqlscribe/internal/domain"
	"github.com/sqlscribe/sqlscribe/internal/service"
)

// DictionaryHandler handles field dictionary endpoints
type DictionaryHandler struct {
	dictService *service.DictionaryService
	llmCfg      config.LLMConfig
}

// NewDictionaryHandler creates a new dictionary handler
func NewDictionaryHandler(dictService *service.DictionaryService, llmCfg config.LLMConfig) *DictionaryHandler {
	return &DictionaryHandler{dictService: dictService, llmCfg: llmCfg}
}

type generateDictionaryRequest struct {
	Segments []domain.SQLSegment   `json:"segments" validate:"dive"`
	CSVFiles []domain.CSVSummary   `json:"csvFiles" validate:"dive"`
	Provider domain.ProviderConfig `json:"providerConfig"`
}

// Generate extracts a field dictionary from SQL segments and CSV summaries
func (h *DictionaryHandler) Generate(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := middleware.GetSessionID(r.Context())
	if !ok {
		response.BadRequest(w, "missing session ID")
		return
	}

	var req generateDictionaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}
	fillProviderDefaults(h.llmCfg, &req.Provider)

	dict, err := h.dictService.Generate(r.Context(), sessionID, req.Segments, req.CSVFiles, req.Provider)
	if err != nil {
		writeError(w, err)
		return
	}

	response.OK(w, dict)
}

// Get returns the session's dictionary
func (h *DictionaryHandler) Get(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := middleware.GetSessionID(r.Context())
	if !ok {
		response.BadRequest(w, "missing session ID")
		return
	}

	dict, err := h.dictService.Get(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}

	response.OK(w, dict)
}

// Update replaces the session's dictionary with a user-edited version
func (h *DictionaryHandler) Update(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := middleware.GetSessionID(r.Context())
	if !ok {
		response.BadRequest(w, "missing session ID")
		return
	}

	var dict domain.FieldDictionary
	if err := json.NewDecoder(r.Body).Decode(&dict); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := h.dictService.Update(r.Context(), sessionID, &dict); err != nil {
		writeError(w, err)
		return
	}

	response.OK(w, dict)
}

// Delete removes the session's dictionary
func (h *DictionaryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := middleware.GetSessionID(r.Context())
	if !ok {
		response.BadRequest(w, "missing session ID")
		return
	}

	if err := h.dictService.Delete(r.Context(), sessionID); err != nil {
		writeError(w, err)
		return
	}

	response.NoContent(w)
}
