package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/sqlscribe/sqlscribe/internal/api/middleware"
	"github.com/sqlscribe/sqlscribe/internal/api/response"
	"github.com/sqlscribe/sqlscribe/internal/service"
)

// SessionHandler handles session endpoints
type SessionHandler struct {
	sessionService *service.SessionService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessionService *service.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// Create starts a new session
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid request body")
			return
		}
	}

	session, err := h.sessionService.Create(r.Context(), req.Title)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Created(w, session)
}

// Get returns one session
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := middleware.GetSessionID(r.Context())
	if !ok {
		response.BadRequest(w, "missing session ID")
		return
	}

	session, err := h.sessionService.Get(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}

	response.OK(w, session)
}

// List returns recent sessions
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	sessions, err := h.sessionService.List(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}

	response.OK(w, map[string]any{
		"sessions": sessions,
	})
}
