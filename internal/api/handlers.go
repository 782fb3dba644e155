// Package api exposes the note application over JSON HTTP plus a
// server-sent events feed mirroring the live note list.
package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/kuitang/cloudnotes/internal/errs"
	"github.com/kuitang/cloudnotes/internal/i18n"
	"github.com/kuitang/cloudnotes/internal/notes"
	"github.com/kuitang/cloudnotes/internal/store"
)

// Handler wraps the note controller and provides HTTP handlers
type Handler struct {
	controller *notes.Controller
}

// NewHandler creates a new API handler with the given controller
func NewHandler(controller *notes.Controller) *Handler {
	return &Handler{controller: controller}
}

// RegisterRoutes registers all API routes on the given mux
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Go 1.22+ routing patterns
	mux.HandleFunc("GET /api/notes", h.ListNotes)
	mux.HandleFunc("POST /api/notes", h.CreateNote)
	mux.HandleFunc("DELETE /api/notes/{id}", h.DeleteNote)
	mux.HandleFunc("GET /api/stats", h.GetStats)
	mux.HandleFunc("POST /api/lang", h.SetLanguage)
	mux.HandleFunc("GET /api/events", h.StreamEvents)
}

// ListResponse is the envelope for the note list endpoint.
type ListResponse struct {
	Notes  []store.Note `json:"notes"`
	Online bool         `json:"online"`
}

// ListNotes handles GET /api/notes - returns the visible note list,
// newest first. An optional ?q= parameter filters by content or title
// substring.
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	writeJSON(w, http.StatusOK, ListResponse{
		Notes:  h.controller.Filter(query),
		Online: h.controller.Online(),
	})
}

// CreateRequest represents the request body for note creation
type CreateRequest struct {
	Content string `json:"content"`
}

// CreateNote handles POST /api/notes - accepts a note for enrichment and
// persistence. Returns 202 with the placeholder note: the AI fields are
// provisional until the background pipeline settles.
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}

	if strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusBadRequest, "Content is required")
		return
	}

	note, accepted := h.controller.Submit(r.Context(), req.Content)
	if !accepted {
		// Content was valid, so the single-flight guard refused it.
		writeError(w, http.StatusConflict, "Another submission is in progress")
		return
	}

	writeJSON(w, http.StatusAccepted, note)
}

// DeleteNote handles DELETE /api/notes/{id} - removes a note
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "Note ID is required")
		return
	}

	if err := h.controller.Delete(r.Context(), id); err != nil {
		writeError(w, errs.HTTPStatus(errs.CodeOf(err)), errs.MessageOf(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// StatsResponse mirrors the controller's category summary.
type StatsResponse struct {
	Total      int            `json:"total"`
	Categories map[string]int `json:"categories"`
}

// GetStats handles GET /api/stats - returns note counts per category
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats := h.controller.Stats()
	writeJSON(w, http.StatusOK, StatsResponse{
		Total:      stats.Total,
		Categories: stats.Categories,
	})
}

// LangRequest represents the request body for the language switch
type LangRequest struct {
	Lang string `json:"lang"`
}

// SetLanguage handles POST /api/lang - switches and persists the UI language
func (h *Handler) SetLanguage(w http.ResponseWriter, r *http.Request) {
	var req LangRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}

	lang := i18n.Lang(req.Lang)
	if !lang.Valid() {
		writeError(w, http.StatusBadRequest, "Unsupported language: "+req.Lang)
		return
	}

	if err := h.controller.SetLanguage(lang); err != nil {
		writeError(w, errs.HTTPStatus(errs.CodeOf(err)), errs.MessageOf(err))
		return
	}

	writeJSON(w, http.StatusOK, LangRequest{Lang: string(lang)})
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response with the given status code
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
