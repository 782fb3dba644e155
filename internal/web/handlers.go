package web

import (
	"net/http"
	"strings"

	"github.com/kuitang/cloudnotes/internal/i18n"
	"github.com/kuitang/cloudnotes/internal/notes"
	"github.com/kuitang/cloudnotes/internal/store"
)

// WebHandler provides HTTP handlers for web UI pages.
type WebHandler struct {
	renderer   *Renderer
	controller *notes.Controller
}

// NewWebHandler creates a new web handler.
func NewWebHandler(renderer *Renderer, controller *notes.Controller) *WebHandler {
	return &WebHandler{
		renderer:   renderer,
		controller: controller,
	}
}

// RegisterRoutes registers all web UI routes on the given mux.
func (h *WebHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.HandleNotesPage)
	mux.HandleFunc("POST /notes", h.HandleCreateNote)
	mux.HandleFunc("POST /notes/{id}/delete", h.HandleDeleteNote)
	mux.HandleFunc("POST /lang", h.HandleToggleLanguage)
}

// PageData contains the data passed to the notes page template.
type PageData struct {
	Strings i18n.Strings
	Lang    i18n.Lang
	Dir     string // "rtl" or "ltr"
	Notes   []store.Note
	Stats   notes.AppStats
	Query   string
	Toast   *notes.Notification
	Online  bool
}

// HandleNotesPage handles GET / - the single-page note list with stats,
// search, and the composer form. The ?q= parameter filters the list.
func (h *WebHandler) HandleNotesPage(w http.ResponseWriter, r *http.Request) {
	lang := h.controller.Language()
	query := r.URL.Query().Get("q")

	data := PageData{
		Strings: lang.Strings(),
		Lang:    lang,
		Dir:     lang.Dir(),
		Notes:   h.controller.Filter(query),
		Stats:   h.controller.Stats(),
		Query:   query,
		Toast:   h.controller.Notification(),
		Online:  h.controller.Online(),
	}

	if err := h.renderer.Render(w, "notes/index.html", data); err != nil {
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
	}
}

// HandleCreateNote handles POST /notes - form submission of a new note.
// Redirects back to the list either way: a refused submission (empty
// content or one already in flight) simply leaves the page unchanged.
func (h *WebHandler) HandleCreateNote(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.RenderError(w, http.StatusBadRequest, "Invalid form data")
		return
	}

	content := r.FormValue("content")
	if strings.TrimSpace(content) != "" {
		h.controller.Submit(r.Context(), content)
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleDeleteNote handles POST /notes/{id}/delete.
func (h *WebHandler) HandleDeleteNote(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	// The controller surfaces the outcome as a toast on the next page load.
	h.controller.Delete(r.Context(), id)

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleToggleLanguage handles POST /lang - flips between Arabic and
// English and persists the choice.
func (h *WebHandler) HandleToggleLanguage(w http.ResponseWriter, r *http.Request) {
	next := h.controller.Language().Toggle()
	if err := h.controller.SetLanguage(next); err != nil {
		h.renderer.RenderError(w, http.StatusInternalServerError, "Failed to save language preference")
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}
