package handler

import (
	"net/http"

	"github.com/authportal/authportal-go/internal/web"
)

// PageHandler serves the static pages of the portal.
type PageHandler struct {
	view *View
}

// NewPageHandler creates a new PageHandler.
func NewPageHandler(view *View) *PageHandler {
	return &PageHandler{view: view}
}

// Home handles GET /.
func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request) {
	h.view.Render(w, r, http.StatusOK, "home", web.Page{Title: "Home"})
}

// About handles GET /about.
func (h *PageHandler) About(w http.ResponseWriter, r *http.Request) {
	h.view.Render(w, r, http.StatusOK, "about", web.Page{Title: "About"})
}

// NotFound renders the error page for unknown routes.
func (h *PageHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.view.Render(w, r, http.StatusNotFound, "error", web.Page{
		Title:   "Page not found",
		Message: "The page you are looking for does not exist.",
	})
}

// Health handles GET /health.
func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
