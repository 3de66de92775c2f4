package handler

import (
	"log/slog"
	"net/http"

	"github.com/bytedance/sonic"

	"github.com/authportal/authportal-go/internal/middleware"
	"github.com/authportal/authportal-go/internal/service"
	"github.com/authportal/authportal-go/internal/web"
)

const maxFormBytes = 1 << 20 // 1MB

// View renders pages with the visitor's session and pending toasts filled in.
type View struct {
	renderer *web.Renderer
	service  *service.AuthService
	log      *slog.Logger
}

// NewView creates a new View.
func NewView(renderer *web.Renderer, svc *service.AuthService, log *slog.Logger) *View {
	if log == nil {
		log = slog.Default()
	}
	return &View{renderer: renderer, service: svc, log: log}
}

// Render writes page name with status. Toasts queued for the client are
// drained into the page.
func (v *View) Render(w http.ResponseWriter, r *http.Request, status int, name string, page web.Page) {
	ctx := r.Context()
	if sess, ok := middleware.SessionFromContext(ctx); ok {
		page.Session = &sess
	}
	if clientID, ok := middleware.ClientIDFromContext(ctx); ok {
		page.Toasts = append(page.Toasts, v.service.Notifications(clientID)...)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := v.renderer.Render(w, name, page); err != nil {
		v.log.Error("page render failed", "page", name, "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := sonic.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func errorResponse(msg string) map[string]string {
	return map[string]string{"error": msg}
}
