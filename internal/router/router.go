// Package router declares the portal's routes and middleware stack.
package router

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/authportal/authportal-go/internal/handler"
	"github.com/authportal/authportal-go/internal/middleware"
)

// Route binds one method and path to a handler. Limited routes go through
// the rate limiter.
type Route struct {
	Method  string
	Path    string
	Handler http.HandlerFunc
	Limited bool
}

// Deps are the collaborators the routes are built from.
type Deps struct {
	Auth    *handler.AuthHandler
	Pages   *handler.PageHandler
	Cookies *middleware.Cookies
	Limiter *middleware.RateLimiter
	Session middleware.SessionLookup
	Logger  *slog.Logger
}

// Routes returns the route table.
func Routes(d Deps) []Route {
	return []Route{
		{Method: http.MethodGet, Path: "/", Handler: d.Pages.Home},
		{Method: http.MethodGet, Path: "/about", Handler: d.Pages.About},
		{Method: http.MethodGet, Path: "/login", Handler: d.Auth.ShowLogin},
		{Method: http.MethodPost, Path: "/login", Handler: d.Auth.HandleLogin, Limited: true},
		{Method: http.MethodGet, Path: "/register", Handler: d.Auth.ShowRegister},
		{Method: http.MethodPost, Path: "/register", Handler: d.Auth.HandleRegister, Limited: true},
		{Method: http.MethodPost, Path: "/logout", Handler: d.Auth.HandleLogout},
		{Method: http.MethodPost, Path: "/api/validate/{form}", Handler: d.Auth.HandleValidate},
	}
}

// New builds the HTTP handler of the portal.
func New(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.Logger(d.Logger))
	r.Use(chimw.Recoverer)

	r.Get("/health", handler.Health)

	r.Group(func(r chi.Router) {
		r.Use(d.Cookies.ClientID)
		r.Use(d.Cookies.LoadSession(d.Session))

		for _, rt := range Routes(d) {
			var h http.Handler = rt.Handler
			if rt.Limited && d.Limiter != nil {
				h = d.Limiter.Limit(h)
			}
			r.Method(rt.Method, rt.Path, h)
		}

		r.NotFound(d.Pages.NotFound)
	})

	return r
}
