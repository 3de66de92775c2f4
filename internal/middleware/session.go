package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/authportal/authportal-go/internal/crypto"
	"github.com/authportal/authportal-go/internal/model"
)

type contextKey string

const (
	clientIDKey contextKey = "clientID"
	sessionKey  contextKey = "session"
)

const (
	ClientCookie  = "portal_client"
	SessionCookie = "portal_session"

	clientCookieTTL = 365 * 24 * time.Hour
)

// SessionLookup resolves a session ID to a live session.
type SessionLookup func(ctx context.Context, id string) (model.Session, error)

// Cookies issues and reads the sealed client and session cookies.
type Cookies struct {
	sealer *crypto.Sealer
	secure bool
}

// NewCookies creates a cookie manager sealing values with sealer.
func NewCookies(sealer *crypto.Sealer, secure bool) *Cookies {
	return &Cookies{sealer: sealer, secure: secure}
}

// ClientID ensures every request carries a client ID, issuing a new one
// when the cookie is missing or fails to open.
func (c *Cookies) ClientID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := c.read(r, ClientCookie)
		if !ok {
			id = uuid.NewString()
			c.write(w, ClientCookie, id, time.Now().Add(clientCookieTTL))
		}
		next.ServeHTTP(w, r.WithContext(WithClientID(r.Context(), id)))
	})
}

// LoadSession attaches the signed-in session, if any, to the request
// context. Stale session cookies are cleared.
func (c *Cookies) LoadSession(lookup SessionLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := c.read(r, SessionCookie)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			sess, err := lookup(r.Context(), id)
			if err != nil {
				c.ClearSession(w)
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SetSession stores the sealed session ID in the session cookie.
func (c *Cookies) SetSession(w http.ResponseWriter, s model.Session) {
	c.write(w, SessionCookie, s.ID, s.ExpiresAt)
}

// ClearSession expires the session cookie.
func (c *Cookies) ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// SessionID returns the session ID carried by the request's cookie.
func (c *Cookies) SessionID(r *http.Request) (string, bool) {
	return c.read(r, SessionCookie)
}

func (c *Cookies) read(r *http.Request, name string) (string, bool) {
	ck, err := r.Cookie(name)
	if err != nil || ck.Value == "" {
		return "", false
	}
	v, err := c.sealer.Open(ck.Value)
	if err != nil || v == "" {
		return "", false
	}
	return v, true
}

func (c *Cookies) write(w http.ResponseWriter, name, value string, expires time.Time) {
	sealed, err := c.sealer.Seal(value)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    sealed,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClientIDFromContext extracts the client ID from the request context.
func ClientIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(clientIDKey).(string)
	return id, ok
}

// SessionFromContext extracts the signed-in session from the request context.
func SessionFromContext(ctx context.Context) (model.Session, bool) {
	s, ok := ctx.Value(sessionKey).(model.Session)
	return s, ok
}

// WithClientID returns a copy of ctx carrying id.
func WithClientID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, clientIDKey, id)
}
