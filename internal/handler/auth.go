package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/authportal/authportal-go/internal/apiclient"
	"github.com/authportal/authportal-go/internal/form"
	"github.com/authportal/authportal-go/internal/middleware"
	"github.com/authportal/authportal-go/internal/model"
	"github.com/authportal/authportal-go/internal/service"
	"github.com/authportal/authportal-go/internal/validation"
	"github.com/authportal/authportal-go/internal/web"
)

// AuthHandler handles the login, registration and logout forms.
type AuthHandler struct {
	service *service.AuthService
	cookies *middleware.Cookies
	view    *View
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc *service.AuthService, cookies *middleware.Cookies, view *View) *AuthHandler {
	return &AuthHandler{service: svc, cookies: cookies, view: view}
}

// ShowLogin handles GET /login.
func (h *AuthHandler) ShowLogin(w http.ResponseWriter, r *http.Request) {
	h.view.Render(w, r, http.StatusOK, "login", web.Page{Title: "Login", Form: web.NewFormView()})
}

// HandleLogin handles POST /login.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}

	in := loginInput(r)
	out := h.service.Login(r.Context(), clientID(r), in)

	if out.Status == form.StatusSucceeded {
		h.cookies.SetSession(w, out.Result)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	view := web.NewFormView()
	view.Values["email"] = in.Email
	h.renderOutcome(w, r, "login", "Login", view, out.Status, out.Errors, out.Err)
}

// ShowRegister handles GET /register.
func (h *AuthHandler) ShowRegister(w http.ResponseWriter, r *http.Request) {
	h.view.Render(w, r, http.StatusOK, "register", web.Page{Title: "Register", Form: web.NewFormView()})
}

// HandleRegister handles POST /register.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}

	in := registerInput(r)
	out := h.service.Register(r.Context(), clientID(r), in)

	if out.Status == form.StatusSucceeded {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	view := web.NewFormView()
	view.Values["username"] = in.Username
	view.Values["email"] = in.Email
	h.renderOutcome(w, r, "register", "Register", view, out.Status, out.Errors, out.Err)
}

// HandleLogout handles POST /logout.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if id, ok := h.cookies.SessionID(r); ok {
		if err := h.service.Logout(r.Context(), id); err != nil {
			h.view.log.Error("logout failed", "error", err)
		}
	}
	h.cookies.ClearSession(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

type validateResponse struct {
	Valid  bool                   `json:"valid"`
	Errors validation.FieldErrors `json:"errors"`
}

// HandleValidate handles POST /api/validate/{form}. The optional field query
// parameter restricts the result to one field.
func (h *AuthHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse("invalid request body"))
		return
	}

	field := r.URL.Query().Get("field")
	var errs validation.FieldErrors
	switch chi.URLParam(r, "form") {
	case "login":
		errs = h.service.ValidateLogin(clientID(r), loginInput(r), field)
	case "register":
		errs = h.service.ValidateRegister(clientID(r), registerInput(r), field)
	default:
		writeJSON(w, http.StatusNotFound, errorResponse("unknown form"))
		return
	}

	if errs == nil {
		errs = validation.FieldErrors{}
	}
	writeJSON(w, http.StatusOK, validateResponse{Valid: errs.Empty(), Errors: errs})
}

func (h *AuthHandler) renderOutcome(w http.ResponseWriter, r *http.Request, page, title string, view *web.FormView, status form.Status, errs validation.FieldErrors, err error) {
	code := http.StatusOK
	switch status {
	case form.StatusInvalid:
		code = http.StatusUnprocessableEntity
		view.Errors = errs
	case form.StatusBusy:
		code = http.StatusConflict
	case form.StatusFailed:
		code = failureStatus(err)
	}
	h.view.Render(w, r, code, page, web.Page{Title: title, Form: view})
}

// failureStatus passes upstream client errors through, reports an
// unreachable backend as unavailable and everything else as a bad gateway.
func failureStatus(err error) int {
	var apiErr *apiclient.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Transport():
			return http.StatusServiceUnavailable
		case apiErr.StatusCode >= 400 && apiErr.StatusCode < 500:
			return apiErr.StatusCode
		}
	}
	return http.StatusBadGateway
}

func parseForm(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return false
		}
		http.Error(w, "invalid form body", http.StatusBadRequest)
		return false
	}
	return true
}

func loginInput(r *http.Request) model.LoginRequest {
	return model.LoginRequest{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}
}

func registerInput(r *http.Request) model.RegisterInput {
	return model.RegisterInput{
		Username:        r.PostFormValue("username"),
		Email:           r.PostFormValue("email"),
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirmPassword"),
	}
}

func clientID(r *http.Request) string {
	id, _ := middleware.ClientIDFromContext(r.Context())
	return id
}
