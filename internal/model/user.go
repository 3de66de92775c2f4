package model

import (
	"encoding/json"
	"time"
)

// LoginRequest holds the credentials submitted by the login form.
type LoginRequest struct {
	Email    string `json:"email" form:"email" validate:"email"`
	Password string `json:"password" form:"password" validate:"min=7"`
}

// ValidationMessages overrides the default translated messages.
func (LoginRequest) ValidationMessages() map[string]string {
	return map[string]string{
		"email.email":  "Invalid email format",
		"password.min": "Password is too short",
	}
}

// RegisterInput holds the raw values of the registration form.
type RegisterInput struct {
	Username        string `json:"username" form:"username" validate:"min=3,max=50"`
	Email           string `json:"email" form:"email" validate:"email"`
	Password        string `json:"password" form:"password" validate:"min=8,max=50"`
	ConfirmPassword string `json:"confirmPassword" form:"confirmPassword" validate:"min=8,max=50,eqfield=Password"`
}

// ValidationMessages overrides the default translated messages.
func (RegisterInput) ValidationMessages() map[string]string {
	return map[string]string{
		"username.min":            "Username is too short",
		"username.max":            "Username must be at most 50 characters",
		"email.email":             "Invalid email format",
		"password.min":            "Password is too short",
		"password.max":            "Password must be at most 50 characters",
		"confirmPassword.min":     "Confirm password is too short",
		"confirmPassword.max":     "Confirm password must be at most 50 characters",
		"confirmPassword.eqfield": "Confirm password does not match",
	}
}

// Payload converts validated input into the wire request. Password is the
// authoritative field; ConfirmPassword only takes part in validation.
func (in RegisterInput) Payload() RegisterRequest {
	return RegisterRequest{
		Name:     in.Username,
		Email:    in.Email,
		Password: in.Password,
	}
}

// RegisterRequest is the body of POST /user/register.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResult is the backend's success body. Raw is kept verbatim; the other
// fields are a best-effort view and may be empty.
type AuthResult struct {
	Raw   json.RawMessage `json:"raw,omitempty"`
	Token string          `json:"token,omitempty"`
	Email string          `json:"email,omitempty"`
	Name  string          `json:"name,omitempty"`
}

// Session is the login artifact shared with the rest of the portal.
type Session struct {
	ID        string     `json:"id"`
	Token     string     `json:"token,omitempty"`
	Email     string     `json:"email"`
	Name      string     `json:"name,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at"`
	Result    AuthResult `json:"result"`
}

// DisplayName returns the name to greet the user with.
func (s Session) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Email
}
