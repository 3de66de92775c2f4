package apiclient

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"
)

// ErrorData is the body shape of a rejected call. Backends use either
// {"message": "..."} or {"error": "..."}.
type ErrorData struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Error is returned for transport failures (StatusCode 0) and non-2xx responses.
type Error struct {
	Endpoint   string
	RequestID  string
	StatusCode int
	Data       ErrorData
	Body       []byte
	Err        error
}

func newStatusError(endpoint, requestID string, status int, body []byte) *Error {
	e := &Error{
		Endpoint:   endpoint,
		RequestID:  requestID,
		StatusCode: status,
		Body:       body,
	}
	// A body that is not the expected shape leaves Data empty.
	_ = sonic.Unmarshal(body, &e.Data)
	return e
}

func (e *Error) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: request failed: %v", e.Endpoint, e.Err)
	}
	if msg := e.Message(); msg != "" {
		return fmt.Sprintf("%s: %d %s: %s", e.Endpoint, e.StatusCode, http.StatusText(e.StatusCode), msg)
	}
	return fmt.Sprintf("%s: %d %s", e.Endpoint, e.StatusCode, http.StatusText(e.StatusCode))
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Message returns the backend's human-readable message, or "".
func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	if msg := strings.TrimSpace(e.Data.Message); msg != "" {
		return msg
	}
	return strings.TrimSpace(e.Data.Error)
}

// Transport reports whether the call never produced an HTTP response.
func (e *Error) Transport() bool {
	return e.StatusCode == 0
}
