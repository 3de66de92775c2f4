package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var echoEndpoint = Endpoint{Name: "echo", Method: http.MethodPost, Path: "/echo"}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL, Timeout: 2 * time.Second}, nil)
}

func TestDoSuccess(t *testing.T) {
	var gotBody map[string]string
	var gotHeaders http.Header

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/echo", r.URL.Path)
		gotHeaders = r.Header.Clone()
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	body, err := c.Do(context.Background(), echoEndpoint, map[string]string{"email": "a@b.com"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
	assert.Equal(t, "a@b.com", gotBody["email"])
	assert.Equal(t, "application/json", gotHeaders.Get("Content-Type"))
	assert.Equal(t, "application/json", gotHeaders.Get("Accept"))
	assert.NotEmpty(t, gotHeaders.Get("X-Request-ID"))
}

func TestDoUniqueRequestIDs(t *testing.T) {
	var ids []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		ids = append(ids, r.Header.Get("X-Request-ID"))
		w.WriteHeader(http.StatusNoContent)
	})

	for i := 0; i < 2; i++ {
		_, err := c.Do(context.Background(), echoEndpoint, nil)
		require.NoError(t, err)
	}
	require.Len(t, ids, 2)
	assert.NotEqual(t, ids[0], ids[1])
}

func TestDoErrorWithMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Invalid credentials"}`))
	})

	_, err := c.Do(context.Background(), echoEndpoint, nil)
	require.Error(t, err)

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Invalid credentials", apiErr.Message())
	assert.False(t, apiErr.Transport())
	assert.Contains(t, apiErr.Error(), "Invalid credentials")
}

func TestDoErrorWithErrorField(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"email already taken"}`))
	})

	_, err := c.Do(context.Background(), echoEndpoint, nil)

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "email already taken", apiErr.Message())
}

func TestDoErrorWithoutJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>upstream down</html>"))
	})

	_, err := c.Do(context.Background(), echoEndpoint, nil)

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Empty(t, apiErr.Message())
	assert.Equal(t, "echo: 502 Bad Gateway", apiErr.Error())
}

func TestDoTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	c := New(Config{BaseURL: srv.URL, Timeout: time.Second}, nil)
	_, err := c.Do(context.Background(), echoEndpoint, nil)

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.Transport())
	assert.Empty(t, apiErr.Message())
	assert.NotNil(t, errors.Unwrap(apiErr))
}

func TestDoNoRetry(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.Do(context.Background(), echoEndpoint, nil)
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDecode(t *testing.T) {
	c := New(Config{BaseURL: "http://unused"}, nil)

	var v struct {
		Token string `json:"token"`
	}
	require.NoError(t, c.Decode([]byte(`{"token":"abc"}`), &v))
	assert.Equal(t, "abc", v.Token)
}

func TestNilErrorMessage(t *testing.T) {
	var e *Error
	assert.Empty(t, e.Message())
}
