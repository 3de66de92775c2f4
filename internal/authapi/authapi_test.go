package authapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authportal/authportal-go/internal/apiclient"
	"github.com/authportal/authportal-go/internal/model"
)

type recorded struct {
	method string
	path   string
	body   map[string]string
}

func newTestAPI(t *testing.T, status int, response string) (*API, *[]recorded) {
	t.Helper()
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{method: r.Method, path: r.URL.Path}
		_ = json.NewDecoder(r.Body).Decode(&rec.body)
		calls = append(calls, rec)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return New(apiclient.New(apiclient.Config{BaseURL: srv.URL}, nil)), &calls
}

func TestLoginMutation(t *testing.T) {
	api, calls := newTestAPI(t, http.StatusOK, `{"token":"tok-1","user":{"email":"a@b.com","name":"Alice"}}`)

	res, err := api.Login(context.Background(), model.LoginRequest{Email: "a@b.com", Password: "secret12"})
	require.NoError(t, err)

	require.Len(t, *calls, 1)
	call := (*calls)[0]
	assert.Equal(t, http.MethodPost, call.method)
	assert.Equal(t, "/auth/login", call.path)
	assert.Equal(t, map[string]string{"email": "a@b.com", "password": "secret12"}, call.body)

	assert.Equal(t, "tok-1", res.Token)
	assert.Equal(t, "a@b.com", res.Email)
	assert.Equal(t, "Alice", res.Name)
	assert.JSONEq(t, `{"token":"tok-1","user":{"email":"a@b.com","name":"Alice"}}`, string(res.Raw))
}

func TestRegisterMutation(t *testing.T) {
	api, calls := newTestAPI(t, http.StatusCreated, `{"success":true,"data":{"name":"alice","email":"a@b.com"}}`)

	in := model.RegisterInput{Username: "alice", Email: "a@b.com", Password: "password1", ConfirmPassword: "password1"}
	res, err := api.Register(context.Background(), in.Payload())
	require.NoError(t, err)

	require.Len(t, *calls, 1)
	call := (*calls)[0]
	assert.Equal(t, "/user/register", call.path)
	assert.Equal(t, map[string]string{"name": "alice", "email": "a@b.com", "password": "password1"}, call.body)
	assert.Equal(t, "a@b.com", res.Email)
	assert.Equal(t, "alice", res.Name)
}

func TestRegisterPayloadUsesPassword(t *testing.T) {
	in := model.RegisterInput{Username: "alice", Email: "a@b.com", Password: "from-password", ConfirmPassword: "from-confirm"}
	assert.Equal(t, "from-password", in.Payload().Password)
}

func TestTokenVariants(t *testing.T) {
	tests := map[string]string{
		`{"accessToken":"t1"}`:               "t1",
		`{"access_token":"t2"}`:              "t2",
		`{"data":{"accessToken":"t3"}}`:      "t3",
		`{"token":"t4","data":{"token":"x"}}`: "t4",
		`{"message":"ok"}`:                   "",
	}
	for body, want := range tests {
		api, _ := newTestAPI(t, http.StatusOK, body)
		res, err := api.Login(context.Background(), model.LoginRequest{})
		require.NoError(t, err, body)
		assert.Equal(t, want, res.Token, body)
	}
}

func TestNonObjectResult(t *testing.T) {
	api, _ := newTestAPI(t, http.StatusOK, `"registered"`)

	res, err := api.Register(context.Background(), model.RegisterRequest{})
	require.NoError(t, err)
	assert.Equal(t, `"registered"`, string(res.Raw))
	assert.Empty(t, res.Token)
}

func TestRejectedMutation(t *testing.T) {
	api, _ := newTestAPI(t, http.StatusUnauthorized, `{"message":"Invalid credentials"}`)

	_, err := api.Login(context.Background(), model.LoginRequest{Email: "a@b.com", Password: "secret12"})

	var apiErr *apiclient.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Invalid credentials", apiErr.Message())
	assert.Equal(t, "login", apiErr.Endpoint)
}

func TestEachCallIssuesARequest(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	api := New(apiclient.New(apiclient.Config{BaseURL: srv.URL}, nil))
	req := model.LoginRequest{Email: "a@b.com", Password: "secret12"}
	_, _ = api.Login(context.Background(), req)
	_, _ = api.Login(context.Background(), req)

	assert.Equal(t, int32(2), hits.Load())
}
