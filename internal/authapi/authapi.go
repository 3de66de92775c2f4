// Package authapi defines the register and login operations of the remote
// auth API as callable mutations bound to an apiclient.Client.
package authapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/authportal/authportal-go/internal/apiclient"
	"github.com/authportal/authportal-go/internal/model"
)

var (
	RegisterEndpoint = apiclient.Endpoint{Name: "register", Method: http.MethodPost, Path: "/user/register"}
	LoginEndpoint    = apiclient.Endpoint{Name: "login", Method: http.MethodPost, Path: "/auth/login"}
)

// Mutation issues one request per call and resolves to the backend's result.
type Mutation[Req any] func(ctx context.Context, req Req) (model.AuthResult, error)

// NewMutation binds an endpoint to the client base.
func NewMutation[Req any](c *apiclient.Client, ep apiclient.Endpoint) Mutation[Req] {
	return func(ctx context.Context, req Req) (model.AuthResult, error) {
		body, err := c.Do(ctx, ep, req)
		if err != nil {
			return model.AuthResult{}, err
		}
		return decodeResult(c, body)
	}
}

// API groups the auth mutations.
type API struct {
	Register Mutation[model.RegisterRequest]
	Login    Mutation[model.LoginRequest]
}

// New builds the auth mutations on top of c.
func New(c *apiclient.Client) *API {
	return &API{
		Register: NewMutation[model.RegisterRequest](c, RegisterEndpoint),
		Login:    NewMutation[model.LoginRequest](c, LoginEndpoint),
	}
}

type userFields struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type resultFields struct {
	Token            string      `json:"token"`
	AccessToken      string      `json:"accessToken"`
	AccessTokenSnake string      `json:"access_token"`
	Email            string      `json:"email"`
	Name             string      `json:"name"`
	User             *userFields `json:"user"`
}

func (f *resultFields) token() string {
	switch {
	case f.Token != "":
		return f.Token
	case f.AccessToken != "":
		return f.AccessToken
	default:
		return f.AccessTokenSnake
	}
}

type resultEnvelope struct {
	resultFields
	Data *resultFields `json:"data"`
}

// decodeResult keeps the raw body and extracts what it can. Only a body that
// is not JSON at all is an error; an empty body is a valid empty result.
func decodeResult(c *apiclient.Client, body []byte) (model.AuthResult, error) {
	result := model.AuthResult{}
	if len(body) == 0 {
		return result, nil
	}
	result.Raw = append([]byte(nil), body...)

	var env resultEnvelope
	if err := c.Decode(body, &env); err != nil {
		// Backends may answer {"data": "ok"} or a bare string; the raw body
		// is still the result.
		var anyJSON any
		if c.Decode(body, &anyJSON) != nil {
			return model.AuthResult{}, fmt.Errorf("decoding auth result: %w", err)
		}
		return result, nil
	}

	for _, f := range []*resultFields{&env.resultFields, env.Data} {
		if f == nil {
			continue
		}
		if result.Token == "" {
			result.Token = f.token()
		}
		if result.Email == "" {
			result.Email = f.Email
		}
		if result.Name == "" {
			result.Name = f.Name
		}
		if f.User != nil {
			if result.Email == "" {
				result.Email = f.User.Email
			}
			if result.Name == "" {
				result.Name = f.User.Name
			}
		}
	}
	return result, nil
}
