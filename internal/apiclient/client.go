// Package apiclient is the preconfigured request dispatcher for the remote
// auth API. It owns the base URL, timeouts, default headers and the JSON
// codec, and converts non-2xx responses into *Error values.
package apiclient

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

// Endpoint names one logical operation and the HTTP call it maps to.
type Endpoint struct {
	Name   string
	Method string
	Path   string
}

// Config configures the client base.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	Headers   map[string]string
	UserAgent string
	Debug     bool
}

// Client dispatches Endpoint calls against the configured backend.
type Client struct {
	resty *resty.Client
	log   *slog.Logger
}

// New creates a Client. Requests are never retried automatically.
func New(cfg Config, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "authportal-go"
	}

	r := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeaders(cfg.Headers).
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal).
		SetDebug(cfg.Debug)

	return &Client{resty: r, log: log}
}

// Do sends body as JSON to the endpoint and returns the raw success body.
// Any failure is returned as *Error.
func (c *Client) Do(ctx context.Context, ep Endpoint, body any) ([]byte, error) {
	requestID := uuid.NewString()

	req := c.resty.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-Request-ID", requestID)
	if body != nil {
		req.SetBody(body)
	}

	start := time.Now()
	resp, err := req.Execute(ep.Method, ep.Path)
	if err != nil {
		c.log.Warn("api request failed",
			"endpoint", ep.Name, "request_id", requestID, "error", err)
		return nil, &Error{Endpoint: ep.Name, RequestID: requestID, Err: err}
	}

	c.log.Debug("api request",
		"endpoint", ep.Name,
		"method", ep.Method,
		"path", ep.Path,
		"status", resp.StatusCode(),
		"request_id", requestID,
		"duration", time.Since(start))

	if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		return nil, newStatusError(ep.Name, requestID, resp.StatusCode(), resp.Body())
	}

	return resp.Body(), nil
}

// Decode unmarshals a success body with the client's codec.
func (c *Client) Decode(body []byte, v any) error {
	return sonic.Unmarshal(body, v)
}
