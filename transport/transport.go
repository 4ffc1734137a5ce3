// Package transport is the REST client every query goes through: base
// URL handling, bearer injection, the {success, message, data}
// envelope, and the global 401 hook.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"vistagram/config"
	"vistagram/session"
	"vistagram/types"

	"github.com/infinitybotlist/eureka/jsonimpl"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type Client struct {
	base    string
	http    *http.Client
	session *session.Session
	limiter *rate.Limiter
	log     *zap.Logger

	// onUnauthorized runs once per 401 response. The wiring layer uses it
	// to clear the session; individual mutations never handle 401
	// themselves.
	onUnauthorized func()
}

func New(cfg config.API, sess *session.Session, log *zap.Logger) *Client {
	return &Client{
		base: cfg.BaseURL,
		http: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		session: sess,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		log:     log,
	}
}

// NewPublic is a client without a session: no auth header is ever sent.
// Used for endpoints that must work logged out.
func NewPublic(cfg config.API, log *zap.Logger) *Client {
	return New(cfg, nil, log)
}

func (c *Client) OnUnauthorized(fn func()) {
	c.onUnauthorized = fn
}

func (c *Client) Get(ctx context.Context, path string, params url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, params, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body any, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) Patch(ctx context.Context, path string, body any, out any) error {
	return c.do(ctx, http.MethodPatch, path, nil, body, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, out)
}

// envelope mirrors types.Response but defers payload decoding so each
// caller can unmarshal data into its own shape.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	endpoint := c.base + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := jsonimpl.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.session != nil {
		if token := c.session.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	var env envelope
	if len(raw) > 0 {
		// Some error responses are not enveloped at all; the status code
		// alone is enough in that case.
		_ = jsonimpl.Unmarshal(raw, &env)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.failure(resp, env)
	}

	if !env.Success {
		return &types.APIError{Status: resp.StatusCode, Message: env.Message}
	}

	if out != nil && len(env.Data) > 0 {
		if err := jsonimpl.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("failed to decode response data: %w", err)
		}
	}

	return nil
}

func (c *Client) failure(resp *http.Response, env envelope) error {
	apiErr := &types.APIError{
		Status:  resp.StatusCode,
		Message: env.Message,
	}

	// Validation errors ride in the data field of the error envelope.
	if len(env.Data) > 0 {
		var fields []types.FieldError
		if err := jsonimpl.Unmarshal(env.Data, &fields); err == nil {
			apiErr.Fields = fields
		}
	}

	switch {
	case apiErr.IsUnauthorized():
		c.log.Warn("Unauthorized response, dropping session",
			zap.String("url", resp.Request.URL.Path))
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
	case apiErr.IsRateLimited():
		c.log.Warn("Rate limited by server",
			zap.String("url", resp.Request.URL.Path),
			zap.String("retryAfter", resp.Header.Get("Retry-After")))
	case apiErr.IsServerError():
		c.log.Error("Server error",
			zap.String("url", resp.Request.URL.Path),
			zap.Int("status", resp.StatusCode))
	}

	return apiErr
}
