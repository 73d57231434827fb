// Package api implements the authenticated request gateway. Every outbound
// call passes through it so the bearer token and request id are attached in
// one place.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/NutriCheck-Fiicode-malloc-team/NutriCheck-Mobile/internal/apierr"
	"github.com/NutriCheck-Fiicode-malloc-team/NutriCheck-Mobile/internal/obs"
	"github.com/NutriCheck-Fiicode-malloc-team/NutriCheck-Mobile/internal/secure"
)

// SessionReader reads session material from the secure store.
// *secure.Store satisfies it.
type SessionReader interface {
	Get(key string) (string, error)
}

// Client wraps an *http.Client with the gateway behavior: base-URL joining,
// bearer injection from the secure store, request ids, JSON codec, and the
// typed error taxonomy for non-2xx responses.
type Client struct {
	base     string
	http     *http.Client
	sessions SessionReader
}

// New returns a gateway bound to base. sessions may be nil, in which case all
// requests go out unauthenticated.
func New(base string, timeout time.Duration, sessions SessionReader) *Client {
	return &Client{
		base:     strings.TrimRight(base, "/"),
		http:     &http.Client{Timeout: timeout},
		sessions: sessions,
	}
}

// url resolves path against the configured base. Absolute URLs pass through
// untouched so third-party endpoints can share the gateway.
func (c *Client) url(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.base + path
}

// authorize runs the pre-send hook: read the session token and set the bearer
// header. A failed read is logged and swallowed so the request still goes out
// unauthenticated; the backend rejects it if auth was required.
func (c *Client) authorize(req *http.Request) {
	if c.sessions == nil {
		return
	}
	token, err := c.sessions.Get(secure.SessionKey)
	if err != nil {
		if !errors.Is(err, secure.ErrNotFound) {
			obs.Logger.Warn("session_read_failed", "error", err)
		}
		return
	}
	if token == "" {
		return
	}
	req.Header.Set("Authorization", "Bearer "+token)
}

// Do issues one request. body is JSON-encoded when non-nil. The returned bytes
// are the raw response body of a 2xx response.
func (c *Client) Do(ctx context.Context, method, path string, body any) ([]byte, error) {
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		rd = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.url(path), rd)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apierr.NewTransport(err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apierr.NewTransport(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apierr.NewStatus(resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return data, nil
}

// GetJSON issues a GET and decodes the 2xx body into out.
func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	data, err := c.Do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return apierr.NewDecode(err)
	}
	return nil
}

// Post issues a POST with a JSON body, discarding the response body.
func (c *Client) Post(ctx context.Context, path string, body any) error {
	_, err := c.Do(ctx, http.MethodPost, path, body)
	return err
}

// Delete issues a DELETE, discarding the response body.
func (c *Client) Delete(ctx context.Context, path string) error {
	_, err := c.Do(ctx, http.MethodDelete, path, nil)
	return err
}
