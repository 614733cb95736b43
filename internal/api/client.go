package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	headerLastSync     = "X-Last-Sync"
	headerRefreshToken = "X-Refresh-Token"
)

// TokenSource supplies the current access token for authenticated
// requests. An empty token means the request goes out unauthenticated.
type TokenSource interface {
	AccessToken() string
}

// Client talks to the remote mailmirror API over HTTP. It performs no
// retries of its own; classification and retry policy belong to the
// caller.
type Client struct {
	base   string
	http   *http.Client
	tokens TokenSource
}

// New creates a client for the given base URL with a bounded
// per-request timeout.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: timeout},
	}
}

// SetTokenSource attaches the session that supplies access tokens.
func (c *Client) SetTokenSource(ts TokenSource) {
	c.tokens = ts
}

// do issues a single JSON request. Network failures become
// *TransportError, auth statuses *AuthError, other non-2xx *ServerError,
// and undecodable response bodies *ParseError.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, headers map[string]string, body, out any) error {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if tok := c.tokens.AccessToken(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: method + " " + path, Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &AuthError{Reason: fmt.Sprintf("server rejected credentials (%d)", resp.StatusCode)}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return &ServerError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return &ParseError{Entity: "response", Field: "body", Err: err}
		}
	}
	return nil
}
