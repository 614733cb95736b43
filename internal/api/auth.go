package api

import (
	"context"
	"errors"
	"net/http"

	"golang.org/x/oauth2"
)

var errEmptyToken = errors.New("empty token in response")

type tokenWirePair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresAt    string `json:"expiresAt"`
}

func (w *tokenWirePair) token() (*oauth2.Token, error) {
	expiry, err := parseTime("token", "expiresAt", w.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{
		AccessToken:  w.AccessToken,
		RefreshToken: w.RefreshToken,
		Expiry:       expiry,
	}, nil
}

// Login performs the initial credential handshake and returns a fresh
// access/refresh token pair.
func (c *Client) Login(ctx context.Context, email, password, deviceName string) (*oauth2.Token, error) {
	body := struct {
		Email      string `json:"email"`
		Password   string `json:"password"`
		DeviceName string `json:"deviceName,omitempty"`
	}{Email: email, Password: password, DeviceName: deviceName}

	var wire tokenWirePair
	if err := c.do(ctx, http.MethodPost, "/v1/auth/login", nil, nil, body, &wire); err != nil {
		return nil, err
	}
	return wire.token()
}

// Refresh exchanges the refresh token for a new token pair. The refresh
// token travels in its own header, separate from the access-token
// Authorization header.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	headers := map[string]string{headerRefreshToken: refreshToken}

	var wire tokenWirePair
	if err := c.do(ctx, http.MethodPost, "/v1/auth/refresh", nil, headers, nil, &wire); err != nil {
		return nil, err
	}
	tok, err := wire.token()
	if err != nil {
		return nil, err
	}
	if tok.AccessToken == "" || tok.RefreshToken == "" {
		return nil, &ParseError{Entity: "token", Field: "accessToken", Err: errEmptyToken}
	}
	return tok, nil
}

// Revoke invalidates the refresh token server-side. Callers treat
// failures as best-effort: local session state is cleared regardless.
func (c *Client) Revoke(ctx context.Context, refreshToken string) error {
	headers := map[string]string{headerRefreshToken: refreshToken}
	return c.do(ctx, http.MethodPost, "/v1/auth/revoke", nil, headers, nil, nil)
}
