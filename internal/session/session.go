package session

import (
	"context"
	"log"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/lu-zhengda/mailmirror/internal/api"
)

// State is the session lifecycle state.
type State int

const (
	Unauthenticated State = iota
	Authenticated
	Refreshing
)

func (s State) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	case Refreshing:
		return "refreshing"
	default:
		return "unauthenticated"
	}
}

// refreshSlack is how close to expiry an access token may get before
// EnsureFresh refreshes it.
const refreshSlack = time.Minute

// AuthAPI is the slice of the remote API the session needs.
type AuthAPI interface {
	Login(ctx context.Context, email, password, deviceName string) (*oauth2.Token, error)
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
	Revoke(ctx context.Context, refreshToken string) error
}

// TokenStore persists the token pair across restarts.
type TokenStore interface {
	Save(token *oauth2.Token) error
	Load() (*oauth2.Token, error)
	Delete() error
}

// Session holds the access/refresh token pair and decides when it needs
// refreshing. It is the single in-memory writer of truth for token
// state during the process lifetime.
type Session struct {
	api        AuthAPI
	tokens     TokenStore
	deviceName string
	logger     *log.Logger

	mu    sync.Mutex
	state State
	token *oauth2.Token
}

// New creates a session, restoring a persisted token pair if one
// exists. A missing or unreadable stored token just means the session
// starts unauthenticated.
func New(authAPI AuthAPI, tokens TokenStore, deviceName string, logger *log.Logger) *Session {
	s := &Session{
		api:        authAPI,
		tokens:     tokens,
		deviceName: deviceName,
		logger:     logger,
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	if tok, err := tokens.Load(); err == nil && tok != nil && tok.RefreshToken != "" {
		s.token = tok
		s.state = Authenticated
	}
	return s
}

// State returns the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// AccessToken returns the current access token, or "" when the session
// is not authenticated. Implements api.TokenSource.
func (s *Session) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == nil {
		return ""
	}
	return s.token.AccessToken
}

// EnsureFresh guarantees a usable access token. A token expiring more
// than a minute from now is left alone; otherwise the refresh endpoint
// is called with the refresh token. A failed refresh drops the session
// to Unauthenticated and returns an auth error: retrying with a dead
// refresh token cannot succeed, so the caller must abort.
func (s *Session) EnsureFresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token == nil || s.token.RefreshToken == "" {
		return &api.AuthError{Reason: "not logged in"}
	}
	if s.token.Expiry.After(time.Now().Add(refreshSlack)) {
		return nil
	}

	s.state = Refreshing
	tok, err := s.api.Refresh(ctx, s.token.RefreshToken)
	if err != nil {
		s.state = Unauthenticated
		s.token = nil
		if delErr := s.tokens.Delete(); delErr != nil {
			s.logger.Printf("[auth] failed to clear stored token: %v", delErr)
		}
		if _, ok := err.(*api.AuthError); ok {
			return err
		}
		return &api.AuthError{Reason: "token refresh failed", Err: err}
	}

	s.token = tok
	s.state = Authenticated
	if err := s.tokens.Save(tok); err != nil {
		s.logger.Printf("[auth] failed to persist refreshed token: %v", err)
	}
	return nil
}

// Login performs the initial credential handshake and seeds the
// session state.
func (s *Session) Login(ctx context.Context, email, password string) error {
	tok, err := s.api.Login(ctx, email, password, s.deviceName)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = tok
	s.state = Authenticated
	if err := s.tokens.Save(tok); err != nil {
		s.logger.Printf("[auth] failed to persist token: %v", err)
	}
	return nil
}

// Logout revokes the refresh token server-side (best-effort) and
// always clears local state.
func (s *Session) Logout(ctx context.Context) {
	s.mu.Lock()
	token := s.token
	s.token = nil
	s.state = Unauthenticated
	s.mu.Unlock()

	if token != nil && token.RefreshToken != "" {
		if err := s.api.Revoke(ctx, token.RefreshToken); err != nil {
			s.logger.Printf("[auth] remote token revoke failed: %v", err)
		}
	}
	if err := s.tokens.Delete(); err != nil {
		s.logger.Printf("[auth] failed to clear stored token: %v", err)
	}
}
