package session

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/lu-zhengda/mailmirror/internal/api"
)

type fakeAuthAPI struct {
	loginToken   *oauth2.Token
	loginErr     error
	refreshToken *oauth2.Token
	refreshErr   error
	refreshCalls int
	revokeCalls  int
	revokeErr    error
}

func (f *fakeAuthAPI) Login(ctx context.Context, email, password, deviceName string) (*oauth2.Token, error) {
	return f.loginToken, f.loginErr
}

func (f *fakeAuthAPI) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	f.refreshCalls++
	return f.refreshToken, f.refreshErr
}

func (f *fakeAuthAPI) Revoke(ctx context.Context, refreshToken string) error {
	f.revokeCalls++
	return f.revokeErr
}

type memTokenStore struct {
	token *oauth2.Token
}

func (m *memTokenStore) Save(token *oauth2.Token) error { m.token = token; return nil }

func (m *memTokenStore) Load() (*oauth2.Token, error) {
	if m.token == nil {
		return nil, errors.New("no token")
	}
	return m.token, nil
}

func (m *memTokenStore) Delete() error { m.token = nil; return nil }

func quietLogger() *log.Logger { return log.New(io.Discard, "", 0) }

func freshToken() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		Expiry:       time.Now().Add(time.Hour),
	}
}

func staleToken() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  "access-0",
		RefreshToken: "refresh-0",
		Expiry:       time.Now().Add(10 * time.Second), // inside the one-minute slack
	}
}

func TestNew_RestoresPersistedToken(t *testing.T) {
	ts := &memTokenStore{token: freshToken()}
	s := New(&fakeAuthAPI{}, ts, "dev", quietLogger())

	if s.State() != Authenticated {
		t.Errorf("state = %v, want Authenticated", s.State())
	}
	if s.AccessToken() != "access-1" {
		t.Errorf("AccessToken() = %q, want access-1", s.AccessToken())
	}
}

func TestEnsureFresh_NoopWhenTokenFresh(t *testing.T) {
	authAPI := &fakeAuthAPI{}
	s := New(authAPI, &memTokenStore{token: freshToken()}, "dev", quietLogger())

	if err := s.EnsureFresh(context.Background()); err != nil {
		t.Fatalf("EnsureFresh() error: %v", err)
	}
	if authAPI.refreshCalls != 0 {
		t.Errorf("refresh calls = %d, want 0 for a fresh token", authAPI.refreshCalls)
	}
}

func TestEnsureFresh_RefreshesNearExpiry(t *testing.T) {
	newTok := &oauth2.Token{
		AccessToken:  "access-2",
		RefreshToken: "refresh-2",
		Expiry:       time.Now().Add(time.Hour),
	}
	authAPI := &fakeAuthAPI{refreshToken: newTok}
	ts := &memTokenStore{token: staleToken()}
	s := New(authAPI, ts, "dev", quietLogger())

	if err := s.EnsureFresh(context.Background()); err != nil {
		t.Fatalf("EnsureFresh() error: %v", err)
	}
	if authAPI.refreshCalls != 1 {
		t.Errorf("refresh calls = %d, want 1", authAPI.refreshCalls)
	}
	if s.AccessToken() != "access-2" {
		t.Errorf("AccessToken() = %q, want rotated access-2", s.AccessToken())
	}
	if s.State() != Authenticated {
		t.Errorf("state = %v, want Authenticated", s.State())
	}
	if ts.token == nil || ts.token.AccessToken != "access-2" {
		t.Error("refreshed token not persisted")
	}
}

func TestEnsureFresh_FailureDropsToUnauthenticated(t *testing.T) {
	authAPI := &fakeAuthAPI{refreshErr: &api.AuthError{Reason: "refresh token revoked"}}
	ts := &memTokenStore{token: staleToken()}
	s := New(authAPI, ts, "dev", quietLogger())

	err := s.EnsureFresh(context.Background())
	var ae *api.AuthError
	if !errors.As(err, &ae) {
		t.Fatalf("error = %v, want *api.AuthError", err)
	}
	if s.State() != Unauthenticated {
		t.Errorf("state = %v, want Unauthenticated", s.State())
	}
	if ts.token != nil {
		t.Error("stored token should be cleared after failed refresh")
	}

	// A second call must not retry the dead refresh token.
	if err := s.EnsureFresh(context.Background()); err == nil {
		t.Error("EnsureFresh() after failed refresh should still fail")
	}
	if authAPI.refreshCalls != 1 {
		t.Errorf("refresh calls = %d, want no retry with dead token", authAPI.refreshCalls)
	}
}

func TestEnsureFresh_TransportFailureIsAuthError(t *testing.T) {
	authAPI := &fakeAuthAPI{refreshErr: &api.TransportError{Op: "POST /v1/auth/refresh", Err: errors.New("timeout")}}
	s := New(authAPI, &memTokenStore{token: staleToken()}, "dev", quietLogger())

	err := s.EnsureFresh(context.Background())
	var ae *api.AuthError
	if !errors.As(err, &ae) {
		t.Fatalf("error = %v, want *api.AuthError wrapping the transport failure", err)
	}
}

func TestEnsureFresh_NotLoggedIn(t *testing.T) {
	s := New(&fakeAuthAPI{}, &memTokenStore{}, "dev", quietLogger())

	err := s.EnsureFresh(context.Background())
	var ae *api.AuthError
	if !errors.As(err, &ae) {
		t.Fatalf("error = %v, want *api.AuthError", err)
	}
}

func TestLogin_SeedsState(t *testing.T) {
	authAPI := &fakeAuthAPI{loginToken: freshToken()}
	ts := &memTokenStore{}
	s := New(authAPI, ts, "dev", quietLogger())

	if err := s.Login(context.Background(), "me@example.com", "hunter2"); err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	if s.State() != Authenticated {
		t.Errorf("state = %v, want Authenticated", s.State())
	}
	if ts.token == nil {
		t.Error("token not persisted after login")
	}
}

func TestLogout_ClearsLocalStateEvenIfRevokeFails(t *testing.T) {
	authAPI := &fakeAuthAPI{revokeErr: errors.New("server down")}
	ts := &memTokenStore{token: freshToken()}
	s := New(authAPI, ts, "dev", quietLogger())

	s.Logout(context.Background())

	if s.State() != Unauthenticated {
		t.Errorf("state = %v, want Unauthenticated", s.State())
	}
	if s.AccessToken() != "" {
		t.Error("access token should be cleared")
	}
	if ts.token != nil {
		t.Error("stored token should be cleared")
	}
	if authAPI.revokeCalls != 1 {
		t.Errorf("revoke calls = %d, want 1 best-effort attempt", authAPI.revokeCalls)
	}
}
