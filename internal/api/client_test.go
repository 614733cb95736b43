package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type staticTokens string

func (s staticTokens) AccessToken() string { return string(s) }

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, 5*time.Second), srv
}

func TestFetchChanges_SendsCursorAndAuth(t *testing.T) {
	var gotCursor, gotAuth, gotMinimal string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotCursor = r.Header.Get("X-Last-Sync")
		gotAuth = r.Header.Get("Authorization")
		gotMinimal = r.URL.Query().Get("minimal")
		w.Write([]byte(`{"time": "1718445000001"}`))
	})
	client.SetTokenSource(staticTokens("tok-123"))

	cs, err := client.FetchChanges(context.Background(), "1718440000000", true)
	if err != nil {
		t.Fatalf("FetchChanges() error: %v", err)
	}
	if gotCursor != "1718440000000" {
		t.Errorf("cursor header = %q, want %q", gotCursor, "1718440000000")
	}
	if gotAuth != "Bearer tok-123" {
		t.Errorf("auth header = %q, want bearer token", gotAuth)
	}
	if gotMinimal != "true" {
		t.Errorf("minimal query = %q, want %q", gotMinimal, "true")
	}
	if cs.Cursor != "1718445000001" {
		t.Errorf("Cursor = %q, want %q", cs.Cursor, "1718445000001")
	}
}

func TestFetchChanges_NoCursorOmitsHeader(t *testing.T) {
	var hasHeader bool
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, hasHeader = r.Header["X-Last-Sync"]
		w.Write([]byte(`{"time": "t1"}`))
	})

	if _, err := client.FetchChanges(context.Background(), "", false); err != nil {
		t.Fatalf("FetchChanges() error: %v", err)
	}
	if hasHeader {
		t.Error("X-Last-Sync header should be absent on first sync")
	}
}

func TestFetchChanges_ParsesEntities(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"mailboxes": [{"id": "mb-1", "address": "me@example.com", "createdAt": "2025-06-15T10:30:00Z"}],
			"emails": [{
				"id": "em-1", "mailboxId": "mb-1",
				"from": {"name": "Alice", "email": "alice@example.com"},
				"recipients": [{"email": "me@example.com"}, {"email": "cc@example.com", "cc": true}],
				"subject": "hi", "body": "hello",
				"isRead": true, "isDeleted": false,
				"createdAt": "2025-06-15T10:31:00Z"
			}],
			"tokens": [{"id": "tk-1", "mailboxId": "mb-1", "name": "cli", "createdAt": "2025-06-15T10:00:00Z"}],
			"time": "1718445060000"
		}`))
	})

	cs, err := client.FetchChanges(context.Background(), "", false)
	if err != nil {
		t.Fatalf("FetchChanges() error: %v", err)
	}
	if len(cs.Mailboxes) != 1 || cs.Mailboxes[0].ID != "mb-1" {
		t.Fatalf("Mailboxes = %+v, want one mb-1", cs.Mailboxes)
	}
	want := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	if !cs.Mailboxes[0].CreatedAt.Equal(want) {
		t.Errorf("mailbox CreatedAt = %v, want %v", cs.Mailboxes[0].CreatedAt, want)
	}
	if len(cs.Emails) != 1 {
		t.Fatalf("Emails count = %d, want 1", len(cs.Emails))
	}
	e := cs.Emails[0]
	if e.From.Email != "alice@example.com" || !e.IsRead {
		t.Errorf("email = %+v, want alice read email", e)
	}
	if len(e.Recipients) != 2 || !e.Recipients[1].CC {
		t.Errorf("Recipients = %+v, want second flagged CC", e.Recipients)
	}
	if len(cs.Tokens) != 1 || cs.Tokens[0].Name != "cli" {
		t.Errorf("Tokens = %+v, want one cli token", cs.Tokens)
	}
}

func TestFetchChanges_BadTimestampIsParseError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"emails": [{"id": "em-1", "mailboxId": "mb-1", "createdAt": "yesterday"}], "time": "t"}`))
	})

	_, err := client.FetchChanges(context.Background(), "", false)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %v, want *ParseError", err)
	}
	if pe.Entity != "email" || pe.Field != "createdAt" {
		t.Errorf("ParseError = %+v, want email.createdAt", pe)
	}
}

func TestFetchChanges_ServerError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := client.FetchChanges(context.Background(), "c1", false)
	var se *ServerError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want *ServerError", err)
	}
	if se.StatusCode != http.StatusInternalServerError || !se.Retryable() {
		t.Errorf("ServerError = %+v, want retryable 500", se)
	}
	if se.Body != "boom" {
		t.Errorf("Body = %q, want %q", se.Body, "boom")
	}
}

func TestFetchChanges_BadRequestNotRetryable(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad cursor", http.StatusBadRequest)
	})

	_, err := client.FetchChanges(context.Background(), "c1", false)
	var se *ServerError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want *ServerError", err)
	}
	if se.Retryable() {
		t.Error("400 should not be retryable")
	}
}

func TestFetchChanges_UnauthorizedIsAuthError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "expired", http.StatusUnauthorized)
	})

	_, err := client.FetchChanges(context.Background(), "c1", false)
	var ae *AuthError
	if !errors.As(err, &ae) {
		t.Fatalf("error = %v, want *AuthError", err)
	}
}

func TestFetchChanges_NetworkFailureIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on
	client := New(srv.URL, time.Second)

	_, err := client.FetchChanges(context.Background(), "c1", false)
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("error = %v, want *TransportError", err)
	}
}

func TestPushMutations(t *testing.T) {
	var gotBody string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/emails/mutate" {
			t.Errorf("path = %q", r.URL.Path)
		}
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
		w.WriteHeader(http.StatusAccepted)
	})

	read := true
	err := client.PushMutations(context.Background(), []EmailMutation{{
		MutationID:  "mut-1",
		ID:          "em-1",
		MailboxID:   "mb-1",
		IsRead:      &read,
		LastUpdated: NewMutationTimestamp(time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)),
	}})
	if err != nil {
		t.Fatalf("PushMutations() error: %v", err)
	}
	for _, want := range []string{`"mut-1"`, `"em-1"`, `"mb-1"`, `"isRead":true`, "2025-06-15T12:00:00Z"} {
		if !strings.Contains(gotBody, want) {
			t.Errorf("request body %q missing %q", gotBody, want)
		}
	}
}

func TestPushMutations_EmptyBatchNoRequest(t *testing.T) {
	called := false
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { called = true })

	if err := client.PushMutations(context.Background(), nil); err != nil {
		t.Fatalf("PushMutations() error: %v", err)
	}
	if called {
		t.Error("empty batch should not hit the network")
	}
}

func TestRefresh_UsesRefreshHeader(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Refresh-Token") != "refresh-1" {
			t.Errorf("refresh header = %q", r.Header.Get("X-Refresh-Token"))
		}
		w.Write([]byte(`{"accessToken": "a2", "refreshToken": "r2", "expiresAt": "2025-06-15T13:00:00Z"}`))
	})

	tok, err := client.Refresh(context.Background(), "refresh-1")
	if err != nil {
		t.Fatalf("Refresh() error: %v", err)
	}
	if tok.AccessToken != "a2" || tok.RefreshToken != "r2" {
		t.Errorf("token = %+v, want a2/r2", tok)
	}
	if tok.Expiry.IsZero() {
		t.Error("Expiry not parsed")
	}
}
