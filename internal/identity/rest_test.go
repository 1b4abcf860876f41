package identity

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testProvider(t *testing.T, handler http.HandlerFunc) *RESTProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewRESTProvider(RESTConfig{
		BaseURL:                  srv.URL,
		APIKey:                   "test-key",
		ServiceAccountCredential: "admin-cred",
		HTTPClient:               srv.Client(),
		Logger:                   testLogger(),
	})
}

// dropConnection closes the underlying TCP connection without a response.
func dropConnection(t *testing.T, w http.ResponseWriter) {
	t.Helper()
	hj, ok := w.(http.Hijacker)
	if !ok {
		t.Error("response writer does not support hijacking")
		return
	}
	conn, _, err := hj.Hijack()
	if err != nil {
		t.Error(err)
		return
	}
	conn.Close()
}

func writeProviderError(w http.ResponseWriter, status int, message string) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"code": status, "message": message},
	})
}

func TestLookupUserByEmail_Success(t *testing.T) {
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/accounts:lookup" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("expected API key query param, got %q", r.URL.RawQuery)
		}

		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		emails, _ := body["email"].([]any)
		if len(emails) != 1 || emails[0] != "alice@example.com" {
			t.Errorf("unexpected lookup body: %v", body)
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"users": []map[string]string{{"localId": "uid-1", "email": "alice@example.com"}},
		})
	})

	user, err := p.LookupUserByEmail(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if user.UID != "uid-1" {
		t.Errorf("expected uid-1, got %s", user.UID)
	}
	if user.Email != "alice@example.com" {
		t.Errorf("expected email echoed back, got %s", user.Email)
	}
}

func TestLookupUserByEmail_NotFound(t *testing.T) {
	tests := []struct {
		name    string
		respond http.HandlerFunc
	}{
		{
			"error envelope",
			func(w http.ResponseWriter, r *http.Request) {
				writeProviderError(w, http.StatusBadRequest, "EMAIL_NOT_FOUND")
			},
		},
		{
			"empty users list",
			func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(map[string]any{"users": []any{}})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testProvider(t, tt.respond)

			_, err := p.LookupUserByEmail(context.Background(), "ghost@example.com")
			if !errors.Is(err, ErrUserNotFound) {
				t.Fatalf("expected ErrUserNotFound, got %v", err)
			}
		})
	}
}

func TestLookupUserByEmail_UpstreamError(t *testing.T) {
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		writeProviderError(w, http.StatusInternalServerError, "INTERNAL")
	})

	_, err := p.LookupUserByEmail(context.Background(), "alice@example.com")
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}

func TestCreateUser_Success(t *testing.T) {
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/accounts:signUp" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"localId": "uid-new"})
	})

	user, err := p.CreateUser(context.Background(), "new@example.com", "hunter2")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if user.UID != "uid-new" {
		t.Errorf("expected uid-new, got %s", user.UID)
	}
}

func TestCreateUser_EmailExists(t *testing.T) {
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		writeProviderError(w, http.StatusBadRequest, "EMAIL_EXISTS")
	})

	_, err := p.CreateUser(context.Background(), "taken@example.com", "hunter2")
	if !errors.Is(err, ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}
}

func TestMintCustomToken_UsesAdminCredential(t *testing.T) {
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/tokens:mint" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer admin-cred" {
			t.Errorf("expected admin bearer, got %q", got)
		}
		if r.URL.Query().Get("key") != "" {
			t.Error("admin operations must not carry the API key")
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"token": "custom-token"})
	})

	token, err := p.MintCustomToken(context.Background(), "uid-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if token != "custom-token" {
		t.Errorf("expected custom-token, got %s", token)
	}
}

func TestExchangeCustomToken_Success(t *testing.T) {
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/accounts:signInWithCustomToken" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}

		var body struct {
			Token             string `json:"token"`
			ReturnSecureToken bool   `json:"returnSecureToken"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Token != "custom-token" || !body.ReturnSecureToken {
			t.Errorf("unexpected exchange body: %+v", body)
		}

		_ = json.NewEncoder(w).Encode(map[string]string{"idToken": "session-token"})
	})

	token, err := p.ExchangeCustomToken(context.Background(), "custom-token")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if token != "session-token" {
		t.Errorf("expected session-token, got %s", token)
	}
}

func TestExchangeCustomToken_RetriesOnceOnTransportError(t *testing.T) {
	var calls atomic.Int32
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			// Drop the connection to simulate a transient network failure
			dropConnection(t, w)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"idToken": "session-token"})
	})

	token, err := p.ExchangeCustomToken(context.Background(), "custom-token")
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if token != "session-token" {
		t.Errorf("expected session-token, got %s", token)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("expected exactly 2 attempts, got %d", got)
	}
}

func TestExchangeCustomToken_FailsAfterRetry(t *testing.T) {
	var calls atomic.Int32
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		dropConnection(t, w)
	})

	_, err := p.ExchangeCustomToken(context.Background(), "custom-token")
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("expected exactly 2 attempts, got %d", got)
	}
}

func TestExchangeCustomToken_MissingIDToken(t *testing.T) {
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{})
	})

	_, err := p.ExchangeCustomToken(context.Background(), "custom-token")
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}

func TestTransportErrorOmitsAPIKey(t *testing.T) {
	// No server listening: every call fails at the transport level. The
	// resulting error must not carry the request URL, whose query string
	// holds the API key.
	p := NewRESTProvider(RESTConfig{
		BaseURL:                  "http://127.0.0.1:1",
		APIKey:                   "secret-api-key",
		ServiceAccountCredential: "admin-cred",
		HTTPClient:               NewHTTPClient(500 * time.Millisecond),
		Logger:                   testLogger(),
	})

	_, err := p.LookupUserByEmail(context.Background(), "alice@example.com")
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
	if strings.Contains(err.Error(), "secret-api-key") {
		t.Errorf("error detail exposes the API key: %v", err)
	}
	if strings.Contains(err.Error(), "accounts:lookup") {
		t.Errorf("error detail exposes the request URL: %v", err)
	}
}

func TestVerifyIDToken_Success(t *testing.T) {
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["idToken"] != "session-token" {
			t.Errorf("unexpected verify body: %v", body)
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"users": []map[string]string{{"localId": "uid-1", "email": "alice@example.com"}},
		})
	})

	user, err := p.VerifyIDToken(context.Background(), "session-token")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if user.UID != "uid-1" {
		t.Errorf("expected uid-1, got %s", user.UID)
	}
}

func TestVerifyIDToken_Invalid(t *testing.T) {
	for _, code := range []string{"INVALID_ID_TOKEN", "TOKEN_EXPIRED", "USER_DISABLED"} {
		t.Run(code, func(t *testing.T) {
			message := code
			p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
				writeProviderError(w, http.StatusBadRequest, message)
			})

			_, err := p.VerifyIDToken(context.Background(), "bad-token")
			if !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}
