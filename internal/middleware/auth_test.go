package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/splitr/splitr/internal/auth"
	"github.com/splitr/splitr/internal/model"
)

type stubAuthorizer struct {
	authCtx *model.AuthContext
	err     error
	calls   int
	token   string
}

func (s *stubAuthorizer) Authorize(ctx context.Context, token string) (*model.AuthContext, error) {
	s.calls++
	s.token = token
	if s.err != nil {
		return nil, s.err
	}
	return s.authCtx, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAuth_MissingToken(t *testing.T) {
	authorizer := &stubAuthorizer{}
	mw := Auth(AuthConfig{Logger: discardLogger(), Authorizer: authorizer})

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
	if authorizer.calls != 0 {
		t.Error("authorizer must not be called without a token")
	}
}

func TestAuth_InvalidToken(t *testing.T) {
	authorizer := &stubAuthorizer{err: errors.New("invalid or expired token")}
	mw := Auth(AuthConfig{Logger: discardLogger(), Authorizer: authorizer})

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer bad-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestAuth_ValidToken(t *testing.T) {
	authorizer := &stubAuthorizer{authCtx: &model.AuthContext{UID: "uid-1", Email: "alice@example.com"}}
	mw := Auth(AuthConfig{Logger: discardLogger(), Authorizer: authorizer})

	var gotUID string
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUID = auth.UIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer session-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if authorizer.token != "session-token" {
		t.Errorf("expected token forwarded to authorizer, got %q", authorizer.token)
	}
	if gotUID != "uid-1" {
		t.Errorf("expected uid-1 in request context, got %q", gotUID)
	}
}

func TestAuth_XAuthTokenHeader(t *testing.T) {
	authorizer := &stubAuthorizer{authCtx: &model.AuthContext{UID: "uid-1"}}
	mw := Auth(AuthConfig{Logger: discardLogger(), Authorizer: authorizer})

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("X-Auth-Token", "session-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if authorizer.token != "session-token" {
		t.Errorf("expected X-Auth-Token honored, got %q", authorizer.token)
	}
}
