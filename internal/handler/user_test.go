package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/splitr/splitr/internal/auth"
	"github.com/splitr/splitr/internal/model"
	"github.com/splitr/splitr/internal/service"
)

func TestMe_Success(t *testing.T) {
	profiles := newStubProfileStore()
	profiles.profiles["uid-1"] = &model.UserProfile{
		UID:        "uid-1",
		Name:       "Alice",
		Email:      "alice@example.com",
		GroupCodes: []string{"trip-code"},
		CreatedAt:  time.Now().UTC(),
	}
	svc := service.NewGroupService(newStubGroupStore(), profiles, testLogger(), nil)
	h := NewUserHandler(svc, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req = req.WithContext(auth.ContextWithAuth(req.Context(), &model.AuthContext{UID: "uid-1"}))
	rec := httptest.NewRecorder()
	h.Me(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	if body["uid"] != "uid-1" || body["name"] != "Alice" {
		t.Errorf("unexpected profile: %v", body)
	}
	codes, _ := body["group_codes"].([]any)
	if len(codes) != 1 || codes[0] != "trip-code" {
		t.Errorf("expected group codes, got %v", codes)
	}
}

func TestMe_ProfileNotFound(t *testing.T) {
	svc := service.NewGroupService(newStubGroupStore(), newStubProfileStore(), testLogger(), nil)
	h := NewUserHandler(svc, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req = req.WithContext(auth.ContextWithAuth(req.Context(), &model.AuthContext{UID: "uid-ghost"}))
	rec := httptest.NewRecorder()
	h.Me(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}
