package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/splitr/splitr/internal/handler/dto"
	"github.com/splitr/splitr/internal/service"
)

// AuthHandler handles HTTP requests for login and signup.
type AuthHandler struct {
	svc    *service.AuthService
	logger *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		svc:    svc,
		logger: logger,
	}
}

// Login handles POST /login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "MISSING_CREDENTIALS", "Email and password are required")
		return
	}

	result, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.handleAuthError(w, err, http.StatusUnauthorized)
		return
	}

	h.logger.Info("login", "uid", result.UID)

	writeJSON(w, http.StatusOK, dto.AuthResponse{
		Message: "Login successful",
		Token:   result.Token,
	})
}

// Signup handles POST /signup.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req dto.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "MISSING_CREDENTIALS", "Email and password are required")
		return
	}

	result, err := h.svc.Signup(r.Context(), service.SignupInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		h.handleAuthError(w, err, http.StatusBadRequest)
		return
	}

	h.logger.Info("signup", "uid", result.UID)

	writeJSON(w, http.StatusOK, dto.AuthResponse{
		Message: "Signup successful",
		Token:   result.Token,
	})
}

// handleAuthError maps authentication service errors to HTTP responses.
// failureStatus is the endpoint's status for non-validation failures: 401
// for login, 400 for signup.
func (h *AuthHandler) handleAuthError(w http.ResponseWriter, err error, failureStatus int) {
	switch {
	case errors.Is(err, service.ErrMissingCredentials):
		writeError(w, http.StatusBadRequest, "MISSING_CREDENTIALS", "Email and password are required")
	case errors.Is(err, service.ErrUserNotFound):
		writeError(w, http.StatusUnauthorized, "USER_NOT_FOUND", "User not found")
	case errors.Is(err, service.ErrEmailExists):
		writeError(w, http.StatusBadRequest, "EMAIL_EXISTS", "An account with this email already exists")
	case errors.Is(err, service.ErrUpstream):
		writeError(w, failureStatus, "UPSTREAM_ERROR", "An error occurred: "+err.Error())
	default:
		h.logger.Error("internal_error", "error", err)
		writeError(w, failureStatus, "AUTH_FAILED", "Authentication failed")
	}
}
