package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/splitr/splitr/internal/auth"
	"github.com/splitr/splitr/internal/handler/dto"
	"github.com/splitr/splitr/internal/service"
)

// UserHandler handles HTTP requests for the authenticated user's profile.
type UserHandler struct {
	svc    *service.GroupService
	logger *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(svc *service.GroupService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		svc:    svc,
		logger: logger,
	}
}

// Me handles GET /me.
// Requires the auth middleware.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	uid := auth.UIDFromContext(r.Context())

	profile, err := h.svc.GetProfile(r.Context(), uid)
	if err != nil {
		if errors.Is(err, service.ErrProfileNotFound) {
			writeError(w, http.StatusNotFound, "PROFILE_NOT_FOUND", "User profile not found")
			return
		}
		h.logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		return
	}

	writeJSON(w, http.StatusOK, dto.ToProfileResponse(profile))
}
