package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/splitr/splitr/internal/auth"
	"github.com/splitr/splitr/internal/handler/dto"
	"github.com/splitr/splitr/internal/model"
	"github.com/splitr/splitr/internal/service"
)

// GroupHandler handles HTTP requests for group operations.
type GroupHandler struct {
	svc    *service.GroupService
	authn  *service.AuthService
	logger *slog.Logger
}

// NewGroupHandler creates a new GroupHandler.
func NewGroupHandler(svc *service.GroupService, authn *service.AuthService, logger *slog.Logger) *GroupHandler {
	return &GroupHandler{
		svc:    svc,
		authn:  authn,
		logger: logger,
	}
}

// Create handles POST /create_group.
// The session token is checked before field validation so a missing or bad
// token never leaks whether the rest of the request was well formed.
func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	authCtx, ok := h.authorize(w, r, req.Auth)
	if !ok {
		return
	}

	if req.GroupName == "" || req.GroupCode == "" {
		writeError(w, http.StatusBadRequest, "MISSING_FIELDS", "Group name and group code are required")
		return
	}

	group, err := h.svc.CreateGroup(r.Context(), service.CreateGroupInput{
		Name:       req.GroupName,
		Code:       req.GroupCode,
		CreatorUID: authCtx.UID,
	})
	if err != nil {
		h.handleGroupError(w, err)
		return
	}

	h.logger.Info("group_created",
		"group_code", group.Code,
		"created_by", group.CreatedBy,
	)

	writeJSON(w, http.StatusOK, dto.CreateGroupResponse{
		Message: "Group created successfully",
		Group:   dto.ToGroupResponse(group),
	})
}

// Join handles POST /join_group.
func (h *GroupHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req dto.JoinGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	authCtx, ok := h.authorize(w, r, req.Auth)
	if !ok {
		return
	}

	if req.GroupCode == "" {
		writeError(w, http.StatusBadRequest, "MISSING_FIELDS", "Group code is required")
		return
	}

	group, err := h.svc.JoinGroup(r.Context(), req.GroupCode, authCtx.UID)
	if err != nil {
		h.handleGroupError(w, err)
		return
	}

	h.logger.Info("group_joined", "group_code", group.Code, "uid", authCtx.UID)

	writeJSON(w, http.StatusOK, dto.ToGroupResponse(group))
}

// Get handles GET /groups/{code}.
// Requires the auth middleware; only members can read a group.
func (h *GroupHandler) Get(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	uid := auth.UIDFromContext(r.Context())

	group, err := h.svc.GetGroup(r.Context(), code, uid)
	if err != nil {
		h.handleGroupError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToGroupResponse(group))
}

// AddPurchase handles POST /groups/{code}/purchases.
// Requires the auth middleware.
func (h *GroupHandler) AddPurchase(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	uid := auth.UIDFromContext(r.Context())

	var req dto.PurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	group, err := h.svc.AddPurchase(r.Context(), code, uid, service.PurchaseInput{
		Cost:        req.Cost,
		Description: req.Description,
		Percentages: req.Percentages,
	})
	if err != nil {
		h.handleGroupError(w, err)
		return
	}

	h.logger.Info("purchase_added", "group_code", code, "purchaser", uid)

	writeJSON(w, http.StatusOK, dto.ToGroupResponse(group))
}

// authorize verifies the session token taken from the request body, falling
// back to the Authorization header. On failure it writes the 401 response
// and returns ok=false.
func (h *GroupHandler) authorize(w http.ResponseWriter, r *http.Request, bodyToken string) (*model.AuthContext, bool) {
	token := bodyToken
	if token == "" {
		token = extractBearerToken(r)
	}
	if token == "" {
		writeError(w, http.StatusUnauthorized, "MISSING_TOKEN", "Authentication token is required")
		return nil, false
	}

	identity, err := h.authn.Authorize(r.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidToken):
			writeError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
		case errors.Is(err, service.ErrUpstream):
			writeError(w, http.StatusUnauthorized, "UPSTREAM_ERROR", "An error occurred: "+err.Error())
		default:
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication failed")
		}
		return nil, false
	}

	return identity, true
}

// handleGroupError maps group service errors to HTTP responses.
func (h *GroupHandler) handleGroupError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrGroupNameRequired), errors.Is(err, service.ErrGroupCodeRequired):
		writeError(w, http.StatusBadRequest, "MISSING_FIELDS", "Group name and group code are required")
	case errors.Is(err, service.ErrCodeTooShort):
		writeError(w, http.StatusBadRequest, "CODE_TOO_SHORT", "Group code must be at least 6 characters")
	case errors.Is(err, service.ErrInvalidPurchase):
		writeError(w, http.StatusBadRequest, "INVALID_PURCHASE", "Purchase must have a positive cost")
	case errors.Is(err, service.ErrGroupNotFound):
		writeError(w, http.StatusNotFound, "GROUP_NOT_FOUND", "Group not found")
	case errors.Is(err, service.ErrNotMember):
		writeError(w, http.StatusForbidden, "NOT_MEMBER", "Not a member of this group")
	default:
		h.logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}

// extractBearerToken pulls a token from the Authorization header.
func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}
