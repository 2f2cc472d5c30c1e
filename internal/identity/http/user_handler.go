// Package http provides HTTP handlers for user and group management.
package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	auditDomain "github.com/allisson/identity/internal/audit/domain"
	authHTTP "github.com/allisson/identity/internal/auth/http"
	"github.com/allisson/identity/internal/httputil"
	"github.com/allisson/identity/internal/identity/http/dto"
	"github.com/allisson/identity/internal/identity/usecase"
	appValidation "github.com/allisson/identity/internal/validation"
)

// UserHandler handles user management HTTP requests. The acting principal
// is taken from the request context; permission gates run in the usecase so
// every attempt is audited even when the route middleware already filters.
type UserHandler struct {
	users    usecase.UseCase
	recorder usecase.AuditRecorder
	logger   *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users usecase.UseCase, recorder usecase.AuditRecorder, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, recorder: recorder, logger: logger}
}

// auditView records a read event. Reads have no failure variant; only
// successful views land in the trail.
func (h *UserHandler) auditView(c *gin.Context, action string, metadata map[string]string) {
	actor, _ := authHTTP.GetUser(c.Request.Context())
	name := ""
	if actor != nil {
		name = actor.Username
	}
	h.recorder.Record(c.Request.Context(), name, action, metadata)
}

// CreateHandler creates a new account.
// POST /v1/users - Requires the add_user permission.
func (h *UserHandler) CreateHandler(c *gin.Context) {
	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, appValidation.WrapValidationError(err), h.logger)
		return
	}

	actor, _ := authHTTP.GetUser(c.Request.Context())
	user, err := h.users.CreateUser(c.Request.Context(), actor, dto.ToCreateUserInput(req))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	httputil.MakeSuccessResponse(c, http.StatusCreated, "user created", user)
}

// GetHandler retrieves a user by ID.
// GET /v1/users/:id - Requires an authenticated principal.
func (h *UserHandler) GetHandler(c *gin.Context) {
	userID, ok := parseUUIDParam(c, h.logger)
	if !ok {
		return
	}

	user, err := h.users.GetUser(c.Request.Context(), userID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.auditView(c, auditDomain.ActionUserViewed, map[string]string{"target": user.Username})
	httputil.MakeSuccessResponse(c, http.StatusOK, "", user)
}

// ListHandler retrieves users with pagination.
// GET /v1/users?offset=0&limit=50 - Requires an authenticated principal.
func (h *UserHandler) ListHandler(c *gin.Context) {
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	users, err := h.users.ListUsers(c.Request.Context(), offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.auditView(c, auditDomain.ActionUserListViewed, nil)
	httputil.MakeSuccessResponse(c, http.StatusOK, "", users)
}

// UpdateHandler applies a partial profile update.
// PATCH /v1/users/:id - Requires the edit_user permission.
func (h *UserHandler) UpdateHandler(c *gin.Context) {
	userID, ok := parseUUIDParam(c, h.logger)
	if !ok {
		return
	}

	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	actor, _ := authHTTP.GetUser(c.Request.Context())
	user, err := h.users.UpdateUser(c.Request.Context(), actor, userID, dto.ToUpdateUserInput(req))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	httputil.MakeSuccessResponse(c, http.StatusOK, "user updated", user)
}

// DeleteHandler removes an account.
// DELETE /v1/users/:id - Requires the delete_user permission; principals
// can never delete their own account.
func (h *UserHandler) DeleteHandler(c *gin.Context) {
	userID, ok := parseUUIDParam(c, h.logger)
	if !ok {
		return
	}

	actor, _ := authHTTP.GetUser(c.Request.Context())
	if err := h.users.DeleteUser(c.Request.Context(), actor, userID); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	httputil.MakeSuccessResponse(c, http.StatusOK, "user deleted", nil)
}

// ChangePasswordHandler replaces a password.
// POST /v1/users/:id/password - Self-service needs the current password;
// administrative changes need edit_user.
func (h *UserHandler) ChangePasswordHandler(c *gin.Context) {
	userID, ok := parseUUIDParam(c, h.logger)
	if !ok {
		return
	}

	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, appValidation.WrapValidationError(err), h.logger)
		return
	}

	actor, _ := authHTTP.GetUser(c.Request.Context())
	if err := h.users.ChangePassword(c.Request.Context(), actor, userID, req.OldPassword, req.NewPassword); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	httputil.MakeSuccessResponse(c, http.StatusOK, "password changed", nil)
}

// ChangeGroupHandler moves a user between groups.
// POST /v1/users/:id/group - Requires the edit_user permission.
func (h *UserHandler) ChangeGroupHandler(c *gin.Context) {
	userID, ok := parseUUIDParam(c, h.logger)
	if !ok {
		return
	}

	var req dto.ChangeGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	actor, _ := authHTTP.GetUser(c.Request.Context())
	user, err := h.users.ChangeGroup(c.Request.Context(), actor, userID, req.GroupName)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	httputil.MakeSuccessResponse(c, http.StatusOK, "group changed", user)
}

func parseUUIDParam(c *gin.Context, logger *slog.Logger) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("invalid ID format: must be a valid UUID"),
			logger)
		return uuid.Nil, false
	}
	return id, true
}
