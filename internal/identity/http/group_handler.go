package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/allisson/identity/internal/httputil"
	"github.com/allisson/identity/internal/identity/usecase"
)

// GroupHandler handles group query HTTP requests. Groups are read-only over
// HTTP; the reserved set is managed by the seed command.
type GroupHandler struct {
	groups usecase.GroupReader
	logger *slog.Logger
}

// NewGroupHandler creates a new GroupHandler.
func NewGroupHandler(groups usecase.GroupReader, logger *slog.Logger) *GroupHandler {
	return &GroupHandler{groups: groups, logger: logger}
}

// ListHandler retrieves all groups.
// GET /v1/groups - Requires an authenticated principal.
func (h *GroupHandler) ListHandler(c *gin.Context) {
	groups, err := h.groups.ListGroups(c.Request.Context())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	httputil.MakeSuccessResponse(c, http.StatusOK, "groups retrieved", groups)
}

// GetHandler retrieves a group by ID.
// GET /v1/groups/:id - Requires an authenticated principal.
func (h *GroupHandler) GetHandler(c *gin.Context) {
	groupID, ok := parseUUIDParam(c, h.logger)
	if !ok {
		return
	}

	group, err := h.groups.GetGroup(c.Request.Context(), groupID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	httputil.MakeSuccessResponse(c, http.StatusOK, "group retrieved", group)
}

// ListMembersHandler retrieves the members of a group.
// GET /v1/groups/:id/members - Requires an authenticated principal.
func (h *GroupHandler) ListMembersHandler(c *gin.Context) {
	groupID, ok := parseUUIDParam(c, h.logger)
	if !ok {
		return
	}

	members, err := h.groups.ListMembers(c.Request.Context(), groupID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	httputil.MakeSuccessResponse(c, http.StatusOK, "group members retrieved", members)
}

// ListUsersWithoutGroupHandler retrieves users that belong to no group.
// GET /v1/users/without-group - Requires an authenticated principal.
func (h *GroupHandler) ListUsersWithoutGroupHandler(c *gin.Context) {
	users, err := h.groups.ListUsersWithoutGroup(c.Request.Context())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	httputil.MakeSuccessResponse(c, http.StatusOK, "users retrieved", users)
}
