// Package http exposes the audit trail query endpoint.
package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/allisson/identity/internal/audit/domain"
	"github.com/allisson/identity/internal/audit/usecase"
	"github.com/allisson/identity/internal/httputil"
)

// AuditHandler handles audit trail HTTP requests.
type AuditHandler struct {
	audits usecase.UseCase
	logger *slog.Logger
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(audits usecase.UseCase, logger *slog.Logger) *AuditHandler {
	return &AuditHandler{audits: audits, logger: logger}
}

// ListHandler retrieves audit events, newest first, optionally filtered by
// actor, action and time window.
// GET /v1/audit-events?actor=&action=&since=&until=&offset=0&limit=50
func (h *AuditHandler) ListHandler(c *gin.Context) {
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	filter := domain.ListFilter{
		Actor:  c.Query("actor"),
		Action: c.Query("action"),
		Offset: offset,
		Limit:  limit,
	}

	if filter.Since, err = parseTimeQuery(c, "since"); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if filter.Until, err = parseTimeQuery(c, "until"); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	events, err := h.audits.ListEvents(c.Request.Context(), filter)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	httputil.MakeSuccessResponse(c, http.StatusOK, "", events)
}

func parseTimeQuery(c *gin.Context, name string) (time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return time.Time{}, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s parameter: must be an RFC 3339 timestamp", name)
	}
	return parsed, nil
}
