package app

import (
	"fmt"
	"log/slog"

	auditHTTP "github.com/allisson/identity/internal/audit/http"
	authHTTP "github.com/allisson/identity/internal/auth/http"
	"github.com/allisson/identity/internal/http"
	identityHTTP "github.com/allisson/identity/internal/identity/http"
)

// initHandlers assembles the request handlers wired into the HTTP router.
func (c *Container) initHandlers(logger *slog.Logger) (http.Handlers, error) {
	sessionUseCase, err := c.SessionUseCase()
	if err != nil {
		return http.Handlers{}, fmt.Errorf("failed to get session use case for handlers: %w", err)
	}

	userUseCase, err := c.UserUseCase()
	if err != nil {
		return http.Handlers{}, fmt.Errorf("failed to get user use case for handlers: %w", err)
	}

	groupUseCase, err := c.GroupUseCase()
	if err != nil {
		return http.Handlers{}, fmt.Errorf("failed to get group use case for handlers: %w", err)
	}

	auditUseCase, err := c.AuditUseCase()
	if err != nil {
		return http.Handlers{}, fmt.Errorf("failed to get audit use case for handlers: %w", err)
	}

	auditRecorder, err := c.AuditRecorder()
	if err != nil {
		return http.Handlers{}, fmt.Errorf("failed to get audit recorder for handlers: %w", err)
	}

	return http.Handlers{
		Auth:  authHTTP.NewAuthHandler(sessionUseCase, userUseCase, logger, c.config.SessionExpiration, c.config.SessionRememberExpiration),
		User:  identityHTTP.NewUserHandler(userUseCase, auditRecorder, logger),
		Group: identityHTTP.NewGroupHandler(groupUseCase, logger),
		Audit: auditHTTP.NewAuditHandler(auditUseCase, logger),
	}, nil
}
