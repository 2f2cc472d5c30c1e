package http

import (
	"log/slog"
	"strings"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"

	auditDomain "github.com/allisson/identity/internal/audit/domain"
	authUseCase "github.com/allisson/identity/internal/auth/usecase"
	apperrors "github.com/allisson/identity/internal/errors"
	"github.com/allisson/identity/internal/httputil"
	identityDomain "github.com/allisson/identity/internal/identity/domain"
)

// SessionCookieName is the cookie carrying the opaque session token.
const SessionCookieName = "session_token"

// ClientContextMiddleware attaches the request attribution used by the
// audit trail: request ID, client IP and user agent. The IP honors
// X-Forwarded-For (first hop) and X-Real-IP before the peer address.
func ClientContextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		cc := auditDomain.ClientContext{
			RequestID: requestid.Get(c),
			IP:        clientIP(c),
			UserAgent: c.Request.UserAgent(),
		}
		c.Request = c.Request.WithContext(auditDomain.WithClientContext(c.Request.Context(), cc))
		c.Next()
	}
}

func clientIP(c *gin.Context) string {
	if forwarded := c.GetHeader("X-Forwarded-For"); forwarded != "" {
		if idx := strings.Index(forwarded, ","); idx >= 0 {
			return strings.TrimSpace(forwarded[:idx])
		}
		return strings.TrimSpace(forwarded)
	}
	if realIP := c.GetHeader("X-Real-IP"); realIP != "" {
		return realIP
	}
	return c.ClientIP()
}

// SessionMiddleware resolves the session token into a user and stores it in
// the request context. An absent, unknown or expired token leaves the
// request anonymous and the chain continues; gating is done by RequireUser
// and RequirePermission.
//
// The token is read from the session cookie or, for API clients, from an
// "Authorization: Bearer <token>" header.
func SessionMiddleware(sessions authUseCase.UseCase, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.Next()
			return
		}

		user, err := sessions.AuthenticateToken(c.Request.Context(), token)
		if err != nil {
			// Persistence failure, not an authentication outcome.
			httputil.HandleErrorGin(c, err, logger)
			c.Abort()
			return
		}
		if user == nil {
			c.Next()
			return
		}

		ctx := WithUser(c.Request.Context(), user)
		ctx = WithSessionToken(ctx, token)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	if cookie, err := c.Cookie(SessionCookieName); err == nil && cookie != "" {
		return cookie
	}

	const bearerPrefix = "bearer "
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > len(bearerPrefix) &&
		strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
		return authHeader[len(bearerPrefix):]
	}
	return ""
}

// RequireUser rejects anonymous requests with 401.
func RequireUser(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := GetUser(c.Request.Context()); !ok {
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequirePermission rejects requests whose principal lacks the permission.
// Anonymous requests get 401, authenticated ones without the grant get 403.
// Must run after SessionMiddleware.
func RequirePermission(permission identityDomain.Permission, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := GetUser(c.Request.Context())
		if !ok {
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}
		if !user.HasPermission(permission) {
			logger.Debug("permission denied",
				slog.String("username", user.Username),
				slog.String("permission", string(permission)),
			)
			httputil.HandleErrorGin(c, identityDomain.ErrPermissionDenied, logger)
			c.Abort()
			return
		}
		c.Next()
	}
}
