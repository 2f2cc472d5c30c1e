package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	authDomain "github.com/allisson/identity/internal/auth/domain"
	"github.com/allisson/identity/internal/auth/http/dto"
	authUseCase "github.com/allisson/identity/internal/auth/usecase"
	"github.com/allisson/identity/internal/httputil"
	identityUseCase "github.com/allisson/identity/internal/identity/usecase"
	appValidation "github.com/allisson/identity/internal/validation"
)

// DefaultLandingPath is the post-login destination used when the supplied
// "next" value is missing or unsafe.
const DefaultLandingPath = "/"

// AuthHandler handles login, logout and self-service registration.
type AuthHandler struct {
	sessions    authUseCase.UseCase
	users       identityUseCase.UseCase
	logger      *slog.Logger
	defaultTTL  time.Duration
	rememberTTL time.Duration
}

// NewAuthHandler creates a new AuthHandler. The TTLs set the session
// cookie Max-Age and must match the lifetimes the session use case
// applies server-side.
func NewAuthHandler(sessions authUseCase.UseCase, users identityUseCase.UseCase, logger *slog.Logger, defaultTTL, rememberTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		sessions:    sessions,
		users:       users,
		logger:      logger,
		defaultTTL:  defaultTTL,
		rememberTTL: rememberTTL,
	}
}

// LoginHandler verifies credentials and establishes a session.
// POST /v1/auth/login - Returns 200 OK with the token and safe redirect.
func (h *AuthHandler) LoginHandler(c *gin.Context) {
	// A live session wins over re-authentication; the hit is a no-op that
	// reports the current principal and the safe redirect.
	if user, ok := GetUser(c.Request.Context()); ok {
		var req dto.LoginRequest
		_ = c.ShouldBindJSON(&req)
		httputil.MakeSuccessResponse(c, http.StatusOK, "already authenticated", dto.LoginResponse{
			Redirect: authDomain.SafeRedirectPath(req.Next, DefaultLandingPath),
			User:     user.Public(),
		})
		return
	}

	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, appValidation.WrapValidationError(err), h.logger)
		return
	}

	token, user, err := h.sessions.Login(c.Request.Context(), req.Username, req.Password, req.Remember)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	// Without a Max-Age the browser drops the cookie on close and the
	// remembered lifetime never survives the client side.
	ttl := h.defaultTTL
	if req.Remember {
		ttl = h.rememberTTL
	}
	c.SetCookie(SessionCookieName, token, int(ttl.Seconds()), "/", "", false, true)

	httputil.MakeSuccessResponse(c, http.StatusOK, "login successful", dto.LoginResponse{
		Token:    token,
		Redirect: authDomain.SafeRedirectPath(req.Next, DefaultLandingPath),
		User:     user.Public(),
	})
}

// LogoutHandler terminates the session the request arrived on.
// POST /v1/auth/logout - Requires an authenticated principal.
func (h *AuthHandler) LogoutHandler(c *gin.Context) {
	user, _ := GetUser(c.Request.Context())
	token := GetSessionToken(c.Request.Context())

	if err := h.sessions.Logout(c.Request.Context(), token, user); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.SetCookie(SessionCookieName, "", -1, "/", "", false, true)

	httputil.MakeSuccessResponse(c, http.StatusOK, "logout successful", nil)
}

// RegisterHandler creates a self-service account in the default group.
// POST /v1/auth/register - Returns 201 Created with the public projection.
func (h *AuthHandler) RegisterHandler(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, appValidation.WrapValidationError(err), h.logger)
		return
	}

	user, err := h.users.RegisterUser(c.Request.Context(), identityUseCase.RegisterUserInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	httputil.MakeSuccessResponse(c, http.StatusCreated, "registration successful", user)
}
