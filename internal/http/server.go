package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"

	auditHTTP "github.com/allisson/identity/internal/audit/http"
	authHTTP "github.com/allisson/identity/internal/auth/http"
	authUseCase "github.com/allisson/identity/internal/auth/usecase"
	identityDomain "github.com/allisson/identity/internal/identity/domain"
	identityHTTP "github.com/allisson/identity/internal/identity/http"
)

// Handlers groups the request handlers wired into the router.
type Handlers struct {
	Auth  *authHTTP.AuthHandler
	User  *identityHTTP.UserHandler
	Group *identityHTTP.GroupHandler
	Audit *auditHTTP.AuditHandler
}

// Options carries the cross-cutting router configuration.
type Options struct {
	// Sessions resolves session tokens into principals for every request.
	Sessions authUseCase.UseCase

	// RateLimitLoginEnabled toggles per-IP throttling of the
	// unauthenticated login and register endpoints.
	RateLimitLoginEnabled        bool
	RateLimitLoginRequestsPerSec float64
	RateLimitLoginBurst          int

	CORSEnabled      bool
	CORSAllowOrigins string

	// MetricsMiddleware, when non-nil, records request metrics.
	MetricsMiddleware gin.HandlerFunc
}

// Server represents the HTTP server.
type Server struct {
	server *http.Server
	router *gin.Engine
	logger *slog.Logger
}

// NewServer creates the HTTP server and assembles the router.
func NewServer(
	ctx context.Context,
	host string,
	port int,
	logger *slog.Logger,
	handlers Handlers,
	opts Options,
) *Server {
	router := gin.New()
	router.Use(requestid.New())
	router.Use(RecoveryMiddleware(logger))
	router.Use(CustomLoggerMiddleware(logger))

	if corsMiddleware := createCORSMiddleware(opts.CORSEnabled, opts.CORSAllowOrigins, logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}
	if opts.MetricsMiddleware != nil {
		router.Use(opts.MetricsMiddleware)
	}

	router.Use(authHTTP.ClientContextMiddleware())
	router.Use(authHTTP.SessionMiddleware(opts.Sessions, logger))

	router.GET("/health", HealthHandler())
	router.GET("/ready", ReadinessHandler(ctx))

	registerRoutes(router, logger, handlers, opts)

	return &Server{
		logger: logger,
		router: router,
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", host, port),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// registerRoutes wires the API routes. Management routes are gated on an
// authenticated principal only; the fine-grained permission checks run in
// the usecases so denied attempts still reach the audit trail.
func registerRoutes(router *gin.Engine, logger *slog.Logger, handlers Handlers, opts Options) {
	v1 := router.Group("/v1")

	// Unauthenticated endpoints, optionally throttled per client IP.
	public := v1.Group("")
	if opts.RateLimitLoginEnabled {
		public.Use(authHTTP.LoginRateLimitMiddleware(
			opts.RateLimitLoginRequestsPerSec,
			opts.RateLimitLoginBurst,
			logger,
		))
	}
	public.POST("/auth/login", handlers.Auth.LoginHandler)
	public.POST("/auth/register", handlers.Auth.RegisterHandler)

	v1.POST("/auth/logout", authHTTP.RequireUser(logger), handlers.Auth.LogoutHandler)

	authenticated := v1.Group("", authHTTP.RequireUser(logger))

	authenticated.POST("/users", handlers.User.CreateHandler)
	authenticated.GET("/users", handlers.User.ListHandler)
	// Listing unassigned accounts is a management view, restricted to
	// principals who can edit users.
	authenticated.GET("/users/without-group",
		authHTTP.RequirePermission(identityDomain.PermissionEditUser, logger),
		handlers.Group.ListUsersWithoutGroupHandler,
	)
	authenticated.GET("/users/:id", handlers.User.GetHandler)
	authenticated.PATCH("/users/:id", handlers.User.UpdateHandler)
	authenticated.DELETE("/users/:id", handlers.User.DeleteHandler)
	authenticated.POST("/users/:id/password", handlers.User.ChangePasswordHandler)
	authenticated.POST("/users/:id/group", handlers.User.ChangeGroupHandler)

	authenticated.GET("/groups", handlers.Group.ListHandler)
	authenticated.GET("/groups/:id", handlers.Group.GetHandler)
	authenticated.GET("/groups/:id/members", handlers.Group.ListMembersHandler)

	// Audit reads are not themselves audited, so the permission gate can
	// run at the route level.
	v1.GET("/audit-events",
		authHTTP.RequirePermission(identityDomain.PermissionViewAuditLog, logger),
		handlers.Audit.ListHandler,
	)
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}
