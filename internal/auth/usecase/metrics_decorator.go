package usecase

import (
	"context"
	"time"

	identityDomain "github.com/allisson/identity/internal/identity/domain"
	"github.com/allisson/identity/internal/metrics"
)

// sessionUseCaseWithMetrics decorates UseCase with metrics instrumentation.
type sessionUseCaseWithMetrics struct {
	next    UseCase
	metrics metrics.BusinessMetrics
}

// NewSessionUseCaseWithMetrics wraps a UseCase with metrics recording.
func NewSessionUseCaseWithMetrics(useCase UseCase, m metrics.BusinessMetrics) UseCase {
	return &sessionUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (s *sessionUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	s.metrics.RecordOperation(ctx, "auth", operation, status)
	s.metrics.RecordDuration(ctx, "auth", operation, time.Since(start), status)
}

// VerifyCredentials records metrics for credential checks.
func (s *sessionUseCaseWithMetrics) VerifyCredentials(
	ctx context.Context,
	username, password string,
) (*identityDomain.User, error) {
	start := time.Now()
	user, err := s.next.VerifyCredentials(ctx, username, password)
	s.record(ctx, "verify_credentials", start, err)
	return user, err
}

// Login records metrics for login operations.
func (s *sessionUseCaseWithMetrics) Login(
	ctx context.Context,
	username, password string,
	remember bool,
) (string, *identityDomain.User, error) {
	start := time.Now()
	token, user, err := s.next.Login(ctx, username, password, remember)
	s.record(ctx, "login", start, err)
	return token, user, err
}

// AuthenticateToken records metrics for session resolution.
func (s *sessionUseCaseWithMetrics) AuthenticateToken(
	ctx context.Context,
	token string,
) (*identityDomain.User, error) {
	start := time.Now()
	user, err := s.next.AuthenticateToken(ctx, token)
	s.record(ctx, "authenticate_token", start, err)
	return user, err
}

// Logout records metrics for session termination.
func (s *sessionUseCaseWithMetrics) Logout(
	ctx context.Context,
	token string,
	actor *identityDomain.User,
) error {
	start := time.Now()
	err := s.next.Logout(ctx, token, actor)
	s.record(ctx, "logout", start, err)
	return err
}

// CleanupExpiredSessions records metrics for expired session sweeps.
func (s *sessionUseCaseWithMetrics) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	start := time.Now()
	count, err := s.next.CleanupExpiredSessions(ctx)
	s.record(ctx, "cleanup_expired_sessions", start, err)
	return count, err
}
