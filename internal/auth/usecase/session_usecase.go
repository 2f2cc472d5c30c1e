// Package usecase implements the session lifecycle: credential
// verification, session establishment, token validation and termination.
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/identity/internal/audit/domain"
	"github.com/allisson/identity/internal/auth/domain"
	authService "github.com/allisson/identity/internal/auth/service"
	identityDomain "github.com/allisson/identity/internal/identity/domain"
	identityService "github.com/allisson/identity/internal/identity/service"
)

// UseCase defines the session boundary exposed to collaborators.
type UseCase interface {
	VerifyCredentials(ctx context.Context, username, password string) (*identityDomain.User, error)
	Login(ctx context.Context, username, password string, remember bool) (string, *identityDomain.User, error)
	AuthenticateToken(ctx context.Context, token string) (*identityDomain.User, error)
	Logout(ctx context.Context, token string, actor *identityDomain.User) error
	CleanupExpiredSessions(ctx context.Context) (int64, error)
}

// SessionRepository interface defines session repository operations
type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*domain.Session, error)
	DeleteByTokenHash(ctx context.Context, tokenHash string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// UserReader resolves accounts for authentication.
type UserReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*identityDomain.User, error)
	GetByUsername(ctx context.Context, username string) (*identityDomain.User, error)
}

// AuditRecorder accepts fire-and-forget audit events.
type AuditRecorder interface {
	Record(ctx context.Context, actor, action string, metadata map[string]string)
}

// SessionUseCase handles the session lifecycle.
type SessionUseCase struct {
	sessionRepo SessionRepository
	users       UserReader
	passwords   identityService.PasswordService
	tokens      authService.TokenService
	recorder    AuditRecorder
	defaultTTL  time.Duration
	rememberTTL time.Duration
}

// NewSessionUseCase creates a new SessionUseCase.
func NewSessionUseCase(
	sessionRepo SessionRepository,
	users UserReader,
	passwords identityService.PasswordService,
	tokens authService.TokenService,
	recorder AuditRecorder,
	defaultTTL time.Duration,
	rememberTTL time.Duration,
) *SessionUseCase {
	return &SessionUseCase{
		sessionRepo: sessionRepo,
		users:       users,
		passwords:   passwords,
		tokens:      tokens,
		recorder:    recorder,
		defaultTTL:  defaultTTL,
		rememberTTL: rememberTTL,
	}
}

// VerifyCredentials checks a username and password pair. Unknown usernames
// and wrong passwords both yield ErrInvalidCredentials; a matching but
// deactivated account yields ErrAccountDisabled so callers can present
// different messaging. Both are terminal for the request.
func (uc *SessionUseCase) VerifyCredentials(ctx context.Context, username, password string) (*identityDomain.User, error) {
	user, err := uc.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, identityDomain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !uc.passwords.VerifyPassword(password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, domain.ErrAccountDisabled
	}

	return user, nil
}

// Login verifies the credentials and establishes a session, returning the
// plain token exactly once. Emits one login or login_failed audit event per
// attempt.
func (uc *SessionUseCase) Login(ctx context.Context, username, password string, remember bool) (string, *identityDomain.User, error) {
	token, user, err := uc.login(ctx, username, password, remember)

	metadata := map[string]string{"username": username}
	if err != nil {
		metadata["error"] = err.Error()
		uc.recorder.Record(ctx, "", auditDomain.ActionLoginFailed, metadata)
		return "", nil, err
	}

	if remember {
		metadata["remember"] = "true"
	}
	uc.recorder.Record(ctx, user.Username, auditDomain.ActionLogin, metadata)
	return token, user, nil
}

func (uc *SessionUseCase) login(ctx context.Context, username, password string, remember bool) (string, *identityDomain.User, error) {
	user, err := uc.VerifyCredentials(ctx, username, password)
	if err != nil {
		return "", nil, err
	}

	token, err := uc.EstablishSession(ctx, user, remember)
	if err != nil {
		return "", nil, err
	}

	return token, user, nil
}

// EstablishSession issues a new session for the user. The remember flag
// extends the lifetime from the default to the remember duration.
func (uc *SessionUseCase) EstablishSession(ctx context.Context, user *identityDomain.User, remember bool) (string, error) {
	plainToken, tokenHash, err := uc.tokens.GenerateToken()
	if err != nil {
		return "", err
	}

	ttl := uc.defaultTTL
	if remember {
		ttl = uc.rememberTTL
	}

	now := time.Now().UTC()
	session := &domain.Session{
		ID:        uuid.Must(uuid.NewV7()),
		UserID:    user.ID,
		TokenHash: tokenHash,
		Remember:  remember,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	if err := uc.sessionRepo.Create(ctx, session); err != nil {
		return "", err
	}

	return plainToken, nil
}

// AuthenticateToken resolves a session token to its user. A missing,
// expired or orphaned session is the Anonymous state, reported as
// (nil, nil) rather than an error; only persistence failures surface.
func (uc *SessionUseCase) AuthenticateToken(ctx context.Context, token string) (*identityDomain.User, error) {
	if token == "" {
		return nil, nil
	}

	tokenHash := uc.tokens.HashToken(token)
	session, err := uc.sessionRepo.GetByTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if session.Expired(time.Now().UTC()) {
		// Best effort, the periodic cleanup removes anything missed.
		_ = uc.sessionRepo.DeleteByTokenHash(ctx, tokenHash)
		return nil, nil
	}

	user, err := uc.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, identityDomain.ErrUserNotFound) {
			return nil, nil
		}
		return nil, err
	}
	// Deactivation invalidates existing sessions immediately.
	if !user.IsActive {
		return nil, nil
	}

	return user, nil
}

// Logout terminates the session for the token. Idempotent: terminating an
// absent session is a no-op. Emits one logout audit event.
func (uc *SessionUseCase) Logout(ctx context.Context, token string, actor *identityDomain.User) error {
	if token != "" {
		if err := uc.sessionRepo.DeleteByTokenHash(ctx, uc.tokens.HashToken(token)); err != nil {
			return err
		}
	}

	actorName := ""
	if actor != nil {
		actorName = actor.Username
	}
	uc.recorder.Record(ctx, actorName, auditDomain.ActionLogout, nil)
	return nil
}

// CleanupExpiredSessions removes expired sessions and reports how many.
func (uc *SessionUseCase) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	return uc.sessionRepo.DeleteExpired(ctx, time.Now().UTC())
}
