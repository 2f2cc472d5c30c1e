package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/identity/internal/identity/domain"
	"github.com/allisson/identity/internal/metrics"
)

// userUseCaseWithMetrics decorates UseCase with metrics instrumentation.
type userUseCaseWithMetrics struct {
	next    UseCase
	metrics metrics.BusinessMetrics
}

// NewUserUseCaseWithMetrics wraps a UseCase with metrics recording.
func NewUserUseCaseWithMetrics(useCase UseCase, m metrics.BusinessMetrics) UseCase {
	return &userUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (u *userUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	u.metrics.RecordOperation(ctx, "user", operation, status)
	u.metrics.RecordDuration(ctx, "user", operation, time.Since(start), status)
}

// CreateUser records metrics for administrative user creation.
func (u *userUseCaseWithMetrics) CreateUser(
	ctx context.Context,
	actor *domain.User,
	input CreateUserInput,
) (*domain.PublicUser, error) {
	start := time.Now()
	user, err := u.next.CreateUser(ctx, actor, input)
	u.record(ctx, "user_create", start, err)
	return user, err
}

// RegisterUser records metrics for self-service registration.
func (u *userUseCaseWithMetrics) RegisterUser(
	ctx context.Context,
	input RegisterUserInput,
) (*domain.PublicUser, error) {
	start := time.Now()
	user, err := u.next.RegisterUser(ctx, input)
	u.record(ctx, "user_register", start, err)
	return user, err
}

// UpdateUser records metrics for profile updates.
func (u *userUseCaseWithMetrics) UpdateUser(
	ctx context.Context,
	actor *domain.User,
	targetID uuid.UUID,
	input UpdateUserInput,
) (*domain.PublicUser, error) {
	start := time.Now()
	user, err := u.next.UpdateUser(ctx, actor, targetID, input)
	u.record(ctx, "user_update", start, err)
	return user, err
}

// DeleteUser records metrics for account deletion.
func (u *userUseCaseWithMetrics) DeleteUser(ctx context.Context, actor *domain.User, targetID uuid.UUID) error {
	start := time.Now()
	err := u.next.DeleteUser(ctx, actor, targetID)
	u.record(ctx, "user_delete", start, err)
	return err
}

// ChangePassword records metrics for password changes.
func (u *userUseCaseWithMetrics) ChangePassword(
	ctx context.Context,
	actor *domain.User,
	targetID uuid.UUID,
	oldPassword, newPassword string,
) error {
	start := time.Now()
	err := u.next.ChangePassword(ctx, actor, targetID, oldPassword, newPassword)
	u.record(ctx, "password_change", start, err)
	return err
}

// ChangeGroup records metrics for group membership changes.
func (u *userUseCaseWithMetrics) ChangeGroup(
	ctx context.Context,
	actor *domain.User,
	targetID uuid.UUID,
	groupName string,
) (*domain.PublicUser, error) {
	start := time.Now()
	user, err := u.next.ChangeGroup(ctx, actor, targetID, groupName)
	u.record(ctx, "group_change", start, err)
	return user, err
}

// GetUser records metrics for user retrieval.
func (u *userUseCaseWithMetrics) GetUser(ctx context.Context, id uuid.UUID) (*domain.PublicUser, error) {
	start := time.Now()
	user, err := u.next.GetUser(ctx, id)
	u.record(ctx, "user_get", start, err)
	return user, err
}

// ListUsers records metrics for user list operations.
func (u *userUseCaseWithMetrics) ListUsers(ctx context.Context, offset, limit int) ([]domain.PublicUser, error) {
	start := time.Now()
	users, err := u.next.ListUsers(ctx, offset, limit)
	u.record(ctx, "user_list", start, err)
	return users, err
}
