package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/allisson/identity/internal/identity/domain"
)

// GroupReader defines the group query operations exposed to collaborators.
type GroupReader interface {
	GetGroup(ctx context.Context, id uuid.UUID) (*domain.Group, error)
	GetGroupByName(ctx context.Context, name string) (*domain.Group, error)
	ListGroups(ctx context.Context) ([]*domain.Group, error)
	ListMembers(ctx context.Context, groupID uuid.UUID) ([]domain.PublicUser, error)
	ListUsersWithoutGroup(ctx context.Context) ([]domain.PublicUser, error)
}

// GroupUseCase serves group queries. Groups are created only by the seed
// reconciliation; there is no group mutation or deletion path.
type GroupUseCase struct {
	groupRepo GroupRepository
	userRepo  UserRepository
}

// NewGroupUseCase creates a new GroupUseCase.
func NewGroupUseCase(groupRepo GroupRepository, userRepo UserRepository) *GroupUseCase {
	return &GroupUseCase{groupRepo: groupRepo, userRepo: userRepo}
}

// GetGroup retrieves a group by ID.
func (uc *GroupUseCase) GetGroup(ctx context.Context, id uuid.UUID) (*domain.Group, error) {
	return uc.groupRepo.GetByID(ctx, id)
}

// GetGroupByName retrieves a group by exact name match.
func (uc *GroupUseCase) GetGroupByName(ctx context.Context, name string) (*domain.Group, error) {
	return uc.groupRepo.GetByName(ctx, name)
}

// ListGroups retrieves all groups.
func (uc *GroupUseCase) ListGroups(ctx context.Context) ([]*domain.Group, error) {
	return uc.groupRepo.List(ctx)
}

// ListMembers retrieves the public projections of a group's members.
// The group is resolved first so an unknown ID is reported as not found
// rather than as an empty membership.
func (uc *GroupUseCase) ListMembers(ctx context.Context, groupID uuid.UUID) ([]domain.PublicUser, error) {
	if _, err := uc.groupRepo.GetByID(ctx, groupID); err != nil {
		return nil, err
	}

	users, err := uc.userRepo.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	return publicProjections(users), nil
}

// ListUsersWithoutGroup retrieves users that hold no group membership.
func (uc *GroupUseCase) ListUsersWithoutGroup(ctx context.Context) ([]domain.PublicUser, error) {
	users, err := uc.userRepo.ListWithoutGroup(ctx)
	if err != nil {
		return nil, err
	}
	return publicProjections(users), nil
}

func publicProjections(users []*domain.User) []domain.PublicUser {
	public := make([]domain.PublicUser, 0, len(users))
	for _, user := range users {
		public = append(public, user.Public())
	}
	return public
}
