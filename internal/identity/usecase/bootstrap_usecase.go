package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/identity/internal/audit/domain"
	"github.com/allisson/identity/internal/database"
	"github.com/allisson/identity/internal/identity/domain"
	"github.com/allisson/identity/internal/identity/service"
)

// SeedAdmin describes the initial super-admin account created when no
// account with that username exists yet.
type SeedAdmin struct {
	Username string
	Email    string
	Password string
}

// SeedResult reports what a reconciliation pass created. Empty slices mean
// the desired state was already in place.
type SeedResult struct {
	CreatedGroups []string `json:"created_groups"`
	CreatedUsers  []string `json:"created_users"`
}

// BootstrapUseCase reconciles the reserved groups and the initial
// super-admin account. It diffs desired against existing state and creates
// only what is missing, so it is safe to run on every startup.
type BootstrapUseCase struct {
	txManager database.TxManager
	userRepo  UserRepository
	groupRepo GroupRepository
	passwords service.PasswordService
	recorder  AuditRecorder
}

// NewBootstrapUseCase creates a new BootstrapUseCase.
func NewBootstrapUseCase(
	txManager database.TxManager,
	userRepo UserRepository,
	groupRepo GroupRepository,
	passwords service.PasswordService,
	recorder AuditRecorder,
) *BootstrapUseCase {
	return &BootstrapUseCase{
		txManager: txManager,
		userRepo:  userRepo,
		groupRepo: groupRepo,
		passwords: passwords,
		recorder:  recorder,
	}
}

// reservedGroups in creation order. The descriptions mirror the role grants.
var reservedGroups = []domain.Group{
	{Name: domain.GroupSuperAdmin, Description: "Unrestricted access to every operation"},
	{Name: domain.GroupAdmin, Description: "Can add and edit users"},
	{Name: domain.GroupUser, Description: "Regular account with no management permissions"},
}

// EnsureSeedData creates the missing reserved groups and, when an admin
// password is configured, the initial super-admin account. The whole pass
// runs in one transaction and reports what it created.
func (uc *BootstrapUseCase) EnsureSeedData(ctx context.Context, admin SeedAdmin) (*SeedResult, error) {
	result := &SeedResult{CreatedGroups: []string{}, CreatedUsers: []string{}}

	err := uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		superAdminID, err := uc.ensureGroups(ctx, result)
		if err != nil {
			return err
		}
		return uc.ensureAdminUser(ctx, admin, superAdminID, result)
	})
	if err != nil {
		return nil, err
	}

	if len(result.CreatedGroups) > 0 || len(result.CreatedUsers) > 0 {
		uc.recorder.Record(ctx, "", auditDomain.ActionSeedData, map[string]string{
			"created_groups": strings.Join(result.CreatedGroups, ","),
			"created_users":  strings.Join(result.CreatedUsers, ","),
		})
	}

	return result, nil
}

func (uc *BootstrapUseCase) ensureGroups(ctx context.Context, result *SeedResult) (uuid.UUID, error) {
	var superAdminID uuid.UUID

	for _, desired := range reservedGroups {
		existing, err := uc.groupRepo.GetByName(ctx, desired.Name)
		if err == nil {
			if desired.Name == domain.GroupSuperAdmin {
				superAdminID = existing.ID
			}
			continue
		}
		if !errors.Is(err, domain.ErrGroupNotFound) {
			return uuid.Nil, err
		}

		group := &domain.Group{
			ID:          uuid.Must(uuid.NewV7()),
			Name:        desired.Name,
			Description: desired.Description,
			CreatedAt:   nowUTC(),
		}
		if err := uc.groupRepo.Create(ctx, group); err != nil {
			return uuid.Nil, err
		}
		if group.Name == domain.GroupSuperAdmin {
			superAdminID = group.ID
		}
		result.CreatedGroups = append(result.CreatedGroups, group.Name)
	}

	return superAdminID, nil
}

func (uc *BootstrapUseCase) ensureAdminUser(ctx context.Context, admin SeedAdmin, superAdminID uuid.UUID, result *SeedResult) error {
	if admin.Username == "" {
		return nil
	}

	_, err := uc.userRepo.GetByUsername(ctx, admin.Username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return err
	}

	// The account cannot be created without a password. This is logged
	// rather than failed so a fresh deployment still gets its groups.
	if admin.Password == "" {
		slog.Warn("seed admin password not configured, skipping admin account creation",
			slog.String("username", admin.Username),
		)
		return nil
	}

	hash, err := uc.passwords.HashPassword(admin.Password)
	if err != nil {
		return err
	}

	user := &domain.User{
		ID:           uuid.Must(uuid.NewV7()),
		Username:     admin.Username,
		Email:        normalizeEmail(admin.Email),
		PasswordHash: hash,
		IsActive:     true,
		GroupID:      &superAdminID,
		CreatedAt:    nowUTC(),
	}
	if err := uc.userRepo.Create(ctx, user); err != nil {
		return err
	}

	result.CreatedUsers = append(result.CreatedUsers, user.Username)
	return nil
}
