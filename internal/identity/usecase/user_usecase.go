// Package usecase implements the identity business logic: administrative
// user management, self-service registration and group queries. Every
// state-changing operation emits exactly one audit event per attempt, after
// the outcome is known, carrying the outcome in the action label.
package usecase

import (
	"context"
	"strings"
	"time"

	validation "github.com/jellydator/validation"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/identity/internal/audit/domain"
	"github.com/allisson/identity/internal/database"
	"github.com/allisson/identity/internal/identity/domain"
	"github.com/allisson/identity/internal/identity/service"
	appValidation "github.com/allisson/identity/internal/validation"
)

// CreateUserInput contains the input data for administrative user creation.
type CreateUserInput struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	GroupName string `json:"group_name"`
	IsActive  *bool  `json:"is_active"`
}

// RegisterUserInput contains the input data for self-service registration.
type RegisterUserInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateUserInput contains the mutable profile fields for a partial update.
// Nil fields are left untouched. A non-nil blank email clears the stored one.
type UpdateUserInput struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	IsActive *bool   `json:"is_active"`
}

// UseCase defines the interface for user management operations. Mutating
// operations take the acting principal explicitly; a nil actor is anonymous
// and holds no permissions.
type UseCase interface {
	CreateUser(ctx context.Context, actor *domain.User, input CreateUserInput) (*domain.PublicUser, error)
	RegisterUser(ctx context.Context, input RegisterUserInput) (*domain.PublicUser, error)
	UpdateUser(ctx context.Context, actor *domain.User, targetID uuid.UUID, input UpdateUserInput) (*domain.PublicUser, error)
	DeleteUser(ctx context.Context, actor *domain.User, targetID uuid.UUID) error
	ChangePassword(ctx context.Context, actor *domain.User, targetID uuid.UUID, oldPassword, newPassword string) error
	ChangeGroup(ctx context.Context, actor *domain.User, targetID uuid.UUID, groupName string) (*domain.PublicUser, error)
	GetUser(ctx context.Context, id uuid.UUID) (*domain.PublicUser, error)
	ListUsers(ctx context.Context, offset, limit int) ([]domain.PublicUser, error)
}

// UserRepository interface defines user repository operations
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	List(ctx context.Context, offset, limit int) ([]*domain.User, error)
	ListByGroup(ctx context.Context, groupID uuid.UUID) ([]*domain.User, error)
	ListWithoutGroup(ctx context.Context) ([]*domain.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// GroupRepository interface defines group repository operations
type GroupRepository interface {
	Create(ctx context.Context, group *domain.Group) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Group, error)
	GetByName(ctx context.Context, name string) (*domain.Group, error)
	List(ctx context.Context) ([]*domain.Group, error)
}

// AuditRecorder accepts fire-and-forget audit events.
type AuditRecorder interface {
	Record(ctx context.Context, actor, action string, metadata map[string]string)
}

// UserUseCase handles user management business logic
type UserUseCase struct {
	txManager database.TxManager
	userRepo  UserRepository
	groupRepo GroupRepository
	passwords service.PasswordService
	recorder  AuditRecorder
}

// NewUserUseCase creates a new UserUseCase
func NewUserUseCase(
	txManager database.TxManager,
	userRepo UserRepository,
	groupRepo GroupRepository,
	passwords service.PasswordService,
	recorder AuditRecorder,
) *UserUseCase {
	return &UserUseCase{
		txManager: txManager,
		userRepo:  userRepo,
		groupRepo: groupRepo,
		passwords: passwords,
		recorder:  recorder,
	}
}

// audit emits the single per-attempt event once the outcome is known. The
// failure variant of the action label is used when err is non-nil.
func (uc *UserUseCase) audit(ctx context.Context, actor *domain.User, okAction, failAction string, err error, metadata map[string]string) {
	action := okAction
	if err != nil {
		action = failAction
		if metadata == nil {
			metadata = map[string]string{}
		}
		metadata["error"] = err.Error()
	}
	uc.recorder.Record(ctx, actorName(actor), action, metadata)
}

func actorName(actor *domain.User) string {
	if actor == nil {
		return ""
	}
	return actor.Username
}

func validateCredentialsInput(username, email, password string) error {
	err := validation.Errors{
		"username": validation.Validate(username,
			validation.Required.Error("username is required"),
			appValidation.NotBlank,
			appValidation.Username,
			validation.Length(1, 150).Error("username must be between 1 and 150 characters"),
		),
		"email": validation.Validate(email,
			validation.When(email != "",
				appValidation.Email,
				validation.Length(5, 255).Error("email must be between 5 and 255 characters"),
			),
		),
		"password": validation.Validate(password,
			validation.Required.Error("password is required"),
			validation.Length(8, 128).Error("password must be between 8 and 128 characters"),
			appValidation.PasswordStrength{
				MinLength:     8,
				RequireUpper:  true,
				RequireLower:  true,
				RequireNumber: true,
			},
		),
	}.Filter()
	return appValidation.WrapValidationError(err)
}

// CreateUser creates a new account on behalf of an administrator. The actor
// needs the add_user permission. The group is optional and resolved by name.
func (uc *UserUseCase) CreateUser(ctx context.Context, actor *domain.User, input CreateUserInput) (*domain.PublicUser, error) {
	user, err := uc.createUser(ctx, actor, input)
	uc.audit(ctx, actor, auditDomain.ActionUserCreate, auditDomain.ActionUserCreateFailed, err, map[string]string{
		"target": strings.TrimSpace(input.Username),
	})
	if err != nil {
		return nil, err
	}

	public := user.Public()
	return &public, nil
}

func (uc *UserUseCase) createUser(ctx context.Context, actor *domain.User, input CreateUserInput) (*domain.User, error) {
	if !actor.HasPermission(domain.PermissionAddUser) {
		return nil, domain.ErrPermissionDenied
	}
	if err := validateCredentialsInput(input.Username, input.Email, input.Password); err != nil {
		return nil, err
	}

	hash, err := uc.passwords.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:           uuid.Must(uuid.NewV7()),
		Username:     strings.TrimSpace(input.Username),
		Email:        normalizeEmail(input.Email),
		PasswordHash: hash,
		IsActive:     true,
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}

	err = uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		if input.GroupName != "" {
			group, err := uc.groupRepo.GetByName(ctx, input.GroupName)
			if err != nil {
				return err
			}
			user.GroupID = &group.ID
			user.Group = group
		}
		user.CreatedAt = nowUTC()
		return uc.userRepo.Create(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// RegisterUser creates a self-service account in the default User group.
// Registration needs no acting principal.
func (uc *UserUseCase) RegisterUser(ctx context.Context, input RegisterUserInput) (*domain.PublicUser, error) {
	user, err := uc.registerUser(ctx, input)
	uc.audit(ctx, nil, auditDomain.ActionRegister, auditDomain.ActionRegisterFailed, err, map[string]string{
		"target": strings.TrimSpace(input.Username),
	})
	if err != nil {
		return nil, err
	}

	public := user.Public()
	return &public, nil
}

func (uc *UserUseCase) registerUser(ctx context.Context, input RegisterUserInput) (*domain.User, error) {
	if err := validateCredentialsInput(input.Username, input.Email, input.Password); err != nil {
		return nil, err
	}

	hash, err := uc.passwords.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:           uuid.Must(uuid.NewV7()),
		Username:     strings.TrimSpace(input.Username),
		Email:        normalizeEmail(input.Email),
		PasswordHash: hash,
		IsActive:     true,
	}

	err = uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		group, err := uc.groupRepo.GetByName(ctx, domain.GroupUser)
		if err != nil {
			return err
		}
		user.GroupID = &group.ID
		user.Group = group
		user.CreatedAt = nowUTC()
		return uc.userRepo.Create(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// UpdateUser applies a partial profile update. The actor needs the edit_user
// permission. Changing the username re-checks uniqueness at the store; a
// blank email clears the stored one.
func (uc *UserUseCase) UpdateUser(ctx context.Context, actor *domain.User, targetID uuid.UUID, input UpdateUserInput) (*domain.PublicUser, error) {
	user, err := uc.updateUser(ctx, actor, targetID, input)
	uc.audit(ctx, actor, auditDomain.ActionUserUpdate, auditDomain.ActionUserUpdateFailed, err, map[string]string{
		"target_id": targetID.String(),
	})
	if err != nil {
		return nil, err
	}

	public := user.Public()
	return &public, nil
}

func (uc *UserUseCase) updateUser(ctx context.Context, actor *domain.User, targetID uuid.UUID, input UpdateUserInput) (*domain.User, error) {
	if !actor.HasPermission(domain.PermissionEditUser) {
		return nil, domain.ErrPermissionDenied
	}
	if err := validateUpdateInput(input); err != nil {
		return nil, err
	}

	var user *domain.User
	err := uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		var err error
		user, err = uc.userRepo.GetByID(ctx, targetID)
		if err != nil {
			return err
		}

		if input.Username != nil {
			user.Username = strings.TrimSpace(*input.Username)
		}
		if input.Email != nil {
			user.Email = normalizeEmail(*input.Email)
		}
		if input.IsActive != nil {
			user.IsActive = *input.IsActive
		}

		return uc.userRepo.Update(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

func validateUpdateInput(input UpdateUserInput) error {
	errs := validation.Errors{}
	if input.Username != nil {
		errs["username"] = validation.Validate(*input.Username,
			validation.Required.Error("username is required"),
			appValidation.NotBlank,
			appValidation.Username,
			validation.Length(1, 150).Error("username must be between 1 and 150 characters"),
		)
	}
	if input.Email != nil && *input.Email != "" {
		errs["email"] = validation.Validate(*input.Email,
			appValidation.Email,
			validation.Length(5, 255).Error("email must be between 5 and 255 characters"),
		)
	}
	return appValidation.WrapValidationError(errs.Filter())
}

// DeleteUser removes an account permanently. The actor needs the delete_user
// permission and may never delete their own account; the identity check runs
// before any store mutation.
func (uc *UserUseCase) DeleteUser(ctx context.Context, actor *domain.User, targetID uuid.UUID) error {
	err := uc.deleteUser(ctx, actor, targetID)
	uc.audit(ctx, actor, auditDomain.ActionUserDelete, auditDomain.ActionUserDeleteFailed, err, map[string]string{
		"target_id": targetID.String(),
	})
	return err
}

func (uc *UserUseCase) deleteUser(ctx context.Context, actor *domain.User, targetID uuid.UUID) error {
	if !actor.HasPermission(domain.PermissionDeleteUser) {
		return domain.ErrPermissionDenied
	}
	if actor != nil && actor.ID == targetID {
		return domain.ErrSelfDelete
	}

	return uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		return uc.userRepo.Delete(ctx, targetID)
	})
}

// ChangePassword replaces the target's password. A principal changing their
// own password must re-verify the current one; an administrator changing
// another account's password does not need it but needs edit_user.
func (uc *UserUseCase) ChangePassword(ctx context.Context, actor *domain.User, targetID uuid.UUID, oldPassword, newPassword string) error {
	err := uc.changePassword(ctx, actor, targetID, oldPassword, newPassword)
	uc.audit(ctx, actor, auditDomain.ActionPasswordChange, auditDomain.ActionPasswordChangeFailed, err, map[string]string{
		"target_id": targetID.String(),
	})
	return err
}

func (uc *UserUseCase) changePassword(ctx context.Context, actor *domain.User, targetID uuid.UUID, oldPassword, newPassword string) error {
	self := actor != nil && actor.ID == targetID
	if !self && !actor.HasPermission(domain.PermissionEditUser) {
		return domain.ErrPermissionDenied
	}

	err := validation.Validate(newPassword,
		validation.Required.Error("password is required"),
		validation.Length(8, 128).Error("password must be between 8 and 128 characters"),
		appValidation.PasswordStrength{
			MinLength:     8,
			RequireUpper:  true,
			RequireLower:  true,
			RequireNumber: true,
		},
	)
	if err := appValidation.WrapValidationError(err); err != nil {
		return err
	}

	hash, err := uc.passwords.HashPassword(newPassword)
	if err != nil {
		return err
	}

	return uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		user, err := uc.userRepo.GetByID(ctx, targetID)
		if err != nil {
			return err
		}
		if self && !uc.passwords.VerifyPassword(oldPassword, user.PasswordHash) {
			return domain.ErrOldPasswordMismatch
		}
		user.PasswordHash = hash
		return uc.userRepo.Update(ctx, user)
	})
}

// ChangeGroup moves the target into the named group, or out of any group
// when the name is blank. The actor needs the edit_user permission.
func (uc *UserUseCase) ChangeGroup(ctx context.Context, actor *domain.User, targetID uuid.UUID, groupName string) (*domain.PublicUser, error) {
	user, err := uc.changeGroup(ctx, actor, targetID, groupName)
	uc.audit(ctx, actor, auditDomain.ActionGroupChange, auditDomain.ActionGroupChangeFailed, err, map[string]string{
		"target_id": targetID.String(),
		"group":     groupName,
	})
	if err != nil {
		return nil, err
	}

	public := user.Public()
	return &public, nil
}

func (uc *UserUseCase) changeGroup(ctx context.Context, actor *domain.User, targetID uuid.UUID, groupName string) (*domain.User, error) {
	if !actor.HasPermission(domain.PermissionEditUser) {
		return nil, domain.ErrPermissionDenied
	}

	var user *domain.User
	err := uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		var err error
		user, err = uc.userRepo.GetByID(ctx, targetID)
		if err != nil {
			return err
		}

		if groupName == "" {
			user.GroupID = nil
			user.Group = nil
		} else {
			group, err := uc.groupRepo.GetByName(ctx, groupName)
			if err != nil {
				return err
			}
			user.GroupID = &group.ID
			user.Group = group
		}

		return uc.userRepo.Update(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// GetUser retrieves the public projection of a user.
func (uc *UserUseCase) GetUser(ctx context.Context, id uuid.UUID) (*domain.PublicUser, error) {
	user, err := uc.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	public := user.Public()
	return &public, nil
}

// ListUsers retrieves public projections ordered by creation time.
func (uc *UserUseCase) ListUsers(ctx context.Context, offset, limit int) ([]domain.PublicUser, error) {
	users, err := uc.userRepo.List(ctx, offset, limit)
	if err != nil {
		return nil, err
	}
	return publicProjections(users), nil
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
