// Package dto contains the request shapes of the user management endpoints.
package dto

import (
	validation "github.com/jellydator/validation"

	"github.com/allisson/identity/internal/identity/usecase"
	appValidation "github.com/allisson/identity/internal/validation"
)

// CreateUserRequest carries an administrative account creation.
type CreateUserRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	GroupName string `json:"group_name"`
	IsActive  *bool  `json:"is_active"`
}

// Validate checks presence; the usecase applies the full field rules.
func (r CreateUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username,
			validation.Required.Error("username is required"),
			appValidation.NotBlank,
		),
		validation.Field(&r.Password,
			validation.Required.Error("password is required"),
		),
	)
}

// ToCreateUserInput converts the request to the usecase input.
func ToCreateUserInput(r CreateUserRequest) usecase.CreateUserInput {
	return usecase.CreateUserInput{
		Username:  r.Username,
		Email:     r.Email,
		Password:  r.Password,
		GroupName: r.GroupName,
		IsActive:  r.IsActive,
	}
}

// UpdateUserRequest carries a partial profile update. Absent fields are
// left untouched; a present blank email clears the stored one.
type UpdateUserRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	IsActive *bool   `json:"is_active"`
}

// ToUpdateUserInput converts the request to the usecase input.
func ToUpdateUserInput(r UpdateUserRequest) usecase.UpdateUserInput {
	return usecase.UpdateUserInput{
		Username: r.Username,
		Email:    r.Email,
		IsActive: r.IsActive,
	}
}

// ChangePasswordRequest carries a password change. OldPassword is required
// only when the principal changes their own password.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// Validate checks the password change fields.
func (r ChangePasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.NewPassword,
			validation.Required.Error("new_password is required"),
		),
	)
}

// ChangeGroupRequest carries a group membership change. A blank group name
// removes the user from any group.
type ChangeGroupRequest struct {
	GroupName string `json:"group_name"`
}
