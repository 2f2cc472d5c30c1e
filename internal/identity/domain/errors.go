package domain

import (
	"github.com/allisson/identity/internal/errors"
)

// Identity domain errors.
var (
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.Wrap(errors.ErrNotFound, "user not found")

	// ErrGroupNotFound indicates the requested group does not exist.
	ErrGroupNotFound = errors.Wrap(errors.ErrNotFound, "group not found")

	// ErrDuplicateUsername indicates a user with the same username already exists.
	ErrDuplicateUsername = errors.Wrap(errors.ErrConflict, "username already exists")

	// ErrDuplicateEmail indicates a user with the same email already exists.
	ErrDuplicateEmail = errors.Wrap(errors.ErrConflict, "email already exists")

	// ErrDuplicateGroupName indicates a group with the same name already exists.
	ErrDuplicateGroupName = errors.Wrap(errors.ErrConflict, "group name already exists")

	// ErrSelfDelete indicates a principal tried to delete their own account.
	ErrSelfDelete = errors.Wrap(errors.ErrForbidden, "cannot delete the currently authenticated account")

	// ErrPermissionDenied indicates the acting principal lacks the required permission.
	ErrPermissionDenied = errors.Wrap(errors.ErrForbidden, "permission denied")

	// ErrOldPasswordMismatch indicates a self-service password change supplied
	// a current password that does not match.
	ErrOldPasswordMismatch = errors.Wrap(errors.ErrInvalidInput, "current password is incorrect")
)
