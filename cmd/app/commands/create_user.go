package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/allisson/identity/internal/app"
	"github.com/allisson/identity/internal/config"
	identityDomain "github.com/allisson/identity/internal/identity/domain"
	identityUseCase "github.com/allisson/identity/internal/identity/usecase"
)

// UserCreator creates user accounts on behalf of an acting principal.
type UserCreator interface {
	CreateUser(
		ctx context.Context,
		actor *identityDomain.User,
		input identityUseCase.CreateUserInput,
	) (*identityDomain.PublicUser, error)
}

// RunCreateUser creates a user account from the command line. The account is
// created through the same use case the HTTP API uses, so validation and
// audit behave identically.
//
// Requirements: Database must be migrated and accessible.
func RunCreateUser(ctx context.Context, username, email, password, group, active, format string) error {
	// Load configuration
	cfg := config.Load()

	// Create DI container
	container := app.NewContainer(cfg)

	// Get logger from container
	logger := container.Logger()

	// Ensure cleanup on exit
	defer closeContainer(container, logger)

	// Get user use case from container
	userUseCase, err := container.UserUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize user use case: %w", err)
	}

	return CreateUserAccount(ctx, userUseCase, logger, username, email, password, group, active, format, DefaultIO())
}

// CreateUserAccount creates the account through the provided use case and
// writes the result in either text or JSON format. The active flag accepts
// the usual truthy and falsy spellings.
func CreateUserAccount(
	ctx context.Context,
	userUseCase UserCreator,
	logger *slog.Logger,
	username, email, password, group, active, format string,
	io IOTuple,
) error {
	logger.Info("creating new user", slog.String("username", username))

	isActive, err := parseActiveFlag(active)
	if err != nil {
		return err
	}

	// The command acts as a local operator with full grants. Permission
	// checks and auditing still run inside the use case.
	operator := &identityDomain.User{
		Username: "cli",
		Group:    &identityDomain.Group{Name: identityDomain.GroupSuperAdmin},
	}

	input := identityUseCase.CreateUserInput{
		Username:  username,
		Email:     email,
		Password:  password,
		GroupName: group,
		IsActive:  &isActive,
	}

	user, err := userUseCase.CreateUser(ctx, operator, input)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	// Output result based on format
	if format == "json" {
		outputUserJSON(user, io.Writer)
	} else {
		outputUserText(user, io.Writer)
	}

	logger.Info("user created successfully",
		slog.String("user_id", user.ID.String()),
		slog.String("username", user.Username),
		slog.Bool("is_active", user.IsActive),
	)

	return nil
}

// outputUserText outputs the result in human-readable text format.
func outputUserText(user *identityDomain.PublicUser, writer io.Writer) {
	_, _ = fmt.Fprintln(writer, "User created successfully!")
	_, _ = fmt.Fprintf(writer, "ID: %s\n", user.ID.String())
	_, _ = fmt.Fprintf(writer, "Username: %s\n", user.Username)
	if user.Email != "" {
		_, _ = fmt.Fprintf(writer, "Email: %s\n", user.Email)
	}
	if user.GroupName != "" {
		_, _ = fmt.Fprintf(writer, "Group: %s\n", user.GroupName)
	}
	_, _ = fmt.Fprintf(writer, "Active: %t\n", user.IsActive)
}

// outputUserJSON outputs the result in JSON format for machine consumption.
func outputUserJSON(user *identityDomain.PublicUser, writer io.Writer) {
	jsonBytes, err := json.MarshalIndent(user, "", "  ")
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "failed to marshal JSON: %v\n", err)
		return
	}

	_, _ = fmt.Fprintln(writer, string(jsonBytes))
}
