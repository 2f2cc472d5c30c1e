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
	identityUseCase "github.com/allisson/identity/internal/identity/usecase"
)

// SeedUseCase reconciles the reserved groups and the bootstrap admin account.
type SeedUseCase interface {
	EnsureSeedData(ctx context.Context, admin identityUseCase.SeedAdmin) (*identityUseCase.SeedResult, error)
}

// RunSeedData creates the reserved groups and the initial super-admin account
// when they are missing. The operation is idempotent, so it is safe to run on
// every deploy.
//
// Requirements: Database must be migrated and accessible.
func RunSeedData(ctx context.Context, format string) error {
	// Load configuration
	cfg := config.Load()

	// Create DI container
	container := app.NewContainer(cfg)

	// Get logger from container
	logger := container.Logger()

	// Ensure cleanup on exit
	defer closeContainer(container, logger)

	// Get bootstrap use case from container
	bootstrapUseCase, err := container.BootstrapUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize bootstrap use case: %w", err)
	}

	admin := identityUseCase.SeedAdmin{
		Username: cfg.SeedAdminUsername,
		Email:    cfg.SeedAdminEmail,
		Password: cfg.SeedAdminPassword,
	}

	return SeedData(ctx, bootstrapUseCase, logger, admin, format, DefaultIO())
}

// SeedData runs the reconciliation through the provided use case and writes
// the result in either text or JSON format.
func SeedData(
	ctx context.Context,
	seedUseCase SeedUseCase,
	logger *slog.Logger,
	admin identityUseCase.SeedAdmin,
	format string,
	io IOTuple,
) error {
	logger.Info("seeding reserved groups and bootstrap admin",
		slog.String("admin_username", admin.Username),
	)

	result, err := seedUseCase.EnsureSeedData(ctx, admin)
	if err != nil {
		return fmt.Errorf("failed to seed data: %w", err)
	}

	// Output result based on format
	if format == "json" {
		outputSeedJSON(result, io.Writer)
	} else {
		outputSeedText(result, io.Writer)
	}

	logger.Info("seed completed",
		slog.Int("created_groups", len(result.CreatedGroups)),
		slog.Int("created_users", len(result.CreatedUsers)),
	)

	return nil
}

// outputSeedText outputs the result in human-readable text format.
func outputSeedText(result *identityUseCase.SeedResult, writer io.Writer) {
	if len(result.CreatedGroups) == 0 && len(result.CreatedUsers) == 0 {
		_, _ = fmt.Fprintln(writer, "Nothing to do: groups and admin account already exist")
		return
	}
	for _, name := range result.CreatedGroups {
		_, _ = fmt.Fprintf(writer, "Created group: %s\n", name)
	}
	for _, name := range result.CreatedUsers {
		_, _ = fmt.Fprintf(writer, "Created user: %s\n", name)
	}
}

// outputSeedJSON outputs the result in JSON format for machine consumption.
func outputSeedJSON(result *identityUseCase.SeedResult, writer io.Writer) {
	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "failed to marshal JSON: %v\n", err)
		return
	}

	_, _ = fmt.Fprintln(writer, string(jsonBytes))
}
