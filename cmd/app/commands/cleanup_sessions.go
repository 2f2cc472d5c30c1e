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
)

// SessionCleaner removes expired sessions from storage.
type SessionCleaner interface {
	CleanupExpiredSessions(ctx context.Context) (int64, error)
}

// RunCleanupSessions deletes sessions whose expiration time has passed.
// Supports both text and JSON output formats.
//
// Requirements: Database must be migrated and accessible.
func RunCleanupSessions(ctx context.Context, format string) error {
	// Load configuration
	cfg := config.Load()

	// Create DI container
	container := app.NewContainer(cfg)

	// Get logger from container
	logger := container.Logger()

	// Ensure cleanup on exit
	defer closeContainer(container, logger)

	// Get session use case from container
	sessionUseCase, err := container.SessionUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize session use case: %w", err)
	}

	return CleanupSessions(ctx, sessionUseCase, logger, format, DefaultIO())
}

// CleanupSessions runs the cleanup through the provided use case and writes
// the deletion count in either text or JSON format.
func CleanupSessions(
	ctx context.Context,
	sessionUseCase SessionCleaner,
	logger *slog.Logger,
	format string,
	io IOTuple,
) error {
	logger.Info("cleaning expired sessions")

	count, err := sessionUseCase.CleanupExpiredSessions(ctx)
	if err != nil {
		return fmt.Errorf("failed to cleanup expired sessions: %w", err)
	}

	// Output result based on format
	if format == "json" {
		outputCleanupJSON(count, io.Writer)
	} else {
		outputCleanupText(count, io.Writer)
	}

	logger.Info("cleanup completed", slog.Int64("count", count))

	return nil
}

// outputCleanupText outputs the result in human-readable text format.
func outputCleanupText(count int64, writer io.Writer) {
	_, _ = fmt.Fprintf(writer, "Successfully deleted %d expired session(s)\n", count)
}

// outputCleanupJSON outputs the result in JSON format for machine consumption.
func outputCleanupJSON(count int64, writer io.Writer) {
	result := map[string]interface{}{
		"count": count,
	}

	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "failed to marshal JSON: %v\n", err)
		return
	}

	_, _ = fmt.Fprintln(writer, string(jsonBytes))
}
