package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/allisson/identity/internal/auth/domain"
	"github.com/allisson/identity/internal/database"
	apperrors "github.com/allisson/identity/internal/errors"
)

// MySQLSessionRepository handles session persistence for MySQL.
type MySQLSessionRepository struct {
	db *sql.DB
}

// NewMySQLSessionRepository creates a new MySQLSessionRepository.
func NewMySQLSessionRepository(db *sql.DB) *MySQLSessionRepository {
	return &MySQLSessionRepository{db: db}
}

// Create inserts a new session.
func (r *MySQLSessionRepository) Create(ctx context.Context, session *domain.Session) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO sessions (id, user_id, token_hash, remember, expires_at, created_at)
			  VALUES (?, ?, ?, ?, ?, ?)`

	_, err := querier.ExecContext(
		ctx,
		query,
		session.ID.String(),
		session.UserID.String(),
		session.TokenHash,
		session.Remember,
		session.ExpiresAt,
		session.CreatedAt,
	)
	if err != nil {
		return apperrors.WrapPersistence(err, "failed to create session")
	}
	return nil
}

// GetByTokenHash retrieves a session by its token hash.
func (r *MySQLSessionRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*domain.Session, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, user_id, token_hash, remember, expires_at, created_at
			  FROM sessions
			  WHERE token_hash = ?`

	return scanSession(querier.QueryRowContext(ctx, query, tokenHash))
}

// DeleteByTokenHash removes a session. Deleting an absent session is a no-op.
func (r *MySQLSessionRepository) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	querier := database.GetTx(ctx, r.db)

	_, err := querier.ExecContext(ctx, `DELETE FROM sessions WHERE token_hash = ?`, tokenHash)
	if err != nil {
		return apperrors.WrapPersistence(err, "failed to delete session")
	}
	return nil
}

// DeleteExpired removes sessions past their expiry and reports how many.
func (r *MySQLSessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	querier := database.GetTx(ctx, r.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < ?`, now)
	if err != nil {
		return 0, apperrors.WrapPersistence(err, "failed to delete expired sessions")
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete expired sessions")
	}
	return deleted, nil
}
