package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"

	"github.com/allisson/identity/internal/database"
	apperrors "github.com/allisson/identity/internal/errors"
	"github.com/allisson/identity/internal/identity/domain"
)

// MySQLUserRepository handles user persistence for MySQL.
// The username column carries a binary collation so exact-match lookups stay
// case-sensitive, matching the PostgreSQL behavior.
type MySQLUserRepository struct {
	db *sql.DB
}

// NewMySQLUserRepository creates a new MySQLUserRepository.
func NewMySQLUserRepository(db *sql.DB) *MySQLUserRepository {
	return &MySQLUserRepository{db: db}
}

const mysqlUserColumns = `u.id, u.username, u.email, u.password_hash, u.is_active, u.group_id, u.created_at,
	g.id, g.name, g.description, g.created_at`

// Create inserts a new user.
func (r *MySQLUserRepository) Create(ctx context.Context, user *domain.User) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO users (id, username, email, password_hash, is_active, group_id, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?)`

	var groupID any
	if user.GroupID != nil {
		groupID = user.GroupID.String()
	}

	_, err := querier.ExecContext(
		ctx,
		query,
		user.ID.String(),
		user.Username,
		nullableString(user.Email),
		user.PasswordHash,
		user.IsActive,
		groupID,
		user.CreatedAt,
	)
	if err != nil {
		if mapped := mapMySQLUserConstraint(err); mapped != nil {
			return mapped
		}
		return apperrors.WrapPersistence(err, "failed to create user")
	}
	return nil
}

// Update replaces the mutable fields of an existing user.
func (r *MySQLUserRepository) Update(ctx context.Context, user *domain.User) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE users
			  SET username = ?,
				  email = ?,
				  password_hash = ?,
				  is_active = ?,
				  group_id = ?
			  WHERE id = ?`

	var groupID any
	if user.GroupID != nil {
		groupID = user.GroupID.String()
	}

	_, err := querier.ExecContext(
		ctx,
		query,
		user.Username,
		nullableString(user.Email),
		user.PasswordHash,
		user.IsActive,
		groupID,
		user.ID.String(),
	)
	if err != nil {
		if mapped := mapMySQLUserConstraint(err); mapped != nil {
			return mapped
		}
		return apperrors.WrapPersistence(err, "failed to update user")
	}

	// MySQL reports zero affected rows for no-op updates, so a missing-row
	// check on RowsAffected would misfire here.
	return nil
}

// GetByID retrieves a user by ID, joining the group relation.
func (r *MySQLUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + mysqlUserColumns + `
			  FROM users u
			  LEFT JOIN groups g ON u.group_id = g.id
			  WHERE u.id = ?`

	return scanUserRow(querier.QueryRowContext(ctx, query, id.String()))
}

// GetByUsername retrieves a user by exact username match.
func (r *MySQLUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + mysqlUserColumns + `
			  FROM users u
			  LEFT JOIN groups g ON u.group_id = g.id
			  WHERE u.username = ?`

	return scanUserRow(querier.QueryRowContext(ctx, query, username))
}

// List retrieves users ordered by creation time with pagination.
func (r *MySQLUserRepository) List(ctx context.Context, offset, limit int) ([]*domain.User, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + mysqlUserColumns + `
			  FROM users u
			  LEFT JOIN groups g ON u.group_id = g.id
			  ORDER BY u.created_at
			  LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list users")
	}
	defer rows.Close()

	return collectUsers(rows)
}

// ListByGroup retrieves the members of a group.
func (r *MySQLUserRepository) ListByGroup(ctx context.Context, groupID uuid.UUID) ([]*domain.User, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + mysqlUserColumns + `
			  FROM users u
			  LEFT JOIN groups g ON u.group_id = g.id
			  WHERE u.group_id = ?
			  ORDER BY u.created_at`

	rows, err := querier.QueryContext(ctx, query, groupID.String())
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list group members")
	}
	defer rows.Close()

	return collectUsers(rows)
}

// ListWithoutGroup retrieves users that are not assigned to any group.
func (r *MySQLUserRepository) ListWithoutGroup(ctx context.Context) ([]*domain.User, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + mysqlUserColumns + `
			  FROM users u
			  LEFT JOIN groups g ON u.group_id = g.id
			  WHERE u.group_id IS NULL
			  ORDER BY u.created_at`

	rows, err := querier.QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list users without group")
	}
	defer rows.Close()

	return collectUsers(rows)
}

// Delete removes a user permanently.
func (r *MySQLUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id.String())
	if err != nil {
		return apperrors.WrapPersistence(err, "failed to delete user")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to delete user")
	}
	if rows == 0 {
		return domain.ErrUserNotFound
	}

	return nil
}

// mapMySQLUserConstraint maps duplicate-entry errors to domain errors by key
// name. Returns nil for unrelated errors.
func mapMySQLUserConstraint(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "duplicate entry") {
		return nil
	}
	switch {
	case strings.Contains(msg, "username"):
		return domain.ErrDuplicateUsername
	case strings.Contains(msg, "email"):
		return domain.ErrDuplicateEmail
	default:
		return apperrors.Wrap(apperrors.ErrConflict, "user violates a unique constraint")
	}
}
