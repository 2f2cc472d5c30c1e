// Package repository implements data persistence for identity entities.
//
// Provides PostgreSQL and MySQL implementations with transaction support via
// database.GetTx(). Uniqueness of usernames, emails and group names is enforced
// by storage-level unique constraints; constraint violations are mapped back to
// typed domain errors so the check-then-insert race cannot produce duplicates.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/allisson/identity/internal/database"
	apperrors "github.com/allisson/identity/internal/errors"
	"github.com/allisson/identity/internal/identity/domain"
)

// PostgreSQLUserRepository handles user persistence for PostgreSQL.
type PostgreSQLUserRepository struct {
	db *sql.DB
}

// NewPostgreSQLUserRepository creates a new PostgreSQLUserRepository.
func NewPostgreSQLUserRepository(db *sql.DB) *PostgreSQLUserRepository {
	return &PostgreSQLUserRepository{db: db}
}

const postgresUserColumns = `u.id, u.username, u.email, u.password_hash, u.is_active, u.group_id, u.created_at,
	g.id, g.name, g.description, g.created_at`

// Create inserts a new user.
func (r *PostgreSQLUserRepository) Create(ctx context.Context, user *domain.User) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO users (id, username, email, password_hash, is_active, group_id, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := querier.ExecContext(
		ctx,
		query,
		user.ID,
		user.Username,
		nullableString(user.Email),
		user.PasswordHash,
		user.IsActive,
		user.GroupID,
		user.CreatedAt,
	)
	if err != nil {
		if mapped := mapPostgreSQLUserConstraint(err); mapped != nil {
			return mapped
		}
		return apperrors.WrapPersistence(err, "failed to create user")
	}
	return nil
}

// Update replaces the mutable fields of an existing user.
func (r *PostgreSQLUserRepository) Update(ctx context.Context, user *domain.User) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE users
			  SET username = $1,
				  email = $2,
				  password_hash = $3,
				  is_active = $4,
				  group_id = $5
			  WHERE id = $6`

	result, err := querier.ExecContext(
		ctx,
		query,
		user.Username,
		nullableString(user.Email),
		user.PasswordHash,
		user.IsActive,
		user.GroupID,
		user.ID,
	)
	if err != nil {
		if mapped := mapPostgreSQLUserConstraint(err); mapped != nil {
			return mapped
		}
		return apperrors.WrapPersistence(err, "failed to update user")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to update user")
	}
	if rows == 0 {
		return domain.ErrUserNotFound
	}

	return nil
}

// GetByID retrieves a user by ID, joining the group relation.
func (r *PostgreSQLUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + postgresUserColumns + `
			  FROM users u
			  LEFT JOIN groups g ON u.group_id = g.id
			  WHERE u.id = $1`

	return scanUserRow(querier.QueryRowContext(ctx, query, id))
}

// GetByUsername retrieves a user by exact username match.
func (r *PostgreSQLUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + postgresUserColumns + `
			  FROM users u
			  LEFT JOIN groups g ON u.group_id = g.id
			  WHERE u.username = $1`

	return scanUserRow(querier.QueryRowContext(ctx, query, username))
}

// List retrieves users ordered by creation time with pagination.
func (r *PostgreSQLUserRepository) List(ctx context.Context, offset, limit int) ([]*domain.User, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + postgresUserColumns + `
			  FROM users u
			  LEFT JOIN groups g ON u.group_id = g.id
			  ORDER BY u.created_at
			  OFFSET $1 LIMIT $2`

	rows, err := querier.QueryContext(ctx, query, offset, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list users")
	}
	defer rows.Close()

	return collectUsers(rows)
}

// ListByGroup retrieves the members of a group.
func (r *PostgreSQLUserRepository) ListByGroup(ctx context.Context, groupID uuid.UUID) ([]*domain.User, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + postgresUserColumns + `
			  FROM users u
			  LEFT JOIN groups g ON u.group_id = g.id
			  WHERE u.group_id = $1
			  ORDER BY u.created_at`

	rows, err := querier.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list group members")
	}
	defer rows.Close()

	return collectUsers(rows)
}

// ListWithoutGroup retrieves users that are not assigned to any group.
func (r *PostgreSQLUserRepository) ListWithoutGroup(ctx context.Context) ([]*domain.User, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + postgresUserColumns + `
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
func (r *PostgreSQLUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
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

// rowScanner abstracts *sql.Row for single-row scans.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanUserRow scans a joined user row, building the group when present.
func scanUserRow(row rowScanner) (*domain.User, error) {
	var (
		user       domain.User
		email      sql.NullString
		groupID    sql.NullString
		gID        sql.NullString
		gName      sql.NullString
		gDesc      sql.NullString
		gCreatedAt sql.NullTime
	)

	err := row.Scan(
		&user.ID,
		&user.Username,
		&email,
		&user.PasswordHash,
		&user.IsActive,
		&groupID,
		&user.CreatedAt,
		&gID,
		&gName,
		&gDesc,
		&gCreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, apperrors.Wrap(err, "failed to scan user")
	}

	user.Email = email.String
	if groupID.Valid {
		id, err := uuid.Parse(groupID.String)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to parse group id")
		}
		user.GroupID = &id
	}
	if gID.Valid {
		id, err := uuid.Parse(gID.String)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to parse group id")
		}
		user.Group = &domain.Group{
			ID:          id,
			Name:        gName.String,
			Description: gDesc.String,
			CreatedAt:   gCreatedAt.Time,
		}
	}

	return &user, nil
}

// collectUsers drains a multi-row result set of joined user rows.
func collectUsers(rows *sql.Rows) ([]*domain.User, error) {
	users := []*domain.User{}
	for rows.Next() {
		user, err := scanUserRow(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate users")
	}
	return users, nil
}

// nullableString converts the empty string to NULL so partial unique indexes
// on optional columns behave correctly.
func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// mapPostgreSQLUserConstraint maps unique violations to domain errors by
// constraint name. Returns nil for unrelated errors.
func mapPostgreSQLUserConstraint(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "duplicate key") && !strings.Contains(msg, "unique constraint") {
		return nil
	}
	switch {
	case strings.Contains(msg, "users_username"):
		return domain.ErrDuplicateUsername
	case strings.Contains(msg, "users_email"):
		return domain.ErrDuplicateEmail
	default:
		return apperrors.Wrap(apperrors.ErrConflict, "user violates a unique constraint")
	}
}
