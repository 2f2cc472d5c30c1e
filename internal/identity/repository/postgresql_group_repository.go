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

// PostgreSQLGroupRepository handles group persistence for PostgreSQL.
type PostgreSQLGroupRepository struct {
	db *sql.DB
}

// NewPostgreSQLGroupRepository creates a new PostgreSQLGroupRepository.
func NewPostgreSQLGroupRepository(db *sql.DB) *PostgreSQLGroupRepository {
	return &PostgreSQLGroupRepository{db: db}
}

// Create inserts a new group.
func (r *PostgreSQLGroupRepository) Create(ctx context.Context, group *domain.Group) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO groups (id, name, description, created_at)
			  VALUES ($1, $2, $3, $4)`

	_, err := querier.ExecContext(ctx, query, group.ID, group.Name, group.Description, group.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateGroupName
		}
		return apperrors.WrapPersistence(err, "failed to create group")
	}
	return nil
}

// GetByID retrieves a group by ID.
func (r *PostgreSQLGroupRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Group, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, name, description, created_at FROM groups WHERE id = $1`

	return scanGroupRow(querier.QueryRowContext(ctx, query, id))
}

// GetByName retrieves a group by exact name match.
func (r *PostgreSQLGroupRepository) GetByName(ctx context.Context, name string) (*domain.Group, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, name, description, created_at FROM groups WHERE name = $1`

	return scanGroupRow(querier.QueryRowContext(ctx, query, name))
}

// List retrieves all groups ordered by creation time.
func (r *PostgreSQLGroupRepository) List(ctx context.Context) ([]*domain.Group, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, name, description, created_at FROM groups ORDER BY created_at`

	rows, err := querier.QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list groups")
	}
	defer rows.Close()

	groups := []*domain.Group{}
	for rows.Next() {
		group, err := scanGroupRow(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate groups")
	}

	return groups, nil
}

// scanGroupRow scans a single group row.
func scanGroupRow(row rowScanner) (*domain.Group, error) {
	var (
		group domain.Group
		desc  sql.NullString
	)

	err := row.Scan(&group.ID, &group.Name, &desc, &group.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrGroupNotFound
		}
		return nil, apperrors.Wrap(err, "failed to scan group")
	}

	group.Description = desc.String
	return &group, nil
}

// isUniqueViolation detects unique constraint violations for both drivers.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate entry")
}
