package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/allisson/identity/internal/database"
	apperrors "github.com/allisson/identity/internal/errors"
	"github.com/allisson/identity/internal/identity/domain"
)

// MySQLGroupRepository handles group persistence for MySQL.
type MySQLGroupRepository struct {
	db *sql.DB
}

// NewMySQLGroupRepository creates a new MySQLGroupRepository.
func NewMySQLGroupRepository(db *sql.DB) *MySQLGroupRepository {
	return &MySQLGroupRepository{db: db}
}

// Create inserts a new group.
func (r *MySQLGroupRepository) Create(ctx context.Context, group *domain.Group) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO groups (id, name, description, created_at)
			  VALUES (?, ?, ?, ?)`

	_, err := querier.ExecContext(ctx, query, group.ID.String(), group.Name, group.Description, group.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateGroupName
		}
		return apperrors.WrapPersistence(err, "failed to create group")
	}
	return nil
}

// GetByID retrieves a group by ID.
func (r *MySQLGroupRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Group, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, name, description, created_at FROM groups WHERE id = ?`

	return scanGroupRow(querier.QueryRowContext(ctx, query, id.String()))
}

// GetByName retrieves a group by exact name match.
func (r *MySQLGroupRepository) GetByName(ctx context.Context, name string) (*domain.Group, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, name, description, created_at FROM groups WHERE name = ?`

	return scanGroupRow(querier.QueryRowContext(ctx, query, name))
}

// List retrieves all groups ordered by creation time.
func (r *MySQLGroupRepository) List(ctx context.Context) ([]*domain.Group, error) {
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
