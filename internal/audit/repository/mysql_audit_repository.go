package repository

import (
	"context"
	"database/sql"

	"github.com/allisson/identity/internal/audit/domain"
	"github.com/allisson/identity/internal/database"
	apperrors "github.com/allisson/identity/internal/errors"
)

// MySQLAuditRepository handles audit event persistence for MySQL.
type MySQLAuditRepository struct {
	db *sql.DB
}

// NewMySQLAuditRepository creates a new MySQLAuditRepository.
func NewMySQLAuditRepository(db *sql.DB) *MySQLAuditRepository {
	return &MySQLAuditRepository{db: db}
}

// Create appends an audit event to the trail.
func (r *MySQLAuditRepository) Create(ctx context.Context, event *domain.AuditEvent) error {
	querier := database.GetTx(ctx, r.db)

	metadata, err := marshalMetadata(event.Metadata)
	if err != nil {
		return err
	}

	query := `INSERT INTO audit_events (id, request_id, actor, action, ip, user_agent, metadata, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		event.ID.String(),
		event.RequestID,
		event.Actor,
		event.Action,
		event.IP,
		event.UserAgent,
		metadata,
		event.CreatedAt,
	)
	if err != nil {
		return apperrors.WrapPersistence(err, "failed to create audit event")
	}
	return nil
}

// List retrieves audit events matching the filter, newest first.
func (r *MySQLAuditRepository) List(ctx context.Context, filter domain.ListFilter) ([]*domain.AuditEvent, error) {
	querier := database.GetTx(ctx, r.db)

	where, args := buildAuditFilter(filter, mysqlPlaceholder)
	query := `SELECT id, request_id, actor, action, ip, user_agent, metadata, created_at
			  FROM audit_events` + where + `
			  ORDER BY created_at DESC
			  LIMIT ? OFFSET ?`
	args = append(args, filter.Limit, filter.Offset)

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit events")
	}
	defer rows.Close()

	return collectAuditEvents(rows)
}

func mysqlPlaceholder(int) string {
	return "?"
}
