// Package repository implements audit event persistence. The trail is
// append-only: events are inserted and listed, never updated or deleted.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/allisson/identity/internal/audit/domain"
	"github.com/allisson/identity/internal/database"
	apperrors "github.com/allisson/identity/internal/errors"
)

// PostgreSQLAuditRepository handles audit event persistence for PostgreSQL.
type PostgreSQLAuditRepository struct {
	db *sql.DB
}

// NewPostgreSQLAuditRepository creates a new PostgreSQLAuditRepository.
func NewPostgreSQLAuditRepository(db *sql.DB) *PostgreSQLAuditRepository {
	return &PostgreSQLAuditRepository{db: db}
}

// Create appends an audit event to the trail.
func (r *PostgreSQLAuditRepository) Create(ctx context.Context, event *domain.AuditEvent) error {
	querier := database.GetTx(ctx, r.db)

	metadata, err := marshalMetadata(event.Metadata)
	if err != nil {
		return err
	}

	query := `INSERT INTO audit_events (id, request_id, actor, action, ip, user_agent, metadata, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err = querier.ExecContext(
		ctx,
		query,
		event.ID,
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
func (r *PostgreSQLAuditRepository) List(ctx context.Context, filter domain.ListFilter) ([]*domain.AuditEvent, error) {
	querier := database.GetTx(ctx, r.db)

	where, args := buildAuditFilter(filter, postgresPlaceholder)
	query := fmt.Sprintf(
		`SELECT id, request_id, actor, action, ip, user_agent, metadata, created_at
		 FROM audit_events%s
		 ORDER BY created_at DESC
		 OFFSET $%d LIMIT $%d`,
		where, len(args)+1, len(args)+2,
	)
	args = append(args, filter.Offset, filter.Limit)

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit events")
	}
	defer rows.Close()

	return collectAuditEvents(rows)
}

func postgresPlaceholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

// buildAuditFilter assembles the WHERE clause for the filter. The
// placeholder function abstracts the positional syntax of each driver.
func buildAuditFilter(filter domain.ListFilter, placeholder func(int) string) (string, []any) {
	clauses := []string{}
	args := []any{}

	if filter.Actor != "" {
		args = append(args, filter.Actor)
		clauses = append(clauses, "actor = "+placeholder(len(args)))
	}
	if filter.Action != "" {
		args = append(args, filter.Action)
		clauses = append(clauses, "action = "+placeholder(len(args)))
	}
	if !filter.Since.IsZero() {
		args = append(args, filter.Since)
		clauses = append(clauses, "created_at >= "+placeholder(len(args)))
	}
	if !filter.Until.IsZero() {
		args = append(args, filter.Until)
		clauses = append(clauses, "created_at <= "+placeholder(len(args)))
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func marshalMetadata(metadata map[string]string) (sql.NullString, error) {
	if len(metadata) == 0 {
		return sql.NullString{}, nil
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return sql.NullString{}, apperrors.Wrap(err, "failed to marshal audit metadata")
	}
	return sql.NullString{String: string(raw), Valid: true}, nil
}

func collectAuditEvents(rows *sql.Rows) ([]*domain.AuditEvent, error) {
	events := []*domain.AuditEvent{}
	for rows.Next() {
		var (
			event     domain.AuditEvent
			requestID sql.NullString
			ip        sql.NullString
			userAgent sql.NullString
			metadata  sql.NullString
		)
		err := rows.Scan(
			&event.ID,
			&requestID,
			&event.Actor,
			&event.Action,
			&ip,
			&userAgent,
			&metadata,
			&event.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan audit event")
		}

		event.RequestID = requestID.String
		event.IP = ip.String
		event.UserAgent = userAgent.String
		if metadata.Valid {
			if err := json.Unmarshal([]byte(metadata.String), &event.Metadata); err != nil {
				return nil, apperrors.Wrap(err, "failed to unmarshal audit metadata")
			}
		}
		events = append(events, &event)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate audit events")
	}
	return events, nil
}
