// Package usecase implements audit trail recording and querying.
package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/identity/internal/audit/domain"
)

// AuditEventRepository interface defines audit event repository operations
type AuditEventRepository interface {
	Create(ctx context.Context, event *domain.AuditEvent) error
	List(ctx context.Context, filter domain.ListFilter) ([]*domain.AuditEvent, error)
}

// Recorder accepts audit events for asynchronous persistence. Record never
// blocks the caller and never returns an error: the business operation that
// produced the event must not fail because the trail is slow or down.
type Recorder interface {
	Record(ctx context.Context, actor, action string, metadata map[string]string)
}

// UseCase defines the query side of the audit trail.
type UseCase interface {
	ListEvents(ctx context.Context, filter domain.ListFilter) ([]*domain.AuditEvent, error)
}

// AuditRecorder buffers events in a channel drained by a single worker.
// When the buffer is full the event is dropped and logged, trading
// completeness for caller latency.
type AuditRecorder struct {
	repo      AuditEventRepository
	events    chan *domain.AuditEvent
	done      chan struct{}
	closeOnce sync.Once
}

// NewAuditRecorder creates an AuditRecorder and starts its worker.
func NewAuditRecorder(repo AuditEventRepository, bufferSize int) *AuditRecorder {
	if bufferSize <= 0 {
		bufferSize = 1024
	}
	r := &AuditRecorder{
		repo:   repo,
		events: make(chan *domain.AuditEvent, bufferSize),
		done:   make(chan struct{}),
	}
	go r.worker()
	return r
}

// Record enqueues an audit event. The client attribution is read from the
// context so callers only provide actor, action and metadata.
func (r *AuditRecorder) Record(ctx context.Context, actor, action string, metadata map[string]string) {
	if actor == "" {
		actor = domain.AnonymousActor
	}
	cc := domain.ClientContextFrom(ctx)

	event := &domain.AuditEvent{
		ID:        uuid.Must(uuid.NewV7()),
		RequestID: cc.RequestID,
		Actor:     actor,
		Action:    action,
		IP:        cc.IP,
		UserAgent: cc.UserAgent,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}

	select {
	case r.events <- event:
	default:
		slog.Warn("audit buffer full, event dropped",
			slog.String("actor", event.Actor),
			slog.String("action", event.Action),
		)
	}
}

// Close stops accepting events, flushes the buffer and waits for the worker.
func (r *AuditRecorder) Close() {
	r.closeOnce.Do(func() {
		close(r.events)
		<-r.done
	})
}

func (r *AuditRecorder) worker() {
	defer close(r.done)

	for event := range r.events {
		// The request that produced the event may be gone by now, so
		// persistence runs under its own timeout.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := r.repo.Create(ctx, event); err != nil {
			slog.Error("failed to persist audit event",
				slog.String("actor", event.Actor),
				slog.String("action", event.Action),
				slog.Any("error", err),
			)
		}
		cancel()
	}
}

// AuditUseCase serves audit trail queries.
type AuditUseCase struct {
	repo AuditEventRepository
}

// NewAuditUseCase creates a new AuditUseCase.
func NewAuditUseCase(repo AuditEventRepository) *AuditUseCase {
	return &AuditUseCase{repo: repo}
}

// ListEvents retrieves audit events matching the filter, newest first.
func (uc *AuditUseCase) ListEvents(ctx context.Context, filter domain.ListFilter) ([]*domain.AuditEvent, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	return uc.repo.List(ctx, filter)
}
