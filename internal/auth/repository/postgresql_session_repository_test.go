package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/identity/internal/auth/domain"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

var sessionColumns = []string{"id", "user_id", "token_hash", "remember", "expires_at", "created_at"}

func TestPostgreSQLSessionRepositoryCreate(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	db, mock := newMockDB(t)
	repo := NewPostgreSQLSessionRepository(db)

	session := &domain.Session{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		TokenHash: "deadbeef",
		Remember:  true,
		ExpiresAt: now.Add(30 * 24 * time.Hour),
		CreatedAt: now,
	}

	mock.ExpectExec("INSERT INTO sessions").
		WithArgs(session.ID, session.UserID, session.TokenHash, session.Remember, session.ExpiresAt, session.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.Create(ctx, session))
}

func TestPostgreSQLSessionRepositoryGetByTokenHash(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("Found", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLSessionRepository(db)

		sessionID := uuid.New()
		userID := uuid.New()
		rows := sqlmock.NewRows(sessionColumns).
			AddRow(sessionID.String(), userID.String(), "deadbeef", false, now.Add(time.Hour), now)
		mock.ExpectQuery("SELECT (.+) FROM sessions").WithArgs("deadbeef").WillReturnRows(rows)

		session, err := repo.GetByTokenHash(ctx, "deadbeef")
		require.NoError(t, err)
		assert.Equal(t, sessionID, session.ID)
		assert.Equal(t, userID, session.UserID)
		assert.False(t, session.Remember)
	})

	t.Run("NotFound", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLSessionRepository(db)

		mock.ExpectQuery("SELECT (.+) FROM sessions").WithArgs("missing").WillReturnRows(sqlmock.NewRows(sessionColumns))

		_, err := repo.GetByTokenHash(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})
}

func TestPostgreSQLSessionRepositoryDeleteByTokenHash(t *testing.T) {
	ctx := context.Background()

	// Absent sessions delete cleanly; logout is idempotent.
	db, mock := newMockDB(t)
	repo := NewPostgreSQLSessionRepository(db)

	mock.ExpectExec("DELETE FROM sessions").WithArgs("missing").WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.DeleteByTokenHash(ctx, "missing"))
}

func TestPostgreSQLSessionRepositoryDeleteExpired(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	db, mock := newMockDB(t)
	repo := NewPostgreSQLSessionRepository(db)

	mock.ExpectExec("DELETE FROM sessions").WithArgs(now).WillReturnResult(sqlmock.NewResult(0, 3))

	deleted, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)
}
