package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/novalab-io/labms-api/internal/models"
	"github.com/novalab-io/labms-api/internal/timeslot"
)

func newSessionRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func sessionRows(session *models.LabSession) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "title", "description", "room_id", "created_by", "state", "validation_state", "proposed_slots", "current_slots", "state_changes", "version", "created_at", "updated_at"}).
		AddRow(session.ID, session.Title, session.Description, nil, session.CreatedBy, string(session.State), string(session.ValidationState), `[]`, `[]`, `[]`, session.Version, session.CreatedAt, session.UpdatedAt)
}

func TestSessionRepositoryCreateAndGet(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()

	repo := NewSessionRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO lab_sessions")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	session := &models.LabSession{
		Title:           "Titration practical",
		CreatedBy:       "user-1",
		State:           timeslot.StatePending,
		ValidationState: timeslot.OperatorPending,
		ProposedSlots:   models.SlotList{},
		CurrentSlots:    models.SlotList{},
	}
	require.NoError(t, repo.Create(context.Background(), session))
	require.NotEmpty(t, session.ID)
	require.Equal(t, 1, session.Version)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, title, description, room_id")).
		WithArgs(session.ID).
		WillReturnRows(sessionRows(session))

	found, err := repo.GetByID(context.Background(), session.ID)
	require.NoError(t, err)
	require.Equal(t, session.ID, found.ID)
	require.Equal(t, timeslot.StatePending, found.State)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()

	repo := NewSessionRepository(db)
	session := &models.LabSession{
		ID:              "sess-1",
		Title:           "Spectroscopy",
		CreatedBy:       "user-1",
		State:           timeslot.StateValidated,
		ValidationState: timeslot.NoPending,
		Version:         2,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, title, description, room_id")).
		WithArgs("VALIDATED", "user-1").
		WillReturnRows(sessionRows(session))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs("VALIDATED", "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	list, total, err := repo.List(context.Background(), models.SessionFilter{
		State:     timeslot.StateValidated,
		CreatedBy: "user-1",
	})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, list, 1)
	require.Equal(t, "sess-1", list[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryUpdateVersionGuard(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()

	repo := NewSessionRepository(db)
	session := &models.LabSession{
		ID:              "sess-1",
		Title:           "Spectroscopy",
		CreatedBy:       "user-1",
		State:           timeslot.StateValidated,
		ValidationState: timeslot.NoPending,
		Version:         3,
	}

	mock.ExpectExec(regexp.QuoteMeta("UPDATE lab_sessions")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Update(context.Background(), session))
	require.Equal(t, 4, session.Version)

	// A stale version matches zero rows; the in-memory version must roll back.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE lab_sessions")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.Update(context.Background(), session)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.Equal(t, 4, session.Version)
	require.NoError(t, mock.ExpectationsWereMet())
}
