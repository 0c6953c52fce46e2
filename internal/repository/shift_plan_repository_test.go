package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/Cryptobal/gardops-api/internal/models"
)

func newShiftPlanRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func shiftPlanRows(id int64, state models.ShiftState, meta string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "post_id", "guard_id", "year", "month", "day", "state", "meta", "observation", "created_at", "updated_at"}).
		AddRow(id, "post-1", "guard-1", 2026, 3, 15, string(state), []byte(meta), nil, now, now)
}

func TestShiftPlanRepositoryTransitionSuccess(t *testing.T) {
	db, mock, cleanup := newShiftPlanRepoMock(t)
	defer cleanup()

	repo := NewShiftPlanRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, post_id, guard_id, year, month, day, state, meta, observation, created_at, updated_at FROM shift_plan WHERE id = $1 FOR UPDATE")).
		WithArgs(int64(42)).
		WillReturnRows(shiftPlanRows(42, models.StatePlanned, `{}`))
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE shift_plan")).
		WillReturnRows(shiftPlanRows(42, models.StateWorked, `{}`))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO shift_audit")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	updated, prior, err := repo.Transition(context.Background(), TransitionParams{
		ShiftPlanID: 42,
		Actor:       "supervisor-1",
		Action:      models.AuditActionMarkAttendance,
		FromStates:  []models.ShiftState{models.StatePlanned},
		ToState:     models.StateWorked,
	})
	require.NoError(t, err)
	require.Equal(t, models.StateWorked, updated.State)
	require.Equal(t, models.StatePlanned, prior)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestShiftPlanRepositoryTransitionStateConflict(t *testing.T) {
	db, mock, cleanup := newShiftPlanRepoMock(t)
	defer cleanup()

	repo := NewShiftPlanRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(int64(42)).
		WillReturnRows(shiftPlanRows(42, models.StateWorked, `{}`))
	mock.ExpectRollback()

	_, _, err := repo.Transition(context.Background(), TransitionParams{
		ShiftPlanID: 42,
		Actor:       "supervisor-1",
		Action:      models.AuditActionMarkAttendance,
		FromStates:  []models.ShiftState{models.StatePlanned},
		ToState:     models.StateAbsent,
	})
	var conflict *StateConflictError
	require.ErrorAs(t, err, &conflict)
	require.Equal(t, models.StateWorked, conflict.Current)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestShiftPlanRepositoryTransitionNotFound(t *testing.T) {
	db, mock, cleanup := newShiftPlanRepoMock(t)
	defer cleanup()

	repo := NewShiftPlanRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, _, err := repo.Transition(context.Background(), TransitionParams{
		ShiftPlanID: 99,
		Actor:       "supervisor-1",
		Action:      models.AuditActionUndo,
		FromStates:  models.UndoableStates,
		ToState:     models.StatePlanned,
	})
	require.True(t, errors.Is(err, sql.ErrNoRows))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestShiftPlanRepositoryTransitionUndoAllowsAnyMarkedState(t *testing.T) {
	db, mock, cleanup := newShiftPlanRepoMock(t)
	defer cleanup()

	repo := NewShiftPlanRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(int64(7)).
		WillReturnRows(shiftPlanRows(7, models.StateReplaced, `{"coverage_guard":"guard-9"}`))
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE shift_plan")).
		WillReturnRows(shiftPlanRows(7, models.StatePlanned, `{}`))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO shift_audit")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	updated, prior, err := repo.Transition(context.Background(), TransitionParams{
		ShiftPlanID: 7,
		Actor:       "admin-1",
		Action:      models.AuditActionUndo,
		FromStates:  models.UndoableStates,
		ToState:     models.StatePlanned,
		ClearKeys:   models.CoverageMetaKeys,
	})
	require.NoError(t, err)
	require.Equal(t, models.StatePlanned, updated.State)
	require.Equal(t, models.StateReplaced, prior)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestShiftPlanRepositorySetDisplayStatus(t *testing.T) {
	db, mock, cleanup := newShiftPlanRepoMock(t)
	defer cleanup()

	repo := NewShiftPlanRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE shift_plan SET meta = meta ||")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.SetDisplayStatus(context.Background(), 42, "te"))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE shift_plan SET meta = meta ||")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.SetDisplayStatus(context.Background(), 99, "te")
	require.True(t, errors.Is(err, sql.ErrNoRows))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestShiftPlanRepositoryBulkInsertSkipsExisting(t *testing.T) {
	db, mock, cleanup := newShiftPlanRepoMock(t)
	defer cleanup()

	repo := NewShiftPlanRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO shift_plan")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(100)))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO shift_plan")).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectCommit()

	guard := "guard-1"
	entries := []models.ShiftPlanEntry{
		{PostID: "post-1", GuardID: &guard, Year: 2026, Month: 3, Day: 1},
		{PostID: "post-1", GuardID: &guard, Year: 2026, Month: 3, Day: 2},
	}
	inserted, err := repo.BulkInsert(context.Background(), entries)
	require.NoError(t, err)
	require.Equal(t, 1, inserted)
	require.Equal(t, int64(100), entries[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
