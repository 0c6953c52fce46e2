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
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Cryptobal/gardops-api/internal/models"
)

func newExtraShiftRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func sampleExtraShift() *models.ExtraShiftEntry {
	title := "guard-1"
	return &models.ExtraShiftEntry{
		Date:            time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		InstallationID:  "inst-1",
		PostID:          "post-1",
		RoleID:          "role-1",
		Origin:          models.OriginReplacement,
		TitleHolderID:   &title,
		CoverageGuardID: "guard-2",
		Amount:          decimal.NewFromInt(45000),
		CreatedBy:       "supervisor-1",
	}
}

func TestExtraShiftRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newExtraShiftRepoMock(t)
	defer cleanup()

	repo := NewExtraShiftRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO extra_shifts")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	entry := sampleExtraShift()
	require.NoError(t, repo.Create(context.Background(), entry))
	require.NotEmpty(t, entry.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExtraShiftRepositoryCreateDuplicate(t *testing.T) {
	db, mock, cleanup := newExtraShiftRepoMock(t)
	defer cleanup()

	repo := NewExtraShiftRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO extra_shifts")).
		WillReturnError(&pq.Error{Code: pqUniqueViolation})

	err := repo.Create(context.Background(), sampleExtraShift())
	require.True(t, errors.Is(err, ErrDuplicateEntry))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExtraShiftRepositoryCreateUnknownReference(t *testing.T) {
	db, mock, cleanup := newExtraShiftRepoMock(t)
	defer cleanup()

	repo := NewExtraShiftRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO extra_shifts")).
		WillReturnError(&pq.Error{Code: pqForeignKeyViolation})

	err := repo.Create(context.Background(), sampleExtraShift())
	require.True(t, errors.Is(err, ErrForeignKey))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExtraShiftRepositoryMarkPaid(t *testing.T) {
	db, mock, cleanup := newExtraShiftRepoMock(t)
	defer cleanup()

	repo := NewExtraShiftRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE extra_shifts SET paid = true")).
		WithArgs("es-1", "batch-2026-03").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkPaid(context.Background(), "es-1", "batch-2026-03"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExtraShiftRepositoryMarkPaidTwice(t *testing.T) {
	db, mock, cleanup := newExtraShiftRepoMock(t)
	defer cleanup()

	repo := NewExtraShiftRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE extra_shifts SET paid = true")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT paid, voided_at FROM extra_shifts")).
		WithArgs("es-1").
		WillReturnRows(sqlmock.NewRows([]string{"paid", "voided_at"}).AddRow(true, nil))

	err := repo.MarkPaid(context.Background(), "es-1", "batch-2026-04")
	require.True(t, errors.Is(err, ErrAlreadyPaid))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExtraShiftRepositoryMarkPaidVoided(t *testing.T) {
	db, mock, cleanup := newExtraShiftRepoMock(t)
	defer cleanup()

	repo := NewExtraShiftRepository(db)
	voided := time.Now()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE extra_shifts SET paid = true")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT paid, voided_at FROM extra_shifts")).
		WithArgs("es-1").
		WillReturnRows(sqlmock.NewRows([]string{"paid", "voided_at"}).AddRow(false, voided))

	err := repo.MarkPaid(context.Background(), "es-1", "batch-2026-04")
	require.True(t, errors.Is(err, ErrEntryVoided))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExtraShiftRepositoryMarkPaidMissing(t *testing.T) {
	db, mock, cleanup := newExtraShiftRepoMock(t)
	defer cleanup()

	repo := NewExtraShiftRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE extra_shifts SET paid = true")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT paid, voided_at FROM extra_shifts")).
		WithArgs("es-9").
		WillReturnError(sql.ErrNoRows)

	err := repo.MarkPaid(context.Background(), "es-9", "batch-2026-04")
	require.True(t, errors.Is(err, sql.ErrNoRows))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExtraShiftRepositoryVoidUnpaid(t *testing.T) {
	db, mock, cleanup := newExtraShiftRepoMock(t)
	defer cleanup()

	repo := NewExtraShiftRepository(db)
	date := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE extra_shifts SET voided_at =")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	count, err := repo.VoidUnpaid(context.Background(), "post-1", date)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE extra_shifts SET voided_at =")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	count, err = repo.VoidUnpaid(context.Background(), "post-1", date)
	require.NoError(t, err)
	require.Zero(t, count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExtraShiftRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newExtraShiftRepoMock(t)
	defer cleanup()

	repo := NewExtraShiftRepository(db)
	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "date", "installation_id", "post_id", "role_id", "origin", "title_holder_id", "coverage_guard_id", "amount", "paid", "payroll_batch_id", "voided_at", "created_by", "created_at"}).
		AddRow("es-1", now, "inst-1", "post-1", "role-1", "replacement", "guard-1", "guard-2", "45000", false, nil, nil, "supervisor-1", now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, date, installation_id")).
		WithArgs("inst-1").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM extra_shifts")).
		WithArgs("inst-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	list, total, err := repo.List(context.Background(), models.ExtraShiftFilter{InstallationID: "inst-1"})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, list, 1)
	require.Equal(t, models.OriginReplacement, list[0].Origin)
	require.NoError(t, mock.ExpectationsWereMet())
}
