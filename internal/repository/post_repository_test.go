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

func newPostRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestPostRepositoryCreateStartsVacantWithoutGuard(t *testing.T) {
	db, mock, cleanup := newPostRepoMock(t)
	defer cleanup()

	repo := NewPostRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO operational_posts")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	post := &models.OperationalPost{
		InstallationID: "inst-1",
		RoleID:         "role-1",
		Name:           "Porteria Norte",
	}
	require.NoError(t, repo.Create(context.Background(), post))
	require.NotEmpty(t, post.ID)
	require.True(t, post.Vacant)
	require.True(t, post.Active)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepositoryAssignAndVacate(t *testing.T) {
	db, mock, cleanup := newPostRepoMock(t)
	defer cleanup()

	repo := NewPostRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE operational_posts SET guard_id = $2, vacant = false")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Assign(context.Background(), "post-1", "guard-1"))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE operational_posts SET guard_id = NULL, vacant = true")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Vacate(context.Background(), "post-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepositoryAssignMissingPost(t *testing.T) {
	db, mock, cleanup := newPostRepoMock(t)
	defer cleanup()

	repo := NewPostRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE operational_posts SET guard_id = $2")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Assign(context.Background(), "post-missing", "guard-1")
	require.True(t, errors.Is(err, sql.ErrNoRows))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepositoryListVacant(t *testing.T) {
	db, mock, cleanup := newPostRepoMock(t)
	defer cleanup()

	repo := NewPostRepository(db)
	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "installation_id", "role_id", "name", "vacant", "guard_id", "active", "created_at", "updated_at"}).
		AddRow("post-1", "inst-1", "role-1", "Porteria Norte", true, nil, true, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("vacant = true AND active = true")).
		WithArgs("inst-1").
		WillReturnRows(rows)

	posts, err := repo.ListVacant(context.Background(), "inst-1")
	require.NoError(t, err)
	require.Len(t, posts, 1)
	require.True(t, posts[0].Vacant)
	require.Nil(t, posts[0].GuardID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newPostRepoMock(t)
	defer cleanup()

	repo := NewPostRepository(db)
	now := time.Now()
	vacant := true
	rows := sqlmock.NewRows([]string{"id", "installation_id", "role_id", "name", "vacant", "guard_id", "active", "created_at", "updated_at"}).
		AddRow("post-1", "inst-1", "role-1", "Porteria Norte", true, nil, true, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, installation_id, role_id")).
		WithArgs("inst-1", true).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM operational_posts")).
		WithArgs("inst-1", true).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	posts, total, err := repo.List(context.Background(), models.PostFilter{
		InstallationID: "inst-1",
		Vacant:         &vacant,
	})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, posts, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}
