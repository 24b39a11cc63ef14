package accesslogs

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ShubhamGupta2412/vaultboard/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func newRepo(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

func TestWrite_Batch(t *testing.T) {
	repo, mock := newRepo(t)
	pid := "p1"

	mock.ExpectExec(`INSERT INTO access_logs .* FROM \(VALUES \(\$1::uuid, \$2::uuid, \$3::uuid, \$4::text, \$5::text, \$6::text, \$7::timestamptz\), \(\$8::uuid, .*\$14::timestamptz\)\) AS v .* WHERE EXISTS`).
		WithArgs(
			"l1", "e1", "p1", "view", "10.0.0.1", "Chrome/120", t0,
			"l2", "e1", nil, "delete", "", "", t0,
		).
		WillReturnResult(sqlmock.NewResult(0, 2))

	err := repo.Write(context.Background(), []models.AccessLog{
		{ID: "l1", EntryID: "e1", PrincipalID: &pid, Action: models.AuditView, Origin: "10.0.0.1", Client: "Chrome/120", CreatedAt: t0},
		{ID: "l2", EntryID: "e1", Action: models.AuditDelete, CreatedAt: t0},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWrite_EmptyAndError(t *testing.T) {
	repo, mock := newRepo(t)
	require.NoError(t, repo.Write(context.Background(), nil))

	mock.ExpectExec(`INSERT INTO access_logs`).WillReturnError(errors.New("boom"))
	err := repo.Write(context.Background(), []models.AccessLog{{ID: "l1", EntryID: "e1", Action: models.AuditView}})
	require.ErrorContains(t, err, "db error")
}

func TestStats(t *testing.T) {
	repo, mock := newRepo(t)
	last := t0.Add(time.Hour)

	mock.ExpectQuery(`COUNT\(\*\) FILTER \(WHERE action = 'view'\).*COUNT\(DISTINCT principal_id\).*MAX\(created_at\).*WHERE entry_id = \$1`).
		WithArgs("e1").
		WillReturnRows(sqlmock.NewRows([]string{"total", "view", "create", "update", "delete", "export", "principals", "last"}).
			AddRow(6, 3, 1, 1, 0, 1, 2, last))

	st, err := repo.Stats(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, 6, st.Total)
	assert.Equal(t, 3, st.ByAction[models.AuditView])
	assert.Equal(t, 1, st.ByAction[models.AuditExport])
	assert.Equal(t, 2, st.DistinctPrincipals)
	require.NotNil(t, st.LastAccessAt)
	assert.Equal(t, last, *st.LastAccessAt)
}

func TestStats_NoEvents(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectQuery(`FROM access_logs`).WithArgs("e1").
		WillReturnRows(sqlmock.NewRows([]string{"total", "view", "create", "update", "delete", "export", "principals", "last"}).
			AddRow(0, 0, 0, 0, 0, 0, 0, nil))

	st, err := repo.Stats(context.Background(), "e1")
	require.NoError(t, err)
	assert.Zero(t, st.Total)
	assert.Nil(t, st.LastAccessAt)
	assert.Len(t, st.ByAction, 5)
}

func TestRecent(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectQuery(`ORDER BY created_at DESC, id\s+LIMIT \$2`).
		WithArgs("e1", 2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "entry_id", "principal_id", "action", "origin", "client", "created_at"}).
			AddRow("l2", "e1", "p1", "export", "10.0.0.2", "", t0.Add(time.Minute)).
			AddRow("l1", "e1", nil, "view", "", "", t0))

	logs, err := repo.Recent(context.Background(), "e1", 2)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	require.NotNil(t, logs[0].PrincipalID)
	assert.Equal(t, "p1", *logs[0].PrincipalID)
	assert.Equal(t, models.AuditExport, logs[0].Action)
	assert.Nil(t, logs[1].PrincipalID)
}

func TestRecent_QueryError(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectQuery(`FROM access_logs`).WillReturnError(sql.ErrConnDone)

	_, err := repo.Recent(context.Background(), "e1", 5)
	require.ErrorIs(t, err, sql.ErrConnDone)
}
