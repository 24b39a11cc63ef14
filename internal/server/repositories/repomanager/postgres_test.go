package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ShubhamGupta2412/vaultboard/internal/server/repositories/accesslogs"
	"github.com/ShubhamGupta2412/vaultboard/internal/server/repositories/entries"
	"github.com/ShubhamGupta2412/vaultboard/internal/server/repositories/principals"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func TestFactories_ReturnConcreteRepos(t *testing.T) {
	db, _ := newDB(t)
	m := NewPostgresRepositoryManager()

	assert.IsType(t, &principals.PostgresRepository{}, m.Principals(db))
	assert.IsType(t, &entries.PostgresRepository{}, m.Entries(db))
	assert.IsType(t, &accesslogs.PostgresRepository{}, m.AccessLogs(db))
}

func TestRunMigrations(t *testing.T) {
	db, _ := newDB(t)

	orig := gooseUpContext
	t.Cleanup(func() { gooseUpContext = orig })

	var dir string
	gooseUpContext = func(ctx context.Context, db *sql.DB, d string, opts ...goose.OptionsFunc) error {
		dir = d
		return nil
	}
	require.NoError(t, NewPostgresRepositoryManager().RunMigrations(context.Background(), db))
	assert.Equal(t, ".", dir)

	gooseUpContext = func(ctx context.Context, db *sql.DB, d string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	require.EqualError(t, NewPostgresRepositoryManager().RunMigrations(context.Background(), db), "boom")
}

func TestOpen(t *testing.T) {
	db, mock := newDB(t)

	orig := sqlOpen
	t.Cleanup(func() { sqlOpen = orig })

	var driver string
	sqlOpen = func(d, dsn string) (*sql.DB, error) {
		driver = d
		return db, nil
	}

	mock.ExpectPing()
	got, err := Open(context.Background(), "postgres://x")
	require.NoError(t, err)
	assert.Same(t, db, got)
	assert.Equal(t, "pgx", driver)
}

func TestOpen_PingFails(t *testing.T) {
	db, mock := newDB(t)

	orig := sqlOpen
	t.Cleanup(func() { sqlOpen = orig })
	sqlOpen = func(string, string) (*sql.DB, error) { return db, nil }

	mock.ExpectPing().WillReturnError(errors.New("refused"))
	mock.ExpectClose()

	_, err := Open(context.Background(), "postgres://x")
	require.ErrorContains(t, err, "ping database")
}

func TestOpen_OpenFails(t *testing.T) {
	orig := sqlOpen
	t.Cleanup(func() { sqlOpen = orig })
	sqlOpen = func(string, string) (*sql.DB, error) { return nil, errors.New("bad driver") }

	_, err := Open(context.Background(), "x")
	require.ErrorContains(t, err, "open database")
}
