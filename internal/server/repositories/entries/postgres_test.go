package entries

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ShubhamGupta2412/vaultboard/internal/common"
	"github.com/ShubhamGupta2412/vaultboard/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	t0        = time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	entryCols = []string{
		"id", "owner_id", "title", "content", "category", "classification", "tags", "is_sensitive",
		"expiration_date", "created_at", "updated_at", "last_accessed_at",
		"file_key", "file_name", "file_content_type", "file_size",
	}
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

func TestCreate(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`INSERT INTO entries \(id, owner_id, title, content, category, classification, tags, is_sensitive, expiration_date\)`).
		WithArgs("e1", "p1", "VPN", "ct", "credential", "restricted", `["ops","vpn"]`, true, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(t0, t0))

	e := &models.Entry{
		ID: "e1", OwnerID: "p1", Title: "VPN", Content: "ct",
		Category: models.CategoryCredential, Classification: models.ClassificationRestricted,
		Tags: []string{"ops", "vpn"}, IsSensitive: true,
	}
	require.NoError(t, repo.Create(context.Background(), e))
	assert.Equal(t, t0, e.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_UnknownOwner(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`INSERT INTO entries`).WillReturnError(&pgconn.PgError{Code: "23503"})

	err := repo.Create(context.Background(), &models.Entry{ID: "e1"})
	require.ErrorIs(t, err, common.ErrorValidation)
}

func TestGetByID(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	exp := t0.AddDate(0, 0, 10)

	mock.ExpectQuery(`SELECT id, owner_id, .* FROM entries WHERE id = \$1`).
		WithArgs("e1").
		WillReturnRows(sqlmock.NewRows(entryCols).AddRow(
			"e1", "p1", "Runbook", "body", "sop", "internal", []byte(`["a"]`), false,
			exp, t0, t0, nil,
			"entries/e1/k", "doc.pdf", "application/pdf", int64(42),
		))

	e, err := repo.GetByID(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, models.CategorySOP, e.Category)
	assert.Equal(t, []string{"a"}, e.Tags)
	require.NotNil(t, e.ExpirationDate)
	assert.Equal(t, exp, *e.ExpirationDate)
	assert.Nil(t, e.LastAccessedAt)
	assert.Equal(t, &models.FileRef{Key: "entries/e1/k", Name: "doc.pdf", ContentType: "application/pdf", Size: 42}, e.File)
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`FROM entries WHERE id = \$1`).WithArgs("nope").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "nope")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestUpdate(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	later := t0.Add(time.Hour)

	mock.ExpectQuery(`UPDATE entries SET .* WHERE id = \$1\s+RETURNING updated_at`).
		WithArgs("e1", "T", "c", "link", "public", `[]`, false, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(later))

	e := &models.Entry{ID: "e1", Title: "T", Content: "c", Category: models.CategoryLink, Classification: models.ClassificationPublic}
	require.NoError(t, repo.Update(context.Background(), e))
	assert.Equal(t, later, e.UpdatedAt)
}

func TestUpdate_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`UPDATE entries SET`).WillReturnError(sql.ErrNoRows)

	require.ErrorIs(t, repo.Update(context.Background(), &models.Entry{ID: "x"}), common.ErrorNotFound)
}

func TestDelete(t *testing.T) {
	tests := []struct {
		name    string
		result  sql.Result
		execErr error
		wantErr error
	}{
		{name: "deleted", result: sqlmock.NewResult(0, 1)},
		{name: "missing", result: sqlmock.NewResult(0, 0), wantErr: common.ErrorNotFound},
		{name: "db failure", execErr: errors.New("boom")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newRepoWithMock(t)
			exp := mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM entries WHERE id = $1`)).WithArgs("e1")
			if tt.execErr != nil {
				exp.WillReturnError(tt.execErr)
			} else {
				exp.WillReturnResult(tt.result)
			}

			err := repo.Delete(context.Background(), "e1")
			switch {
			case tt.execErr != nil:
				require.ErrorContains(t, err, "db error")
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
			default:
				require.NoError(t, err)
			}
		})
	}
}

func TestTouchAndSetFile(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`UPDATE entries SET last_accessed_at = \$2 WHERE id = \$1`).
		WithArgs("e1", t0).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE entries SET file_key = \$2`).
		WithArgs("e1", "k", "a.txt", "text/plain", int64(3)).WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Touch(context.Background(), "e1", t0))
	require.NoError(t, repo.SetFile(context.Background(), "e1", &models.FileRef{Key: "k", Name: "a.txt", ContentType: "text/plain", Size: 3}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestList(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	q := models.ListQuery{
		Scope: models.Scope{
			OwnerID:         "p1",
			Classifications: []models.Classification{models.ClassificationPublic, models.ClassificationInternal},
		},
		Filter: models.ListFilter{Category: models.CategorySOP},
		Sort:   models.Sort{Field: models.SortTitle},
		Page:   models.Page{Number: 2, Size: 1},
	}

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT COUNT(*) FROM entries WHERE (owner_id = $3 OR (classification IN ($1, $2) AND NOT is_sensitive)) AND category = $4`)).
		WithArgs("public", "internal", "p1", "sop").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	mock.ExpectQuery(`ORDER BY title ASC NULLS LAST, id ASC LIMIT \$5 OFFSET \$6`).
		WithArgs("public", "internal", "p1", "sop", 1, 1).
		WillReturnRows(sqlmock.NewRows(entryCols).AddRow(
			"e2", "p2", "B", "x", "sop", "public", []byte(`[]`), false,
			nil, t0, t0, t0, nil, nil, nil, nil,
		))

	items, total, err := repo.List(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, items, 1)
	assert.Equal(t, "e2", items[0].ID)
	assert.NotNil(t, items[0].LastAccessedAt)
	assert.Nil(t, items[0].File)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBuildWhere(t *testing.T) {
	tests := []struct {
		name     string
		q        models.ListQuery
		want     string
		wantArgs []any
	}{
		{
			name:     "unknown role sees nothing",
			q:        models.ListQuery{},
			want:     "(FALSE)",
			wantArgs: nil,
		},
		{
			name: "sensitive allowed",
			q: models.ListQuery{Scope: models.Scope{
				OwnerID: "p", Classifications: []models.Classification{"public"}, IncludeSensitive: true,
			}},
			want:     "(owner_id = $2 OR (classification IN ($1)))",
			wantArgs: []any{"public", "p"},
		},
		{
			name: "search escapes wildcards and tag filter",
			q: models.ListQuery{
				Scope:  models.Scope{Classifications: []models.Classification{"public"}},
				Filter: models.ListFilter{Search: "50%_off", Tag: "ops"},
			},
			want:     `(classification IN ($1) AND NOT is_sensitive) AND (title ILIKE $2 OR tags::text ILIKE $2) AND tags ? $3`,
			wantArgs: []any{"public", `%50\%\_off%`, "ops"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, args := buildWhere(tt.q)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestOrderBy(t *testing.T) {
	assert.Equal(t, "updated_at DESC NULLS LAST, id ASC", orderBy(models.Sort{}))
	assert.Equal(t, "expiration_date ASC NULLS LAST, id ASC", orderBy(models.Sort{Field: models.SortExpiration}))
	assert.Equal(t, "created_at DESC NULLS LAST, id ASC", orderBy(models.Sort{Field: models.SortCreatedAt, Desc: true}))
	assert.Equal(t, "updated_at DESC NULLS LAST, id ASC", orderBy(models.Sort{Field: "content; DROP TABLE"}))
}

func TestExpiringBefore(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	cutoff := t0.AddDate(0, 0, 14)

	mock.ExpectQuery(`WHERE expiration_date IS NOT NULL AND expiration_date <= \$1`).
		WithArgs(cutoff).
		WillReturnRows(sqlmock.NewRows(entryCols).AddRow(
			"e1", "p1", "Cert", "", "document", "internal", []byte(`["tls"]`), false,
			t0.AddDate(0, 0, 3), t0, t0, nil, nil, nil, nil, nil,
		))

	got, err := repo.ExpiringBefore(context.Background(), cutoff)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Cert", got[0].Title)
}
