package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ShubhamGupta2412/vaultboard/internal/access"
	"github.com/ShubhamGupta2412/vaultboard/internal/audit"
	"github.com/ShubhamGupta2412/vaultboard/internal/common"
	"github.com/ShubhamGupta2412/vaultboard/internal/dbx"
	"github.com/ShubhamGupta2412/vaultboard/internal/logging"
	"github.com/ShubhamGupta2412/vaultboard/internal/protect"
	"github.com/ShubhamGupta2412/vaultboard/internal/server/metrics"
	"github.com/ShubhamGupta2412/vaultboard/internal/server/models"
	"github.com/ShubhamGupta2412/vaultboard/internal/server/repositories/accesslogs"
	"github.com/ShubhamGupta2412/vaultboard/internal/server/repositories/entries"
	"github.com/ShubhamGupta2412/vaultboard/internal/server/repositories/principals"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

// --- entries ---

type fakeEntriesRepo struct {
	entries.Repository
	rows  map[string]*models.Entry
	order []string

	lastQuery models.ListQuery
	touched   []string

	createErr  error
	deleteErr  error
	touchErr   error
	setFileErr error
}

func newFakeEntriesRepo() *fakeEntriesRepo {
	return &fakeEntriesRepo{rows: map[string]*models.Entry{}}
}

func clone(e *models.Entry) *models.Entry {
	c := *e
	c.Tags = append([]string(nil), e.Tags...)
	if e.File != nil {
		f := *e.File
		c.File = &f
	}
	return &c
}

func (f *fakeEntriesRepo) put(e *models.Entry) {
	if _, ok := f.rows[e.ID]; !ok {
		f.order = append(f.order, e.ID)
	}
	f.rows[e.ID] = clone(e)
}

func (f *fakeEntriesRepo) Create(ctx context.Context, e *models.Entry) error {
	if f.createErr != nil {
		return f.createErr
	}
	e.CreatedAt, e.UpdatedAt = testNow, testNow
	f.put(e)
	return nil
}

func (f *fakeEntriesRepo) GetByID(ctx context.Context, id string) (*models.Entry, error) {
	e, ok := f.rows[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return clone(e), nil
}

func (f *fakeEntriesRepo) Update(ctx context.Context, e *models.Entry) error {
	if _, ok := f.rows[e.ID]; !ok {
		return common.ErrorNotFound
	}
	e.UpdatedAt = testNow.Add(time.Hour)
	f.put(e)
	return nil
}

func (f *fakeEntriesRepo) Delete(ctx context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.rows[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeEntriesRepo) Touch(ctx context.Context, id string, at time.Time) error {
	if f.touchErr != nil {
		return f.touchErr
	}
	f.touched = append(f.touched, id)
	f.rows[id].LastAccessedAt = &at
	return nil
}

func (f *fakeEntriesRepo) SetFile(ctx context.Context, id string, ref *models.FileRef) error {
	if f.setFileErr != nil {
		return f.setFileErr
	}
	c := *ref
	f.rows[id].File = &c
	return nil
}

func (f *fakeEntriesRepo) List(ctx context.Context, q models.ListQuery) ([]*models.Entry, int, error) {
	f.lastQuery = q
	var out []*models.Entry
	for _, id := range f.order {
		e, ok := f.rows[id]
		if ok && access.InScope(q.Scope, *e) {
			out = append(out, clone(e))
		}
	}
	return out, len(out), nil
}

func (f *fakeEntriesRepo) ExpiringBefore(ctx context.Context, cutoff time.Time) ([]models.Entry, error) {
	var out []models.Entry
	for _, id := range f.order {
		e, ok := f.rows[id]
		if ok && e.ExpirationDate != nil && !e.ExpirationDate.After(cutoff) {
			out = append(out, *clone(e))
		}
	}
	return out, nil
}

// --- principals ---

type fakePrincipalsRepo struct {
	principals.Repository
	rows      map[string]*models.Principal
	createErr error
}

func (f *fakePrincipalsRepo) Create(ctx context.Context, p *models.Principal) (*models.Principal, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	for _, existing := range f.rows {
		if existing.Email == p.Email {
			return nil, common.ErrorConflict
		}
	}
	p.CreatedAt = testNow
	c := *p
	f.rows[p.ID] = &c
	return p, nil
}

func (f *fakePrincipalsRepo) GetByID(ctx context.Context, id string) (*models.Principal, error) {
	p, ok := f.rows[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *p
	return &c, nil
}

// --- manager ---

type fakeRepoManager struct {
	e *fakeEntriesRepo
	p *fakePrincipalsRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Principals(db dbx.DBTX) principals.Repository { return m.p }
func (m *fakeRepoManager) Entries(db dbx.DBTX) entries.Repository       { return m.e }
func (m *fakeRepoManager) AccessLogs(db dbx.DBTX) accesslogs.Repository { return nil }

// --- audit ---

type recorded struct {
	EntryID     string
	PrincipalID string
	Action      models.AuditAction
	Origin      audit.Origin
}

type fakeRecorder struct {
	events  []recorded
	stats   models.AccessStats
	recent  []models.AccessLog
	statErr error
}

func (f *fakeRecorder) Record(ctx context.Context, entryID, principalID string, action models.AuditAction, origin audit.Origin) {
	f.events = append(f.events, recorded{entryID, principalID, action, origin})
}

func (f *fakeRecorder) StatsFor(ctx context.Context, entryID string) (models.AccessStats, error) {
	return f.stats, f.statErr
}

func (f *fakeRecorder) Recent(ctx context.Context, entryID string, limit int) ([]models.AccessLog, error) {
	return f.recent, nil
}

func (f *fakeRecorder) actions() []models.AuditAction {
	out := make([]models.AuditAction, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.Action)
	}
	return out
}

// --- blobs ---

type fakeBlobs struct {
	stored  map[string][]byte
	deleted []string
	next    int

	storeErr error
}

func (f *fakeBlobs) Store(ctx context.Context, name, contentType string, data []byte) (string, error) {
	if f.storeErr != nil {
		return "", f.storeErr
	}
	if f.stored == nil {
		f.stored = map[string][]byte{}
	}
	f.next++
	key := "entries/k" + string(rune('0'+f.next))
	f.stored[key] = data
	return key, nil
}

func (f *fakeBlobs) PublicURLFor(ctx context.Context, key string) (string, error) {
	return "https://blobs.local/" + key + "?sig=1", nil
}

func (f *fakeBlobs) Delete(ctx context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

// --- fixture ---

var (
	errBoom = errors.New("boom")

	ownerMember = models.Principal{ID: "11111111-1111-1111-1111-111111111111", Role: models.RoleMember}
	otherMember = models.Principal{ID: "22222222-2222-2222-2222-222222222222", Role: models.RoleMember}
	aManager    = models.Principal{ID: "33333333-3333-3333-3333-333333333333", Role: models.RoleManager}
	anAdmin     = models.Principal{ID: "44444444-4444-4444-4444-444444444444", Role: models.RoleAdmin}
	aViewer     = models.Principal{ID: "55555555-5555-5555-5555-555555555555", Role: models.RoleViewer}
)

type fixture struct {
	svc      *EntryService
	repo     *fakeEntriesRepo
	recorder *fakeRecorder
	blobs    *fakeBlobs
	mock     sqlmock.Sqlmock
	metrics  *metrics.Metrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	prot, err := protect.New([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	f := &fixture{
		repo:     newFakeEntriesRepo(),
		recorder: &fakeRecorder{},
		blobs:    &fakeBlobs{},
		mock:     mock,
		metrics:  metrics.New(prometheus.NewRegistry()),
	}
	rm := &fakeRepoManager{e: f.repo}
	f.svc = NewEntryService(db, rm, prot, f.recorder, f.blobs, logging.NewDiscardLogger(), f.metrics)
	f.svc.clock = func() time.Time { return testNow }

	n := 0
	f.svc.newID = func() string {
		n++
		return "aaaaaaaa-0000-0000-0000-00000000000" + string(rune('0'+n))
	}
	return f
}

// seed creates an entry through the service so content is protected the
// same way production does it.
func (f *fixture) seed(t *testing.T, owner models.Principal, in CreateInput) *models.Entry {
	t.Helper()
	e, err := f.svc.Create(context.Background(), owner, in)
	require.NoError(t, err)
	f.recorder.events = nil
	return e
}
