package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ShubhamGupta2412/vaultboard/internal/access"
	"github.com/ShubhamGupta2412/vaultboard/internal/audit"
	"github.com/ShubhamGupta2412/vaultboard/internal/common"
	"github.com/ShubhamGupta2412/vaultboard/internal/dbx"
	"github.com/ShubhamGupta2412/vaultboard/internal/expiry"
	"github.com/ShubhamGupta2412/vaultboard/internal/logging"
	"github.com/ShubhamGupta2412/vaultboard/internal/protect"
	"github.com/ShubhamGupta2412/vaultboard/internal/server/blobstore"
	"github.com/ShubhamGupta2412/vaultboard/internal/server/metrics"
	"github.com/ShubhamGupta2412/vaultboard/internal/server/models"
	"github.com/ShubhamGupta2412/vaultboard/internal/server/repositories/repomanager"
	"github.com/ShubhamGupta2412/vaultboard/internal/timex"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// MaxTitleLen is the longest accepted entry title, in runes.
const MaxTitleLen = 200

// CreateInput is the raw, unvalidated payload for a new entry.
type CreateInput struct {
	Title          string
	Content        string
	Category       string
	Classification string
	Tags           []string
	IsSensitive    bool
	ExpirationDate *time.Time
}

// ListResult is one page of a listing. Content holds previews, never full
// sensitive text.
type ListResult struct {
	Entries []*models.Entry
	Total   int
	Page    models.Page
}

// EntryStats combines the aggregate counters with the latest events.
type EntryStats struct {
	Stats  models.AccessStats
	Recent []models.AccessLog
}

type EntryService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	protector   ContentProtector
	trail       Recorder
	blobs       BlobStore
	log         logging.Logger
	metrics     *metrics.Metrics
	clock       timex.Clock
	newID       func() string
}

func NewEntryService(db *sql.DB, rm repomanager.RepositoryManager, protector ContentProtector,
	trail Recorder, blobs BlobStore, log logging.Logger, m *metrics.Metrics) *EntryService {
	return &EntryService{
		db:          db,
		repomanager: rm,
		protector:   protector,
		trail:       trail,
		blobs:       blobs,
		log:         log.With("module", "entries"),
		metrics:     m,
		clock:       timex.UTCNow,
		newID:       uuid.NewString,
	}
}

// authorize runs the policy and converts a denial into common.ErrorForbidden.
func (s *EntryService) authorize(ctx context.Context, p models.Principal, e models.Entry, action access.Action) error {
	d := access.CheckAccess(p, e, action)
	s.metrics.ObserveDecision(string(action), d.Allowed, string(d.Reason))
	if !d.Allowed {
		s.log.Info(ctx, "access denied",
			"principal_id", p.ID, "role", p.Role, "entry_id", e.ID, "action", action, "reason", d.Reason)
		return fmt.Errorf("%w: %s", common.ErrorForbidden, d.Reason)
	}
	return nil
}

func (s *EntryService) record(ctx context.Context, entryID string, p models.Principal, action models.AuditAction) {
	s.trail.Record(ctx, entryID, p.ID, action, audit.OriginFrom(ctx))
}

// load fetches an entry and checks action against it. The returned entry
// still carries stored (possibly encrypted) content.
func (s *EntryService) load(ctx context.Context, p models.Principal, id string, action access.Action) (*models.Entry, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: malformed entry id", common.ErrorNotFound)
	}
	e, err := s.repomanager.Entries(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}
	if err := s.authorize(ctx, p, *e, action); err != nil {
		return nil, err
	}
	return e, nil
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", fmt.Errorf("%w: title is required", common.ErrorValidation)
	}
	if utf8.RuneCountInString(title) > MaxTitleLen {
		return "", fmt.Errorf("%w: title longer than %d characters", common.ErrorValidation, MaxTitleLen)
	}
	return title, nil
}

func (s *EntryService) Create(ctx context.Context, p models.Principal, in CreateInput) (_ *models.Entry, err error) {
	ctx, span := startSpan(ctx, "EntryService.Create",
		attribute.String(attrPrincipalID, p.ID), attribute.String(attrRole, string(p.Role)))
	defer func() { endSpan(span, err) }()

	if err := s.authorize(ctx, p, models.Entry{}, access.ActionCreate); err != nil {
		return nil, err
	}

	title, err := validateTitle(in.Title)
	if err != nil {
		return nil, err
	}
	category, err := access.ParseCategory(in.Category)
	if err != nil {
		return nil, err
	}
	classification, err := access.ParseClassification(in.Classification)
	if err != nil {
		return nil, err
	}

	stored, err := s.protector.Protect(in.Content, in.IsSensitive)
	if err != nil {
		return nil, fmt.Errorf("protect content: %w", err)
	}

	e := &models.Entry{
		ID:             s.newID(),
		OwnerID:        p.ID,
		Title:          title,
		Content:        stored,
		Category:       category,
		Classification: classification,
		Tags:           models.NormalizeTags(in.Tags),
		IsSensitive:    in.IsSensitive,
		ExpirationDate: in.ExpirationDate,
	}
	if err := s.repomanager.Entries(s.db).Create(ctx, e); err != nil {
		return nil, fmt.Errorf("create entry: %w", err)
	}

	s.record(ctx, e.ID, p, models.AuditCreate)
	s.log.Info(ctx, "entry created", "entry_id", e.ID, "owner_id", p.ID, "classification", e.Classification)

	e.Content = in.Content
	return e, nil
}

// Get returns the entry with its content revealed and records a view.
func (s *EntryService) Get(ctx context.Context, p models.Principal, id string) (_ *models.Entry, err error) {
	ctx, span := startSpan(ctx, "EntryService.Get",
		attribute.String(attrEntryID, id), attribute.String(attrPrincipalID, p.ID))
	defer func() { endSpan(span, err) }()

	e, err := s.load(ctx, p, id, access.ActionView)
	if err != nil {
		return nil, err
	}
	e.Content = s.protector.Reveal(e.Content, e.IsSensitive)

	now := s.clock()
	if err := s.repomanager.Entries(s.db).Touch(ctx, e.ID, now); err != nil {
		s.log.Warn(ctx, "touch last access failed", "entry_id", e.ID, "error", err)
	} else {
		e.LastAccessedAt = &now
	}

	s.record(ctx, e.ID, p, models.AuditView)
	return e, nil
}

func applyPatch(e *models.Entry, patch models.EntryPatch) error {
	if patch.Title != nil {
		title, err := validateTitle(*patch.Title)
		if err != nil {
			return err
		}
		e.Title = title
	}
	if patch.Category != nil {
		c, err := access.ParseCategory(string(*patch.Category))
		if err != nil {
			return err
		}
		e.Category = c
	}
	if patch.Classification != nil {
		c, err := access.ParseClassification(string(*patch.Classification))
		if err != nil {
			return err
		}
		e.Classification = c
	}
	if patch.SetTags {
		e.Tags = models.NormalizeTags(patch.Tags)
	}
	if patch.Content != nil {
		e.Content = *patch.Content
	}
	if patch.IsSensitive != nil {
		e.IsSensitive = *patch.IsSensitive
	}
	switch {
	case patch.ClearExpiry:
		e.ExpirationDate = nil
	case patch.ExpirationDate != nil:
		exp := *patch.ExpirationDate
		e.ExpirationDate = &exp
	}
	return nil
}

// Update applies patch. Content is re-protected whenever its text or the
// sensitivity flag changes, so the stored form always matches IsSensitive.
func (s *EntryService) Update(ctx context.Context, p models.Principal, id string, patch models.EntryPatch) (_ *models.Entry, err error) {
	ctx, span := startSpan(ctx, "EntryService.Update",
		attribute.String(attrEntryID, id), attribute.String(attrPrincipalID, p.ID))
	defer func() { endSpan(span, err) }()

	e, err := s.load(ctx, p, id, access.ActionEdit)
	if err != nil {
		return nil, err
	}

	wasSensitive := e.IsSensitive
	storedContent := e.Content
	e.Content = s.protector.Reveal(storedContent, wasSensitive)
	if err := applyPatch(e, patch); err != nil {
		return nil, err
	}
	plaintext := e.Content

	// A failed decryption hands back the ciphertext. Clearing the flag
	// without new content would persist that ciphertext as plaintext.
	if wasSensitive && !e.IsSensitive && patch.Content == nil &&
		plaintext == storedContent && protect.LooksEncrypted(storedContent) {
		return nil, fmt.Errorf("%w: content cannot be decrypted; supply new content to clear sensitivity", common.ErrorValidation)
	}

	if patch.Content != nil || e.IsSensitive != wasSensitive {
		stored, err := s.protector.Protect(plaintext, e.IsSensitive)
		if err != nil {
			return nil, fmt.Errorf("protect content: %w", err)
		}
		e.Content = stored
	} else {
		e.Content = storedContent
	}

	if err := s.repomanager.Entries(s.db).Update(ctx, e); err != nil {
		return nil, fmt.Errorf("update entry: %w", err)
	}

	s.record(ctx, e.ID, p, models.AuditUpdate)
	e.Content = plaintext
	return e, nil
}

// Delete removes the entry and, with it, its access logs. The attachment is
// removed best-effort after the transaction commits.
func (s *EntryService) Delete(ctx context.Context, p models.Principal, id string) (err error) {
	ctx, span := startSpan(ctx, "EntryService.Delete",
		attribute.String(attrEntryID, id), attribute.String(attrPrincipalID, p.ID))
	defer func() { endSpan(span, err) }()

	e, err := s.load(ctx, p, id, access.ActionDelete)
	if err != nil {
		return err
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Entries(tx).Delete(ctx, e.ID); err != nil {
			return fmt.Errorf("delete entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if e.File != nil && s.blobs != nil {
		if err := s.blobs.Delete(ctx, e.File.Key); err != nil {
			s.log.Warn(ctx, "attachment removal failed", "entry_id", e.ID, "key", e.File.Key, "error", err)
		}
	}

	s.record(ctx, e.ID, p, models.AuditDelete)
	s.log.Info(ctx, "entry deleted", "entry_id", e.ID, "principal_id", p.ID)
	return nil
}

// List returns the page of entries the principal may view. Sensitive
// content is masked and everything else truncated for display.
func (s *EntryService) List(ctx context.Context, p models.Principal, filter models.ListFilter,
	sort models.Sort, page models.Page) (_ *ListResult, err error) {
	ctx, span := startSpan(ctx, "EntryService.List", attribute.String(attrPrincipalID, p.ID))
	defer func() { endSpan(span, err) }()

	page = page.Normalize()
	q := models.ListQuery{
		Scope:  access.ListScope(p),
		Filter: filter,
		Sort:   sort,
		Page:   page,
	}
	list, total, err := s.repomanager.Entries(s.db).List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}

	for _, e := range list {
		e.Content = protect.Preview(s.protector.Reveal(e.Content, e.IsSensitive), e.IsSensitive)
	}
	return &ListResult{Entries: list, Total: total, Page: page}, nil
}

func (s *EntryService) Stats(ctx context.Context, p models.Principal, id string, recentLimit int) (_ *EntryStats, err error) {
	ctx, span := startSpan(ctx, "EntryService.Stats",
		attribute.String(attrEntryID, id), attribute.String(attrPrincipalID, p.ID))
	defer func() { endSpan(span, err) }()

	e, err := s.load(ctx, p, id, access.ActionView)
	if err != nil {
		return nil, err
	}
	st, err := s.trail.StatsFor(ctx, e.ID)
	if err != nil {
		return nil, err
	}
	recent, err := s.trail.Recent(ctx, e.ID, recentLimit)
	if err != nil {
		return nil, err
	}
	return &EntryStats{Stats: st, Recent: recent}, nil
}

// Expiring lists entries visible to p that expire within horizonDays
// (expiry.DashboardHorizonDays when not positive).
func (s *EntryService) Expiring(ctx context.Context, p models.Principal, horizonDays int) (_ []expiry.Item, err error) {
	ctx, span := startSpan(ctx, "EntryService.Expiring", attribute.String(attrPrincipalID, p.ID))
	defer func() { endSpan(span, err) }()

	if horizonDays <= 0 {
		horizonDays = expiry.DashboardHorizonDays
	}
	now := s.clock()
	list, err := s.repomanager.Entries(s.db).ExpiringBefore(ctx, expiry.Cutoff(now, horizonDays))
	if err != nil {
		return nil, fmt.Errorf("expiring entries: %w", err)
	}

	scope := access.ListScope(p)
	visible := list[:0]
	for _, e := range list {
		if access.InScope(scope, e) {
			visible = append(visible, e)
		}
	}
	return expiry.Evaluate(visible, now, horizonDays), nil
}

// AttachFile validates and uploads an attachment, replacing any previous one.
func (s *EntryService) AttachFile(ctx context.Context, p models.Principal, id, name, contentType string,
	data []byte) (_ *models.FileRef, err error) {
	ctx, span := startSpan(ctx, "EntryService.AttachFile",
		attribute.String(attrEntryID, id), attribute.Int("vaultboard.file.size", len(data)))
	defer func() { endSpan(span, err) }()

	e, err := s.load(ctx, p, id, access.ActionEdit)
	if err != nil {
		return nil, err
	}
	if s.blobs == nil {
		return nil, fmt.Errorf("%w: blob storage not configured", common.ErrorInternal)
	}

	mediaType, err := blobstore.Validate(name, contentType, len(data))
	if err != nil {
		return nil, err
	}

	key, err := s.blobs.Store(ctx, name, mediaType, data)
	if err != nil {
		return nil, fmt.Errorf("store attachment: %w", err)
	}
	s.metrics.ObserveBlobUpload(int64(len(data)))

	ref := &models.FileRef{Key: key, Name: strings.TrimSpace(name), ContentType: mediaType, Size: int64(len(data))}
	if err := s.repomanager.Entries(s.db).SetFile(ctx, e.ID, ref); err != nil {
		if derr := s.blobs.Delete(ctx, key); derr != nil {
			s.log.Warn(ctx, "orphaned attachment", "key", key, "error", derr)
		}
		return nil, fmt.Errorf("attach file: %w", err)
	}

	if e.File != nil {
		if err := s.blobs.Delete(ctx, e.File.Key); err != nil {
			s.log.Warn(ctx, "previous attachment removal failed", "key", e.File.Key, "error", err)
		}
	}

	s.record(ctx, e.ID, p, models.AuditUpdate)
	return ref, nil
}

// FileURL returns a short-lived download URL for the entry's attachment.
func (s *EntryService) FileURL(ctx context.Context, p models.Principal, id string) (_ string, err error) {
	ctx, span := startSpan(ctx, "EntryService.FileURL",
		attribute.String(attrEntryID, id), attribute.String(attrPrincipalID, p.ID))
	defer func() { endSpan(span, err) }()

	e, err := s.load(ctx, p, id, access.ActionView)
	if err != nil {
		return "", err
	}
	if e.File == nil {
		return "", fmt.Errorf("%w: entry has no attachment", common.ErrorNotFound)
	}
	if s.blobs == nil {
		return "", fmt.Errorf("%w: blob storage not configured", common.ErrorInternal)
	}

	url, err := s.blobs.PublicURLFor(ctx, e.File.Key)
	if err != nil {
		return "", fmt.Errorf("presign attachment: %w", err)
	}
	s.record(ctx, e.ID, p, models.AuditView)
	return url, nil
}
