// Package audit records entry access events and answers questions about
// them. Recording is fire-and-forget: it never fails the calling operation.
package audit

import (
	"context"
	"fmt"

	"github.com/ShubhamGupta2412/vaultboard/internal/server/models"
	"github.com/ShubhamGupta2412/vaultboard/internal/timex"
	"github.com/google/uuid"
)

// Store is the queryable side of the audit log.
type Store interface {
	Stats(ctx context.Context, entryID string) (models.AccessStats, error)
	Recent(ctx context.Context, entryID string, limit int) ([]models.AccessLog, error)
}

// Publisher accepts events without blocking. *Emitter implements it.
type Publisher interface {
	Emit(ctx context.Context, l models.AccessLog) bool
}

const DefaultRecentLimit = 20

type Trail struct {
	pub   Publisher
	store Store
	clock timex.Clock
	newID func() string
}

type TrailOption func(*Trail)

func WithClock(c timex.Clock) TrailOption {
	return func(t *Trail) { t.clock = c }
}

func WithIDGenerator(fn func() string) TrailOption {
	return func(t *Trail) { t.newID = fn }
}

func NewTrail(pub Publisher, store Store, opts ...TrailOption) *Trail {
	t := &Trail{
		pub:   pub,
		store: store,
		clock: timex.UTCNow,
		newID: uuid.NewString,
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Record builds an access log and hands it to the publisher. An empty
// principalID marks a system-initiated action.
func (t *Trail) Record(ctx context.Context, entryID, principalID string, action models.AuditAction, origin Origin) {
	l := models.AccessLog{
		ID:        t.newID(),
		EntryID:   entryID,
		Action:    action,
		CreatedAt: t.clock(),
		Origin:    origin.Address,
		Client:    ClientIdentifier(origin.UserAgent),
	}
	if principalID != "" {
		pid := principalID
		l.PrincipalID = &pid
	}
	t.pub.Emit(ctx, l)
}

func (t *Trail) StatsFor(ctx context.Context, entryID string) (models.AccessStats, error) {
	st, err := t.store.Stats(ctx, entryID)
	if err != nil {
		return models.AccessStats{}, fmt.Errorf("access stats: %w", err)
	}
	return st, nil
}

// Recent returns the latest events for entryID with masked origins.
func (t *Trail) Recent(ctx context.Context, entryID string, limit int) ([]models.AccessLog, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	logs, err := t.store.Recent(ctx, entryID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent access: %w", err)
	}
	return MaskLogs(logs), nil
}
