package expiry

import (
	"context"
	"fmt"
	"time"

	"github.com/ShubhamGupta2412/vaultboard/internal/logging"
	"github.com/ShubhamGupta2412/vaultboard/internal/server/models"
)

// Source loads entries whose expiration date is on or before cutoff.
type Source interface {
	ExpiringBefore(ctx context.Context, cutoff time.Time) ([]models.Entry, error)
}

// Report is the result of one sweep.
type Report struct {
	RanAt       time.Time         `json:"ran_at"`
	HorizonDays int               `json:"horizon_days"`
	Groups      map[Status][]Item `json:"groups"`
	Total       int               `json:"total"`
}

type Sweeper struct {
	source  Source
	log     logging.Logger
	horizon int
	observe func(Status, int)
}

type SweeperOption func(*Sweeper)

// WithHorizon overrides SweepHorizonDays.
func WithHorizon(days int) SweeperOption {
	return func(s *Sweeper) {
		if days > 0 {
			s.horizon = days
		}
	}
}

// WithObserver receives the per-status counts after each run.
func WithObserver(fn func(Status, int)) SweeperOption {
	return func(s *Sweeper) { s.observe = fn }
}

func NewSweeper(source Source, log logging.Logger, opts ...SweeperOption) *Sweeper {
	s := &Sweeper{
		source:  source,
		log:     log.With("module", "expiry"),
		horizon: SweepHorizonDays,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Run performs one sweep at now. Scheduling is up to the caller.
func (s *Sweeper) Run(ctx context.Context, now time.Time) (*Report, error) {
	entries, err := s.source.ExpiringBefore(ctx, Cutoff(now, s.horizon))
	if err != nil {
		return nil, fmt.Errorf("load expiring entries: %w", err)
	}

	rep := &Report{RanAt: now, HorizonDays: s.horizon, Groups: make(map[Status][]Item)}
	for _, it := range Evaluate(entries, now, s.horizon) {
		rep.Groups[it.Status] = append(rep.Groups[it.Status], it)
		rep.Total++
		s.log.Warn(ctx, "entry expiring",
			"entry_id", it.EntryID,
			"owner_id", it.OwnerID,
			"status", it.Status,
			"days_left", it.DaysLeft,
		)
	}

	if s.observe != nil {
		for _, st := range Statuses {
			s.observe(st, len(rep.Groups[st]))
		}
	}
	s.log.Info(ctx, "expiry sweep finished", "flagged", rep.Total, "horizon_days", s.horizon)
	return rep, nil
}
