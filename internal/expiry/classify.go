// Package expiry classifies entries by how soon they expire and runs the
// scheduled sweep over them.
package expiry

import (
	"math"
	"sort"
	"time"

	"github.com/ShubhamGupta2412/vaultboard/internal/server/models"
)

// The two horizons answer different questions and are kept separate.
const (
	// DashboardHorizonDays bounds the interactive "expiring soon" query.
	DashboardHorizonDays = 30
	// SweepHorizonDays bounds the scheduled sweep.
	SweepHorizonDays = 14

	criticalDays = 7
	warningDays  = 14
)

type Status string

const (
	StatusExpired  Status = "expired"
	StatusCritical Status = "critical"
	StatusWarning  Status = "warning"
	StatusNotice   Status = "notice"
	StatusNone     Status = "none"
)

// Statuses lists flagged statuses from most to least urgent.
var Statuses = []Status{StatusExpired, StatusCritical, StatusWarning, StatusNotice}

// DaysUntil is ceil((expiration - now) / 24h). A date a few hours in the
// past therefore yields 0, not -1.
func DaysUntil(expiration, now time.Time) int {
	return int(math.Ceil(expiration.Sub(now).Hours() / 24))
}

// Classify buckets an expiration date relative to now. Anything past
// horizonDays is StatusNone.
func Classify(expiration, now time.Time, horizonDays int) Status {
	return statusFor(DaysUntil(expiration, now), horizonDays)
}

func statusFor(days, horizonDays int) Status {
	switch {
	case days < 0:
		return StatusExpired
	case days > horizonDays:
		return StatusNone
	case days <= criticalDays:
		return StatusCritical
	case days <= warningDays:
		return StatusWarning
	default:
		return StatusNotice
	}
}

// Item is one flagged entry.
type Item struct {
	EntryID        string    `json:"entry_id"`
	Title          string    `json:"title"`
	OwnerID        string    `json:"owner_id"`
	Classification string    `json:"classification"`
	ExpirationDate time.Time `json:"expiration_date"`
	DaysLeft       int       `json:"days_left"`
	Status         Status    `json:"status"`
}

// Evaluate classifies entries and keeps the flagged ones, soonest first.
// Entries without an expiration date are skipped.
func Evaluate(entries []models.Entry, now time.Time, horizonDays int) []Item {
	items := make([]Item, 0, len(entries))
	for _, e := range entries {
		if e.ExpirationDate == nil {
			continue
		}
		days := DaysUntil(*e.ExpirationDate, now)
		st := statusFor(days, horizonDays)
		if st == StatusNone {
			continue
		}
		items = append(items, Item{
			EntryID:        e.ID,
			Title:          e.Title,
			OwnerID:        e.OwnerID,
			Classification: string(e.Classification),
			ExpirationDate: *e.ExpirationDate,
			DaysLeft:       days,
			Status:         st,
		})
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].ExpirationDate.Before(items[j].ExpirationDate)
	})
	return items
}

// Cutoff is the latest expiration date that can still fall inside horizonDays.
func Cutoff(now time.Time, horizonDays int) time.Time {
	return now.Add(time.Duration(horizonDays) * 24 * time.Hour)
}
