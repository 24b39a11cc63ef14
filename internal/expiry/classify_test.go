package expiry

import (
	"testing"
	"time"

	"github.com/ShubhamGupta2412/vaultboard/internal/server/models"
	"github.com/stretchr/testify/assert"
)

var now = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDaysUntil(t *testing.T) {
	tests := []struct {
		name string
		exp  time.Time
		want int
	}{
		{"four days ahead", day(2025, 1, 5), 4},
		{"same instant", now, 0},
		{"one hour ahead rounds up", now.Add(time.Hour), 1},
		{"one hour ago rounds to zero", now.Add(-time.Hour), 0},
		{"25 hours ago", now.Add(-25 * time.Hour), -1},
		{"twelve days back", day(2024, 12, 20), -12},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysUntil(tt.exp, now))
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		exp     time.Time
		horizon int
		want    Status
	}{
		{"in four days is critical", day(2025, 1, 5), SweepHorizonDays, StatusCritical},
		{"already past", day(2024, 12, 20), SweepHorizonDays, StatusExpired},
		{"today", now, SweepHorizonDays, StatusCritical},
		{"day seven", now.AddDate(0, 0, 7), SweepHorizonDays, StatusCritical},
		{"day eight", now.AddDate(0, 0, 8), SweepHorizonDays, StatusWarning},
		{"day fourteen", now.AddDate(0, 0, 14), SweepHorizonDays, StatusWarning},
		{"day fifteen beyond sweep horizon", now.AddDate(0, 0, 15), SweepHorizonDays, StatusNone},
		{"day fifteen inside dashboard horizon", now.AddDate(0, 0, 15), DashboardHorizonDays, StatusNotice},
		{"day thirty", now.AddDate(0, 0, 30), DashboardHorizonDays, StatusNotice},
		{"day thirty one", now.AddDate(0, 0, 31), DashboardHorizonDays, StatusNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.exp, now, tt.horizon))
		})
	}
}

func TestHorizonsAreDistinct(t *testing.T) {
	assert.NotEqual(t, DashboardHorizonDays, SweepHorizonDays)
	assert.Equal(t, 30, DashboardHorizonDays)
	assert.Equal(t, 14, SweepHorizonDays)
}

func TestEvaluate(t *testing.T) {
	ptr := func(t time.Time) *time.Time { return &t }
	entries := []models.Entry{
		{ID: "late", ExpirationDate: ptr(now.AddDate(0, 0, 10))},
		{ID: "none"},
		{ID: "far", ExpirationDate: ptr(now.AddDate(0, 1, 0))},
		{ID: "gone", ExpirationDate: ptr(now.AddDate(0, 0, -3))},
		{ID: "soon", ExpirationDate: ptr(now.AddDate(0, 0, 2))},
	}

	items := Evaluate(entries, now, SweepHorizonDays)

	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.EntryID)
	}
	assert.Equal(t, []string{"gone", "soon", "late"}, ids)
	assert.Equal(t, StatusExpired, items[0].Status)
	assert.Equal(t, -3, items[0].DaysLeft)
	assert.Equal(t, StatusWarning, items[2].Status)
}

func TestCutoff(t *testing.T) {
	assert.Equal(t, day(2025, 1, 15), Cutoff(now, SweepHorizonDays))
	assert.Equal(t, StatusWarning, Classify(Cutoff(now, SweepHorizonDays), now, SweepHorizonDays))
}
