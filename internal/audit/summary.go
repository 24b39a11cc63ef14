package audit

import (
	"github.com/ShubhamGupta2412/vaultboard/internal/server/models"
)

// Summarize aggregates logs for entryID. Logs of other entries are ignored.
func Summarize(entryID string, logs []models.AccessLog) models.AccessStats {
	st := models.AccessStats{
		EntryID:  entryID,
		ByAction: make(map[models.AuditAction]int, len(models.AuditActions)),
	}
	for _, a := range models.AuditActions {
		st.ByAction[a] = 0
	}

	principals := make(map[string]struct{})
	for _, l := range logs {
		if l.EntryID != entryID {
			continue
		}
		st.Total++
		st.ByAction[l.Action]++
		if l.PrincipalID != nil {
			principals[*l.PrincipalID] = struct{}{}
		}
		if st.LastAccessAt == nil || l.CreatedAt.After(*st.LastAccessAt) {
			ts := l.CreatedAt
			st.LastAccessAt = &ts
		}
	}
	st.DistinctPrincipals = len(principals)
	return st
}

// MaskLogs returns copies of logs with masked origins.
func MaskLogs(logs []models.AccessLog) []models.AccessLog {
	out := make([]models.AccessLog, len(logs))
	for i, l := range logs {
		l.Origin = MaskOrigin(l.Origin)
		out[i] = l
	}
	return out
}
