package audit

import (
	"context"
	"sort"
	"sync"

	"github.com/ShubhamGupta2412/vaultboard/internal/server/models"
)

// MemoryStore keeps access logs in process. It implements both Sink and
// Store, which makes it a drop-in pair for NewEmitter and NewTrail in tests.
type MemoryStore struct {
	mu   sync.RWMutex
	logs []models.AccessLog
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Write(_ context.Context, logs []models.AccessLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, logs...)
	return nil
}

func (m *MemoryStore) Stats(_ context.Context, entryID string) (models.AccessStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Summarize(entryID, m.logs), nil
}

func (m *MemoryStore) Recent(_ context.Context, entryID string, limit int) ([]models.AccessLog, error) {
	m.mu.RLock()
	out := make([]models.AccessLog, 0)
	for _, l := range m.logs {
		if l.EntryID == entryID {
			out = append(out, l)
		}
	}
	m.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// DeleteEntry drops the logs of entryID, mirroring the database cascade.
func (m *MemoryStore) DeleteEntry(entryID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.logs[:0]
	for _, l := range m.logs {
		if l.EntryID != entryID {
			kept = append(kept, l)
		}
	}
	m.logs = kept
}

func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.logs)
}
