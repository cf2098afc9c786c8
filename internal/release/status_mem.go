package release

import (
	"sync"
	"time"

	"buoyd/internal/models"
)

// ─────────────────────────── in-memory status (fallback) ───────────────────────────

// memStatus — журнал статусов без БД; история не сохраняется.
type memStatus struct {
	mu   sync.RWMutex
	byID map[string]models.BuoyStatus
}

func NewMemStatus() StatusStore {
	return &memStatus{byID: make(map[string]models.BuoyStatus)}
}

func (m *memStatus) Upsert(id, state string, ts time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[id] = models.BuoyStatus{BuoyID: id, State: state, LastUpdate: ts}
	return nil
}

func (m *memStatus) Get(id string) (models.BuoyStatus, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.byID[id]
	return s, ok
}

func (m *memStatus) List() ([]models.BuoyStatus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.BuoyStatus, 0, len(m.byID))
	for _, s := range m.byID {
		out = append(out, s)
	}
	return out, nil
}
