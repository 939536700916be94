package sink

import (
	"context"
	"sync"

	"medtriage/models"
)

// MemoryStore keeps the most recent records in a bounded ring.
type MemoryStore struct {
	mu      sync.Mutex
	records []models.TriageLogRecord
	limit   int
}

func NewMemoryStore(limit int) *MemoryStore {
	if limit <= 0 {
		limit = MaxRecentLimit
	}
	return &MemoryStore{limit: limit}
}

func (m *MemoryStore) Append(_ context.Context, rec models.TriageLogRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	if over := len(m.records) - m.limit; over > 0 {
		m.records = append(m.records[:0:0], m.records[over:]...)
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (m *MemoryStore) Recent(_ context.Context, limit int) ([]models.TriageLogRecord, error) {
	limit = clampLimit(limit)
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.records)
	if limit > n {
		limit = n
	}
	out := make([]models.TriageLogRecord, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, m.records[i])
	}
	return out, nil
}

func (m *MemoryStore) Close() error { return nil }
