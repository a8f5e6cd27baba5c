package persistence

import (
	"context"
	"sync"

	"github.com/wfunc/escapeplan/models"
)

// MemoryArchive keeps rounds for the lifetime of the process.
type MemoryArchive struct {
	records []models.RoundRecord
	byID    map[string]int
	mutex   sync.RWMutex
}

func NewMemoryArchive() *MemoryArchive {
	return &MemoryArchive{byID: make(map[string]int)}
}

func (m *MemoryArchive) SaveRound(ctx context.Context, record models.RoundRecord) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.byID[record.ID] = len(m.records)
	m.records = append(m.records, record)
	return nil
}

func (m *MemoryArchive) LoadRound(ctx context.Context, id string) (*models.RoundRecord, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	i, ok := m.byID[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	record := m.records[i]
	return &record, nil
}

func (m *MemoryArchive) RoleStats(ctx context.Context) (models.RoleStats, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	var stats models.RoleStats
	for _, r := range m.records {
		stats.Add(r)
	}
	return stats, nil
}

func (m *MemoryArchive) Close() error {
	return nil
}
