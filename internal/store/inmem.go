package store

import (
	"context"
	"signalflow/internal/model"
	"sync"
	"time"
)

// MemoryStore 内存实现，用于单元测试和simulate_only模式
// 语义与RedisStore完全一致
type MemoryStore struct {
	mu        sync.RWMutex
	active    map[string][]model.Signal
	completed []model.Signal
	prefs     map[string]model.AutoGenPrefs
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		active: make(map[string][]model.Signal),
		prefs:  make(map[string]model.AutoGenPrefs),
	}
}

func (m *MemoryStore) GetActive(_ context.Context, category string) ([]model.Signal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Signal, len(m.active[category]))
	copy(out, m.active[category])
	return out, nil
}

func (m *MemoryStore) GetAllActive(_ context.Context) (map[string][]model.Signal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string][]model.Signal, len(m.active))
	for c, list := range m.active {
		cp := make([]model.Signal, len(list))
		copy(cp, list)
		out[c] = cp
	}
	return out, nil
}

func (m *MemoryStore) ReplaceActive(_ context.Context, category string, signals []model.Signal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]model.Signal, len(signals))
	copy(cp, signals)
	m.active[category] = dedupById(cp)
	return nil
}

func (m *MemoryStore) Upsert(_ context.Context, signal model.Signal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.active[signal.Category]
	for i := range list {
		if list[i].ID == signal.ID {
			list[i] = signal
			return nil
		}
	}
	m.active[signal.Category] = append(list, signal)
	return nil
}

func (m *MemoryStore) Archive(_ context.Context, signal model.Signal) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := m.active[signal.Category]
	kept := list[:0]
	for _, s := range list {
		if s.ID != signal.ID {
			kept = append(kept, s)
		}
	}
	m.active[signal.Category] = kept

	for _, s := range m.completed {
		if s.ID == signal.ID {
			return nil
		}
	}
	m.completed = append([]model.Signal{signal}, m.completed...)
	return nil
}

func (m *MemoryStore) Completed(_ context.Context) ([]model.Signal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Signal, len(m.completed))
	copy(out, m.completed)
	return out, nil
}

func (m *MemoryStore) ClearExpired(_ context.Context, maxAge time.Duration) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := time.Now().Add(-maxAge)
	kept := make([]model.Signal, 0, len(m.completed))
	for _, s := range m.completed {
		ts := s.CreatedAt
		if s.CompletedAt != nil {
			ts = *s.CompletedAt
		}
		if ts.After(cutoff) {
			kept = append(kept, s)
		}
	}
	removed := len(m.completed) - len(kept)
	m.completed = kept
	return removed, nil
}

func (m *MemoryStore) GetAutoGenPrefs(_ context.Context, category string) (model.AutoGenPrefs, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.prefs[category], nil
}

func (m *MemoryStore) SetAutoGenPrefs(_ context.Context, category string, prefs model.AutoGenPrefs) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prefs[category] = prefs
	return nil
}
