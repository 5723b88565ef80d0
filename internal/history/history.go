// Package history records completed generations, most recent first.
package history

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"server/internal/domain"
)

// Store keeps the generation history. Prepend puts the newest entry at the
// head so List returns entries most-recent-first.
type Store interface {
	Prepend(ctx context.Context, entry domain.HistoryEntry) (domain.HistoryEntry, error)
	List(ctx context.Context, limit int) ([]domain.HistoryEntry, error)
}

// Memory is an in-process Store for tests and single-node deployments.
type Memory struct {
	mu      sync.RWMutex
	entries []domain.HistoryEntry
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Prepend(_ context.Context, entry domain.HistoryEntry) (domain.HistoryEntry, error) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append([]domain.HistoryEntry{entry}, m.entries...)
	return entry, nil
}

func (m *Memory) List(_ context.Context, limit int) ([]domain.HistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := len(m.entries)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]domain.HistoryEntry, n)
	copy(out, m.entries[:n])
	return out, nil
}

var _ Store = (*Memory)(nil)
