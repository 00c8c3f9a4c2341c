package store

import (
	"context"
	"sync"
	"time"

	"github.com/chris/sprout/internal/care"
)

// MemoryBackend keeps everything in process.
type MemoryBackend struct {
	MemoryCursor

	mu      sync.Mutex
	plants  []care.Plant
	history []care.HistoryEntry
	saves   int
}

func NewMemoryBackend(plants []care.Plant, history []care.HistoryEntry) *MemoryBackend {
	return &MemoryBackend{
		plants:  clonePlants(plants),
		history: append([]care.HistoryEntry(nil), history...),
	}
}

func (m *MemoryBackend) LoadPlants(_ context.Context) ([]care.Plant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return clonePlants(m.plants), nil
}

func (m *MemoryBackend) SavePlants(_ context.Context, plants []care.Plant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plants = clonePlants(plants)
	m.saves++
	return nil
}

func (m *MemoryBackend) LoadHistory(_ context.Context) ([]care.HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]care.HistoryEntry(nil), m.history...), nil
}

func (m *MemoryBackend) AppendHistory(_ context.Context, entries []care.HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = append(m.history, entries...)
	return nil
}

// SaveCount returns the number of whole-table writes so far.
func (m *MemoryBackend) SaveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// MemoryCursor is a Cursor that lives only as long as the process.
type MemoryCursor struct {
	mu   sync.Mutex
	last time.Time
}

func (c *MemoryCursor) LastSync(_ context.Context) (time.Time, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last, nil
}

func (c *MemoryCursor) SetLastSync(_ context.Context, t time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = t
	return nil
}
