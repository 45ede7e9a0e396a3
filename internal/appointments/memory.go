package appointments

import (
	"context"
	"sync"
)

// MemoryPersister keeps the saved list in process memory.
type MemoryPersister struct {
	mu    sync.Mutex
	saved []Appointment
	saves int
}

// NewMemoryPersister returns a persister seeded with appts.
func NewMemoryPersister(appts ...Appointment) *MemoryPersister {
	return &MemoryPersister{saved: append([]Appointment(nil), appts...)}
}

// Load returns a copy of the last saved list.
func (m *MemoryPersister) Load(_ context.Context) ([]Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Appointment(nil), m.saved...), nil
}

// Save replaces the stored list with a copy of appts.
func (m *MemoryPersister) Save(_ context.Context, appts []Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append([]Appointment(nil), appts...)
	m.saves++
	return nil
}

// Saves returns how many times Save has been called.
func (m *MemoryPersister) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
