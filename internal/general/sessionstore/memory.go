// Package sessionstore holds the SessionStore implementations that do not need
// the Postgres unit of work.
package sessionstore

import (
	"context"
	"errors"
	"sync"

	"driver-portal/internal/domain/session"
)

var ErrCorrupt = errors.New("sessionstore: stored session is corrupt")

// Memory keeps the session in process memory. It backs tests and bridge
// connections that do not send a device id.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemory() *Memory {
	return &Memory{values: map[string]string{}}
}

func (m *Memory) Get(_ context.Context) (session.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return session.FromValues(m.values), nil
}

func (m *Memory) Save(_ context.Context, s session.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = s.Values()
	return nil
}

func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = map[string]string{}
	return nil
}

// Set writes a single raw key, for seeding partially populated stores.
func (m *Memory) Set(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
}
