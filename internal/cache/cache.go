package cache

import (
	"context"
	"sync"
	"time"

	"bhasapos/backend/internal/domain"
)

// SessionStore is the registry of live logins. A session absent from the
// store is logged out, whatever its token says.
type SessionStore interface {
	Put(ctx context.Context, session domain.Session) error
	Get(ctx context.Context, id string) (*domain.Session, bool, error)
	Delete(ctx context.Context, id string) error
}

type MemorySessionStore struct {
	mu       sync.RWMutex
	now      func() time.Time
	sessions map[string]domain.Session
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{now: time.Now, sessions: make(map[string]domain.Session)}
}

func (m *MemorySessionStore) Put(_ context.Context, session domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.ID] = session
	m.sweepLocked()
	return nil
}

func (m *MemorySessionStore) Get(_ context.Context, id string) (*domain.Session, bool, error) {
	m.mu.RLock()
	session, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok || m.expired(session) {
		return nil, false, nil
	}
	return &session, true, nil
}

func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return nil
}

func (m *MemorySessionStore) expired(session domain.Session) bool {
	return !session.ExpiresAt.IsZero() && !m.now().Before(session.ExpiresAt)
}

func (m *MemorySessionStore) sweepLocked() {
	for id, session := range m.sessions {
		if m.expired(session) {
			delete(m.sessions, id)
		}
	}
}
