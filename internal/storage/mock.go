package storage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockStorage is an in-memory Storage implementation for tests.
type MockStorage struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session

	PingErr error
}

var _ Storage = (*MockStorage)(nil)

func NewMockStorage() *MockStorage {
	return &MockStorage{sessions: make(map[uuid.UUID]*Session)}
}

func (m *MockStorage) Ping(ctx context.Context) error { return m.PingErr }

func (m *MockStorage) Close() error { return nil }

func (m *MockStorage) SaveSession(ctx context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.UpdatedAt = time.Now()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = s.UpdatedAt
	}
	copied := *s
	m.sessions[s.ID] = &copied
	return nil
}

func (m *MockStorage) LoadSession(ctx context.Context, id uuid.UUID) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *s
	return &copied, nil
}

func (m *MockStorage) DeleteSession(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(m.sessions, id)
	return nil
}
