package store

import (
	"context"
	"sync"
	"time"

	"github.com/ashureev/briefbot/internal/domain"
)

// MemoryStore is an in-process SessionStore. Sessions are deep-copied on the
// way in and out so callers never share state through it.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
	counters map[string]int64
}

var _ SessionStore = (*MemoryStore)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*domain.Session),
		counters: make(map[string]int64),
	}
}

func (m *MemoryStore) Get(_ context.Context, userID string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	if !ok {
		return nil, nil
	}
	return s.Clone(), nil
}

func (m *MemoryStore) Set(_ context.Context, session *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := session.Clone()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	c.UpdatedAt = time.Now()
	m.sessions[session.UserID] = c
	return nil
}

func (m *MemoryStore) Update(_ context.Context, userID string, patch domain.SessionPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[userID]; ok {
		patch.Apply(s)
	}
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
	return nil
}

func (m *MemoryStore) IncrementCounter(_ context.Context, name string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[name]++
	return m.counters[name], nil
}

func (m *MemoryStore) ListReviewBefore(_ context.Context, cutoff time.Time) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for id, s := range m.sessions {
		if s.Stage == domain.StageReview && s.CompletedAt != nil && s.CompletedAt.Before(cutoff) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }
func (m *MemoryStore) Close() error               { return nil }

// Len returns the number of stored sessions.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
