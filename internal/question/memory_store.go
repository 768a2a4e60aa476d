package question

import (
	"context"
	"sync"
)

// MemoryStore keeps the collection in process memory only.
type MemoryStore struct {
	mu     sync.RWMutex
	coll   collection
	closed bool
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a MemoryStore seeded with items (may be nil).
func NewMemoryStore(items ...Question) (*MemoryStore, error) {
	coll, err := newCollection(append([]Question(nil), items...))
	if err != nil {
		return nil, err
	}
	return &MemoryStore{coll: coll}, nil
}

func (m *MemoryStore) List(_ context.Context) ([]Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrStoreClosed
	}
	return m.coll.list(), nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return Question{}, ErrStoreClosed
	}
	q, ok := m.coll.get(id)
	if !ok {
		return Question{}, ErrNotFound
	}
	return q, nil
}

func (m *MemoryStore) Insert(_ context.Context, q Question) (Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return Question{}, ErrStoreClosed
	}
	next, err := m.coll.insert(q)
	if err != nil {
		return Question{}, err
	}
	m.coll = next
	return q.clone(), nil
}

func (m *MemoryStore) Replace(_ context.Context, q Question) (Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return Question{}, ErrStoreClosed
	}
	next, stored, err := m.coll.replace(q)
	if err != nil {
		return Question{}, err
	}
	m.coll = next
	return stored.clone(), nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrStoreClosed
	}
	next, err := m.coll.remove(id)
	if err != nil {
		return err
	}
	m.coll = next
	return nil
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
