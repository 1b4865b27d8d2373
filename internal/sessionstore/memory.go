package sessionstore

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	value   string
	expires time.Time
}

type MemoryStore struct {
	mu   sync.Mutex
	data map[string]entry
	now  func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]entry), now: time.Now}
}

func memKey(sid, key string) string {
	return sid + "\x00" + key
}

func (m *MemoryStore) Set(_ context.Context, sid, key, value string, ttl time.Duration) error {
	e := entry{value: value}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}

	m.mu.Lock()
	m.data[memKey(sid, key)] = e
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Get(_ context.Context, sid, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lookupLocked(memKey(sid, key))
}

func (m *MemoryStore) Take(_ context.Context, sid, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := memKey(sid, key)
	v, err := m.lookupLocked(k)
	delete(m.data, k)
	return v, err
}

func (m *MemoryStore) lookupLocked(k string) (string, error) {
	e, ok := m.data[k]
	if !ok {
		return "", ErrNotFound
	}
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		delete(m.data, k)
		return "", ErrNotFound
	}
	return e.value, nil
}
