package session

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	data      Context
	expiresAt time.Time
}

// MemoryStore is a process-local Store with the same versioning rules as
// the Redis driver.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	nowFunc func() time.Time
}

// NewMemoryStore returns an empty store. now may be nil.
func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{entries: map[string]memoryEntry{}, nowFunc: now}
}

func (s *MemoryStore) live(id string) (memoryEntry, bool) {
	e, ok := s.entries[id]
	if !ok {
		return memoryEntry{}, false
	}
	if !e.expiresAt.IsZero() && !s.nowFunc().Before(e.expiresAt) {
		delete(s.entries, id)
		return memoryEntry{}, false
	}
	return e, true
}

func (s *MemoryStore) expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return s.nowFunc().Add(ttl)
}

// Get returns nil when the session is absent or expired.
func (s *MemoryStore) Get(ctx context.Context, id string) (*Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(id)
	if !ok {
		return nil, nil
	}
	c := e.data
	return &c, nil
}

// Create stores c at version 1. It fails with ErrVersionConflict if a live session exists.
func (s *MemoryStore) Create(ctx context.Context, c *Context, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.live(c.ID); ok {
		return ErrVersionConflict
	}
	c.Version = 1
	s.entries[c.ID] = memoryEntry{data: *c, expiresAt: s.expiry(ttl)}
	return nil
}

// Update writes c if its version matches the stored one, then bumps the version.
func (s *MemoryStore) Update(ctx context.Context, c *Context, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(c.ID)
	if !ok {
		return ErrNotFound
	}
	if e.data.Version != c.Version {
		return ErrVersionConflict
	}
	c.Version++
	s.entries[c.ID] = memoryEntry{data: *c, expiresAt: s.expiry(ttl)}
	return nil
}

// Delete removes a session.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}
