package cache

import (
	"context"
	"sync"
	"time"

	"github.com/erp/bulkship/internal/domain/shipment"
)

const cleanupInterval = 5 * time.Minute

// entry is a stored value with its expiration
type entry struct {
	value     []byte
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// store is the expiring map shared by the in-memory implementations
type store struct {
	mu        sync.RWMutex
	entries   map[string]entry
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

func newStore() *store {
	s := &store{
		entries:  make(map[string]entry),
		stopChan: make(chan struct{}),
	}
	s.wg.Add(1)
	go s.cleanupLoop()
	return s
}

func (s *store) get(key string) (entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[key]
	if !ok || e.expired(time.Now()) {
		return entry{}, false
	}
	return e, true
}

func expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return time.Now().Add(ttl)
}

// Close stops the cleanup goroutine. Safe to call multiple times
func (s *store) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

// Size returns the number of entries, expired ones included
func (s *store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *store) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *store) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for key, e := range s.entries {
		if e.expired(now) {
			delete(s.entries, key)
		}
	}
}

// InMemoryIdempotencyStore implements IdempotencyStore using an in-memory map.
// Claims are local to the process.
type InMemoryIdempotencyStore struct {
	*store
}

// NewInMemoryIdempotencyStore creates a new in-memory idempotency store
func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	return &InMemoryIdempotencyStore{store: newStore()}
}

// MarkProcessed claims key with a TTL. A non-positive TTL never expires
func (s *InMemoryIdempotencyStore) MarkProcessed(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, exists := s.entries[key]; exists && !e.expired(time.Now()) {
		return false, nil
	}
	s.entries[key] = entry{expiresAt: expiry(ttl)}
	return true, nil
}

// IsProcessed checks if key is claimed
func (s *InMemoryIdempotencyStore) IsProcessed(_ context.Context, key string) (bool, error) {
	_, ok := s.get(key)
	return ok, nil
}

// Release drops the claim on key
func (s *InMemoryIdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// InMemoryMemoStore implements MemoStore using an in-memory map
type InMemoryMemoStore struct {
	*store
}

// NewInMemoryMemoStore creates a new in-memory memo store
func NewInMemoryMemoStore() *InMemoryMemoStore {
	return &InMemoryMemoStore{store: newStore()}
}

// Get returns a copy of the cached value
func (s *InMemoryMemoStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	e, ok := s.get(key)
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), e.value...), true, nil
}

// Set stores a copy of value
func (s *InMemoryMemoStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry{value: append([]byte(nil), value...), expiresAt: expiry(ttl)}
	return nil
}

var (
	_ shipment.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
	_ shipment.MemoStore        = (*InMemoryMemoStore)(nil)
)
