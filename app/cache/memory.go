package cache

import (
	"context"
	"sync"
	"time"
)

var _ Store = (*Memory)(nil)

type entry struct {
	value     []byte
	expiresAt time.Time
}

// Memory is an in-process Store with per-entry TTL. Entries expire lazily on
// read; an optional janitor sweeps expired entries in the background so
// abandoned keys do not accumulate.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time

	janitorOnce sync.Once
	janitorDone chan struct{}
}

func NewMemory() *Memory {
	return NewMemoryWithClock(time.Now)
}

// NewMemoryWithClock injects the time source, so TTL expiry is testable
// without sleeping.
func NewMemoryWithClock(now func() time.Time) *Memory {
	return &Memory{
		entries:     make(map[string]entry),
		now:         now,
		janitorDone: make(chan struct{}),
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if m.expired(e) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return nil, false, nil
	}
	return e.value, true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := entry{value: value}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}

	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
	return nil
}

func (m *Memory) Has(ctx context.Context, key string) (bool, error) {
	_, ok, err := m.Get(ctx, key)
	return ok, err
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

func (m *Memory) FlushAll(_ context.Context) error {
	m.mu.Lock()
	m.entries = make(map[string]entry)
	m.mu.Unlock()
	return nil
}

// StartJanitor launches the background sweep of expired entries. Safe to call
// at most once; Stop halts it.
func (m *Memory) StartJanitor(interval time.Duration) {
	m.janitorOnce.Do(func() {
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			for {
				select {
				case <-m.janitorDone:
					return
				case <-ticker.C:
					m.sweep()
				}
			}
		}()
	})
}

func (m *Memory) Stop() {
	select {
	case <-m.janitorDone:
	default:
		close(m.janitorDone)
	}
}

func (m *Memory) sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, e := range m.entries {
		if m.expired(e) {
			delete(m.entries, key)
		}
	}
}

func (m *Memory) expired(e entry) bool {
	return !e.expiresAt.IsZero() && m.now().After(e.expiresAt)
}
