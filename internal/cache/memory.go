package cache

import (
	"context"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

const shardCount = 16

type entry[T any] struct {
	value    T
	storedAt time.Time
}

type shard[T any] struct {
	mu      sync.RWMutex
	entries map[string]entry[T]
}

// Memory is an in-process cache split into independently locked shards.
// Stale entries are removed when a lookup finds them; nothing runs in the
// background.
type Memory[T any] struct {
	shards [shardCount]*shard[T]
	ttl    time.Duration
	now    Clock
}

// MemoryOption configures a Memory cache.
type MemoryOption func(*memoryOptions)

type memoryOptions struct {
	ttl time.Duration
	now Clock
}

// WithTTL overrides the default TTL.
func WithTTL(ttl time.Duration) MemoryOption {
	return func(o *memoryOptions) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

// WithClock sets the time source.
func WithClock(now Clock) MemoryOption {
	return func(o *memoryOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// NewMemory creates an empty in-process cache.
func NewMemory[T any](opts ...MemoryOption) *Memory[T] {
	o := memoryOptions{ttl: TTL, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	m := &Memory[T]{ttl: o.ttl, now: o.now}
	for i := range m.shards {
		m.shards[i] = &shard[T]{entries: make(map[string]entry[T])}
	}
	return m
}

func (m *Memory[T]) shardFor(key string) *shard[T] {
	return m.shards[xxhash.Sum64String(key)%shardCount]
}

// Get returns the value stored for title and city if it is younger than the TTL.
func (m *Memory[T]) Get(_ context.Context, title, city string) (T, bool) {
	key := Key(title, city)
	s := m.shardFor(key)

	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()

	var zero T
	if !ok {
		return zero, false
	}
	if m.now().Sub(e.storedAt) < m.ttl {
		return e.value, true
	}

	s.mu.Lock()
	// A concurrent Put may have refreshed the entry since the read.
	if cur, ok := s.entries[key]; ok && m.now().Sub(cur.storedAt) >= m.ttl {
		delete(s.entries, key)
	}
	s.mu.Unlock()
	return zero, false
}

// Put stores value for title and city, replacing any previous entry.
func (m *Memory[T]) Put(_ context.Context, title, city string, value T) {
	key := Key(title, city)
	s := m.shardFor(key)

	s.mu.Lock()
	s.entries[key] = entry[T]{value: value, storedAt: m.now()}
	s.mu.Unlock()
}

// Len returns the number of stored entries, stale ones included.
func (m *Memory[T]) Len() int {
	n := 0
	for _, s := range m.shards {
		s.mu.RLock()
		n += len(s.entries)
		s.mu.RUnlock()
	}
	return n
}
