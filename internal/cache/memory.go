package cache

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"
)

type memoryEntry struct {
	data      []byte
	vec       []float32
	expiresAt time.Time
}

// Memory is an in-process Cache with per-entry TTL. Suitable for tests and
// single-process deployments without a Redis.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemory creates an empty in-memory cache.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]memoryEntry), now: time.Now}
}

func (m *Memory) get(key string) (memoryEntry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return memoryEntry{}, false
	}
	if !e.expiresAt.IsZero() && m.now().After(e.expiresAt) {
		delete(m.entries, key)
		return memoryEntry{}, false
	}
	return e, true
}

func (m *Memory) set(key string, e memoryEntry, ttl time.Duration) {
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
}

func (m *Memory) GetJSON(_ context.Context, key string, v any) bool {
	e, ok := m.get(key)
	if !ok || e.data == nil {
		return false
	}
	if err := json.Unmarshal(e.data, v); err != nil {
		log.Printf("cache: discarding unreadable entry %s: %v", key, err)
		return false
	}
	return true
}

func (m *Memory) SetJSON(_ context.Context, key string, v any, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("cache: not storing %s: %v", key, err)
		return
	}
	m.set(key, memoryEntry{data: data}, ttl)
}

func (m *Memory) GetVector(_ context.Context, key string) ([]float32, bool) {
	e, ok := m.get(key)
	if !ok || e.vec == nil {
		return nil, false
	}
	out := make([]float32, len(e.vec))
	copy(out, e.vec)
	return out, true
}

func (m *Memory) SetVector(_ context.Context, key string, vec []float32, ttl time.Duration) {
	stored := make([]float32, len(vec))
	copy(stored, vec)
	m.set(key, memoryEntry{vec: stored}, ttl)
}
