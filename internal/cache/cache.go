package cache

import (
	"context"
	"time"
)

// Cache is a best-effort TTL key-value store. Every method degrades to a miss
// or a no-op on backend failure; callers never fail a request because the
// cache is down. Implementations log their own errors.
type Cache interface {
	// GetJSON loads and unmarshals the value at key into v, reporting a hit.
	GetJSON(ctx context.Context, key string, v any) bool

	// SetJSON marshals v and stores it at key with the given TTL.
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration)

	// GetVector loads a float32 vector stored at key.
	GetVector(ctx context.Context, key string) ([]float32, bool)

	// SetVector stores a float32 vector at key with the given TTL.
	SetVector(ctx context.Context, key string, vec []float32, ttl time.Duration)
}

// Noop is a Cache that never hits. Used when caching is disabled.
type Noop struct{}

func (Noop) GetJSON(context.Context, string, any) bool                   { return false }
func (Noop) SetJSON(context.Context, string, any, time.Duration)         {}
func (Noop) GetVector(context.Context, string) ([]float32, bool)         { return nil, false }
func (Noop) SetVector(context.Context, string, []float32, time.Duration) {}
