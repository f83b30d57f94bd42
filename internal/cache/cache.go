// Package cache provides a small TTL cache behind an interface so
// handlers can be tested with a fake and the backing store swapped.
// Cached values are an optimization only; nothing here is a system of
// record.
package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache is the read-through cache the service layers consume.
type Cache interface {
	Get(key string) (any, bool)
	Set(key string, value any, ttl time.Duration)
	Delete(key string)
	Clear()
}

// Memory is an in-process Cache with per-entry expiry and a background
// janitor.
type Memory struct {
	c *gocache.Cache
}

// NewMemory creates a Memory cache. defaultTTL applies when Set is
// called with a zero ttl.
func NewMemory(defaultTTL time.Duration) *Memory {
	return &Memory{c: gocache.New(defaultTTL, 10*time.Minute)}
}

func (m *Memory) Get(key string) (any, bool) {
	return m.c.Get(key)
}

func (m *Memory) Set(key string, value any, ttl time.Duration) {
	if ttl == 0 {
		ttl = gocache.DefaultExpiration
	}
	m.c.Set(key, value, ttl)
}

func (m *Memory) Delete(key string) {
	m.c.Delete(key)
}

func (m *Memory) Clear() {
	m.c.Flush()
}
