package cache

import (
	"context"
	"sync"
	"time"
)

// TextCache stores short rendered strings under a key with a time to live.
type TextCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
}

type NoopTextCache struct{}

func (NoopTextCache) Get(_ context.Context, _ string) (string, bool, error) {
	return "", false, nil
}

func (NoopTextCache) Set(_ context.Context, _ string, _ string, _ time.Duration) error {
	return nil
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryTextCache is a process-local TextCache. Expired entries are dropped
// lazily on read and on every Set.
type MemoryTextCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryTextCache() *MemoryTextCache {
	return &MemoryTextCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (c *MemoryTextCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return "", false, nil
	}
	if !c.now().Before(entry.expiresAt) {
		delete(c.entries, key)
		return "", false, nil
	}
	return entry.value, true, nil
}

func (c *MemoryTextCache) Set(_ context.Context, key string, value string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, entry := range c.entries {
		if !now.Before(entry.expiresAt) {
			delete(c.entries, k)
		}
	}
	c.entries[key] = memoryEntry{value: value, expiresAt: now.Add(ttl)}
	return nil
}

func (c *MemoryTextCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
