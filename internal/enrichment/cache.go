package enrichment

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// cache remembers the category of every product name resolved during one
// run. Unknown answers are cached like any other. A cache is never shared
// between runs.
type cache struct {
	mu      sync.RWMutex
	entries map[string]string
	group   singleflight.Group
	fetches int
}

func newCache() *cache {
	return &cache{entries: make(map[string]string)}
}

func (c *cache) get(name string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	category, ok := c.entries[name]
	return category, ok
}

func (c *cache) set(name, category string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[name] = category
	c.fetches++
}

// resolve returns the cached category for name, calling fetch on a miss.
// Concurrent misses for the same name share one fetch, so fetch runs at most
// once per distinct name.
func (c *cache) resolve(ctx context.Context, name string, fetch func(context.Context) (string, error)) (string, error) {
	if category, ok := c.get(name); ok {
		return category, nil
	}

	v, err, _ := c.group.Do(name, func() (any, error) {
		// A caller that lost the race may arrive after the winner stored
		// the answer and left the group.
		if category, ok := c.get(name); ok {
			return category, nil
		}
		category, err := fetch(ctx)
		if err != nil {
			return "", err
		}
		c.set(name, category)
		return category, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// size returns the number of distinct names resolved.
func (c *cache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// lookups returns how many times fetch actually ran to completion.
func (c *cache) lookups() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fetches
}
