package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/awmpietro/algotrace/internal/trace"
)

// InMemory holds at most max traces. When full, the oldest entry is evicted.
// Concurrent misses for the same key share one computation.
type InMemory struct {
	mu    sync.RWMutex
	max   int
	items map[string]*trace.Trace
	order []string
	group singleflight.Group
}

func NewInMemory(max int) *InMemory {
	if max < 1 {
		max = 1
	}
	return &InMemory{
		max:   max,
		items: make(map[string]*trace.Trace, max),
	}
}

// GetOrCompute returns the cached trace for key, or runs fn once across all
// concurrent callers. Errors, including a panic in fn, are not cached.
func (c *InMemory) GetOrCompute(key string, fn func() (*trace.Trace, error)) (*trace.Trace, bool, error) {
	h := Hash(key)

	c.mu.RLock()
	if v, ok := c.items[h]; ok {
		c.mu.RUnlock()
		return v, true, nil
	}
	c.mu.RUnlock()

	v, err, _ := c.group.Do(h, func() (any, error) {
		c.mu.RLock()
		if v, ok := c.items[h]; ok {
			c.mu.RUnlock()
			return v, nil
		}
		c.mu.RUnlock()

		t, err := safeCompute(fn)
		if err != nil {
			return nil, err
		}
		c.put(h, t)
		return t, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.(*trace.Trace), false, nil
}

func (c *InMemory) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *InMemory) put(h string, t *trace.Trace) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items[h]; ok {
		return
	}
	for len(c.items) >= c.max && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.items, oldest)
	}
	c.items[h] = t
	c.order = append(c.order, h)
}

func safeCompute(fn func() (*trace.Trace, error)) (t *trace.Trace, err error) {
	defer func() {
		if r := recover(); r != nil {
			t = nil
			err = fmt.Errorf("trace computation panicked: %v", r)
		}
	}()
	return fn()
}

// Hash is the hex sha256 of s, used as the cache key and the trace ETag.
func Hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
