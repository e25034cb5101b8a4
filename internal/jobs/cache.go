package jobs

import (
	"container/list"
	"sync"
)

// planCache is a thread-safe LRU cache of built jobs keyed by document fingerprint.
type planCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]*list.Element
	order    *list.List
}

type planEntry struct {
	fingerprint string
	job         *Job
}

func newPlanCache(capacity int) *planCache {
	if capacity <= 0 {
		capacity = 1
	}
	return &planCache{
		capacity: capacity,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
	}
}

// Get returns a copy of the cached job, or nil.
func (c *planCache) Get(fingerprint string) *Job {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, exists := c.entries[fingerprint]
	if !exists {
		return nil
	}

	// Move to front (most recently used)
	c.order.MoveToFront(elem)
	return elem.Value.(*planEntry).job.clone()
}

// Put adds a job, evicting the least recently used entry if full.
func (c *planCache) Put(job *Job) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, exists := c.entries[job.Fingerprint]; exists {
		c.order.MoveToFront(elem)
		elem.Value.(*planEntry).job = job.clone()
		return
	}

	if c.order.Len() >= c.capacity {
		if oldest := c.order.Back(); oldest != nil {
			delete(c.entries, oldest.Value.(*planEntry).fingerprint)
			c.order.Remove(oldest)
		}
	}

	elem := c.order.PushFront(&planEntry{fingerprint: job.Fingerprint, job: job.clone()})
	c.entries[job.Fingerprint] = elem
}

// Len returns the number of cached jobs.
func (c *planCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
