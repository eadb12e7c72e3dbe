// internal/cache/lru.go
//
// Small LRU with per-entry expiry.  The API client keeps recent backend
// responses and resolved operator profiles here so a burst of widget mounts
// for the same (branch, date) hits the backend once.
//
// Safe for concurrent use.  No external deps; good for a few thousand
// entries.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// LRU is a least-recently-used cache whose entries also expire after ttl.
type LRU struct {
	mu   sync.Mutex
	cap  int
	ttl  time.Duration
	ll   *list.List
	dict map[string]*list.Element
	now  func() time.Time
}

type item struct {
	key string
	val any
	exp time.Time
}

// New returns an LRU with the given capacity and ttl.  ttl <= 0 disables
// expiry.  Panics on capacity < 1.
func New(capacity int, ttl time.Duration) *LRU {
	if capacity < 1 {
		panic("cache: capacity must be ≥1")
	}
	return &LRU{
		cap:  capacity,
		ttl:  ttl,
		ll:   list.New(),
		dict: make(map[string]*list.Element, capacity),
		now:  time.Now,
	}
}

// Get returns a live value and marks it MRU.  Expired entries are dropped.
func (c *LRU) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ele, hit := c.dict[key]
	if !hit {
		return nil, false
	}
	it := ele.Value.(*item)
	if c.ttl > 0 && c.now().After(it.exp) {
		c.ll.Remove(ele)
		delete(c.dict, key)
		return nil, false
	}
	c.ll.MoveToFront(ele)
	return it.val, true
}

// Add inserts or refreshes a value.
func (c *LRU) Add(key string, val any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	exp := c.now().Add(c.ttl)
	if ele, hit := c.dict[key]; hit {
		ele.Value = &item{key: key, val: val, exp: exp}
		c.ll.MoveToFront(ele)
		return
	}
	c.dict[key] = c.ll.PushFront(&item{key: key, val: val, exp: exp})
	if c.ll.Len() > c.cap {
		last := c.ll.Back()
		c.ll.Remove(last)
		delete(c.dict, last.Value.(*item).key)
	}
}

// Remove drops key if present.
func (c *LRU) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ele, hit := c.dict[key]; hit {
		c.ll.Remove(ele)
		delete(c.dict, key)
	}
}

// Len reports current size, expired entries included until touched.
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}
