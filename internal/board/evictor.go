// evictor.go houses the eviction loop for Cache.  Every EvictInterval it
// scans the map and removes:
//
//   - boards idle longer than idleTTL
//   - least-recently-used boards when map size exceeds maxEntries
//
// Each eviction closes the board's bindings, is logged, and updates
// Prometheus counters.
package board

import (
	"sort"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/pawnboard/internal/metrics"
)

func (c *Cache) evictLoop() {
	t := time.NewTicker(c.opts.EvictInterval)
	defer t.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-t.C:
			c.evictOnce()
		}
	}
}

func (c *Cache) evictOnce() {
	now := c.now().UnixNano()
	var count int

	// ----------------------------------------------------------------
	// Idle eviction pass
	// ----------------------------------------------------------------
	c.m.Range(func(key, value any) bool {
		ent := value.(*entry)
		idle := time.Duration(now - atomic.LoadInt64(&ent.lastSeen))
		if idle > c.opts.IdleTTL {
			if c.m.CompareAndDelete(key, value) {
				ent.board.Close()
				zap.L().Info("board evicted",
					zap.Any("session", key),
					zap.Duration("idle", idle.Truncate(time.Second)))
				metrics.BoardEvictTotal.WithLabelValues("idle").Inc()
				metrics.ActiveBoards.Dec()
			}
			return true
		}
		count++
		return true
	})

	// ----------------------------------------------------------------
	// LRU eviction pass
	// ----------------------------------------------------------------
	if c.opts.MaxEntries <= 0 || count <= c.opts.MaxEntries {
		return
	}
	type kv struct {
		key string
		at  int64
		ent *entry
	}
	var all []kv
	c.m.Range(func(key, value any) bool {
		ent := value.(*entry)
		all = append(all, kv{key: key.(string), at: atomic.LoadInt64(&ent.lastSeen), ent: ent})
		return true
	})
	sort.Slice(all, func(i, j int) bool { return all[i].at < all[j].at })
	for i := 0; i < len(all)-c.opts.MaxEntries; i++ {
		if c.m.CompareAndDelete(all[i].key, all[i].ent) {
			all[i].ent.board.Close()
			zap.L().Info("board evicted (LRU pressure)", zap.String("session", all[i].key))
			metrics.BoardEvictTotal.WithLabelValues("lru").Inc()
			metrics.ActiveBoards.Dec()
		}
	}
}
