package board

import (
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/yanizio/pawnboard/internal/metrics"
	"github.com/yanizio/pawnboard/internal/widget"
	"github.com/yanizio/pawnboard/internal/widgetctx"
)

// Static defaults.  Override via conf/global.yaml (board section).
const (
	IdleTTL       = 30 * time.Minute
	MaxEntries    = 500
	EvictInterval = time.Minute
)

// ErrNotFound is returned when a session has no live board or the board
// belongs to another operator.
var ErrNotFound = errors.New("board not found")

// Options tunes the cache and the boards it creates.
type Options struct {
	IdleTTL          time.Duration
	MaxEntries       int
	EvictInterval    time.Duration
	FetchTimeout     time.Duration
	FetchConcurrency int
}

func (o *Options) defaults() {
	if o.IdleTTL <= 0 {
		o.IdleTTL = IdleTTL
	}
	if o.MaxEntries <= 0 {
		o.MaxEntries = MaxEntries
	}
	if o.EvictInterval <= 0 {
		o.EvictInterval = EvictInterval
	}
	if o.FetchConcurrency <= 0 {
		o.FetchConcurrency = 4
	}
}

type entry struct {
	board    *Board
	lastSeen int64 // UnixNano
}

// Cache lazily creates boards, stores them in a sync.Map, and evicts them on
// idle TTL or LRU pressure.
type Cache struct {
	api    widget.Fetcher
	policy atomic.Pointer[widgetctx.Policy]
	opts   Options

	sfg  singleflight.Group
	m    sync.Map
	stop chan struct{}
	once sync.Once
	now  func() time.Time
}

// NewCache constructs a Cache and starts the background evictor.
func NewCache(api widget.Fetcher, policy *widgetctx.Policy, opts Options) *Cache {
	opts.defaults()
	c := &Cache{
		api:  api,
		opts: opts,
		stop: make(chan struct{}),
		now:  time.Now,
	}
	c.policy.Store(policy)
	go c.evictLoop()
	return c
}

// Open returns the board for sessionID, creating it for operatorID on
// first use.  A session owned by another operator yields ErrNotFound; the
// caller should start a fresh session instead.
func (c *Cache) Open(sessionID string, operatorID int64) (*Board, error) {
	if b, err := c.Get(sessionID, operatorID); err == nil {
		return b, nil
	}

	v, err, _ := c.sfg.Do(sessionID, func() (interface{}, error) {
		// Double-check after singleflight barrier.
		if _, ok := c.m.Load(sessionID); ok {
			return c.Get(sessionID, operatorID)
		}

		policy := c.policy.Load()
		b := newBoard(sessionID, operatorID, c.api, policy, c.opts)
		c.m.Store(sessionID, &entry{board: b, lastSeen: c.now().UnixNano()})
		// A SetPolicy that ran between Load and Store missed this board.
		if cur := c.policy.Load(); cur != policy {
			b.Registry.SetPolicy(cur)
		}
		metrics.BoardCreateTotal.Inc()
		metrics.ActiveBoards.Inc()
		zap.L().Info("board created",
			zap.String("session", sessionID),
			zap.Int64("operator", operatorID))
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Board), nil
}

// Get returns the live board for sessionID and marks it recently used.
func (c *Cache) Get(sessionID string, operatorID int64) (*Board, error) {
	v, ok := c.m.Load(sessionID)
	if !ok {
		return nil, ErrNotFound
	}
	ent := v.(*entry)
	if ent.board.OperatorID != operatorID {
		return nil, ErrNotFound
	}
	atomic.StoreInt64(&ent.lastSeen, c.now().UnixNano())
	return ent.board, nil
}

// Drop closes and removes the board for sessionID, if present.
func (c *Cache) Drop(sessionID string) {
	if v, ok := c.m.LoadAndDelete(sessionID); ok {
		v.(*entry).board.Close()
		metrics.ActiveBoards.Dec()
		zap.L().Info("board dropped", zap.String("session", sessionID))
	}
}

// Stats returns one snapshot per live board, most recently used first.
func (c *Cache) Stats() []Snapshot {
	var out []Snapshot
	c.m.Range(func(_, value any) bool {
		ent := value.(*entry)
		seen := time.Unix(0, atomic.LoadInt64(&ent.lastSeen))
		out = append(out, ent.board.snapshot(seen))
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].LastSeen.After(out[j].LastSeen) })
	return out
}

// Policy returns the route policy new boards are created with.
func (c *Cache) Policy() *widgetctx.Policy { return c.policy.Load() }

// SetPolicy swaps the route policy for new and live boards.
func (c *Cache) SetPolicy(p *widgetctx.Policy) {
	c.policy.Store(p)
	n := 0
	c.m.Range(func(_, value any) bool {
		value.(*entry).board.Registry.SetPolicy(p)
		n++
		return true
	})
	zap.L().Info("route policy applied", zap.Int("boards", n))
}

// Len reports how many boards are live.
func (c *Cache) Len() int {
	n := 0
	c.m.Range(func(_, _ any) bool { n++; return true })
	return n
}

// Close stops the evictor and drops every board.
func (c *Cache) Close() {
	c.once.Do(func() { close(c.stop) })
	c.m.Range(func(key, _ any) bool {
		c.Drop(key.(string))
		return true
	})
}
