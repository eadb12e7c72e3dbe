// internal/widgetctx/registry.go
//
// Widget context registry.
//
// Context
// -------
// Every mounted data widget publishes the payload it is currently showing
// into a Registry so the context picker can answer "what is on screen right
// now".  A Registry belongs to exactly one operator board; there is no
// package-level instance and nothing is persisted.
//
//	reg := widgetctx.New(policy)
//	reg.Register(widgetctx.Entry{ID: "gold-price", Name: "ราคาทอง", Data: raw})
//	reg.ForRoute("/dashboard")   // entries allowed on the dashboard
//
// Invariants
// ----------
//   - At most one entry per ID.  Register overwrites, last write wins.
//   - Entries whose Data is empty or JSON null are never returned by Get,
//     All, or ForRoute, even while the key is still held internally.
//   - Timestamp is stamped by the registry at write time.
//
// Notes
// -----
//   - Writes are partitioned by ID (one Binding per widget), so the mutex
//     only protects the map itself.
//   - Subscribers run synchronously after the lock is released.
//   - Oxford commas, two spaces after periods.
package widgetctx

import (
	"bytes"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Entry is one widget's most recently rendered payload.  Data is an opaque
// JSON document whose shape is owned by the widget that writes it.
type Entry struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Data        json.RawMessage `json:"data"`
	Timestamp   time.Time       `json:"timestamp"`
}

// HasData reports whether the entry carries a non-null payload.
func (e Entry) HasData() bool { return !isNull(e.Data) }

// Op names a registry mutation for subscribers.
type Op string

const (
	OpRegister   Op = "register"
	OpUnregister Op = "unregister"
)

// Event is delivered to subscribers after every effective mutation.
type Event struct {
	Op Op
	ID string
}

// Registry maps widget ID to its latest Entry.  Zero value is unusable;
// construct with New.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
	policy  *Policy
	now     func() time.Time

	subMu   sync.Mutex
	subs    map[int]func(Event)
	nextSub int
}

// New returns an empty Registry scoped by policy.  A nil policy treats every
// route as unknown, so ForRoute behaves like All.
func New(policy *Policy) *Registry {
	return &Registry{
		entries: make(map[string]Entry),
		policy:  policy,
		now:     time.Now,
		subs:    make(map[int]func(Event)),
	}
}

/*──────────────────────────── writes ───────────────────────────────────────*/

// Register inserts or replaces the entry for e.ID and stamps its Timestamp.
// An empty ID is ignored.
func (r *Registry) Register(e Entry) {
	if e.ID == "" {
		zap.L().Debug("widget context register without id ignored")
		return
	}
	e.Data = cloneRaw(e.Data)
	e.Timestamp = r.now()

	r.mu.Lock()
	r.entries[e.ID] = e
	r.mu.Unlock()

	r.publish(Event{Op: OpRegister, ID: e.ID})
}

// Unregister removes the entry for id.  Removing a missing id is a no-op and
// publishes nothing.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	_, ok := r.entries[id]
	if ok {
		delete(r.entries, id)
	}
	r.mu.Unlock()

	if ok {
		r.publish(Event{Op: OpUnregister, ID: id})
	}
}

/*──────────────────────────── reads ────────────────────────────────────────*/

// Get returns the entry for id.  ok is false when the id is absent or its
// payload is null.
func (r *Registry) Get(id string) (Entry, bool) {
	r.mu.RLock()
	e, ok := r.entries[id]
	r.mu.RUnlock()
	if !ok || !e.HasData() {
		return Entry{}, false
	}
	return copyEntry(e), true
}

// All returns a snapshot of every exposed entry.  Callers must not depend
// on the order; it is sorted by ID only to keep responses stable.
func (r *Registry) All() []Entry {
	return r.collect(func(string) bool { return true })
}

// ForRoute returns the entries of All whose ID is allowed for route.  When
// the route matches no configured prefix the policy decides: permissive
// policies return everything, strict ones return nothing.
func (r *Registry) ForRoute(route string) []Entry {
	policy := r.Policy()
	allowed, known := policy.Allowed(route)
	if !known {
		if policy.Strict() {
			return []Entry{}
		}
		return r.All()
	}
	return r.collect(func(id string) bool {
		_, ok := allowed[id]
		return ok
	})
}

// Policy returns the route policy in force.
func (r *Registry) Policy() *Policy {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.policy
}

// SetPolicy swaps the route policy.  Entries are untouched; only later
// ForRoute calls see the new table.
func (r *Registry) SetPolicy(p *Policy) {
	r.mu.Lock()
	r.policy = p
	r.mu.Unlock()
}

// Len reports how many entries are currently exposed.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, e := range r.entries {
		if e.HasData() {
			n++
		}
	}
	return n
}

func (r *Registry) collect(keep func(id string) bool) []Entry {
	r.mu.RLock()
	out := make([]Entry, 0, len(r.entries))
	for id, e := range r.entries {
		if e.HasData() && keep(id) {
			out = append(out, copyEntry(e))
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

/*──────────────────────────── subscribers ──────────────────────────────────*/

// Subscribe registers fn for every effective mutation and returns a cancel
// func.  fn must not call back into Subscribe.
func (r *Registry) Subscribe(fn func(Event)) (cancel func()) {
	r.subMu.Lock()
	id := r.nextSub
	r.nextSub++
	r.subs[id] = fn
	r.subMu.Unlock()

	return func() {
		r.subMu.Lock()
		delete(r.subs, id)
		r.subMu.Unlock()
	}
}

func (r *Registry) publish(ev Event) {
	r.subMu.Lock()
	fns := make([]func(Event), 0, len(r.subs))
	for _, fn := range r.subs {
		fns = append(fns, fn)
	}
	r.subMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

/*──────────────────────────── helpers ──────────────────────────────────────*/

// isNull treats a missing payload and a literal JSON null alike.
func isNull(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

func cloneRaw(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}
	out := make(json.RawMessage, len(raw))
	copy(out, raw)
	return out
}

func copyEntry(e Entry) Entry {
	e.Data = cloneRaw(e.Data)
	return e
}
