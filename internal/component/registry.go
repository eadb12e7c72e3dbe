// internal/component/registry.go
//
// Component registry (cycle-free).
//
// Each concrete component lives under components/<name> and calls
// component.Register() in an init() function.  cmd/web imports the
// components for their side effects, calls Init(env) on each, and mounts
// every component's Routes() on the authenticated API router.

package component

import (
	"sort"
	"sync"

	"github.com/go-chi/chi/v5"
)

// Component contract.
//
// Routes() adds API endpoints to the shared authenticated router, e.g:
//
//	func (c *Comp) Routes(r chi.Router) {
//	    r.Get("/api/context", c.list)
//	}
//
// Components share one router, so paths must not collide.
// Init receives shared runtime services once, before Routes is called.
type Component interface {
	Name() string
	Init(Env) error
	Routes(r chi.Router)
}

var (
	mu       sync.RWMutex
	registry = map[string]Component{}
)

// Register is invoked from component init() functions.
func Register(c Component) {
	mu.Lock()
	registry[c.Name()] = c
	mu.Unlock()
}

// All returns every registered component sorted by name.
func All() []Component {
	mu.RLock()
	out := make([]Component, 0, len(registry))
	for _, c := range registry {
		out = append(out, c)
	}
	mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}
