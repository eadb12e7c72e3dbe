// internal/widget/registry.go
//
// Widget catalogue and lookup helpers.
//
// A **Widget** is a self-contained data element (chart, table, summary
// card) shown on one dashboard page.  Each concrete widget lives under its
// Component folder (`components/<comp>/widgets/<name>.go`) and registers
// itself by calling `widget.Register(...)` in an init() func.
//
// The registration key is the widget's stable ID, e.g. "gold-price".  The
// same ID is the key the widget writes into an operator's context registry,
// so it must be unique across the catalogue.
//
// Widgets only describe how to fetch; mounting, binding, and error
// handling belong to internal/board.
package widget

import (
	"context"
	"encoding/json"
	"net/url"
	"sort"
	"sync"

	"github.com/yanizio/pawnboard/internal/filter"
)

// Fetcher is the slice of the backend client widgets need.
type Fetcher interface {
	Get(ctx context.Context, path string, query url.Values) (json.RawMessage, error)
}

// Widget describes one data widget.  Fetch returns the payload the widget
// displays; nil means "nothing to show".  Fetch MUST be concurrency-safe.
type Widget interface {
	ID() string
	Name() string
	Description() string
	Page() string
	Fetch(ctx context.Context, api Fetcher, f filter.Filter) (any, error)
}

var (
	mu       sync.RWMutex
	registry = map[string]Widget{}
)

// Register a widget during init().  A duplicate ID overwrites the earlier
// entry.
func Register(w Widget) {
	mu.Lock()
	registry[w.ID()] = w
	mu.Unlock()
}

// Lookup returns the widget or nil.
func Lookup(id string) Widget {
	mu.RLock()
	defer mu.RUnlock()
	return registry[id]
}

// All returns every widget sorted by ID.
func All() []Widget {
	return collect(func(Widget) bool { return true })
}

// ForPage returns the widgets shown on page, sorted by ID.
func ForPage(page string) []Widget {
	return collect(func(w Widget) bool { return w.Page() == page })
}

// Pages lists every page that has at least one widget.
func Pages() []string {
	seen := map[string]struct{}{}
	for _, w := range All() {
		seen[w.Page()] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func collect(keep func(Widget) bool) []Widget {
	mu.RLock()
	out := make([]Widget, 0, len(registry))
	for _, w := range registry {
		if keep(w) {
			out = append(out, w)
		}
	}
	mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}
