// internal/widgetctx/binding.go
//
// Per-widget binding that keeps one registry key in step with what the
// widget displays.
//
// Lifecycle
// ---------
//
//	b := widgetctx.Bind(reg, "gold-price", "ราคาทอง", "Current buy/sell price")
//	b.Depend(filter)           // inputs changed → entry dropped while refetching
//	b.Sync(payload)            // non-nil → register, nil → unregister
//	b.Close()                  // widget unmounted → unregister, later Syncs ignored
//
// A widget that is fetching, erroring, or has nothing to show therefore
// contributes no entry.  Only successful, non-null data is visible.
package widgetctx

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sync"
)

// ErrInvalidPayload is returned by Sync when []byte or json.RawMessage data
// is not valid JSON.
var ErrInvalidPayload = errors.New("widget payload is not valid JSON")

// Binding owns writes to a single registry ID.
type Binding struct {
	reg         *Registry
	id          string
	name        string
	description string

	mu     sync.Mutex
	deps   []any
	closed bool
}

// Bind returns a Binding for id.  Nothing is registered until Sync.
func Bind(reg *Registry, id, name, description string) *Binding {
	return &Binding{reg: reg, id: id, name: name, description: description}
}

// ID returns the registry key this binding writes.
func (b *Binding) ID() string { return b.id }

// Depend records the current dependencies.  When they differ from the last
// call the entry is removed immediately and changed is true.
func (b *Binding) Depend(deps ...any) (changed bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return false
	}
	cur := append([]any{}, deps...)
	if b.deps == nil {
		b.deps = cur
		return false
	}
	if reflect.DeepEqual(b.deps, cur) {
		return false
	}
	b.deps = cur
	b.reg.Unregister(b.id)
	return true
}

// Sync publishes data.  The previous entry is always cleaned up first; a
// non-null payload is then registered with a fresh timestamp.  Sync after
// Close is a no-op so late fetch results never resurrect an entry.
func (b *Binding) Sync(data any) error {
	raw, err := encode(data)

	b.mu.Lock()
	defer b.mu.Unlock()
	return b.syncLocked(raw, err)
}

// SyncFor is Sync for a result fetched under deps.  Results for
// dependencies that are no longer current are dropped and applied is false.
// The dependency check and the write happen under one lock, so a Depend
// that lands while data is being encoded wins.
func (b *Binding) SyncFor(deps []any, data any) (applied bool, err error) {
	raw, encErr := encode(data)

	b.mu.Lock()
	defer b.mu.Unlock()
	if !reflect.DeepEqual(b.deps, append([]any{}, deps...)) {
		return false, nil
	}
	return true, b.syncLocked(raw, encErr)
}

// Describe replaces the name and description used by later writes.
func (b *Binding) Describe(name, description string) {
	b.mu.Lock()
	b.name, b.description = name, description
	b.mu.Unlock()
}

// syncLocked writes raw, or only cleans up when encErr is set or raw is
// null.  b.mu must be held.
func (b *Binding) syncLocked(raw json.RawMessage, encErr error) error {
	if b.closed {
		return nil
	}
	b.reg.Unregister(b.id)
	if encErr != nil {
		return fmt.Errorf("widget %s: %w", b.id, encErr)
	}
	if isNull(raw) {
		return nil
	}
	b.reg.Register(Entry{
		ID:          b.id,
		Name:        b.name,
		Description: b.description,
		Data:        raw,
	})
	return nil
}

// Close unregisters the entry and detaches the binding.  Close is
// idempotent.
func (b *Binding) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	b.reg.Unregister(b.id)
}

// encode turns a widget payload into raw JSON.  nil, typed nil pointers,
// and JSON null all encode to nil.
func encode(data any) (json.RawMessage, error) {
	switch v := data.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		return validRaw(v)
	case []byte:
		return validRaw(v)
	}

	rv := reflect.ValueOf(data)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		if rv.IsNil() {
			return nil, nil
		}
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return raw, nil
}

func validRaw(b []byte) (json.RawMessage, error) {
	if isNull(b) {
		return nil, nil
	}
	if !json.Valid(b) {
		return nil, ErrInvalidPayload
	}
	return json.RawMessage(b), nil
}
