// internal/board/board.go
//
// Operator board: one browser session's mounted pages and the widget
// context registry they feed.
//
// Context
// -------
// A Board aggregates everything the context picker needs for one operator
// session: its own widgetctx.Registry, plus one widgetctx.Binding per
// mounted widget.  The cache (cache.go) creates boards lazily and evicts
// idle ones.
//
// Workflow
// --------
//  1. Mount(page, filter) looks up the page's widgets in internal/widget.
//  2. Each binding records the filter as its dependency.  A changed filter
//     drops the old entry immediately.
//  3. Widgets fetch concurrently (errgroup, bounded).  A success registers
//     the payload, an error or empty payload removes the entry.  Results
//     for a filter that was superseded mid-flight are discarded.
//  4. Unmount(page) closes the page's bindings.
//
// Notes
// -----
//   - Fetch errors never fail a Mount; they are logged, counted, and
//     reported per widget.
//   - Oxford commas, two spaces after periods.
package board

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yanizio/pawnboard/internal/filter"
	"github.com/yanizio/pawnboard/internal/metrics"
	"github.com/yanizio/pawnboard/internal/requestinfo"
	"github.com/yanizio/pawnboard/internal/widget"
	"github.com/yanizio/pawnboard/internal/widgetctx"
)

// ErrUnknownPage is returned by Mount and Unmount for a page without
// widgets.
var ErrUnknownPage = errors.New("unknown page")

// ErrServerWidget is returned when a client tries to write an ID owned by
// a catalogue widget.
var ErrServerWidget = errors.New("id belongs to a server widget")

// ErrSuperseded marks a widget result dropped because the page filter
// changed while it was in flight.
var ErrSuperseded = errors.New("superseded by a newer filter")

// Result is one widget's outcome from Mount.
type Result struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Data        json.RawMessage `json:"data,omitempty"`
	Error       string          `json:"error,omitempty"`
}

// Board is safe for concurrent use.
type Board struct {
	SessionID  string
	OperatorID int64
	Registry   *widgetctx.Registry

	api          widget.Fetcher
	fetchTimeout time.Duration
	limit        int

	mu       sync.Mutex
	bindings map[string]*widgetctx.Binding
	pages    map[string]filter.Filter
	client   *requestinfo.Info
	unsub    func()
}

func newBoard(sessionID string, operatorID int64, api widget.Fetcher, policy *widgetctx.Policy, opts Options) *Board {
	reg := widgetctx.New(policy)
	b := &Board{
		SessionID:    sessionID,
		OperatorID:   operatorID,
		Registry:     reg,
		api:          api,
		fetchTimeout: opts.FetchTimeout,
		limit:        opts.FetchConcurrency,
		bindings:     make(map[string]*widgetctx.Binding),
		pages:        make(map[string]filter.Filter),
	}
	b.unsub = reg.Subscribe(func(ev widgetctx.Event) {
		metrics.ContextOpsTotal.WithLabelValues(string(ev.Op)).Inc()
	})
	return b
}

// Mount fetches every widget of page for f and synchronises the registry.
func (b *Board) Mount(ctx context.Context, page string, f filter.Filter) ([]Result, error) {
	ws := widget.ForPage(page)
	if len(ws) == 0 {
		return nil, ErrUnknownPage
	}

	deps := []any{f}
	binds := make([]*widgetctx.Binding, len(ws))
	b.mu.Lock()
	b.pages[page] = f
	for i, w := range ws {
		binds[i] = b.bindingLocked(w)
		binds[i].Depend(deps...)
	}
	b.mu.Unlock()

	results := make([]Result, len(ws))
	var g errgroup.Group
	if b.limit > 0 {
		g.SetLimit(b.limit)
	}
	for i, w := range ws {
		g.Go(func() error {
			results[i] = b.run(ctx, w, binds[i], deps, f)
			return nil
		})
	}
	_ = g.Wait()

	zap.L().Debug("page mounted",
		zap.String("session", b.SessionID),
		zap.String("page", page),
		zap.Stringer("filter", f),
		zap.Int("widgets", len(ws)))
	return results, nil
}

// run fetches one widget and feeds its binding.
func (b *Board) run(ctx context.Context, w widget.Widget, bind *widgetctx.Binding, deps []any, f filter.Filter) Result {
	res := Result{ID: w.ID(), Name: w.Name(), Description: w.Description()}

	fctx := ctx
	if b.fetchTimeout > 0 {
		var cancel context.CancelFunc
		fctx, cancel = context.WithTimeout(ctx, b.fetchTimeout)
		defer cancel()
	}

	start := time.Now()
	data, err := w.Fetch(fctx, b.api, f)
	metrics.WidgetFetchSeconds.WithLabelValues(w.ID()).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.WidgetFetchTotal.WithLabelValues(w.ID(), "error").Inc()
		zap.L().Warn("widget fetch failed",
			zap.String("session", b.SessionID),
			zap.String("widget", w.ID()),
			zap.Stringer("filter", f),
			zap.Error(err))
		res.Error = err.Error()
		data = nil
	}

	applied, serr := bind.SyncFor(deps, data)
	if serr != nil {
		metrics.WidgetFetchTotal.WithLabelValues(w.ID(), "error").Inc()
		zap.L().Warn("widget payload rejected",
			zap.String("widget", w.ID()), zap.Error(serr))
		res.Error = serr.Error()
		return res
	}
	if err != nil {
		return res
	}
	if !applied {
		metrics.WidgetFetchTotal.WithLabelValues(w.ID(), "stale").Inc()
		res.Error = ErrSuperseded.Error()
		return res
	}

	if e, ok := b.Registry.Get(w.ID()); ok {
		res.Data = e.Data
		metrics.WidgetFetchTotal.WithLabelValues(w.ID(), "ok").Inc()
	} else {
		metrics.WidgetFetchTotal.WithLabelValues(w.ID(), "empty").Inc()
	}
	return res
}

// Unmount closes the bindings of every widget on page.
func (b *Board) Unmount(page string) error {
	ws := widget.ForPage(page)
	if len(ws) == 0 {
		return ErrUnknownPage
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, w := range ws {
		if bind, ok := b.bindings[w.ID()]; ok {
			bind.Close()
			delete(b.bindings, w.ID())
		}
	}
	delete(b.pages, page)
	return nil
}

// Close unmounts everything.  Called by the cache on eviction or logout.
func (b *Board) Close() {
	b.mu.Lock()
	for id, bind := range b.bindings {
		bind.Close()
		delete(b.bindings, id)
	}
	b.pages = make(map[string]filter.Filter)
	b.mu.Unlock()
	if b.unsub != nil {
		b.unsub()
	}
}

// Binding returns the binding for a client-side widget id, creating it on
// first use and refreshing its name and description otherwise.  The browser
// reports such widgets through PUT /api/context.  IDs of catalogue widgets
// belong to Mount and yield ErrServerWidget.
func (b *Board) Binding(id, name, description string) (*widgetctx.Binding, error) {
	if widget.Lookup(id) != nil {
		return nil, ErrServerWidget
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if bind, ok := b.bindings[id]; ok {
		bind.Describe(name, description)
		return bind, nil
	}
	bind := widgetctx.Bind(b.Registry, id, name, description)
	b.bindings[id] = bind
	return bind, nil
}

// Release closes and forgets the client-side binding for id, if any, and
// clears the registry key either way.  Catalogue widget IDs are left to
// Unmount and yield ErrServerWidget.
func (b *Board) Release(id string) error {
	if widget.Lookup(id) != nil {
		return ErrServerWidget
	}
	b.mu.Lock()
	bind, ok := b.bindings[id]
	delete(b.bindings, id)
	b.mu.Unlock()
	if ok {
		bind.Close()
		return nil
	}
	b.Registry.Unregister(id)
	return nil
}

// Snapshot summarises the board for admin listings.
type Snapshot struct {
	SessionID  string            `json:"sessionId"`
	OperatorID int64             `json:"operatorId"`
	Pages      map[string]string `json:"pages"`
	Entries    int               `json:"entries"`
	LastSeen   time.Time         `json:"lastSeen"`
	Client     *requestinfo.Info `json:"client,omitempty"`
}

func (b *Board) snapshot(lastSeen time.Time) Snapshot {
	b.mu.Lock()
	pages := make(map[string]string, len(b.pages))
	for p, f := range b.pages {
		pages[p] = f.String()
	}
	client := b.client
	b.mu.Unlock()
	return Snapshot{
		SessionID:  b.SessionID,
		OperatorID: b.OperatorID,
		Pages:      pages,
		Entries:    b.Registry.Len(),
		LastSeen:   lastSeen,
		Client:     client,
	}
}

// stampClient records the device that opened the board.  Later calls
// keep the first stamp.
func (b *Board) stampClient(info requestinfo.Info) {
	b.mu.Lock()
	if b.client == nil {
		b.client = &info
	}
	b.mu.Unlock()
}

// MountedPages lists pages with live bindings, sorted.
func (b *Board) MountedPages() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.pages))
	for p := range b.pages {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func (b *Board) bindingLocked(w widget.Widget) *widgetctx.Binding {
	if bind, ok := b.bindings[w.ID()]; ok {
		return bind
	}
	bind := widgetctx.Bind(b.Registry, w.ID(), w.Name(), w.Description())
	b.bindings[w.ID()] = bind
	return bind
}
