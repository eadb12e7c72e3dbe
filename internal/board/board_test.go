// internal/board/board_test.go
//
// Unit-tests for Board mount/unmount and the board Cache.
//
// fakeWidget ── registers under the "test-*" pages so it never collides with
// real catalogue entries, and returns canned data or errors.
//
// Run: go test ./internal/board -v

package board

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/yanizio/pawnboard/internal/filter"
	"github.com/yanizio/pawnboard/internal/widget"
	"github.com/yanizio/pawnboard/internal/widgetctx"
)

type fakeWidget struct {
	id, page string

	mu    sync.Mutex
	data  map[int]any // by branch
	err   error
	calls int
	gate  chan struct{}
}

func (w *fakeWidget) ID() string          { return w.id }
func (w *fakeWidget) Name() string        { return "name-" + w.id }
func (w *fakeWidget) Description() string { return "desc-" + w.id }
func (w *fakeWidget) Page() string        { return w.page }

func (w *fakeWidget) Fetch(ctx context.Context, _ widget.Fetcher, f filter.Filter) (any, error) {
	w.mu.Lock()
	w.calls++
	gate, err, data := w.gate, w.err, w.data[f.BranchID]
	w.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

type nopFetcher struct{}

func (nopFetcher) Get(context.Context, string, url.Values) (json.RawMessage, error) {
	return nil, errors.New("not used")
}

var (
	goldW  = &fakeWidget{id: "test-gold", page: "test-dash", data: map[int]any{1: map[string]int{"buy": 30000, "sell": 30500}, 2: map[string]int{"buy": 1}}}
	sumW   = &fakeWidget{id: "test-summary", page: "test-dash", data: map[int]any{1: map[string]int{"loans": 4}}}
	brokeW = &fakeWidget{id: "test-broken", page: "test-dash", err: errors.New("backend 502")}
	slowW  = &fakeWidget{id: "test-slow", page: "test-slow", data: map[int]any{1: "first", 2: "second"}}
)

func init() {
	widget.Register(goldW)
	widget.Register(sumW)
	widget.Register(brokeW)
	widget.Register(slowW)
}

func testPolicy(t *testing.T) *widgetctx.Policy {
	t.Helper()
	p, err := widgetctx.NewPolicy([]widgetctx.Rule{
		{Prefix: "/dashboard", IDs: []string{"test-gold"}},
	}, false)
	if err != nil {
		t.Fatalf("NewPolicy: %v", err)
	}
	return p
}

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	c := NewCache(nopFetcher{}, testPolicy(t), Options{EvictInterval: time.Hour, FetchTimeout: time.Second})
	t.Cleanup(c.Close)
	return c
}

func f(branch int) filter.Filter { return filter.Filter{BranchID: branch, Date: "2026-10-17"} }

func TestMount_RegistersSuccessfulWidgetsOnly(t *testing.T) {
	c := newTestCache(t)
	b, err := c.Open("s1", 7)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	res, err := b.Mount(context.Background(), "test-dash", f(1))
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}
	if len(res) != 3 {
		t.Fatalf("results = %d, want 3", len(res))
	}
	byID := map[string]Result{}
	for _, r := range res {
		byID[r.ID] = r
	}
	if byID["test-broken"].Error == "" || byID["test-broken"].Data != nil {
		t.Fatalf("broken widget result = %+v", byID["test-broken"])
	}
	if string(byID["test-gold"].Data) != `{"buy":30000,"sell":30500}` {
		t.Fatalf("gold data = %s", byID["test-gold"].Data)
	}

	all := b.Registry.All()
	if len(all) != 2 || all[0].ID != "test-gold" || all[1].ID != "test-summary" {
		t.Fatalf("registry = %+v", all)
	}
	if all[0].Name != "name-test-gold" {
		t.Fatalf("entry name = %q", all[0].Name)
	}

	// Route scoping on the board registry.
	if got := b.Registry.ForRoute("/dashboard"); len(got) != 1 || got[0].ID != "test-gold" {
		t.Fatalf("ForRoute(/dashboard) = %+v", got)
	}
}

func TestMount_FilterChangeReplacesAndDrops(t *testing.T) {
	c := newTestCache(t)
	b, _ := c.Open("s2", 7)

	if _, err := b.Mount(context.Background(), "test-dash", f(1)); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	// Branch 2 has gold data but no summary data.
	if _, err := b.Mount(context.Background(), "test-dash", f(2)); err != nil {
		t.Fatalf("Mount: %v", err)
	}

	gold, ok := b.Registry.Get("test-gold")
	if !ok || string(gold.Data) != `{"buy":1}` {
		t.Fatalf("gold after filter change = %s, %v", gold.Data, ok)
	}
	if _, ok := b.Registry.Get("test-summary"); ok {
		t.Fatalf("summary kept stale branch-1 data")
	}
}

func TestMount_StaleResultDiscarded(t *testing.T) {
	c := newTestCache(t)
	b, _ := c.Open("s3", 7)

	gate := make(chan struct{})
	slowW.mu.Lock()
	slowW.gate = gate
	slowW.mu.Unlock()
	defer func() {
		slowW.mu.Lock()
		slowW.gate = nil
		slowW.mu.Unlock()
	}()

	done := make(chan []Result)
	go func() {
		res, _ := b.Mount(context.Background(), "test-slow", f(1))
		done <- res
	}()

	// Wait until the first fetch is in flight, then switch filters.
	deadline := time.Now().Add(2 * time.Second)
	for {
		slowW.mu.Lock()
		n := slowW.calls
		slowW.mu.Unlock()
		if n > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("first fetch never started")
		}
		time.Sleep(time.Millisecond)
	}

	second := make(chan []Result)
	go func() {
		res, _ := b.Mount(context.Background(), "test-slow", f(2))
		second <- res
	}()
	for {
		slowW.mu.Lock()
		n := slowW.calls
		slowW.mu.Unlock()
		if n > 1 {
			break
		}
		time.Sleep(time.Millisecond)
	}
	close(gate)

	first := <-done
	<-second
	if first[0].Error != ErrSuperseded.Error() {
		t.Fatalf("first result = %+v, want superseded", first[0])
	}
	got, ok := b.Registry.Get("test-slow")
	if !ok || string(got.Data) != `"second"` {
		t.Fatalf("registry = %s, %v, want second", got.Data, ok)
	}
}

func TestUnmount(t *testing.T) {
	c := newTestCache(t)
	b, _ := c.Open("s4", 7)
	_, _ = b.Mount(context.Background(), "test-dash", f(1))

	if err := b.Unmount("test-dash"); err != nil {
		t.Fatalf("Unmount: %v", err)
	}
	if n := len(b.Registry.All()); n != 0 {
		t.Fatalf("registry has %d entries after unmount", n)
	}
	if err := b.Unmount("nope"); !errors.Is(err, ErrUnknownPage) {
		t.Fatalf("Unmount(nope) err = %v", err)
	}
	if _, err := b.Mount(context.Background(), "nope", f(1)); !errors.Is(err, ErrUnknownPage) {
		t.Fatalf("Mount(nope) err = %v", err)
	}
}

func TestClientBindingAndRelease(t *testing.T) {
	c := newTestCache(t)
	b, _ := c.Open("s5", 7)

	bind, err := b.Binding("loan-calculator", "คำนวณดอกเบี้ย", "")
	if err != nil {
		t.Fatalf("Binding: %v", err)
	}
	again, err := b.Binding("loan-calculator", "เครื่องคิดดอกเบี้ย", "monthly")
	if err != nil || again != bind {
		t.Fatalf("Binding not reused: %v", err)
	}
	_ = bind.Sync(map[string]int{"rate": 2})
	e, ok := b.Registry.Get("loan-calculator")
	if !ok {
		t.Fatalf("client binding did not register")
	}
	if e.Name != "เครื่องคิดดอกเบี้ย" || e.Description != "monthly" {
		t.Fatalf("second Binding call did not rename: %+v", e)
	}

	if err := b.Release("loan-calculator"); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if err := b.Release("loan-calculator"); err != nil {
		t.Fatalf("second Release: %v", err)
	}
	if _, ok := b.Registry.Get("loan-calculator"); ok {
		t.Fatalf("Release left entry")
	}
}

func TestClientBindingRejectsCatalogueIDs(t *testing.T) {
	c := newTestCache(t)
	b, _ := c.Open("s6", 7)
	if _, err := b.Mount(context.Background(), "test-dash", f(1)); err != nil {
		t.Fatalf("Mount: %v", err)
	}

	if _, err := b.Binding("test-gold", "fake", ""); !errors.Is(err, ErrServerWidget) {
		t.Fatalf("Binding(test-gold) err = %v", err)
	}
	if err := b.Release("test-gold"); !errors.Is(err, ErrServerWidget) {
		t.Fatalf("Release(test-gold) err = %v", err)
	}
	e, ok := b.Registry.Get("test-gold")
	if !ok || e.Name != "name-test-gold" {
		t.Fatalf("mounted entry disturbed: %+v, %v", e, ok)
	}
}
