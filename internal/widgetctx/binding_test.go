package widgetctx

import (
	"encoding/json"
	"errors"
	"testing"
)

type goldPrice struct {
	Buy  int `json:"buy"`
	Sell int `json:"sell"`
}

func TestBinding_NullDataUnregisters(t *testing.T) {
	reg := New(nil)
	b := Bind(reg, "gold-price", "ราคาทอง", "Current gold buy and sell price")

	if err := b.Sync(goldPrice{Buy: 30000, Sell: 30500}); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	all := reg.All()
	if len(all) != 1 || all[0].ID != "gold-price" {
		t.Fatalf("All() = %v, want [gold-price]", ids(all))
	}
	if string(all[0].Data) != `{"buy":30000,"sell":30500}` {
		t.Fatalf("Data = %s", all[0].Data)
	}
	if all[0].Name != "ราคาทอง" {
		t.Fatalf("Name = %q", all[0].Name)
	}

	if err := b.Sync(nil); err != nil {
		t.Fatalf("Sync(nil): %v", err)
	}
	if got := reg.All(); len(got) != 0 {
		t.Fatalf("All() after null = %v, want empty", ids(got))
	}
}

func TestBinding_TypedNilAndRawNull(t *testing.T) {
	reg := New(nil)
	b := Bind(reg, "x", "x", "")

	var p *goldPrice
	var m map[string]any
	for _, data := range []any{p, m, json.RawMessage("null"), []byte(" null")} {
		_ = b.Sync(goldPrice{Buy: 1})
		if err := b.Sync(data); err != nil {
			t.Fatalf("Sync(%T): %v", data, err)
		}
		if _, ok := reg.Get("x"); ok {
			t.Fatalf("Sync(%T) left an entry", data)
		}
	}
}

func TestBinding_InvalidRawDropsEntry(t *testing.T) {
	reg := New(nil)
	b := Bind(reg, "x", "x", "")
	_ = b.Sync(json.RawMessage(`{"ok":true}`))

	err := b.Sync(json.RawMessage(`{broken`))
	if !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("err = %v, want ErrInvalidPayload", err)
	}
	if _, ok := reg.Get("x"); ok {
		t.Fatalf("invalid payload left a stale entry")
	}
}

func TestBinding_DependencyChangeCleansUp(t *testing.T) {
	reg := New(nil)
	b := Bind(reg, "daily-summary", "สรุปยอดประจำวัน", "")

	if b.Depend(1, "2026-10-17") {
		t.Fatalf("first Depend reported a change")
	}
	_ = b.Sync(map[string]int{"loans": 4})

	if b.Depend(1, "2026-10-17") {
		t.Fatalf("identical deps reported a change")
	}
	if _, ok := reg.Get("daily-summary"); !ok {
		t.Fatalf("identical deps dropped the entry")
	}

	if !b.Depend(2, "2026-10-17") {
		t.Fatalf("new branch not reported as change")
	}
	if _, ok := reg.Get("daily-summary"); ok {
		t.Fatalf("entry visible while refetching for new deps")
	}

	_ = b.Sync(map[string]int{"loans": 9})
	got, ok := reg.Get("daily-summary")
	if !ok || string(got.Data) != `{"loans":9}` {
		t.Fatalf("Get after resync = %s, %v", got.Data, ok)
	}
}

func TestBinding_CloseIsFinal(t *testing.T) {
	reg := New(nil)
	b := Bind(reg, "x", "x", "")
	_ = b.Sync(1)

	b.Close()
	b.Close()
	if _, ok := reg.Get("x"); ok {
		t.Fatalf("entry survived Close")
	}

	// A fetch that completes after unmount must not re-register.
	_ = b.Sync(2)
	if _, ok := reg.Get("x"); ok {
		t.Fatalf("Sync after Close re-registered")
	}
}

func TestAddable(t *testing.T) {
	p, err := NewPolicy([]Rule{{Prefix: "/dashboard", IDs: []string{"a", "c"}}}, false)
	if err != nil {
		t.Fatalf("NewPolicy: %v", err)
	}
	reg := New(p)
	reg.Register(entry("a", `1`))
	reg.Register(entry("b", `1`))
	reg.Register(entry("c", `1`))

	got := ids(Addable(reg, "/dashboard", nil))
	if len(got) != 2 || got[0] != "a" || got[1] != "c" {
		t.Fatalf("Addable(/dashboard) = %v, want [a c]", got)
	}

	got = ids(Addable(reg, "/dashboard", []string{"a", " "}))
	if len(got) != 1 || got[0] != "c" {
		t.Fatalf("Addable with active a = %v, want [c]", got)
	}
	if _, ok := reg.Get("a"); !ok {
		t.Fatalf("Addable mutated the registry")
	}

	got = ids(Addable(reg, "/asset-types", []string{"b"}))
	if len(got) != 2 || got[0] != "a" || got[1] != "c" {
		t.Fatalf("Addable on unknown route = %v, want [a c]", got)
	}
}

func TestBinding_SyncForDropsStaleResults(t *testing.T) {
	reg := New(nil)
	b := Bind(reg, "x", "x", "")

	b.Depend(1)
	b.Depend(2)

	applied, err := b.SyncFor([]any{1}, "stale")
	if err != nil || applied {
		t.Fatalf("stale SyncFor applied = %v err = %v", applied, err)
	}
	if _, ok := reg.Get("x"); ok {
		t.Fatalf("stale result registered")
	}

	applied, err = b.SyncFor([]any{2}, "fresh")
	if err != nil || !applied {
		t.Fatalf("current SyncFor applied = %v err = %v", applied, err)
	}
	got, ok := reg.Get("x")
	if !ok || string(got.Data) != `"fresh"` {
		t.Fatalf("Get = %s, %v", got.Data, ok)
	}
}

// switchingPayload moves the binding to new deps while it is being encoded,
// the way a second Mount with another filter can overtake a slow fetch.
type switchingPayload struct {
	b    *Binding
	next []any
}

func (p switchingPayload) MarshalJSON() ([]byte, error) {
	p.b.Depend(p.next...)
	return []byte(`{"v":1}`), nil
}

func TestBinding_SyncForDropsResultOvertakenDuringEncode(t *testing.T) {
	reg := New(nil)
	b := Bind(reg, "daily-summary", "สรุปยอดประจำวัน", "")
	b.Depend("branch-1")

	applied, err := b.SyncFor([]any{"branch-1"}, switchingPayload{b: b, next: []any{"branch-2"}})
	if err != nil {
		t.Fatalf("SyncFor: %v", err)
	}
	if applied {
		t.Fatalf("result for replaced deps reported as applied")
	}
	if e, ok := reg.Get("daily-summary"); ok {
		t.Fatalf("stale entry registered after deps moved on: %s", e.Data)
	}

	// A result for the current deps still lands.
	applied, err = b.SyncFor([]any{"branch-2"}, map[string]int{"loans": 3})
	if err != nil || !applied {
		t.Fatalf("SyncFor current = %v, %v", applied, err)
	}
	if e, ok := reg.Get("daily-summary"); !ok || string(e.Data) != `{"loans":3}` {
		t.Fatalf("Get = %s, %v", e.Data, ok)
	}
}

func TestBinding_DescribeRenamesNextWrite(t *testing.T) {
	reg := New(nil)
	b := Bind(reg, "customer-note", "Old", "first")
	_ = b.Sync(1)

	b.Describe("New", "second")
	_ = b.Sync(2)
	e, ok := reg.Get("customer-note")
	if !ok || e.Name != "New" || e.Description != "second" {
		t.Fatalf("entry = %+v, %v", e, ok)
	}
}
