// internal/api/client_test.go
//
// Unit-tests for the backend client against an httptest server.
//
// Run: go test ./internal/api -v

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(t *testing.T, h http.Handler, ttl time.Duration) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New(Options{
		BaseURL:   srv.URL + "/v1",
		Token:     "service",
		Timeout:   2 * time.Second,
		Retries:   1,
		RetryWait: time.Millisecond,
		CacheTTL:  ttl,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestGet_PathQueryAndToken(t *testing.T) {
	var gotPath, gotQuery, gotAuth string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery, gotAuth = r.URL.Path, r.URL.RawQuery, r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"loans":4}`))
	}), 0)

	ctx := WithToken(context.Background(), "operator-token")
	raw, err := c.Get(ctx, "/dashboard/summary", BranchDate(3, "2026-10-17"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(raw) != `{"loans":4}` {
		t.Fatalf("body = %s", raw)
	}
	if gotPath != "/v1/dashboard/summary" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotQuery != "branchId=3&date=2026-10-17" {
		t.Fatalf("query = %q", gotQuery)
	}
	if gotAuth != "Bearer operator-token" {
		t.Fatalf("auth = %q", gotAuth)
	}
}

func TestGet_FallsBackToServiceToken(t *testing.T) {
	var gotAuth string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{}`))
	}), 0)

	if _, err := c.Get(context.Background(), "/gold-price", nil); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if gotAuth != "Bearer service" {
		t.Fatalf("auth = %q", gotAuth)
	}
}

func TestGet_StatusError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}), 0)

	_, err := c.Get(context.Background(), "/gold-price", nil)
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusUnauthorized {
		t.Fatalf("err = %v, want *StatusError 401", err)
	}
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("401 should match ErrUnauthorized")
	}
}

func TestGet_RetriesServerErrors(t *testing.T) {
	var calls int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`[1,2]`))
	}), 0)

	raw, err := c.Get(context.Background(), "/asset-types/trend", nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(raw) != `[1,2]` || atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("raw = %s calls = %d", raw, calls)
	}
}

func TestGet_Malformed(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	}), 0)

	if _, err := c.Get(context.Background(), "/gold-price", nil); !errors.Is(err, ErrMalformed) {
		t.Fatalf("err = %v, want ErrMalformed", err)
	}
}

func TestGet_Cache(t *testing.T) {
	var calls int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(`{"buy":30000}`))
	}), time.Minute)

	ctx := WithToken(context.Background(), "a")
	for i := 0; i < 3; i++ {
		if _, err := c.Get(ctx, "/gold-price", nil); err != nil {
			t.Fatalf("Get: %v", err)
		}
	}
	if _, err := c.Get(WithToken(context.Background(), "b"), "/gold-price", nil); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Fatalf("backend calls = %d, want 2 (one per token)", n)
	}
}

func TestMe(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/auth/me" || r.Header.Get("Authorization") != "Bearer tok" {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		_, _ = w.Write([]byte(`{"id":7,"username":"somchai","roles":["Manager"]}`))
	}), 0)

	op, err := c.Me(context.Background(), "tok")
	if err != nil {
		t.Fatalf("Me: %v", err)
	}
	if op.ID != 7 || !op.HasRole("admin", "manager") || op.HasRole("admin") {
		t.Fatalf("operator = %+v", op)
	}

	if _, err := c.Me(context.Background(), "bad"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	if _, err := c.Me(context.Background(), ""); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("empty token err = %v", err)
	}
}

func TestNew_RejectsRelativeBase(t *testing.T) {
	if _, err := New(Options{BaseURL: "/relative"}); err == nil {
		t.Fatalf("expected error for relative base url")
	}
}
