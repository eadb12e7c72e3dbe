package server

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/yanizio/pawnboard/internal/config"
)

func TestNew_Defaults(t *testing.T) {
	srv := New(config.HTTP{ListenAddr: ":0", WriteTimeout: 5 * time.Second}, http.NotFoundHandler())
	if srv.ReadTimeout != 10*time.Second || srv.WriteTimeout != 5*time.Second || srv.IdleTimeout != time.Minute {
		t.Fatalf("timeouts = %v %v %v", srv.ReadTimeout, srv.WriteTimeout, srv.IdleTimeout)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	srv := New(config.HTTP{ListenAddr: "127.0.0.1:0"}, http.NotFoundHandler())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, srv, time.Second) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("Run did not return after cancel")
	}
}
