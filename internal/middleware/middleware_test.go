package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) })

func TestForceHTTPS(t *testing.T) {
	h := ForceHTTPS(ok)
	cases := []struct {
		name  string
		setup func(r *http.Request)
		url   string
		want  int
	}{
		{"plain", func(*http.Request) {}, "http://board.example/api/context?route=/x", http.StatusPermanentRedirect},
		{"tls", func(r *http.Request) { r.TLS = &tls.ConnectionState{} }, "https://board.example/", http.StatusTeapot},
		{"proxy", func(r *http.Request) { r.Header.Set("X-Forwarded-Proto", "https") }, "http://board.example/", http.StatusTeapot},
		{"localhost", func(*http.Request) {}, "http://localhost:8080/", http.StatusTeapot},
		{"healthz", func(*http.Request) {}, "http://board.example/healthz", http.StatusTeapot},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, tc.url, nil)
		tc.setup(req)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != tc.want {
			t.Fatalf("%s: status = %d, want %d", tc.name, rr.Code, tc.want)
		}
		if tc.want == http.StatusPermanentRedirect && rr.Header().Get("Location") != "https://board.example/api/context?route=/x" {
			t.Fatalf("%s: location = %q", tc.name, rr.Header().Get("Location"))
		}
	}
}

func TestSecurity(t *testing.T) {
	rr := httptest.NewRecorder()
	Security(ok).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	for _, h := range []string{"Strict-Transport-Security", "Content-Security-Policy", "X-Frame-Options", "X-Content-Type-Options", "Referrer-Policy", "Cache-Control"} {
		if rr.Header().Get(h) == "" {
			t.Fatalf("missing %s", h)
		}
	}
}

func TestRequestLog(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	prev := zap.L()
	zap.ReplaceGlobals(zap.New(core))
	t.Cleanup(func() { zap.ReplaceGlobals(prev) })

	fail := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusBadGateway) })
	RequestLog(fail).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/pages/dashboard/widgets", nil))
	RequestLog(ok).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	all := logs.All()
	if len(all) != 2 {
		t.Fatalf("entries = %d", len(all))
	}
	if all[0].Level != zap.ErrorLevel || all[0].ContextMap()["status"] != int64(http.StatusBadGateway) {
		t.Fatalf("first entry = %+v", all[0])
	}
	if all[1].Level != zap.DebugLevel {
		t.Fatalf("second entry level = %v", all[1].Level)
	}
}
