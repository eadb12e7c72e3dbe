package requestinfo

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

const chromeWin = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.6367.91 Safari/537.36"

func TestDescribe(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/context", nil)
	req.RemoteAddr = "203.0.113.9:51234"
	req.Header.Set("User-Agent", chromeWin)
	req.Header.Set("Accept-Language", "th-TH;q=0.9, en;q=0.8")

	info := Describe(req, nil)
	if info.IP != "203.0.113.9" || info.Country != "" {
		t.Fatalf("ip/geo = %q %q", info.IP, info.Country)
	}
	if info.Browser != "Chrome" || info.OS != "Windows" || info.Device != "Desktop" || info.Bot {
		t.Fatalf("ua = %+v", info)
	}
	if info.Lang != "th-th" {
		t.Fatalf("lang = %q", info.Lang)
	}
	if got := info.String(); got != "Chrome 124 on Windows (Desktop)" {
		t.Fatalf("String = %q", got)
	}
}

func TestClientIP_Fallbacks(t *testing.T) {
	cases := []struct {
		remote, xff, xrip, want string
	}{
		{"10.0.0.1:80", "", "", "10.0.0.1"},
		{"10.0.0.2", "", "", "10.0.0.2"},
		{"pipe", "junk, 198.51.100.4", "", "198.51.100.4"},
		{"pipe", "", "192.0.2.7", "192.0.2.7"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = tc.remote
		if tc.xff != "" {
			req.Header.Set("X-Forwarded-For", tc.xff)
		}
		if tc.xrip != "" {
			req.Header.Set("X-Real-Ip", tc.xrip)
		}
		if got := clientIP(req); got == nil || got.String() != tc.want {
			t.Fatalf("%+v: got %v", tc, got)
		}
	}
}

func TestEnrich(t *testing.T) {
	var seen *Info
	h := Enrich(nil)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if seen == nil || seen.Device == "" {
		t.Fatalf("info = %+v", seen)
	}
}

func TestOpenGeo_Empty(t *testing.T) {
	g, err := OpenGeo("")
	if g != nil || err != nil {
		t.Fatalf("OpenGeo(\"\") = %v, %v", g, err)
	}
	if err := g.Close(); err != nil {
		t.Fatalf("nil Close: %v", err)
	}
	if _, err := OpenGeo("/does/not/exist.mmdb"); err == nil {
		t.Fatalf("expected error for missing DB")
	}
}
