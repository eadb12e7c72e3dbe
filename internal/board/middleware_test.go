package board

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/yanizio/pawnboard/internal/api"
	"github.com/yanizio/pawnboard/internal/auth"
	"github.com/yanizio/pawnboard/internal/requestinfo"
	"github.com/yanizio/pawnboard/internal/session"
)

const iPhoneUA = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_4 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Mobile/15E148 Safari/604.1"

// attachRequest runs one request for opID through Attach and returns the
// recorder and the board the handler saw.
func attachRequest(c *Cache, opID int64, cookie *http.Cookie) (*httptest.ResponseRecorder, *Board) {
	var seen *Board
	h := requestinfo.Enrich(nil)(Attach(c)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
	})))

	req := httptest.NewRequest(http.MethodGet, "/api/context", nil)
	req.Header.Set("User-Agent", iPhoneUA)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	if opID != 0 {
		req = req.WithContext(auth.WithOperator(req.Context(), &api.Operator{ID: opID}))
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr, seen
}

func TestAttach(t *testing.T) {
	c := newTestCache(t)

	rr, b1 := attachRequest(c, 1, nil)
	if b1 == nil {
		t.Fatalf("no board attached")
	}
	var cookie *http.Cookie
	for _, ck := range rr.Result().Cookies() {
		if ck.Name == session.CookieName {
			cookie = ck
		}
	}
	if cookie == nil || cookie.Value != b1.SessionID {
		t.Fatalf("cookie = %+v", cookie)
	}
	snap := c.Stats()[0]
	if snap.Client == nil || snap.Client.Device != "Phone" {
		t.Fatalf("client = %+v", snap.Client)
	}

	// Same operator, same cookie → same board, no new cookie.
	rr, b2 := attachRequest(c, 1, cookie)
	if b2 != b1 || len(rr.Result().Cookies()) != 0 {
		t.Fatalf("board reused = %v, cookies = %v", b2 == b1, rr.Result().Cookies())
	}

	// Another operator presenting the cookie gets a fresh session.
	_, b3 := attachRequest(c, 2, cookie)
	if b3 == nil || b3 == b1 || b3.OperatorID != 2 {
		t.Fatalf("foreign cookie board = %+v", b3)
	}

	// No operator at all is rejected.
	rr, _ = attachRequest(c, 0, nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous = %d", rr.Code)
	}
}

func TestAttach_StampsBoardRecreatedFromCookie(t *testing.T) {
	c := newTestCache(t)
	rr, b1 := attachRequest(c, 1, nil)
	var cookie *http.Cookie
	for _, ck := range rr.Result().Cookies() {
		if ck.Name == session.CookieName {
			cookie = ck
		}
	}
	if cookie == nil {
		t.Fatalf("no session cookie")
	}

	// Evicted while the browser kept its cookie.
	c.Drop(b1.SessionID)
	_, b2 := attachRequest(c, 1, cookie)
	if b2 == nil || b2 == b1 || b2.SessionID != b1.SessionID {
		t.Fatalf("recreated board = %+v", b2)
	}
	stats := c.Stats()
	if len(stats) != 1 || stats[0].Client == nil || stats[0].Client.Device != "Phone" {
		t.Fatalf("recreated board client = %+v", stats)
	}
}
