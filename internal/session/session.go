// internal/session/session.go
//
// Board session cookie.
//
// Context
//   Each browser tab group that talks to the dashboard owns one board (see
//   internal/board).  The board is found through an opaque, random session
//   ID kept in an HttpOnly cookie named “pawnboard_session”.  The cookie
//   carries no credentials; the operator is always re-resolved from the
//   bearer token.
//
// Style
//   Two-space sentence spacing, Oxford comma, terse inline notes.
//
//------------------------------------------------------------------------------

package session

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	CookieName = "pawnboard_session"
	lifetime   = 12 * time.Hour
)

// NewID returns a fresh random session ID.
func NewID() string { return uuid.NewString() }

// Set writes the session cookie for id.
func Set(w http.ResponseWriter, r *http.Request, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil, // only send over HTTPS
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(lifetime),
	})
}

// Clear expires the session cookie.
func Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// ID returns the session ID from the request.  ok is false when the cookie
// is missing or not a UUID.
func ID(r *http.Request) (id string, ok bool) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	if _, err := uuid.Parse(c.Value); err != nil {
		return "", false
	}
	return c.Value, true
}
