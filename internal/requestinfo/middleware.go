// internal/requestinfo/middleware.go
//
// HTTP middleware that enriches each request with *Info.
//
/*
Context
--------
This handler sits high in the chain, right after RealIP and the request
log but before authentication.  For every request it:

  1. Parses the User-Agent header and Accept-Language list.
  2. Takes the client IP from r.RemoteAddr (chi's RealIP has already
     applied X-Forwarded-For / X-Real-IP), falling back to the headers
     when RealIP is not mounted.
  3. Performs a GeoLite2 lookup when a database is configured.
  4. Stores a `*Info` value in `request.Context` under an unexported key,
     so board.Attach can stamp new boards without reparsing.

Notes
-----
  • All look-ups are read-only, so the middleware is safe under heavy
    concurrency.
  • Oxford commas, two spaces after periods.  No em dash.
*/
package requestinfo

import (
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

/*──────────────────────────── middleware ───────────────────────────────────*/

// Enrich returns middleware that attaches *Info.  geo may be nil.
func Enrich(geo *GeoDB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			info := Describe(r, geo)

			zap.S().Debugw("request info",
				"ip", info.IP,
				"country", info.Country,
				"browser", info.Browser,
				"device", info.Device,
				"bot", info.Bot,
				"path", r.URL.Path,
			)

			next.ServeHTTP(w, r.WithContext(WithInfo(r.Context(), info)))
		})
	}
}

// Describe builds the Info for r.
func Describe(r *http.Request, geo *GeoDB) *Info {
	info := &Info{Lang: primaryLang(r.Header.Get("Accept-Language"))}
	parseUA(info, r.UserAgent())

	if ip := clientIP(r); ip != nil {
		info.IP = ip.String()
		info.Country, info.City = geo.lookup(ip)
	}
	return info
}

/*──────────────────────────── client IP helper ─────────────────────────────*/

// clientIP prefers r.RemoteAddr ("ip:port" or a bare ip after RealIP), then
// the left-most parseable X-Forwarded-For entry, then X-Real-IP.
func clientIP(r *http.Request) net.IP {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		if ip := net.ParseIP(host); ip != nil {
			return ip
		}
	}
	if ip := net.ParseIP(r.RemoteAddr); ip != nil {
		return ip
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for _, part := range strings.Split(xff, ",") {
			if ip := net.ParseIP(strings.TrimSpace(part)); ip != nil {
				return ip
			}
		}
	}
	if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-Ip"))); ip != nil {
		return ip
	}
	return nil
}
