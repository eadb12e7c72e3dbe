//
//  internal/requestinfo/requestinfo.go
//
//  Lightweight types and helpers that collect per-request client metadata
//  (user-agent fingerprint, IP + geolocation, language).  The struct is
//  inert: no pointers to readers or large buffers, so it is safe to log or
//  JSON-encode.  Boards keep the Info of the request that created them so
//  managers can tell counter terminals from phones in the admin listing.
//
//  Dependencies
//  • github.com/avct/uasurfer          (UA parsing)
//  • github.com/oschwald/geoip2-golang (MaxMind lookup, optional)
//

package requestinfo

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/avct/uasurfer"
	"github.com/oschwald/geoip2-golang"
)

//
//  -----------------------------
//  Struct definitions
//  -----------------------------
//

// Info describes the client behind one request.
type Info struct {
	IP        string `json:"ip,omitempty"`
	Country   string `json:"country,omitempty"` // ISO code, "TH"
	City      string `json:"city,omitempty"`
	Browser   string `json:"browser,omitempty"` // "Chrome", "Safari", ...
	Version   string `json:"version,omitempty"` // "124.0.6367"
	OS        string `json:"os,omitempty"`      // "Windows", "iOS", ...
	OSVersion string `json:"osVersion,omitempty"`
	Device    string `json:"device"` // "Desktop", "Phone", "Tablet", ...
	Bot       bool   `json:"bot,omitempty"`
	Lang      string `json:"lang,omitempty"` // first Accept-Language tag
}

// String renders a short label, e.g. "Chrome 124 on Windows (Desktop)".
func (i Info) String() string {
	b := i.Browser
	if b == "" {
		b = "Unknown"
	}
	if major, _, _ := strings.Cut(i.Version, "."); major != "" && major != "0" {
		b += " " + major
	}
	if i.OS != "" {
		b += " on " + i.OS
	}
	return b + " (" + i.Device + ")"
}

//
//  -----------------------------
//  GeoIP reader
//  -----------------------------
//

// GeoDB wraps a MaxMind City database.  A nil *GeoDB is valid and
// resolves nothing, which is the default when no database is configured.
type GeoDB struct {
	r *geoip2.Reader
}

// OpenGeo opens the GeoLite2-City database at path.  An empty path returns
// (nil, nil).
func OpenGeo(path string) (*GeoDB, error) {
	if path == "" {
		return nil, nil
	}
	r, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("requestinfo: open GeoLite2 DB: %w", err)
	}
	return &GeoDB{r: r}, nil
}

// Close releases the database.
func (g *GeoDB) Close() error {
	if g == nil {
		return nil
	}
	return g.r.Close()
}

// lookup returns best-effort country and city for ip.
func (g *GeoDB) lookup(ip net.IP) (country, city string) {
	if g == nil || ip == nil {
		return "", ""
	}
	rec, err := g.r.City(ip)
	if err != nil {
		return "", ""
	}
	city = rec.City.Names["th"]
	if city == "" {
		city = rec.City.Names["en"]
	}
	return rec.Country.IsoCode, city
}

//
//  -----------------------------
//  Public helper: FromContext
//  -----------------------------
//

type ctxKey struct{} // unexported, collision-proof

// WithInfo returns a new context carrying info.
func WithInfo(ctx context.Context, info *Info) context.Context {
	return context.WithValue(ctx, ctxKey{}, info)
}

// FromContext returns the pointer previously stored by Enrich.
// It returns nil if the middleware has not run.
func FromContext(ctx context.Context) *Info {
	v, _ := ctx.Value(ctxKey{}).(*Info)
	return v
}

//
//  -----------------------------
//  Internal helpers
//  -----------------------------
//

// parseUA fills the user-agent fields of info using uasurfer.
func parseUA(info *Info, uaHeader string) {
	u := uasurfer.Parse(uaHeader)

	info.Browser = strings.TrimPrefix(u.Browser.Name.String(), "Browser")
	info.Version = trimVersion(u.Browser.Version)
	info.OS = strings.TrimPrefix(u.OS.Name.String(), "OS")
	if info.OS == "MacOSX" {
		info.OS = "macOS"
	}
	info.OSVersion = trimVersion(u.OS.Version)
	info.Device = deviceTypeToString(u.DeviceType)
	info.Bot = u.IsBot()
	if info.Browser == "Unknown" {
		info.Browser = ""
	}
	if info.OS == "Unknown" {
		info.OS = ""
	}
}

// trimVersion renders "major.minor.patch" without trailing zero parts;
// 0.0.0 becomes "".
func trimVersion(v uasurfer.Version) string {
	parts := []int{v.Major, v.Minor, v.Patch}
	for len(parts) > 0 && parts[len(parts)-1] == 0 {
		parts = parts[:len(parts)-1]
	}
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = strconv.Itoa(p)
	}
	return strings.Join(out, ".")
}

// deviceTypeToString maps uasurfer.DeviceType to a user-friendly string.
func deviceTypeToString(dt uasurfer.DeviceType) string {
	switch dt {
	case uasurfer.DeviceComputer:
		return "Desktop"
	case uasurfer.DevicePhone:
		return "Phone"
	case uasurfer.DeviceTablet:
		return "Tablet"
	case uasurfer.DeviceConsole:
		return "Console"
	case uasurfer.DeviceWearable:
		return "Wearable"
	case uasurfer.DeviceTV:
		return "TV"
	default:
		return "Unknown"
	}
}

// primaryLang extracts the first language subtag before any ";q=" rule.
func primaryLang(al string) string {
	if al == "" {
		return ""
	}
	tag, _, _ := strings.Cut(al, ",")
	tag, _, _ = strings.Cut(tag, ";")
	return strings.ToLower(strings.TrimSpace(tag))
}
