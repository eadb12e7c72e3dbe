// internal/config/model.go
//
// Typed configuration model for pawnboard.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `.env`                             – dotenv values,
//   • `conf/global.yaml`                          – primary static file,
//   • `PAWNBOARD_`-prefixed environment overrides – highest precedence.
//
// Any value whose string begins with the prefix `vault:` is resolved
// through the Vault client *before* unmarshalling, so the model never
// stores Vault URIs, only plain strings.
//
// Validation happens immediately after unmarshal; the app fails fast if
// required fields are missing.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`.  Koanf ignores `yaml`
//     tags unless configured otherwise.
//   • Durations accept Go syntax ("30s", "15m").
//   • The `Paths` block is filled at runtime; YAML must not try to set it.
//   • Oxford commas, two spaces after periods.  No em-dash.

package config

import "time"

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr      string        `koanf:"listen_addr"      validate:"required,hostname_port"`
	ForceHTTPS      bool          `koanf:"force_https"`
	ReadTimeout     time.Duration `koanf:"read_timeout"     validate:"gte=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout"    validate:"gte=0"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"     validate:"gte=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gte=0"`
}

//
// Backend API section
//

// API points at the pawnshop backend REST service.
//
// `Token` is an optional service token used when a request carries no
// operator token; keep it in Vault (`vault:secret/pawnboard#api_token`).
type API struct {
	BaseURL    string        `koanf:"base_url"    validate:"required,url"`
	Token      string        `koanf:"token"`
	Timeout    time.Duration `koanf:"timeout"     validate:"gte=0"`
	Retries    int           `koanf:"retries"     validate:"gte=0,lte=10"`
	RetryWait  time.Duration `koanf:"retry_wait"  validate:"gte=0"`
	CacheTTL   time.Duration `koanf:"cache_ttl"   validate:"gte=0"`
	CacheSize  int           `koanf:"cache_size"  validate:"gte=0"`
	ProfileTTL time.Duration `koanf:"profile_ttl" validate:"gte=0"`
}

//
// Board section
//

// Board tunes the per-session board cache and widget fetching.
type Board struct {
	IdleTTL          time.Duration `koanf:"idle_ttl"          validate:"gte=0"`
	MaxEntries       int           `koanf:"max_entries"       validate:"gte=0"`
	EvictInterval    time.Duration `koanf:"evict_interval"    validate:"gte=0"`
	FetchTimeout     time.Duration `koanf:"fetch_timeout"     validate:"gte=0"`
	FetchConcurrency int           `koanf:"fetch_concurrency" validate:"gte=0,lte=64"`
}

//
// Context section
//

// Context configures the route policy of the widget context registry.
// `RoutesFile` is relative to the root unless absolute.
type Context struct {
	RoutesFile          string `koanf:"routes_file" validate:"required"`
	StrictUnknownRoutes bool   `koanf:"strict_unknown_routes"`
}

//
// Log section
//

// Log controls the zap logger.  `Dir` is relative to the root unless
// absolute.
type Log struct {
	Level string `koanf:"level" validate:"omitempty,oneof=debug info warn error"`
	Dir   string `koanf:"dir"`
	Tee   *bool  `koanf:"tee"` // nil → tee only when stdout is a TTY
}

//
// GeoIP section
//

// GeoIP points at an optional GeoLite2-City database used to label board
// sessions with the client's country.  Empty disables lookups.
type GeoIP struct {
	DBPath string `koanf:"db_path"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime, never set in YAML or env.  The loader
// discovers `Root` (repo root or PAWNBOARD_ROOT override) so later code
// can build absolute file paths.
type Paths struct {
	Root string // PAWNBOARD_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the app lifetime.
type Config struct {
	HTTP     HTTP    `koanf:"http"`
	API      API     `koanf:"api"`
	Board    Board   `koanf:"board"`
	Context  Context `koanf:"context"`
	Log      Log     `koanf:"log"`
	GeoIP    GeoIP   `koanf:"geoip"`
	TimeZone string  `koanf:"time_zone" validate:"omitempty,timezone"`
	Paths    Paths   `koanf:"-"` // not loaded from config files
}

// Location returns the configured dashboard time zone, Asia/Bangkok when
// unset.
func (c *Config) Location() (*time.Location, error) {
	name := c.TimeZone
	if name == "" {
		name = "Asia/Bangkok"
	}
	return time.LoadLocation(name)
}
