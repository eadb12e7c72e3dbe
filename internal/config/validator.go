// internal/config/validator.go
//
// Thin wrapper around go-playground/validator plus static defaults.
//
// Context
// -------
// `internal/config/loader.go` calls `applyDefaults` and then
// `validateStruct` immediately after it unmarshals the merged Koanf tree
// into a `Config` instance.  Any tag mismatch or validation error aborts
// startup, ensuring the binary never runs with partial, malformed, or
// missing configuration.
//
// Notes
// -----
//   • Defaults only fill zero values, so YAML and env always win.
//   • Oxford commas, two spaces after periods.

package config

import (
	"time"

	"github.com/go-playground/validator/v10"
)

//
// validator instance (package-level singleton)
//

var v = validator.New()

//
// public API
//

// validateStruct returns the first validation error, or nil on success.
func validateStruct(c *Config) error {
	return v.Struct(c)
}

//
// defaults
//

func applyDefaults(c *Config) {
	setDur(&c.HTTP.ReadTimeout, 10*time.Second)
	setDur(&c.HTTP.WriteTimeout, 30*time.Second)
	setDur(&c.HTTP.IdleTimeout, 60*time.Second)
	setDur(&c.HTTP.ShutdownTimeout, 15*time.Second)

	setDur(&c.API.Timeout, 10*time.Second)
	setDur(&c.API.RetryWait, 200*time.Millisecond)
	setDur(&c.API.CacheTTL, 5*time.Second)
	setDur(&c.API.ProfileTTL, time.Minute)
	if c.API.CacheSize == 0 {
		c.API.CacheSize = 2048
	}

	if c.Context.RoutesFile == "" {
		c.Context.RoutesFile = "conf/routes.yaml"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Dir == "" {
		c.Log.Dir = "logs"
	}
}

func setDur(d *time.Duration, def time.Duration) {
	if *d == 0 {
		*d = def
	}
}
