// internal/config/loader.go
//
// Configuration loader and reloader.
//
/*
Context
--------
`Load()` builds one immutable `Config` struct from three layers (highest
precedence last):

  1. Optional `.env` file at `<root>/conf/.env`.
  2. `conf/global.yaml`.
  3. Environment variables prefixed `PAWNBOARD_`, where `__` maps to “.”
     (e.g., `PAWNBOARD_API__BASE_URL → api.base_url`).

After merging, every string value that starts with `vault:` is replaced by
the secret it names.  The tree is then unmarshalled into strongly-typed
structs, defaulted, validated, enriched with the runtime root path, and
cached in an `atomic.Pointer` for lock-free reads.  `Reload()` simply calls
`Load()` again and swaps the pointer.

Instrumentation
---------------
  • DEBUG spans: root discovery, YAML read, env overlay, vault refs.
  • ERROR spans: YAML parse, env overlay, vault, unmarshal, validation.
  • INFO  span:  final “config loaded” with key highlights.
  • Logs use the global *sugared* logger (`zap.S()`) so early boot issues
    surface even before the file logger is installed.

Notes
-----
  • `rootDir()` climbs the cwd tree until it finds `conf/global.yaml`;
    this lets `go run ./cmd/web` work from any sub-directory.
  • The Vault client is only dialled when at least one `vault:` value is
    present, so local development needs no VAULT_ADDR.
  • Oxford commas, two spaces after periods.
*/
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
	"go.uber.org/zap"

	"github.com/yanizio/pawnboard/internal/vault"
)

// EnvPrefix marks environment overrides.
const EnvPrefix = "PAWNBOARD_"

var current atomic.Pointer[Config]

// Secrets resolves `vault:` references.
type Secrets interface {
	Resolve(ctx context.Context, ref string) (string, error)
}

// newSecrets dials Vault on demand.  Tests swap it for a fake.
var newSecrets = func(context.Context) (Secrets, error) {
	return vault.New()
}

/*──────────────────────────── root discovery ───────────────────────────────*/

// rootDir resolves PAWNBOARD_ROOT or climbs directories until
// conf/global.yaml is found.  Falls back to executable heuristic for
// production layout.
func rootDir() string {
	if r := os.Getenv(EnvPrefix + "ROOT"); r != "" {
		return r
	}

	wd, _ := os.Getwd()
	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, "conf", "global.yaml")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir { // reached filesystem root
			break
		}
		dir = parent
	}

	exe, _ := os.Executable()
	if filepath.Base(filepath.Dir(exe)) == "bin" {
		return filepath.Dir(filepath.Dir(exe))
	}
	return wd
}

/*─────────────────────────────── loader ───────────────────────────────────*/

// Load reads .env, YAML, env overrides, resolves secrets, validates, and
// caches Config.  ctx bounds Vault lookups.
func Load(ctx context.Context) (*Config, error) {
	root := rootDir()
	zap.S().Debugw("config root resolved", "root", root)

	// .env (optional, no error if missing)
	_ = godotenv.Load(filepath.Join(root, "conf", ".env"))

	k := koanf.New(".")

	yamlPath := filepath.Join(root, "conf", "global.yaml")
	if err := k.Load(file.Provider(yamlPath), yaml.Parser()); err != nil {
		zap.S().Errorw("config yaml load failed", "file", yamlPath, "err", err)
		return nil, fmt.Errorf("config: %w", err)
	}
	zap.S().Debugw("config yaml loaded", "file", yamlPath)

	// Env overrides: PAWNBOARD_API__BASE_URL → api.base_url
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		zap.S().Errorw("config env overlay failed", "err", err)
		return nil, fmt.Errorf("config env: %w", err)
	}

	if err := resolveSecrets(ctx, k); err != nil {
		zap.S().Errorw("config vault resolve failed", "err", err)
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		zap.S().Errorw("config unmarshal failed", "err", err)
		return nil, fmt.Errorf("config unmarshal: %w", err)
	}

	cfg.Paths.Root = root
	applyDefaults(&cfg)
	if err := validateStruct(&cfg); err != nil {
		zap.S().Errorw("config validation failed", "err", err)
		return nil, fmt.Errorf("config invalid: %w", err)
	}

	current.Store(&cfg)
	zap.S().Infow("config loaded",
		"listen_addr", cfg.HTTP.ListenAddr,
		"force_https", cfg.HTTP.ForceHTTPS,
		"api", cfg.API.BaseURL,
		"routes_file", cfg.Context.RoutesFile,
		"root", cfg.Paths.Root,
	)
	return &cfg, nil
}

// envKey maps PAWNBOARD_BOARD__IDLE_TTL to board.idle_ttl.
func envKey(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	return strings.ToLower(strings.ReplaceAll(s, "__", "."))
}

// resolveSecrets swaps every `vault:` string for its secret value.
func resolveSecrets(ctx context.Context, k *koanf.Koanf) error {
	var keys []string
	for key, val := range k.All() {
		if s, ok := val.(string); ok && strings.HasPrefix(s, vault.Prefix) {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return nil
	}
	sort.Strings(keys)
	zap.S().Debugw("config vault refs", "keys", keys)

	sec, err := newSecrets(ctx)
	if err != nil {
		return fmt.Errorf("config vault: %w", err)
	}
	for _, key := range keys {
		val, err := sec.Resolve(ctx, k.String(key))
		if err != nil {
			return fmt.Errorf("config vault %s: %w", key, err)
		}
		if err := k.Set(key, val); err != nil {
			return fmt.Errorf("config vault %s: %w", key, err)
		}
	}
	return nil
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

// Abs joins p to the root unless it is already absolute.
func (c *Config) Abs(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Paths.Root, p)
}

func Get() *Config { return current.Load() }

func Reload(ctx context.Context) error { _, err := Load(ctx); return err }
