// internal/vault/vault.go
//
// Resolves `vault:` configuration references against HashiCorp Vault.
//
// Context
// -------
// Secrets such as the backend service token stay out of conf/global.yaml.
// The file carries a reference instead:
//
//	api:
//	  token: "vault:secret/pawnboard#api_token"
//
// internal/config collects every such string on Load and swaps it for the
// value of <key> in the KV-v2 secret <mount>/<path>.  Resolution happens
// once per Load, so the client keeps no cache and renews no token.
//
// Notes
// -----
//   - VAULT_ADDR and VAULT_TOKEN come from the environment (see
//     vault.DefaultConfig / ReadEnvironment).
//   - Oxford commas, two spaces after periods.
package vault

import (
	"context"
	"errors"
	"fmt"
	"strings"

	vault "github.com/hashicorp/vault/api"
	"go.uber.org/zap"
)

// Prefix marks a config value that must be resolved through Vault.
const Prefix = "vault:"

// ErrBadRef is returned for references without a mount, path, or key.
var ErrBadRef = errors.New("vault reference must look like <mount>/<path>#<key>")

// Client reads KV-v2 secrets.  Safe for concurrent use.
type Client struct {
	api *vault.Client
}

// New builds a client from the VAULT_* environment.
func New() (*Client, error) {
	cfg := vault.DefaultConfig()
	if err := cfg.ReadEnvironment(); err != nil {
		return nil, fmt.Errorf("vault env cfg: %w", err)
	}
	api, err := vault.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("vault api: %w", err)
	}
	return &Client{api: api}, nil
}

// Resolve returns the string value named by ref ("[vault:]<mount>/<path>#<key>").
func (c *Client) Resolve(ctx context.Context, ref string) (string, error) {
	secretPath, key, err := ParseRef(ref)
	if err != nil {
		return "", err
	}
	mount, rel := splitMount(secretPath)

	sec, err := c.api.KVv2(mount).Get(ctx, rel)
	if err != nil {
		return "", fmt.Errorf("vault get %s: %w", secretPath, err)
	}
	raw, ok := sec.Data[key]
	if !ok {
		return "", fmt.Errorf("key %q not found in secret %q", key, secretPath)
	}
	val, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("value at %s#%s is not a string", secretPath, key)
	}
	zap.S().Debugw("vault ref resolved", "secret", secretPath, "key", key)
	return val, nil
}

// ParseRef splits "<mount>/<path>#<key>".  A leading Prefix is accepted.
func ParseRef(ref string) (secretPath, key string, err error) {
	ref = strings.TrimPrefix(strings.TrimSpace(ref), Prefix)
	i := strings.LastIndexByte(ref, '#')
	if i <= 0 || i == len(ref)-1 {
		return "", "", fmt.Errorf("%w: %q", ErrBadRef, ref)
	}
	secretPath, key = ref[:i], ref[i+1:]
	if mount, rel := splitMount(secretPath); mount == "" || rel == "" {
		return "", "", fmt.Errorf("%w: %q", ErrBadRef, ref)
	}
	return secretPath, key, nil
}

func splitMount(p string) (mount, rel string) {
	mount, rel, _ = strings.Cut(p, "/")
	return mount, rel
}
