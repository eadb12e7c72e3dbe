// internal/api/client.go
//
// Thin REST client for the pawnshop backend.
//
// Context
// -------
// All aggregation, persistence, and authorization live behind the external
// backend.  This package only fetches JSON documents from it:
//
//	cli, err := api.New(api.Options{BaseURL: cfg.API.BaseURL, Token: cfg.API.Token})
//	raw, err := cli.Get(ctx, "/dashboard/summary", api.BranchDate(3, "2026-10-17"))
//
// Workflow
// --------
//  1. The operator's bearer token travels in the request context
//     (WithToken).  The configured service token is the fallback.
//  2. Requests go through go-retryablehttp, which retries connection errors
//     and 5xx responses with backoff.
//  3. Successful bodies are validated as JSON and kept in a short-TTL LRU
//     keyed by token, path, and query.
//  4. Non-2xx responses surface as *StatusError.
//
// Notes
// -----
//   - Payload shapes are opaque here; widgets own their schema.
//   - Oxford commas, two spaces after periods.
package api

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/yanizio/pawnboard/internal/cache"
	"github.com/yanizio/pawnboard/internal/metrics"
)

// maxBody caps how much of a response we read.
const maxBody = 4 << 20

// ErrMalformed is returned when the backend answers 2xx with a body that is
// not valid JSON.
var ErrMalformed = errors.New("backend returned malformed JSON")

// ErrUnauthorized matches any *StatusError with code 401 or 403 via
// errors.Is.
var ErrUnauthorized = errors.New("backend rejected credentials")

// StatusError reports a non-2xx backend response.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: backend status %d: %s", e.Method, e.Path, e.Code, e.Body)
}

// Is lets errors.Is(err, ErrUnauthorized) match auth failures.
func (e *StatusError) Is(target error) bool {
	return target == ErrUnauthorized &&
		(e.Code == http.StatusUnauthorized || e.Code == http.StatusForbidden)
}

// Options configures New.
type Options struct {
	BaseURL   string
	Token     string
	Timeout   time.Duration
	Retries   int
	RetryWait time.Duration
	CacheTTL  time.Duration
	CacheSize int
}

// Client is safe for concurrent use.
type Client struct {
	base  *url.URL
	token string
	http  *retryablehttp.Client
	cache *cache.LRU
}

// New validates opts and builds a Client.
func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("api base url %q is not absolute", opts.BaseURL)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 512
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = opts.Retries
	if opts.RetryWait > 0 {
		rc.RetryWaitMin = opts.RetryWait
		rc.RetryWaitMax = 4 * opts.RetryWait
	}
	rc.HTTPClient.Timeout = opts.Timeout
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.Logger = zapLeveled{zap.S().Named("api")}

	c := &Client{base: base, token: opts.Token, http: rc}
	if opts.CacheTTL > 0 {
		c.cache = cache.New(opts.CacheSize, opts.CacheTTL)
	}
	return c, nil
}

/*──────────────────────────── requests ─────────────────────────────────────*/

// Get fetches path with query and returns the raw JSON body.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	token := c.tokenFor(ctx)
	key := cacheKey(token, path, query)
	if c.cache != nil {
		if v, ok := c.cache.Get(key); ok {
			return v.(json.RawMessage), nil
		}
	}

	body, err := c.do(ctx, http.MethodGet, path, query, token)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("GET %s: %w", path, ErrMalformed)
	}

	raw := json.RawMessage(body)
	if c.cache != nil {
		c.cache.Add(key, raw)
	}
	return raw, nil
}

// GetJSON fetches path and decodes the body into out.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	raw, err := c.Get(ctx, path, query)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("GET %s: decode: %w", path, errors.Join(ErrMalformed, err))
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, token string) ([]byte, error) {
	u := *c.base
	u.Path = strings.TrimRight(c.base.Path, "/") + "/" + strings.TrimLeft(path, "/")
	u.RawQuery = query.Encode()

	req, err := retryablehttp.NewRequestWithContext(ctx, method, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%s %s: build request: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.APIRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	metrics.APIRequestsTotal.WithLabelValues(statusClass(resp.StatusCode)).Inc()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("%s %s: read body: %w", method, path, err)
	}

	zap.L().Debug("api call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{
			Method: method,
			Path:   path,
			Code:   resp.StatusCode,
			Body:   truncate(strings.TrimSpace(string(body)), 256),
		}
	}
	return body, nil
}

/*──────────────────────────── helpers ──────────────────────────────────────*/

// BranchDate builds the branchId/date query every analytics endpoint takes.
func BranchDate(branchID int, date string) url.Values {
	q := url.Values{}
	q.Set("branchId", strconv.Itoa(branchID))
	q.Set("date", date)
	return q
}

func (c *Client) tokenFor(ctx context.Context) string {
	if t, ok := TokenFrom(ctx); ok {
		return t
	}
	return c.token
}

// cacheKey hashes the token so raw credentials never sit in cache keys.
func cacheKey(token, path string, q url.Values) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:8]) + "|" + path + "?" + q.Encode()
}

func statusClass(code int) string {
	return strconv.Itoa(code/100) + "xx"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
