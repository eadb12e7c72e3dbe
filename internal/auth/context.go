// internal/auth/context.go
//
// Operator authentication.
//
// Context
// -------
// Pages are authentication-gated, but credentials are owned by the
// backend.  The Middleware here extracts the bearer token (Authorization
// header, falling back to the “pawnboard_token” cookie), resolves it to an
// *api.Operator through the backend profile endpoint, and stores both in
// the request context.  Resolved profiles are cached briefly so a page
// mount does not re-authenticate every widget call.
//
// Usage
// -----
//
//	r.Use(auth.Middleware(resolver, time.Minute))
//	op, ok := auth.OperatorFrom(r.Context())
//
// Notes
// -----
// • The token is also placed in the context with api.WithToken, so
//   backend calls made for this request act as the operator.
// • Oxford commas, two spaces after periods.

package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/pawnboard/internal/api"
	"github.com/yanizio/pawnboard/internal/cache"
)

// TokenCookie is the optional cookie the login page stores the token in.
const TokenCookie = "pawnboard_token"

// Resolver turns a bearer token into an operator profile.
type Resolver interface {
	Me(ctx context.Context, token string) (*api.Operator, error)
}

// operatorKey is unexported to avoid context-key collisions.
type operatorKey struct{}

// WithOperator returns a new context carrying op.
func WithOperator(ctx context.Context, op *api.Operator) context.Context {
	return context.WithValue(ctx, operatorKey{}, op)
}

// OperatorFrom extracts the operator.  It returns (nil, false) when the
// middleware has not run.
func OperatorFrom(ctx context.Context) (*api.Operator, bool) {
	op, ok := ctx.Value(operatorKey{}).(*api.Operator)
	return op, ok && op != nil
}

// Middleware authenticates every request or answers 401.  ttl <= 0
// disables profile caching.
func Middleware(res Resolver, ttl time.Duration) func(http.Handler) http.Handler {
	var profiles *cache.LRU
	if ttl > 0 {
		profiles = cache.New(1024, ttl)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearer(r)
			if token == "" {
				writeStatus(w, http.StatusUnauthorized)
				return
			}

			key := fingerprint(token)
			var op *api.Operator
			if profiles != nil {
				if v, ok := profiles.Get(key); ok {
					op = v.(*api.Operator)
				}
			}
			if op == nil {
				var err error
				op, err = res.Me(r.Context(), token)
				switch {
				case errors.Is(err, api.ErrUnauthorized):
					writeStatus(w, http.StatusUnauthorized)
					return
				case err != nil:
					zap.L().Error("operator lookup", zap.Error(err))
					writeStatus(w, http.StatusBadGateway)
					return
				}
				if profiles != nil {
					profiles.Add(key, op)
				}
			}

			ctx := api.WithToken(WithOperator(r.Context(), op), token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearer reads the token from the Authorization header or the token cookie.
func bearer(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
			return strings.TrimSpace(h[7:])
		}
		return ""
	}
	if c, err := r.Cookie(TokenCookie); err == nil {
		return strings.TrimSpace(c.Value)
	}
	return ""
}

func fingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func writeStatus(w http.ResponseWriter, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(`{"error":"` + strings.ToLower(http.StatusText(code)) + `"}`))
}
