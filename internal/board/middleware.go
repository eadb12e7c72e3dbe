package board

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/yanizio/pawnboard/internal/auth"
	"github.com/yanizio/pawnboard/internal/requestinfo"
	"github.com/yanizio/pawnboard/internal/session"
)

type boardKey struct{}

// FromContext returns the board attached by Attach, or nil.
func FromContext(ctx context.Context) *Board {
	b, _ := ctx.Value(boardKey{}).(*Board)
	return b
}

// Attach finds or creates the caller's board and stores it in the request
// context.  A missing, malformed, or foreign session cookie starts a new
// session.  A board without a client stamp takes the requestinfo.Info of
// the request when requestinfo.Enrich ran first.  Must run after
// auth.Middleware.
func Attach(c *Cache) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			op, ok := auth.OperatorFrom(r.Context())
			if !ok {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}

			id, ok := session.ID(r)
			var b *Board
			if ok {
				b, _ = c.Open(id, op.ID)
			}
			if b == nil {
				id = session.NewID()
				var err error
				if b, err = c.Open(id, op.ID); err != nil {
					zap.L().Error("board open", zap.Error(err))
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
					return
				}
				session.Set(w, r, id)
			}
			// Boards recreated under a surviving cookie after eviction
			// are new too.
			if info := requestinfo.FromContext(r.Context()); info != nil {
				b.stampClient(*info)
			}

			ctx := context.WithValue(r.Context(), boardKey{}, b)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
