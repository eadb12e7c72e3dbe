// internal/server/timeouts.go
//
// HTTP server helper with robust timeouts.
//
// Production hardening recommends:
//
//   • ReadTimeout   – abort slow-loris headers (10 s)
//   • WriteTimeout  – cap total response time (30 s; a page mount waits
//                     for every widget fetch)
//   • IdleTimeout   – close keep-alives on idle clients (60 s)
//
// Values come from the `http` config section; zero falls back to the
// defaults above.  Run() adds graceful shutdown so cmd/web doesn't repeat
// boilerplate.
//

package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/pawnboard/internal/config"
)

// New constructs an *http.Server from the http config section.
func New(c config.HTTP, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         c.ListenAddr,
		Handler:      handler,
		ReadTimeout:  or(c.ReadTimeout, 10*time.Second),
		WriteTimeout: or(c.WriteTimeout, 30*time.Second),
		IdleTimeout:  or(c.IdleTimeout, 60*time.Second),
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests for up
// to grace.
func Run(ctx context.Context, srv *http.Server, grace time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("http listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	zap.L().Info("http shutting down", zap.Duration("grace", grace))
	sctx, cancel := context.WithTimeout(context.Background(), or(grace, 15*time.Second))
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func or(d, def time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return def
}
