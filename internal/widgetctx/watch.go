// internal/widgetctx/watch.go
//
// Route table hot reload.
//
// Context
// -------
// Branch managers tune which widgets each page offers without a restart.
// WatchPolicy watches the directory holding conf/routes.yaml (editors and
// config-management tools replace files by rename, which a file watch
// would miss), re-parses the table after a short quiet period, and hands
// every valid result to apply.  A table that fails validation is logged
// and ignored, so the last good policy stays in force.
//
// Notes
// -----
//   - Oxford commas, two spaces after periods.
package widgetctx

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// reloadQuiet debounces bursts of write events.
const reloadQuiet = 250 * time.Millisecond

// WatchPolicy reloads path on change until ctx is done.  strictOverride is
// passed through to LoadPolicy.  The returned channel closes once the
// watcher has stopped.
func WatchPolicy(ctx context.Context, path string, strictOverride bool, apply func(*Policy)) (<-chan struct{}, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch route policy: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch route policy: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch route policy %s: %w", abs, err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer w.Close()

		var timer *time.Timer
		var fire <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != abs || ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if timer == nil {
					timer = time.NewTimer(reloadQuiet)
				} else {
					timer.Reset(reloadQuiet)
				}
				fire = timer.C
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				zap.L().Warn("route policy watch error", zap.Error(err))
			case <-fire:
				fire = nil
				p, err := LoadPolicy(abs, strictOverride)
				if err != nil {
					zap.L().Error("route policy reload rejected", zap.String("file", abs), zap.Error(err))
					continue
				}
				zap.L().Info("route policy reloaded",
					zap.String("file", abs),
					zap.Strings("prefixes", p.Prefixes()),
					zap.Bool("strict", p.Strict()))
				apply(p)
			}
		}
	}()
	return done, nil
}
