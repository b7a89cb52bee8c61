package metrics

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"stagegate/internal/bootstrap/logging"
	"stagegate/internal/errs"
)

// Watch reloads the resolver when its source file changes, until ctx is
// cancelled. Editors often replace files instead of writing in place, so
// the parent directory is watched and events are filtered by name.
func (r *StaticResolver) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errs.Wrap(err, "create metric source watcher")
	}
	defer func() {
		_ = watcher.Close()
	}()

	dir := filepath.Dir(r.path)
	if err := watcher.Add(dir); err != nil {
		return errs.Wrapf(err, "watch metric source directory %q", dir)
	}

	target := filepath.Base(r.path)
	logCtx := logging.WithAttrs(ctx, slog.String("component", "metrics.watcher"), slog.String("path", r.path))
	logging.Info(logCtx, "metric source watch started")

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if err := r.Reload(); err != nil {
				logging.Warn(logCtx, "metric source reload failed, keeping previous table", slog.Any("err", errs.Loggable(err)))
				continue
			}
			logging.Info(logCtx, "metric source reloaded")
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Warn(logCtx, "metric source watcher error", slog.Any("err", errs.Loggable(err)))
		}
	}
}
