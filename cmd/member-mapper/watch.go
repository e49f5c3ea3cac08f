package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// watchFile calls fn once, then again every time path is written or
// replaced, until ctx is done.
func watchFile(ctx context.Context, path string, logger *slog.Logger, fn func()) error {
	target, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}

	defer func() {
		_ = w.Close()
	}()

	// Editors often save by renaming over the file, which drops a watch on
	// the file itself.
	if err := w.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}

	fn()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			name, err := filepath.Abs(ev.Name)
			if err != nil || name != target {
				continue
			}

			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			logger.Debug("rule file changed", slog.String("path", path), slog.String("op", ev.Op.String()))
			fn()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}

			logger.Debug("fsnotify error", slog.String("err", err.Error()))
		}
	}
}
