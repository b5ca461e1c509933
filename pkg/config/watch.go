package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const reloadDelay = 200 * time.Millisecond

// Watch calls onChange with the new settings whenever path changes on disk,
// until ctx is done. Files that fail to load are logged and skipped.
func Watch(ctx context.Context, path string, log *zap.SugaredLogger, onChange func(Settings)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// editors replace the file, so watch the directory instead
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	name := filepath.Clean(path)
	var reload <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != name {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			// coalesce the burst of events a single save produces
			reload = time.After(reloadDelay)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warnw("settings watcher error", "error", err)

		case <-reload:
			reload = nil

			settings, err := Load(path)
			if err != nil {
				log.Warnw("ignoring invalid settings", "path", path, "error", err)
				continue
			}

			log.Infow("settings reloaded", "path", path)
			onChange(settings)
		}
	}
}
