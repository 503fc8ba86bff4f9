package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rubiojr/carefinder/pkg/log"
)

// Watch calls onChange whenever the file at path is written, created or
// replaced. The parent directory is watched and events are filtered on the
// file name, so atomic saves and a delete followed by a later re-create are
// both seen. Watch blocks until ctx is done.
func Watch(ctx context.Context, path string, onChange func()) error {
	l := log.ForService("watch")

	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("watching %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			l.Warnf("failed to close watcher: %v", err)
		}
	}()

	dir, base := filepath.Dir(path), filepath.Base(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	l.Debugf("watching %s", path)

	relevant := func(event fsnotify.Event) bool {
		if filepath.Base(event.Name) != base {
			return false
		}
		return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevant(event) {
				continue
			}
			l.Debugf("%s changed (%s)", event.Name, event.Op)

			// Let a burst of events from one save settle, then fold them.
			if !sleepCtx(ctx, 200*time.Millisecond) {
				return nil
			}
			drainEvents(watcher)

			if _, err := os.Stat(path); os.IsNotExist(err) {
				l.Warnf("%s was removed, keeping current data until it reappears", path)
				continue
			}
			onChange()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			l.Errorf("watcher error: %v", err)
		}
	}
}

func drainEvents(watcher *fsnotify.Watcher) {
	for {
		select {
		case _, ok := <-watcher.Events:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
