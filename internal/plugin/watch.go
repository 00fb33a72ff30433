package plugin

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	slogcontext "github.com/veqryn/slog-context"
)

// DefaultWatchDelay is how long Watch waits for a burst of file events to
// settle before invalidating.
const DefaultWatchDelay = 200 * time.Millisecond

// WatchOptions configures Registry.Watch.
type WatchOptions struct {
	// Delay debounces bursts of events. Zero means DefaultWatchDelay.
	Delay time.Duration

	// OnInvalidate is called after each invalidation, outside any lock.
	OnInvalidate func()
}

// Watch invalidates the cache whenever the plugins folder, or a manifest in
// one of its immediate subfolders, changes on the OS file system. It blocks
// until ctx is done and returns nil then.
//
// Watch requires the registry to sit on the OS file system; the plugins
// folder must exist.
func (r *Registry) Watch(ctx context.Context, opts WatchOptions) error {
	logger := slogcontext.FromCtx(ctx)

	delay := opts.Delay
	if delay <= 0 {
		delay = DefaultWatchDelay
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch %s: %w", r.dir, err)
	}
	defer w.Close()

	if err := w.Add(r.dir); err != nil {
		return fmt.Errorf("watch %s: %w", r.dir, err)
	}
	r.watchSubfolders(w)

	timer := time.NewTimer(delay)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !r.relevant(ev) {
				continue
			}
			if ev.Has(fsnotify.Create) && filepath.Dir(ev.Name) == r.dir && r.fsys.IsDir(ev.Name) {
				_ = w.Add(ev.Name)
			}
			timer.Reset(delay)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("plugins folder watch error", "dir", r.dir, "error", err)

		case <-timer.C:
			r.Invalidate()
			logger.Debug("plugins folder changed, registry invalidated", "dir", r.dir)
			if opts.OnInvalidate != nil {
				opts.OnInvalidate()
			}
		}
	}
}

func (r *Registry) watchSubfolders(w *fsnotify.Watcher) {
	entries, err := r.fsys.ReadDir(r.dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.IsDir() {
			_ = w.Add(e.Path())
		}
	}
}

// relevant filters events down to plugin folders and manifests.
func (r *Registry) relevant(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	if filepath.Dir(ev.Name) == r.dir {
		return true
	}
	return filepath.Base(ev.Name) == ManifestFileName &&
		filepath.Dir(filepath.Dir(ev.Name)) == r.dir
}
