package plugin

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	slogcontext "github.com/veqryn/slog-context"

	"github.com/DSS32/thym/internal/project/vfs"
)

// Registry lists the plugins installed in one project's plugins folder.
//
// The scan result is cached behind an explicit loaded flag: a project with
// zero plugins is loaded and empty, not unscanned. Registry is safe for
// concurrent use.
type Registry struct {
	mu sync.RWMutex

	fsys vfs.VFS
	dir  string

	loaded  bool
	plugins []*Plugin
	index   map[string]int
	errs    []error
}

// NewRegistry creates a registry over the plugins folder dir.
func NewRegistry(fsys vfs.VFS, dir string) *Registry {
	return &Registry{
		fsys:  fsys,
		dir:   dir,
		index: make(map[string]int),
	}
}

// Dir returns the plugins folder.
func (r *Registry) Dir() string {
	return r.dir
}

// Home returns the folder plugin id is installed into.
// It fails with ErrNoPluginDirectory when that folder does not exist.
func (r *Registry) Home(id string) (string, error) {
	dir := filepath.Join(r.dir, id)
	if !r.fsys.IsDir(dir) {
		return dir, fmt.Errorf("%s: %w", id, ErrNoPluginDirectory)
	}
	return dir, nil
}

// ManifestPath returns where the manifest of plugin id lives once installed.
func (r *Registry) ManifestPath(id string) string {
	return filepath.Join(r.dir, id, ManifestFileName)
}

// IsInstalled reports whether plugins/<id>/plugin.xml exists.
// It never triggers a scan.
func (r *Registry) IsInstalled(id string) bool {
	if id == "" {
		return false
	}
	return r.fsys.IsRegular(r.ManifestPath(id))
}

// List returns the installed plugins in folder order, scanning first if the
// cache is not loaded. The returned slice must not be modified.
func (r *Registry) List(ctx context.Context) []*Plugin {
	r.EnsureLoaded(ctx)

	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.plugins
}

// Get returns the installed plugin with the given id.
func (r *Registry) Get(ctx context.Context, id string) (*Plugin, bool) {
	r.EnsureLoaded(ctx)

	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.index[id]
	if !ok {
		return nil, false
	}
	return r.plugins[i], true
}

// Loaded reports whether the cache holds a scan result.
func (r *Registry) Loaded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loaded
}

// EnsureLoaded scans the plugins folder if the cache is not loaded.
func (r *Registry) EnsureLoaded(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loaded {
		return
	}
	r.scanLocked(ctx)
}

// Invalidate drops the cached scan; the next List rescans.
func (r *Registry) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loaded = false
	r.plugins = nil
	r.index = make(map[string]int)
	r.errs = nil
}

// Errors returns the manifests the last scan could not read.
func (r *Registry) Errors() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return errors.Join(r.errs...)
}

// scanLocked reads every immediate subfolder's manifest. The cache is only
// published once the scan completes.
func (r *Registry) scanLocked(ctx context.Context) {
	logger := slogcontext.FromCtx(ctx)

	var (
		plugins []*Plugin
		index   = make(map[string]int)
		errs    []error
	)

	entries, err := r.fsys.ReadDir(r.dir)
	if err != nil && r.fsys.Exists(r.dir) {
		logger.Warn("cannot read plugins folder", "dir", r.dir, "error", err)
		errs = append(errs, err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		manifestPath := filepath.Join(entry.Path(), ManifestFileName)
		if !r.fsys.IsRegular(manifestPath) {
			continue
		}
		m, err := ParseManifest(r.fsys, manifestPath)
		if err != nil {
			logger.Error("skipping plugin", "dir", entry.Path(), "error", err)
			errs = append(errs, err)
			continue
		}

		p := m.Plugin()
		if i, ok := index[p.ID]; ok {
			plugins[i] = p
			continue
		}
		index[p.ID] = len(plugins)
		plugins = append(plugins, p)
	}

	r.plugins = plugins
	r.index = index
	r.errs = errs
	r.loaded = true
	logger.Debug("scanned plugins folder", "dir", r.dir, "plugins", len(plugins))
}
