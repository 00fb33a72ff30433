package project

import (
	"path/filepath"

	"github.com/DSS32/thym/internal/plugin/configxml"
)

// Default folder names below the project root.
const (
	DefaultPluginsDir   = "plugins"
	DefaultPlatformsDir = "platforms"
)

// Project describes the folders of one hybrid application project.
type Project struct {
	// Root is the project folder.
	Root string

	// ConfigDocument is the config.xml patched by plugins.
	ConfigDocument string

	// PluginsDir holds one folder per installed plugin.
	PluginsDir string

	platformDirs map[string]string
}

// Option configures a Project.
type Option func(*Project)

// WithConfigDocument sets the config document. Relative paths are
// resolved against the project root.
func WithConfigDocument(path string) Option {
	return func(p *Project) {
		if path != "" {
			p.ConfigDocument = p.resolve(path)
		}
	}
}

// WithPluginsDir sets the plugins folder.
func WithPluginsDir(dir string) Option {
	return func(p *Project) {
		if dir != "" {
			p.PluginsDir = p.resolve(dir)
		}
	}
}

// WithPlatformDir sets the project folder of one platform.
func WithPlatformDir(platformID, dir string) Option {
	return func(p *Project) {
		if dir != "" {
			p.platformDirs[platformID] = p.resolve(dir)
		}
	}
}

// New describes the project rooted at root.
func New(root string, opts ...Option) *Project {
	root = filepath.Clean(root)
	p := &Project{
		Root:           root,
		ConfigDocument: filepath.Join(root, configxml.FileName),
		PluginsDir:     filepath.Join(root, DefaultPluginsDir),
		platformDirs:   make(map[string]string),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PlatformDir returns the project folder of platformID,
// <root>/platforms/<id> unless configured otherwise.
func (p *Project) PlatformDir(platformID string) string {
	if dir, ok := p.platformDirs[platformID]; ok {
		return dir
	}
	return filepath.Join(p.Root, DefaultPlatformsDir, platformID)
}

func (p *Project) resolve(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(p.Root, path)
}
