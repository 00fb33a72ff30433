// Package platform decides where plugin declarations land inside a platform
// project and builds the matching actions.
//
// A Layout maps declarations to paths for one platform. NewFactory binds a
// layout to one plugin and one platform project and implements
// action.Factory for the planner.
package platform

import (
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

// Place identifies the plugin and platform project a path is computed for.
type Place struct {
	// PlatformDir is the platform project root.
	PlatformDir string

	// PluginID is the plugin being completed.
	PluginID string

	// AppName is the application name; iOS nests sources under it.
	AppName string
}

// Layout maps plugin declarations to platform project paths. Every path
// function returns an absolute path below p.PlatformDir.
type Layout struct {
	// ID is the platform name used in <platform name="...">.
	ID string

	// WWW is the web root relative to the platform project.
	WWW string

	Asset    func(p Place, target string) string
	Source   func(p Place, src, targetDir string) string
	Header   func(p Place, src, targetDir string) string
	Resource func(p Place, src, target string) string
	Lib      func(p Place, src, arch string) string

	// Config resolves a <config-file> target such as
	// "AndroidManifest.xml" or "*-Info.plist".
	Config func(p Place, target string) string
}

// WWWDir returns the absolute web root of the platform project.
func (l Layout) WWWDir(p Place) string {
	return filepath.Join(p.PlatformDir, filepath.FromSlash(l.WWW))
}

// FrameworkIndex returns the file linked frameworks are recorded in.
func (l Layout) FrameworkIndex(p Place) string {
	return filepath.Join(p.PlatformDir, "thym", "frameworks.json")
}

var (
	mu      sync.RWMutex
	layouts = map[string]Layout{}
)

// Register adds or replaces a layout.
func Register(l Layout) {
	mu.Lock()
	defer mu.Unlock()
	layouts[l.ID] = l
}

// Lookup returns the layout registered for id.
func Lookup(id string) (Layout, bool) {
	mu.RLock()
	defer mu.RUnlock()
	l, ok := layouts[id]
	return l, ok
}

// IDs returns the registered platform ids, sorted.
func IDs() []string {
	mu.RLock()
	defer mu.RUnlock()
	ids := make([]string, 0, len(layouts))
	for id := range layouts {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func init() {
	Register(Android())
	Register(IOS())
}

func join(base string, parts ...string) string {
	elems := []string{base}
	for _, p := range parts {
		elems = append(elems, filepath.FromSlash(p))
	}
	return filepath.Join(elems...)
}

// Android returns the layout of a Gradle based Android project.
func Android() Layout {
	return Layout{
		ID:  "android",
		WWW: "app/src/main/assets/www",
		Asset: func(p Place, target string) string {
			return join(p.PlatformDir, "app/src/main/assets/www", target)
		},
		Source: func(p Place, src, targetDir string) string {
			return join(p.PlatformDir, "app/src/main/java", stripSrc(targetDir), filepath.Base(src))
		},
		Header: func(p Place, src, targetDir string) string {
			return join(p.PlatformDir, "app/src/main/cpp", targetDir, filepath.Base(src))
		},
		Resource: func(p Place, src, target string) string {
			if target == "" {
				target = filepath.Base(src)
			}
			return join(p.PlatformDir, "app/src/main", target)
		},
		Lib: func(p Place, src, arch string) string {
			if arch != "" {
				return join(p.PlatformDir, "app/libs", arch, filepath.Base(src))
			}
			return join(p.PlatformDir, "app/libs", filepath.Base(src))
		},
		Config: func(p Place, target string) string {
			return join(p.PlatformDir, "app/src/main", target)
		},
	}
}

// stripSrc drops the leading "src/" Android plugins put in target-dir.
func stripSrc(targetDir string) string {
	targetDir = filepath.ToSlash(targetDir)
	if targetDir == "src" {
		return ""
	}
	return strings.TrimPrefix(targetDir, "src/")
}

// IOS returns the layout of an Xcode project named after the application.
func IOS() Layout {
	app := func(p Place) string {
		if p.AppName == "" {
			return "App"
		}
		return p.AppName
	}
	return Layout{
		ID:  "ios",
		WWW: "www",
		Asset: func(p Place, target string) string {
			return join(p.PlatformDir, "www", target)
		},
		Source: func(p Place, src, targetDir string) string {
			return join(p.PlatformDir, app(p), "Plugins", p.PluginID, targetDir, filepath.Base(src))
		},
		Header: func(p Place, src, targetDir string) string {
			return join(p.PlatformDir, app(p), "Plugins", p.PluginID, targetDir, filepath.Base(src))
		},
		Resource: func(p Place, src, target string) string {
			if target == "" {
				target = filepath.Base(src)
			}
			return join(p.PlatformDir, app(p), "Resources", target)
		},
		Lib: func(p Place, src, _ string) string {
			return join(p.PlatformDir, app(p), "Plugins", p.PluginID, filepath.Base(src))
		},
		Config: func(p Place, target string) string {
			return join(p.PlatformDir, app(p), strings.ReplaceAll(target, "*", app(p)))
		},
	}
}
