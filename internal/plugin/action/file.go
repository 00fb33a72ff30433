package action

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strconv"

	"github.com/DSS32/thym/internal/plugin/configxml"
	"github.com/DSS32/thym/internal/project/vfs"
)

// CopyFile copies one plugin file into a platform project. Factories use it
// for assets, source, resource, header and lib files.
type CopyFile struct {
	K           Kind
	Source      string
	Destination string
}

func (a *CopyFile) Kind() Kind { return a.K }

func (a *CopyFile) String() string {
	return fmt.Sprintf("%s %s to %s", a.K, a.Source, a.Destination)
}

func (a *CopyFile) Install(_ context.Context, fsys vfs.VFS) error {
	if fsys.IsDir(a.Source) {
		return vfs.CopyTree(fsys, a.Source, a.Destination)
	}
	return vfs.CopyFile(fsys, a.Source, a.Destination)
}

func (a *CopyFile) Uninstall(_ context.Context, fsys vfs.VFS) error {
	return fsys.RemoveAll(a.Destination)
}

// Overwrites lists the existing destination files whose content would
// change. Files already identical to the plugin's copy are not reported.
func (a *CopyFile) Overwrites(fsys vfs.VFS) ([]string, error) {
	if !fsys.IsDir(a.Source) {
		if fsys.IsRegular(a.Destination) && vfs.Differs(fsys, a.Source, a.Destination) {
			return []string{a.Destination}, nil
		}
		return nil, nil
	}
	conflicts, err := vfs.Conflicts(fsys, a.Source, a.Destination)
	if err != nil {
		return nil, err
	}
	var changed []string
	for _, dst := range conflicts {
		rel, err := filepath.Rel(a.Destination, dst)
		if err != nil {
			return nil, err
		}
		if vfs.Differs(fsys, filepath.Join(a.Source, rel), dst) {
			changed = append(changed, dst)
		}
	}
	return changed, nil
}

// WriteFile writes generated content, replacing any previous version.
type WriteFile struct {
	K       Kind
	Path    string
	Content string
}

func (a *WriteFile) Kind() Kind { return a.K }

func (a *WriteFile) String() string {
	return fmt.Sprintf("%s %s", a.K, a.Path)
}

func (a *WriteFile) Install(_ context.Context, fsys vfs.VFS) error {
	return writeFile(fsys, a.Path, []byte(a.Content))
}

func (a *WriteFile) Uninstall(_ context.Context, fsys vfs.VFS) error {
	return fsys.RemoveAll(a.Path)
}

// JSModule copies a plugin's JavaScript module wrapped in its module
// definition so the runtime can require it by id.
type JSModule struct {
	Source      string
	Destination string

	// ModuleID is "<pluginID>.<name>".
	ModuleID string
}

func (a *JSModule) Kind() Kind { return KindRegisterJSModule }

func (a *JSModule) String() string {
	return fmt.Sprintf("register module %s from %s", a.ModuleID, a.Source)
}

func (a *JSModule) Install(_ context.Context, fsys vfs.VFS) error {
	src, err := fsys.ReadFile(a.Source)
	if err != nil {
		return fmt.Errorf("read module %s: %w", a.Source, err)
	}
	return writeFile(fsys, a.Destination, []byte(WrapModule(a.ModuleID, string(src))))
}

func (a *JSModule) Uninstall(_ context.Context, fsys vfs.VFS) error {
	return fsys.RemoveAll(a.Destination)
}

// WrapModule returns src wrapped in the module definition for id.
func WrapModule(id, src string) string {
	return "cordova.define(" + strconv.Quote(id) + ", function(require, exports, module) {\n" + src + "\n});\n"
}

// PatchFile merges a <config-file> fragment into a platform XML file such
// as AndroidManifest.xml.
type PatchFile struct {
	Target   string
	Fragment string
}

func (a *PatchFile) Kind() Kind { return KindPlatformConfig }

func (a *PatchFile) String() string {
	return fmt.Sprintf("patch %s", a.Target)
}

func (a *PatchFile) Install(ctx context.Context, fsys vfs.VFS) error {
	return patch(ctx, fsys, a.Target, a.Fragment, false)
}

// Uninstall reverts the patch. A missing target has nothing to revert.
func (a *PatchFile) Uninstall(ctx context.Context, fsys vfs.VFS) error {
	err := patch(ctx, fsys, a.Target, a.Fragment, true)
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, configxml.ErrParentNotFound) {
		return nil
	}
	return err
}

func writeFile(fsys vfs.VFS, path string, data []byte) error {
	if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return fsys.WriteFile(path, data, 0o644)
}
