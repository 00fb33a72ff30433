package action

import (
	"context"
	"fmt"

	slogcontext "github.com/veqryn/slog-context"

	"github.com/DSS32/thym/internal/plugin/configxml"
	"github.com/DSS32/thym/internal/project/vfs"
)

// VCSDir is skipped when copying a plugin tree.
const VCSDir = ".git"

// CopyPluginTree copies a plugin folder to plugins/<id>.
type CopyPluginTree struct {
	Source      string
	Destination string
}

func (a *CopyPluginTree) Kind() Kind { return KindCopyPluginTree }

func (a *CopyPluginTree) String() string {
	return fmt.Sprintf("copy %s to %s", a.Source, a.Destination)
}

func (a *CopyPluginTree) Install(_ context.Context, fsys vfs.VFS) error {
	return vfs.CopyTree(fsys, a.Source, a.Destination, VCSDir)
}

// Uninstall removes the whole plugin folder.
func (a *CopyPluginTree) Uninstall(_ context.Context, fsys vfs.VFS) error {
	return fsys.RemoveAll(a.Destination)
}

func (a *CopyPluginTree) Overwrites(fsys vfs.VFS) ([]string, error) {
	return vfs.Conflicts(fsys, a.Source, a.Destination, VCSDir)
}

// PatchConfigDocument merges a <config-file> fragment into the project's
// config document.
type PatchConfigDocument struct {
	Document string
	Fragment string
}

func (a *PatchConfigDocument) Kind() Kind { return KindPatchConfig }

func (a *PatchConfigDocument) String() string {
	return fmt.Sprintf("patch %s", a.Document)
}

func (a *PatchConfigDocument) Install(ctx context.Context, fsys vfs.VFS) error {
	return patch(ctx, fsys, a.Document, a.Fragment, false)
}

func (a *PatchConfigDocument) Uninstall(ctx context.Context, fsys vfs.VFS) error {
	return patch(ctx, fsys, a.Document, a.Fragment, true)
}

func patch(ctx context.Context, fsys vfs.VFS, path, fragment string, revert bool) error {
	doc, err := configxml.Load(fsys, path)
	if err != nil {
		return err
	}
	var changed bool
	if revert {
		changed, err = doc.Revert(fragment)
	} else {
		changed, err = doc.Apply(fragment)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if !changed {
		slogcontext.FromCtx(ctx).Debug("document already up to date", "path", path)
		return nil
	}
	return doc.Save()
}

// DependencyInstaller installs a plugin a dependency action refers to.
type DependencyInstaller interface {
	InstallDependency(ctx context.Context, id, uri string) error
}

// InstallDependency runs a nested install of a dependency. Uninstalling the
// dependent plugin leaves its dependencies installed.
type InstallDependency struct {
	ID        string
	URI       string
	Installer DependencyInstaller
}

func (a *InstallDependency) Kind() Kind { return KindInstallDependency }

func (a *InstallDependency) String() string {
	if a.URI == "" {
		return fmt.Sprintf("install dependency %s", a.ID)
	}
	return fmt.Sprintf("install dependency %s from %s", a.ID, a.URI)
}

func (a *InstallDependency) Install(ctx context.Context, _ vfs.VFS) error {
	if a.Installer == nil {
		return fmt.Errorf("dependency %s: no installer", a.ID)
	}
	return a.Installer.InstallDependency(ctx, a.ID, a.URI)
}

func (a *InstallDependency) Uninstall(context.Context, vfs.VFS) error {
	return nil
}

// RecordInstalledPlugin records the plugin as a <feature> of the config
// document so the project can be restored later.
type RecordInstalledPlugin struct {
	Document string
	Name     string
	ID       string

	// Version is only recorded when exact versions are persisted.
	Version string
}

func (a *RecordInstalledPlugin) Kind() Kind { return KindRecordPlugin }

func (a *RecordInstalledPlugin) String() string {
	return fmt.Sprintf("record %s in %s", a.ID, a.Document)
}

func (a *RecordInstalledPlugin) Install(_ context.Context, fsys vfs.VFS) error {
	doc, err := configxml.Load(fsys, a.Document)
	if err != nil {
		return err
	}
	doc.Record(configxml.Feature{Name: a.Name, ID: a.ID, Version: a.Version})
	return doc.Save()
}

func (a *RecordInstalledPlugin) Uninstall(_ context.Context, fsys vfs.VFS) error {
	doc, err := configxml.Load(fsys, a.Document)
	if err != nil {
		return err
	}
	if !doc.Unrecord(a.ID) {
		return nil
	}
	return doc.Save()
}
