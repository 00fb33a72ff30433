// Package action defines the units of work an installation is made of and
// the executor that runs them.
//
// The planner turns a manifest into an ordered []Action. Core actions
// attach a plugin to the project; platform actions are built by a Factory
// so that where a file lands stays a per-platform decision. Every action is
// safe to run again: copies overwrite, document patches skip elements that
// are already present, records replace older records.
package action

import (
	"context"

	"github.com/DSS32/thym/internal/project/vfs"
)

// Kind identifies an action variant.
type Kind string

// Core kinds.
const (
	KindCopyPluginTree    Kind = "copy-plugin-tree"
	KindPatchConfig       Kind = "patch-config"
	KindInstallDependency Kind = "install-dependency"
	KindRecordPlugin      Kind = "record-plugin"
)

// Platform kinds.
const (
	KindCopyAsset        Kind = "copy-asset"
	KindCopySourceFile   Kind = "copy-source-file"
	KindCopyResourceFile Kind = "copy-resource-file"
	KindCopyHeaderFile   Kind = "copy-header-file"
	KindCopyLibFile      Kind = "copy-lib-file"
	KindLinkFramework    Kind = "link-framework"
	KindPlatformConfig   Kind = "patch-platform-config"
	KindRegisterJSModule Kind = "register-js-module"
	KindWriteModuleList  Kind = "write-module-list"
)

// Action is one step of an install or uninstall.
type Action interface {
	// Kind returns the variant.
	Kind() Kind

	// String describes the action for logs. It is stable for a given
	// action but not unique.
	String() string

	// Install applies the action to the tree.
	Install(ctx context.Context, fsys vfs.VFS) error

	// Uninstall reverses Install as far as the action is able to.
	Uninstall(ctx context.Context, fsys vfs.VFS) error
}

// Overwriter is implemented by actions that replace existing files.
type Overwriter interface {
	// Overwrites returns the files Install would replace.
	Overwrites(fsys vfs.VFS) ([]string, error)
}

// Factory builds the platform actions for one plugin on one platform.
// Paths given to the factory are exactly as the manifest declares them,
// relative to the plugin folder.
type Factory interface {
	AssetAction(src, target string) Action
	SourceFileAction(src, targetDir, framework, pluginID, compilerFlags string) Action
	ResourceFileAction(src, target string) Action
	HeaderFileAction(src, targetDir, pluginID string) Action
	LibFileAction(src, arch string) Action
	FrameworkAction(src, weak string) Action
	ConfigFileAction(target, parent, fragment string) Action
	JSModuleAction(src, pluginID, name string) Action
	ModuleListAction(content string) Action
}
