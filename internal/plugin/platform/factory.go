package platform

import (
	"path/filepath"

	"github.com/DSS32/thym/internal/plugin/action"
	"github.com/DSS32/thym/internal/plugin/modulelist"
)

// Factory builds platform actions for one plugin.
type Factory struct {
	layout     Layout
	place      Place
	pluginHome string
}

var _ action.Factory = (*Factory)(nil)

// FactoryOption configures a Factory.
type FactoryOption func(*Factory)

// WithAppName sets the application name used by layouts that nest files
// under it.
func WithAppName(name string) FactoryOption {
	return func(f *Factory) {
		f.place.AppName = name
	}
}

// NewFactory binds layout to the installed plugin folder pluginHome
// (plugins/<id>) and the platform project at platformDir.
func NewFactory(layout Layout, pluginHome, platformDir string, opts ...FactoryOption) *Factory {
	f := &Factory{
		layout:     layout,
		pluginHome: pluginHome,
		place: Place{
			PlatformDir: platformDir,
			PluginID:    filepath.Base(pluginHome),
		},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Place returns the placement context of the factory.
func (f *Factory) Place() Place {
	return f.place
}

func (f *Factory) src(rel string) string {
	return filepath.Join(f.pluginHome, filepath.FromSlash(rel))
}

func (f *Factory) AssetAction(src, target string) action.Action {
	return &action.CopyFile{
		K:           action.KindCopyAsset,
		Source:      f.src(src),
		Destination: f.layout.Asset(f.place, target),
	}
}

// SourceFileAction ignores framework and compilerFlags; they only matter to
// the native build.
func (f *Factory) SourceFileAction(src, targetDir, _, pluginID, _ string) action.Action {
	p := f.place
	p.PluginID = pluginID
	return &action.CopyFile{
		K:           action.KindCopySourceFile,
		Source:      f.src(src),
		Destination: f.layout.Source(p, src, targetDir),
	}
}

func (f *Factory) ResourceFileAction(src, target string) action.Action {
	return &action.CopyFile{
		K:           action.KindCopyResourceFile,
		Source:      f.src(src),
		Destination: f.layout.Resource(f.place, src, target),
	}
}

func (f *Factory) HeaderFileAction(src, targetDir, pluginID string) action.Action {
	p := f.place
	p.PluginID = pluginID
	return &action.CopyFile{
		K:           action.KindCopyHeaderFile,
		Source:      f.src(src),
		Destination: f.layout.Header(p, src, targetDir),
	}
}

func (f *Factory) LibFileAction(src, arch string) action.Action {
	return &action.CopyFile{
		K:           action.KindCopyLibFile,
		Source:      f.src(src),
		Destination: f.layout.Lib(f.place, src, arch),
	}
}

func (f *Factory) FrameworkAction(src, weak string) action.Action {
	return &action.LinkFramework{
		Index:    f.layout.FrameworkIndex(f.place),
		Src:      src,
		Weak:     weak,
		PluginID: f.place.PluginID,
	}
}

func (f *Factory) ConfigFileAction(target, _, fragment string) action.Action {
	return &action.PatchFile{
		Target:   f.layout.Config(f.place, target),
		Fragment: fragment,
	}
}

func (f *Factory) JSModuleAction(src, pluginID, name string) action.Action {
	return &action.JSModule{
		Source:      f.src(src),
		Destination: filepath.Join(f.layout.WWWDir(f.place), "plugins", pluginID, filepath.FromSlash(src)),
		ModuleID:    pluginID + "." + name,
	}
}

func (f *Factory) ModuleListAction(content string) action.Action {
	return &action.WriteFile{
		K:       action.KindWriteModuleList,
		Path:    filepath.Join(f.layout.WWWDir(f.place), modulelist.FileName),
		Content: content,
	}
}
