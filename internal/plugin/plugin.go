package plugin

import "slices"

// ManifestFileName is the manifest every plugin folder carries.
const ManifestFileName = "plugin.xml"

// Plugin is an installed (or about to be installed) plugin.
// Two plugins are the same plugin when their IDs match.
type Plugin struct {
	ID          string
	Name        string
	Version     string
	Description string

	// Preferences are the names of the preferences the plugin declares,
	// common block first, then platform blocks in document order.
	Preferences []string

	// Modules are the JavaScript modules of the common block followed by
	// those of each platform block.
	Modules []JavaScriptModule

	// Platforms lists the platform blocks present in the manifest.
	Platforms []string

	// Dir is the plugin folder the manifest was read from.
	Dir string
}

// Equal reports whether p and other denote the same plugin.
func (p *Plugin) Equal(other *Plugin) bool {
	if p == nil || other == nil {
		return p == other
	}
	return p.ID == other.ID
}

// SupportsPlatform returns true if the manifest has a block for platformID.
func (p *Plugin) SupportsPlatform(platformID string) bool {
	return slices.Contains(p.Platforms, platformID)
}

// ModulesFor returns the modules that load on platformID: modules without a
// platform plus those declared for platformID, in declaration order.
func (p *Plugin) ModulesFor(platformID string) []JavaScriptModule {
	var out []JavaScriptModule
	for _, m := range p.Modules {
		if m.AppliesTo(platformID) {
			out = append(out, m)
		}
	}
	return out
}

// JavaScriptModule is a <js-module> declaration.
type JavaScriptModule struct {
	// Source is the module file relative to the plugin root.
	Source string

	// Name is the logical module name.
	Name string

	// Platform is empty for modules that load on every platform.
	Platform string

	// Runs marks modules executed on load without being required.
	Runs bool

	// Clobbers and Merges list the global symbols the module replaces or
	// merges into.
	Clobbers []string
	Merges   []string
}

// AppliesTo returns true if the module loads on platformID.
func (m JavaScriptModule) AppliesTo(platformID string) bool {
	return m.Platform == "" || m.Platform == platformID
}

// Dependency is a <dependency> declaration.
// Empty strings mean the attribute was absent.
type Dependency struct {
	ID     string
	URL    string
	Commit string
	Subdir string
}

// Preference is a <preference> declaration.
type Preference struct {
	Name    string
	Default string
}

// ConfigFile is a <config-file> declaration.
type ConfigFile struct {
	Target string
	Parent string

	// Fragment is the serialized <config-file> element including children.
	Fragment string
}

// Asset is an <asset> declaration.
type Asset struct {
	Src    string
	Target string
}

// SourceFile is a <source-file> declaration.
type SourceFile struct {
	Src           string
	TargetDir     string
	Framework     string
	CompilerFlags string
}

// ResourceFile is a <resource-file> declaration.
type ResourceFile struct {
	Src    string
	Target string
}

// HeaderFile is a <header-file> declaration.
type HeaderFile struct {
	Src       string
	TargetDir string
}

// LibFile is a <lib-file> declaration.
type LibFile struct {
	Src  string
	Arch string
}

// Framework is a <framework> declaration. Weak is passed through verbatim.
type Framework struct {
	Src  string
	Weak string
}
