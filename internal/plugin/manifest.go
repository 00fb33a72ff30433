package plugin

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/beevik/etree"

	"github.com/DSS32/thym/internal/project/vfs"
)

// Manifest is a parsed plugin.xml.
type Manifest struct {
	doc  *etree.Document
	path string
	root *Node
}

// Node is an element of the manifest whose immediate children hold
// declarations: the root element or a <platform> block.
type Node struct {
	el       *etree.Element
	platform string
}

// ParseManifest reads and parses the manifest at path.
func ParseManifest(fsys vfs.VFS, path string) (*Manifest, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &ManifestError{Path: path, Err: ErrManifestNotFound}
		}
		return nil, &ManifestError{Path: path, Err: err}
	}
	return ParseManifestBytes(path, data)
}

// ParseManifestFromDir parses dir/plugin.xml.
func ParseManifestFromDir(fsys vfs.VFS, dir string) (*Manifest, error) {
	return ParseManifest(fsys, filepath.Join(dir, ManifestFileName))
}

// ParseManifestBytes parses manifest content; path is only used for errors
// and Dir.
func ParseManifestBytes(path string, data []byte) (*Manifest, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, &ManifestError{Path: path, Malformed: true, Err: err}
	}
	root := doc.Root()
	if root == nil {
		return nil, &ManifestError{Path: path, Malformed: true, Err: errors.New("no root element")}
	}

	m := &Manifest{doc: doc, path: path, root: &Node{el: root}}
	if m.ID() == "" {
		return nil, &ManifestError{Path: path, Err: ErrMissingID}
	}
	return m, nil
}

// Path returns the manifest file path.
func (m *Manifest) Path() string {
	return m.path
}

// Dir returns the plugin folder containing the manifest.
func (m *Manifest) Dir() string {
	return filepath.Dir(m.path)
}

// ID returns the plugin id.
func (m *Manifest) ID() string {
	return strings.TrimSpace(m.root.el.SelectAttrValue("id", ""))
}

// Name returns the trimmed text of the <name> element.
// The second result is false when the manifest has no <name>.
func (m *Manifest) Name() (string, bool) {
	n := m.root.el.SelectElement("name")
	if n == nil {
		return "", false
	}
	return strings.TrimSpace(n.Text()), true
}

// Version returns the version attribute of the root element.
func (m *Manifest) Version() string {
	return strings.TrimSpace(m.root.el.SelectAttrValue("version", ""))
}

// VersionValid reports whether the version attribute is absent or a
// semantic version.
func (m *Manifest) VersionValid() bool {
	v := m.Version()
	if v == "" {
		return true
	}
	_, err := semver.NewVersion(v)
	return err == nil
}

// Description returns the trimmed text of the <description> element.
func (m *Manifest) Description() string {
	if d := m.root.el.SelectElement("description"); d != nil {
		return strings.TrimSpace(d.Text())
	}
	return ""
}

// Root returns the common block.
func (m *Manifest) Root() *Node {
	return m.root
}

// PlatformBlock returns the <platform name="platformID"> block, or nil when
// the plugin does not support the platform.
func (m *Manifest) PlatformBlock(platformID string) *Node {
	for _, el := range m.root.el.SelectElements("platform") {
		if el.SelectAttrValue("name", "") == platformID {
			return &Node{el: el, platform: platformID}
		}
	}
	return nil
}

// Platforms returns the names of all platform blocks in document order.
func (m *Manifest) Platforms() []string {
	var names []string
	for _, el := range m.root.el.SelectElements("platform") {
		if name := el.SelectAttrValue("name", ""); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// Modules returns the JavaScript modules of the common block followed by
// those of every platform block.
func (m *Manifest) Modules() []JavaScriptModule {
	modules := m.root.JSModules()
	for _, name := range m.Platforms() {
		modules = append(modules, m.PlatformBlock(name).JSModules()...)
	}
	return modules
}

// Plugin builds the Plugin value the registry keeps for this manifest.
func (m *Manifest) Plugin() *Plugin {
	name, _ := m.Name()
	p := &Plugin{
		ID:          m.ID(),
		Name:        name,
		Version:     m.Version(),
		Description: m.Description(),
		Modules:     m.Modules(),
		Platforms:   m.Platforms(),
		Dir:         m.Dir(),
	}
	for _, pref := range m.root.Preferences() {
		p.Preferences = append(p.Preferences, pref.Name)
	}
	for _, name := range p.Platforms {
		for _, pref := range m.PlatformBlock(name).Preferences() {
			p.Preferences = append(p.Preferences, pref.Name)
		}
	}
	return p
}

// Platform returns the platform name of a <platform> block, or "" for the
// common block.
func (n *Node) Platform() string {
	return n.platform
}

// Dependencies returns the <dependency> children.
func (n *Node) Dependencies() []Dependency {
	var out []Dependency
	for _, el := range n.children("dependency") {
		out = append(out, Dependency{
			ID:     attr(el, "id"),
			URL:    attr(el, "url"),
			Commit: attr(el, "commit"),
			Subdir: attr(el, "subdir"),
		})
	}
	return out
}

// Preferences returns the <preference> children.
func (n *Node) Preferences() []Preference {
	var out []Preference
	for _, el := range n.children("preference") {
		out = append(out, Preference{Name: attr(el, "name"), Default: attr(el, "default")})
	}
	return out
}

// ConfigFiles returns the <config-file> children.
func (n *Node) ConfigFiles() []ConfigFile {
	var out []ConfigFile
	for _, el := range n.children("config-file") {
		out = append(out, ConfigFile{
			Target:   attr(el, "target"),
			Parent:   attr(el, "parent"),
			Fragment: Stringify(el),
		})
	}
	return out
}

// Assets returns the <asset> children.
func (n *Node) Assets() []Asset {
	var out []Asset
	for _, el := range n.children("asset") {
		out = append(out, Asset{Src: attr(el, "src"), Target: attr(el, "target")})
	}
	return out
}

// SourceFiles returns the <source-file> children.
func (n *Node) SourceFiles() []SourceFile {
	var out []SourceFile
	for _, el := range n.children("source-file") {
		out = append(out, SourceFile{
			Src:           attr(el, "src"),
			TargetDir:     attr(el, "target-dir"),
			Framework:     attr(el, "framework"),
			CompilerFlags: attr(el, "compiler-flags"),
		})
	}
	return out
}

// ResourceFiles returns the <resource-file> children.
func (n *Node) ResourceFiles() []ResourceFile {
	var out []ResourceFile
	for _, el := range n.children("resource-file") {
		out = append(out, ResourceFile{Src: attr(el, "src"), Target: attr(el, "target")})
	}
	return out
}

// HeaderFiles returns the <header-file> children.
func (n *Node) HeaderFiles() []HeaderFile {
	var out []HeaderFile
	for _, el := range n.children("header-file") {
		out = append(out, HeaderFile{Src: attr(el, "src"), TargetDir: attr(el, "target-dir")})
	}
	return out
}

// LibFiles returns the <lib-file> children.
func (n *Node) LibFiles() []LibFile {
	var out []LibFile
	for _, el := range n.children("lib-file") {
		out = append(out, LibFile{Src: attr(el, "src"), Arch: attr(el, "arch")})
	}
	return out
}

// Frameworks returns the <framework> children.
func (n *Node) Frameworks() []Framework {
	var out []Framework
	for _, el := range n.children("framework") {
		out = append(out, Framework{Src: attr(el, "src"), Weak: attr(el, "weak")})
	}
	return out
}

// JSModules returns the <js-module> children. A module's platform
// attribute wins; otherwise modules inside a platform block carry that
// platform.
func (n *Node) JSModules() []JavaScriptModule {
	var out []JavaScriptModule
	for _, el := range n.children("js-module") {
		mod := JavaScriptModule{
			Source:   attr(el, "src"),
			Name:     attr(el, "name"),
			Platform: attr(el, "platform"),
			Runs:     el.SelectElement("runs") != nil,
		}
		if mod.Platform == "" {
			mod.Platform = n.platform
		}
		for _, c := range el.SelectElements("clobbers") {
			mod.Clobbers = append(mod.Clobbers, attr(c, "target"))
		}
		for _, c := range el.SelectElements("merges") {
			mod.Merges = append(mod.Merges, attr(c, "target"))
		}
		out = append(out, mod)
	}
	return out
}

func (n *Node) children(tag string) []*etree.Element {
	if n == nil {
		return nil
	}
	return n.el.SelectElements(tag)
}

func attr(el *etree.Element, key string) string {
	return el.SelectAttrValue(key, "")
}

// Stringify serializes el and its children as a standalone XML fragment.
func Stringify(el *etree.Element) string {
	doc := etree.NewDocument()
	doc.SetRoot(el.Copy())
	s, err := doc.WriteToString()
	if err != nil {
		// WriteToString only fails on writer errors, which strings.Builder never returns.
		panic(fmt.Sprintf("serialize %s: %v", el.Tag, err))
	}
	return s
}
