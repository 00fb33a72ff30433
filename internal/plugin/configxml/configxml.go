// Package configxml edits the project's config document (config.xml).
//
// Plugins patch the document with <config-file> fragments and the installer
// records every installed plugin as a <feature> element so a project can be
// restored later. All edits are idempotent: applying the same fragment
// twice leaves a single copy of each element, and an element the user
// already declared is never overwritten.
package configxml

import (
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"strings"

	"github.com/beevik/etree"

	"github.com/DSS32/thym/internal/project/vfs"
)

// FileName is the config document's file name.
const FileName = "config.xml"

// PreferencePlaceholder is the value written for preferences the user has
// not yet defined.
const PreferencePlaceholder = "PLEASE_DEFINE"

// Errors returned by this package.
var (
	// ErrParentNotFound is returned when a fragment's parent path selects
	// nothing in the document.
	ErrParentNotFound = errors.New("config-file parent not found")

	// ErrInvalidFragment is returned for fragments that are not a single
	// well-formed element.
	ErrInvalidFragment = errors.New("invalid config-file fragment")

	// ErrNoRoot is returned for documents without a root element.
	ErrNoRoot = errors.New("config document has no root element")
)

// Document is a loaded config document.
type Document struct {
	fsys vfs.VFS
	path string
	doc  *etree.Document
}

// Load reads the config document at path.
func Load(fsys vfs.VFS, path string) (*Document, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config document: %w", err)
	}
	d, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	d.fsys = fsys
	d.path = path
	return d, nil
}

// Parse parses config document content. The result cannot be saved.
func Parse(data []byte) (*Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("parse config document: %w", err)
	}
	if doc.Root() == nil {
		return nil, ErrNoRoot
	}
	return &Document{doc: doc}, nil
}

// Path returns the file the document was loaded from.
func (d *Document) Path() string {
	return d.path
}

// Save writes the document back to the file it was loaded from.
func (d *Document) Save() error {
	if d.fsys == nil {
		return errors.New("config document was not loaded from a file")
	}
	data, err := d.Bytes()
	if err != nil {
		return err
	}
	return d.fsys.WriteFile(d.path, data, filePerm(d.fsys, d.path))
}

// Bytes serializes the document.
func (d *Document) Bytes() ([]byte, error) {
	return d.doc.WriteToBytes()
}

// Widget is the identity the root <widget> element declares.
type Widget struct {
	ID      string
	Version string
	Name    string
}

// Widget returns the application identity.
func (d *Document) Widget() Widget {
	root := d.doc.Root()
	w := Widget{
		ID:      root.SelectAttrValue("id", ""),
		Version: root.SelectAttrValue("version", ""),
	}
	if n := root.SelectElement("name"); n != nil {
		w.Name = strings.TrimSpace(n.Text())
	}
	return w
}

// Apply inserts the children of a <config-file> fragment under the element
// its parent attribute selects. Children already present are skipped.
// It reports whether the document changed.
func (d *Document) Apply(fragment string) (bool, error) {
	parent, children, err := d.resolve(fragment)
	if err != nil {
		return false, err
	}
	changed := false
	for _, c := range children {
		if findMatch(parent, c) != nil {
			continue
		}
		parent.AddChild(c.Copy())
		changed = true
	}
	return changed, nil
}

// Revert removes the children of a <config-file> fragment from the element
// its parent attribute selects. Only elements still equal to the fragment's
// are removed, so entries the user declared or edited survive. It reports
// whether the document changed.
func (d *Document) Revert(fragment string) (bool, error) {
	parent, children, err := d.resolve(fragment)
	if err != nil {
		if errors.Is(err, ErrParentNotFound) {
			return false, nil
		}
		return false, err
	}
	changed := false
	for _, c := range children {
		for _, m := range parent.SelectElements(c.Tag) {
			if sameElement(m, c) {
				parent.RemoveChild(m)
				changed = true
			}
		}
	}
	return changed, nil
}

func (d *Document) resolve(fragment string) (*etree.Element, []*etree.Element, error) {
	frag := etree.NewDocument()
	if err := frag.ReadFromString(fragment); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidFragment, err)
	}
	root := frag.Root()
	if root == nil {
		return nil, nil, ErrInvalidFragment
	}

	parentPath := root.SelectAttrValue("parent", "/*")
	parent, err := d.find(parentPath)
	if err != nil {
		return nil, nil, err
	}
	return parent, root.ChildElements(), nil
}

func (d *Document) find(parentPath string) (*etree.Element, error) {
	if parentPath == "" || parentPath == "/*" || parentPath == "/" {
		return d.doc.Root(), nil
	}
	p, err := etree.CompilePath(parentPath)
	if err != nil {
		return nil, fmt.Errorf("parent %q: %w", parentPath, err)
	}
	// Relative paths are resolved against the root element.
	var el *etree.Element
	if strings.HasPrefix(parentPath, "/") {
		el = d.doc.FindElementPath(p)
	} else if root := d.doc.Root(); root != nil {
		el = root.FindElementPath(p)
	}
	if el == nil {
		return nil, fmt.Errorf("%w: %s", ErrParentNotFound, parentPath)
	}
	return el, nil
}

// findMatch returns the child of parent equivalent to el. Elements with a
// name attribute match on tag and name; others match on tag and every
// attribute.
func findMatch(parent, el *etree.Element) *etree.Element {
	for _, c := range parent.SelectElements(el.Tag) {
		if c.Space != el.Space {
			continue
		}
		if name := el.SelectAttr("name"); name != nil {
			if c.SelectAttrValue("name", "") == name.Value {
				return c
			}
			continue
		}
		if sameAttrs(c, el) {
			return c
		}
	}
	return nil
}

// sameElement reports whether a and b have the same name, attributes,
// trimmed text and, recursively, child elements.
func sameElement(a, b *etree.Element) bool {
	if a.Space != b.Space || a.Tag != b.Tag || !sameAttrs(a, b) {
		return false
	}
	if strings.TrimSpace(a.Text()) != strings.TrimSpace(b.Text()) {
		return false
	}
	ac, bc := a.ChildElements(), b.ChildElements()
	if len(ac) != len(bc) {
		return false
	}
	for i := range ac {
		if !sameElement(ac[i], bc[i]) {
			return false
		}
	}
	return true
}

func sameAttrs(a, b *etree.Element) bool {
	if len(a.Attr) != len(b.Attr) {
		return false
	}
	key := func(e *etree.Element) []string {
		out := make([]string, 0, len(e.Attr))
		for _, at := range e.Attr {
			out = append(out, at.FullKey()+"="+at.Value)
		}
		slices.Sort(out)
		return out
	}
	return slices.Equal(key(a), key(b))
}

// PreferenceFragment returns the fragment declaring preference name with the
// placeholder value under /widget.
func PreferenceFragment(name string) string {
	frag := etree.NewElement("config-file")
	frag.CreateAttr("target", "res/xml/"+FileName)
	frag.CreateAttr("parent", "/widget")
	pref := frag.CreateElement("preference")
	pref.CreateAttr("name", name)
	pref.CreateAttr("value", PreferencePlaceholder)

	doc := etree.NewDocument()
	doc.SetRoot(frag)
	s, _ := doc.WriteToString()
	return s
}

func filePerm(fsys vfs.VFS, path string) fs.FileMode {
	if info, err := fsys.Stat(path); err == nil && info.Mode().Perm() != 0 {
		return info.Mode().Perm()
	}
	return 0o644
}
