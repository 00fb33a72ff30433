package vfs

import (
	"io/fs"
	"path"
	"slices"
	"strings"
	"sync"
	"syscall"
)

// MemFS holds a whole host project in memory: plugin trees under
// plugins/, config.xml and platform sources. Tests and dry runs install
// into it. Errors are *fs.PathError values wrapping the same errno the
// OS would return, so callers can test them with errors.Is either way.
//
// A MemFS is safe for concurrent use.
type MemFS struct {
	mu    sync.RWMutex
	nodes map[string]*memNode
}

// memNode is a file when dir is false.
type memNode struct {
	dir  bool
	data []byte
	perm fs.FileMode
}

var _ VFS = (*MemFS)(nil)

// NewMemFS returns a tree holding only the root directory.
func NewMemFS() *MemFS {
	return &MemFS{nodes: map[string]*memNode{"/": {dir: true, perm: 0o755}}}
}

func memErr(op, p string, err error) error {
	return &fs.PathError{Op: op, Path: p, Err: err}
}

func (m *MemFS) ReadFile(name string) ([]byte, error) {
	name = cleanPath(name)
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := m.nodes[name]
	switch {
	case n == nil:
		return nil, memErr("read", name, fs.ErrNotExist)
	case n.dir:
		return nil, memErr("read", name, syscall.EISDIR)
	}
	return slices.Clone(n.data), nil
}

func (m *MemFS) WriteFile(name string, data []byte, perm fs.FileMode) error {
	name = cleanPath(name)
	m.mu.Lock()
	defer m.mu.Unlock()
	if n := m.nodes[name]; n != nil && n.dir {
		return memErr("write", name, syscall.EISDIR)
	}
	if parent := m.nodes[path.Dir(name)]; parent == nil || !parent.dir {
		return memErr("write", name, fs.ErrNotExist)
	}
	m.nodes[name] = &memNode{data: slices.Clone(data), perm: perm}
	return nil
}

func (m *MemFS) Stat(name string) (FileInfo, error) {
	name = cleanPath(name)
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := m.nodes[name]
	if n == nil {
		return FileInfo{}, memErr("stat", name, fs.ErrNotExist)
	}
	return n.info(name), nil
}

func (n *memNode) info(name string) FileInfo {
	if n.dir {
		return fileInfo(name, 0, fs.ModeDir|n.perm)
	}
	return fileInfo(name, int64(len(n.data)), n.perm)
}

func (m *MemFS) ReadDir(dir string) ([]FileInfo, error) {
	dir = cleanPath(dir)
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := m.nodes[dir]
	switch {
	case n == nil:
		return nil, memErr("readdir", dir, fs.ErrNotExist)
	case !n.dir:
		return nil, memErr("readdir", dir, syscall.ENOTDIR)
	}
	return m.children(dir), nil
}

// children lists the direct entries of dir in name order. The caller
// holds m.mu.
func (m *MemFS) children(dir string) []FileInfo {
	var out []FileInfo
	for p, n := range m.nodes {
		if p != "/" && path.Dir(p) == dir {
			out = append(out, n.info(p))
		}
	}
	slices.SortFunc(out, func(a, b FileInfo) int { return strings.Compare(a.Path(), b.Path()) })
	return out
}

// MkdirAll fails with ENOTDIR when a file sits on the way down.
func (m *MemFS) MkdirAll(dir string, perm fs.FileMode) error {
	dir = cleanPath(dir)
	m.mu.Lock()
	defer m.mu.Unlock()
	var missing []string
	for p := dir; ; p = path.Dir(p) {
		if n := m.nodes[p]; n != nil {
			if !n.dir {
				return memErr("mkdir", p, syscall.ENOTDIR)
			}
			break
		}
		missing = append(missing, p)
	}
	for _, p := range missing {
		m.nodes[p] = &memNode{dir: true, perm: perm.Perm()}
	}
	return nil
}

func (m *MemFS) Remove(name string) error {
	name = cleanPath(name)
	m.mu.Lock()
	defer m.mu.Unlock()
	n := m.nodes[name]
	switch {
	case n == nil:
		return memErr("remove", name, fs.ErrNotExist)
	case n.dir && m.hasChildren(name):
		return memErr("remove", name, syscall.ENOTEMPTY)
	}
	delete(m.nodes, name)
	return nil
}

func (m *MemFS) hasChildren(dir string) bool {
	for p := range m.nodes {
		if p != "/" && path.Dir(p) == dir {
			return true
		}
	}
	return false
}

// RemoveAll never deletes the root itself.
func (m *MemFS) RemoveAll(name string) error {
	name = cleanPath(name)
	m.mu.Lock()
	defer m.mu.Unlock()
	under := strings.TrimSuffix(name, "/") + "/"
	for p := range m.nodes {
		if p != "/" && (p == name || strings.HasPrefix(p, under)) {
			delete(m.nodes, p)
		}
	}
	return nil
}

func (m *MemFS) lookup(name string) *memNode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.nodes[cleanPath(name)]
}

func (m *MemFS) Exists(name string) bool { return m.lookup(name) != nil }

func (m *MemFS) IsDir(name string) bool {
	n := m.lookup(name)
	return n != nil && n.dir
}

func (m *MemFS) IsRegular(name string) bool {
	n := m.lookup(name)
	return n != nil && !n.dir
}

// WalkDir snapshots each directory listing before descending, so fn may
// modify the tree.
func (m *MemFS) WalkDir(root string, fn WalkDirFunc) error {
	info, err := m.Stat(root)
	if err != nil {
		err = fn(cleanPath(root), FileInfo{}, err)
	} else {
		err = m.walk(info, fn)
	}
	if err == SkipDir || err == SkipAll {
		return nil
	}
	return err
}

func (m *MemFS) walk(info FileInfo, fn WalkDirFunc) error {
	err := fn(info.Path(), info, nil)
	if err == SkipDir && info.IsDir() {
		return nil
	}
	if err != nil || !info.IsDir() {
		return err
	}
	m.mu.RLock()
	entries := m.children(info.Path())
	m.mu.RUnlock()
	for _, e := range entries {
		if err := m.walk(e, fn); err != nil {
			return err
		}
	}
	return nil
}

// AddFile seeds a file in tests, creating its directories.
func (m *MemFS) AddFile(name, content string) error {
	if err := m.MkdirAll(path.Dir(cleanPath(name)), 0o755); err != nil {
		return err
	}
	return m.WriteFile(name, []byte(content), 0o644)
}

// Files lists every regular file path, sorted.
func (m *MemFS) Files() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	for p, n := range m.nodes {
		if !n.dir {
			out = append(out, p)
		}
	}
	slices.Sort(out)
	return out
}

func cleanPath(p string) string { return path.Clean("/" + p) }
