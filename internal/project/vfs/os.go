package vfs

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// OSFS is the host project on disk. The CLI installs through it; every
// method is a thin pass-through to package os.
type OSFS struct{}

var _ VFS = (*OSFS)(nil)

func NewOSFS() *OSFS { return &OSFS{} }

func (*OSFS) ReadFile(name string) ([]byte, error) { return os.ReadFile(name) }

func (*OSFS) WriteFile(name string, data []byte, perm fs.FileMode) error {
	return os.WriteFile(name, data, perm)
}

func (*OSFS) MkdirAll(name string, perm fs.FileMode) error { return os.MkdirAll(name, perm) }

func (*OSFS) Remove(name string) error { return os.Remove(name) }

func (*OSFS) RemoveAll(name string) error { return os.RemoveAll(name) }

func (*OSFS) Stat(name string) (FileInfo, error) {
	st, err := os.Stat(name)
	if err != nil {
		return FileInfo{}, err
	}
	return osInfo(name, st), nil
}

// ReadDir drops entries removed between the listing and their stat.
func (*OSFS) ReadDir(dir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	out := make([]FileInfo, 0, len(entries))
	for _, e := range entries {
		st, err := e.Info()
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, osInfo(filepath.Join(dir, e.Name()), st))
	}
	slices.SortFunc(out, func(a, b FileInfo) int { return strings.Compare(a.Name(), b.Name()) })
	return out, nil
}

// Exists is true unless the path is known to be absent, so an unreadable
// plugin directory still blocks a fresh copy over it.
func (*OSFS) Exists(name string) bool {
	_, err := os.Stat(name)
	return !errors.Is(err, fs.ErrNotExist)
}

func (*OSFS) IsDir(name string) bool {
	st, err := os.Stat(name)
	return err == nil && st.IsDir()
}

func (*OSFS) IsRegular(name string) bool {
	st, err := os.Stat(name)
	return err == nil && st.Mode().IsRegular()
}

func (*OSFS) WalkDir(root string, fn WalkDirFunc) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err == nil {
			var st fs.FileInfo
			if st, err = d.Info(); err == nil {
				return fn(p, osInfo(p, st), nil)
			}
		}
		return fn(p, FileInfo{}, err)
	})
}

func osInfo(name string, st fs.FileInfo) FileInfo {
	return fileInfo(name, st.Size(), st.Mode())
}
