// Package vfs provides the resource tree abstraction the installer mutates.
//
// Everything the installer touches on the host project (the plugins folder,
// the config document, platform project files) goes through VFS, so the same
// planning and execution code runs against the real file system and against
// an in-memory tree in tests.
package vfs

import (
	"io/fs"
	"path/filepath"
)

// VFS is the host project tree as seen by plans and actions. Paths are
// absolute and slash separated; MemFS roots them at "/".
type VFS interface {
	// ReadFile returns a copy of a plugin or project file.
	ReadFile(path string) ([]byte, error)

	// WriteFile replaces a file. Its directory must already exist;
	// actions call MkdirAll first.
	WriteFile(path string, data []byte, perm fs.FileMode) error

	Stat(path string) (FileInfo, error)

	// ReadDir lists a directory in name order so copies and conflict
	// reports are reproducible.
	ReadDir(path string) ([]FileInfo, error)

	MkdirAll(path string, perm fs.FileMode) error

	// Remove deletes a file or an empty directory. Uninstall uses it to
	// prune directories a plugin left empty.
	Remove(path string) error

	// RemoveAll deletes a plugin tree. A missing path is not an error.
	RemoveAll(path string) error

	// Exists reports whether something occupies path. OSFS treats
	// anything but "not exist" as occupied.
	Exists(path string) bool

	IsDir(path string) bool
	IsRegular(path string) bool

	// WalkDir visits root and everything below it in name order.
	WalkDir(root string, fn WalkDirFunc) error
}

// FileInfo is the subset of file metadata the installer looks at.
type FileInfo struct {
	path string
	size int64
	mode fs.FileMode
}

func fileInfo(p string, size int64, mode fs.FileMode) FileInfo {
	return FileInfo{path: p, size: size, mode: mode}
}

// Path is the path the entry was reached by.
func (fi FileInfo) Path() string { return fi.path }

// Name is the last element of Path.
func (fi FileInfo) Name() string { return filepath.Base(fi.path) }

// Size is the content length in bytes; zero for directories.
func (fi FileInfo) Size() int64 { return fi.size }

// Mode carries the permission bits copied onto installed files.
func (fi FileInfo) Mode() fs.FileMode { return fi.mode }

func (fi FileInfo) IsDir() bool { return fi.mode.IsDir() }

// WalkDirFunc receives each visited entry. A non-nil err means the entry
// could not be read; returning SkipDir on a directory prunes it.
type WalkDirFunc func(path string, info FileInfo, err error) error

var (
	// SkipDir prunes the directory just visited.
	SkipDir = fs.SkipDir
	// SkipAll ends the walk without an error.
	SkipAll = fs.SkipAll
)
