package vfs

import (
	"bytes"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
)

// CopyFile copies a single regular file, creating the destination's parent
// directories. An existing destination file is replaced.
func CopyFile(fsys VFS, src, dst string) error {
	data, err := fsys.ReadFile(src)
	if err != nil {
		return fmt.Errorf("read %s: %w", src, err)
	}
	mode := fileMode(fsys, src)
	if err := fsys.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create parent of %s: %w", dst, err)
	}
	if err := fsys.WriteFile(dst, data, mode); err != nil {
		return fmt.Errorf("write %s: %w", dst, err)
	}
	return nil
}

// CopyTree copies the directory srcDir to dstDir, merging into dstDir if it
// already exists. Entries whose base name is listed in skip are not copied.
func CopyTree(fsys VFS, srcDir, dstDir string, skip ...string) error {
	if !fsys.IsDir(srcDir) {
		return fmt.Errorf("copy %s: not a directory", srcDir)
	}
	return fsys.WalkDir(srcDir, func(path string, info FileInfo, err error) error {
		if err != nil {
			return err
		}
		if path != srcDir && slices.Contains(skip, info.Name()) {
			if info.IsDir() {
				return SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dstDir, rel)
		if info.IsDir() {
			return fsys.MkdirAll(target, 0o755)
		}
		return CopyFile(fsys, path, target)
	})
}

// Conflicts returns the files below dstDir that CopyTree(srcDir, dstDir)
// would overwrite, as absolute destination paths in walk order.
func Conflicts(fsys VFS, srcDir, dstDir string, skip ...string) ([]string, error) {
	if !fsys.IsDir(dstDir) {
		return nil, nil
	}
	var conflicts []string
	err := fsys.WalkDir(srcDir, func(path string, info FileInfo, err error) error {
		if err != nil {
			return err
		}
		if path != srcDir && slices.Contains(skip, info.Name()) {
			if info.IsDir() {
				return SkipDir
			}
			return nil
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		if target := filepath.Join(dstDir, rel); fsys.IsRegular(target) {
			conflicts = append(conflicts, target)
		}
		return nil
	})
	return conflicts, err
}

// fileMode returns the permission bits of src, falling back to 0644.
func fileMode(fsys VFS, src string) fs.FileMode {
	info, err := fsys.Stat(src)
	if err != nil || info.Mode().Perm() == 0 {
		return 0o644
	}
	return info.Mode().Perm()
}

// Differs reports whether dst is missing or its content differs from src.
// Unreadable files count as different.
func Differs(fsys VFS, src, dst string) bool {
	a, err := fsys.ReadFile(src)
	if err != nil {
		return true
	}
	b, err := fsys.ReadFile(dst)
	if err != nil {
		return true
	}
	return !bytes.Equal(a, b)
}
