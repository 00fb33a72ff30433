package vfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyTree(t *testing.T) {
	fsys := NewMemFS()
	require.NoError(t, fsys.AddFile("/src/plugin.xml", "<plugin/>"))
	require.NoError(t, fsys.AddFile("/src/www/foo.js", "js"))
	require.NoError(t, fsys.AddFile("/src/.git/HEAD", "ref"))

	require.NoError(t, CopyTree(fsys, "/src", "/dst/com.example.foo", ".git"))

	assert.Equal(t, []string{
		"/dst/com.example.foo/plugin.xml",
		"/dst/com.example.foo/www/foo.js",
		"/src/.git/HEAD",
		"/src/plugin.xml",
		"/src/www/foo.js",
	}, fsys.Files())
}

func TestCopyTree_NotADirectory(t *testing.T) {
	fsys := NewMemFS()
	require.NoError(t, fsys.AddFile("/src", "file"))
	assert.Error(t, CopyTree(fsys, "/src", "/dst"))
}

func TestConflicts(t *testing.T) {
	fsys := NewMemFS()
	require.NoError(t, fsys.AddFile("/src/a.txt", "new"))
	require.NoError(t, fsys.AddFile("/src/b/c.txt", "new"))
	require.NoError(t, fsys.AddFile("/dst/b/c.txt", "old"))

	conflicts, err := Conflicts(fsys, "/src", "/dst")
	require.NoError(t, err)
	assert.Equal(t, []string{"/dst/b/c.txt"}, conflicts)

	conflicts, err = Conflicts(fsys, "/src", "/absent")
	require.NoError(t, err)
	assert.Empty(t, conflicts)
}

func TestCopyFile_ReplacesExisting(t *testing.T) {
	fsys := NewMemFS()
	require.NoError(t, fsys.AddFile("/a.txt", "new"))
	require.NoError(t, fsys.AddFile("/out/a.txt", "old"))

	require.NoError(t, CopyFile(fsys, "/a.txt", "/out/a.txt"))
	data, err := fsys.ReadFile("/out/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

func TestDiffers(t *testing.T) {
	fsys := NewMemFS()
	require.NoError(t, fsys.AddFile("/a.txt", "same"))
	require.NoError(t, fsys.AddFile("/b.txt", "same"))
	require.NoError(t, fsys.AddFile("/c.txt", "edited"))

	assert.False(t, Differs(fsys, "/a.txt", "/b.txt"))
	assert.True(t, Differs(fsys, "/a.txt", "/c.txt"))
	assert.True(t, Differs(fsys, "/a.txt", "/missing.txt"))
}
