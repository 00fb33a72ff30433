package fetch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DSS32/thym/internal/integration/git"
)

// fakeGit creates the files of a repository instead of cloning.
type fakeGit struct {
	files     map[string]string
	cloneErr  error
	calls     []string
	onClone   func()
	checkouts []string
}

func (g *fakeGit) Clone(url, path string, _ git.CloneOptions) error {
	g.calls = append(g.calls, "clone "+url)
	if g.onClone != nil {
		g.onClone()
	}
	if g.cloneErr != nil {
		return g.cloneErr
	}
	for name, content := range g.files {
		p := filepath.Join(path, name)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func (g *fakeGit) Checkout(dir, ref string) error {
	g.calls = append(g.calls, "checkout "+ref)
	g.checkouts = append(g.checkouts, dir)
	return nil
}

func TestDependencyURI(t *testing.T) {
	tests := []struct {
		name                string
		url, commit, subdir string
		want                string
	}{
		{"all", "https://example.com/plugin", "abc123", "src", "https://example.com/plugin.git#abc123:src"},
		{"commit only", "https://example.com/plugin", "abc123", "", "https://example.com/plugin.git#abc123"},
		{"neither", "https://example.com/plugin", "", "", "https://example.com/plugin.git"},
		{"subdir only", "https://example.com/plugin", "", "src", "https://example.com/plugin.git#:src"},
		{"has suffix", "https://example.com/plugin.git", "", "", "https://example.com/plugin.git"},
		{"trailing slash", "https://example.com/plugin/", "", "", "https://example.com/plugin.git"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DependencyURI(tt.url, tt.commit, tt.subdir))
		})
	}
}

func TestParseURI(t *testing.T) {
	tests := []struct {
		raw  string
		want Source
	}{
		{"https://example.com/p.git#abc123:src", Source{"https://example.com/p.git", "abc123", "src"}},
		{"https://example.com/p.git#abc123", Source{"https://example.com/p.git", "abc123", ""}},
		{"https://example.com/p.git#:src", Source{"https://example.com/p.git", "", "src"}},
		{"https://example.com/p.git", Source{Repository: "https://example.com/p.git"}},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseURI(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.raw, got.String())
		})
	}

	_, err := ParseURI("  ")
	assert.True(t, errors.Is(err, ErrEmptyURI))
	_, err = ParseURI("#abc")
	assert.True(t, errors.Is(err, ErrEmptyURI))
}

func TestIsRemote(t *testing.T) {
	assert.True(t, IsRemote("https://example.com/p"))
	assert.True(t, IsRemote("git@github.com:org/p.git"))
	assert.True(t, IsRemote("/srv/p.git#abc"))
	assert.False(t, IsRemote("/home/me/plugins/foo"))
	assert.False(t, IsRemote("./foo"))
}

func TestFetch(t *testing.T) {
	g := &fakeGit{files: map[string]string{"plugin.xml": "<plugin/>", "src/plugin.xml": "<plugin/>"}}
	f := NewFetcher(WithGit(g), WithTempDir(t.TempDir()))

	co, err := f.Fetch(context.Background(), Source{Repository: "https://example.com/p.git", Commit: "abc", Subdir: "src"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = co.Close() })

	assert.True(t, strings.HasPrefix(filepath.Base(co.Root), TempPrefix))
	assert.Equal(t, filepath.Join(co.Root, "src"), co.Dir)
	assert.Equal(t, []string{"clone https://example.com/p.git", "checkout abc"}, g.calls)
	assert.Equal(t, []string{co.Root}, g.checkouts)

	require.NoError(t, co.Close())
	assert.NoDirExists(t, co.Root)
}

func TestFetchNoFragment(t *testing.T) {
	g := &fakeGit{files: map[string]string{"plugin.xml": "<plugin/>"}}
	f := NewFetcher(WithGit(g), WithTempDir(t.TempDir()))

	co, err := f.Fetch(context.Background(), Source{Repository: "https://example.com/p.git"})
	require.NoError(t, err)
	defer co.Close()

	assert.Equal(t, co.Root, co.Dir)
	assert.Equal(t, []string{"clone https://example.com/p.git"}, g.calls)
}

func TestFetchSubdirMissing(t *testing.T) {
	tmp := t.TempDir()
	g := &fakeGit{files: map[string]string{"plugin.xml": "<plugin/>"}}
	f := NewFetcher(WithGit(g), WithTempDir(tmp))

	_, err := f.Fetch(context.Background(), Source{Repository: "r.git", Subdir: "nope"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSubdirNotFound))

	var ferr *FetchError
	require.True(t, errors.As(err, &ferr))
	assert.Equal(t, "r.git#:nope", ferr.URI)

	entries, err := os.ReadDir(tmp)
	require.NoError(t, err)
	assert.Empty(t, entries, "temporary clone must be removed")
}

func TestFetchSubdirOutsideClone(t *testing.T) {
	for _, subdir := range []string{"../..", "src/../../x", "/etc"} {
		t.Run(subdir, func(t *testing.T) {
			tmp := t.TempDir()
			g := &fakeGit{files: map[string]string{"plugin.xml": "<plugin/>"}}
			f := NewFetcher(WithGit(g), WithTempDir(tmp))

			co, err := f.Fetch(context.Background(), Source{Repository: "r.git", Subdir: subdir})
			require.Error(t, err)
			assert.Nil(t, co)
			assert.True(t, errors.Is(err, ErrSubdirOutside))
			assert.Empty(t, g.calls, "nothing is cloned for an unsafe subdirectory")

			entries, err := os.ReadDir(tmp)
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

func TestFetchCloneFails(t *testing.T) {
	boom := errors.New("boom")
	f := NewFetcher(WithGit(&fakeGit{cloneErr: boom}), WithTempDir(t.TempDir()))

	_, err := f.Fetch(context.Background(), Source{Repository: "r.git"})
	assert.True(t, errors.Is(err, boom))
	var ferr *FetchError
	require.True(t, errors.As(err, &ferr))
	assert.Equal(t, "clone", ferr.Op)
}

func TestFetchCancellation(t *testing.T) {
	t.Run("before clone", func(t *testing.T) {
		g := &fakeGit{}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := NewFetcher(WithGit(g), WithTempDir(t.TempDir())).Fetch(ctx, Source{Repository: "r.git", Commit: "abc"})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, g.calls)
	})

	t.Run("before checkout", func(t *testing.T) {
		tmp := t.TempDir()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		g := &fakeGit{files: map[string]string{"plugin.xml": "<plugin/>"}, onClone: cancel}

		_, err := NewFetcher(WithGit(g), WithTempDir(tmp)).Fetch(ctx, Source{Repository: "r.git", Commit: "abc"})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, []string{"clone r.git"}, g.calls)

		entries, err := os.ReadDir(tmp)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}
