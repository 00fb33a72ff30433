package plugin

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DSS32/thym/internal/project/vfs"
)

func TestRegistryWatchInvalidates(t *testing.T) {
	dir := t.TempDir()
	plugins := filepath.Join(dir, "plugins")
	require.NoError(t, os.MkdirAll(filepath.Join(plugins, "a"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(plugins, "a", ManifestFileName), []byte(simpleManifest("a", "A")), 0o644))

	r := NewRegistry(vfs.NewOSFS(), plugins)
	require.Len(t, r.List(context.Background()), 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	invalidated := make(chan struct{}, 1)
	done := make(chan error, 1)
	go func() {
		done <- r.Watch(ctx, WatchOptions{
			Delay: 20 * time.Millisecond,
			OnInvalidate: func() {
				select {
				case invalidated <- struct{}{}:
				default:
				}
			},
		})
	}()

	// Give the watcher time to register before mutating.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.MkdirAll(filepath.Join(plugins, "b"), 0o755))

	select {
	case <-invalidated:
	case <-time.After(5 * time.Second):
		t.Fatal("registry was not invalidated")
	}
	assert.False(t, r.Loaded())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestRegistryWatchMissingFolder(t *testing.T) {
	r := NewRegistry(vfs.NewOSFS(), filepath.Join(t.TempDir(), "nope"))
	err := r.Watch(context.Background(), WatchOptions{})
	assert.Error(t, err)
}
