// Package fetch resolves remote plugin URIs into local folders by cloning
// them into a temporary directory.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	slogcontext "github.com/veqryn/slog-context"

	"github.com/DSS32/thym/internal/integration/git"
)

// TempPrefix starts the name of every temporary clone.
const TempPrefix = "thym_plugin_"

// Fetch errors.
var (
	// ErrSubdirNotFound is returned when the URI names a subdirectory the
	// repository does not contain.
	ErrSubdirNotFound = errors.New("subdirectory not found in repository")

	// ErrSubdirOutside is returned when the URI's subdirectory is absolute
	// or climbs out of the repository.
	ErrSubdirOutside = errors.New("subdirectory is outside the repository")
)

// FetchError describes a failed fetch.
type FetchError struct {
	URI string
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %s: %v", e.URI, e.Op, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Git is the subset of git the fetcher runs.
type Git interface {
	Clone(url, path string, opts git.CloneOptions) error
	Checkout(dir, ref string) error
}

// Fetcher clones plugin repositories.
type Fetcher struct {
	git     Git
	tempDir string
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithGit replaces the git client.
func WithGit(g Git) Option {
	return func(f *Fetcher) {
		f.git = g
	}
}

// WithTempDir sets where clones are created. Defaults to os.TempDir().
func WithTempDir(dir string) Option {
	return func(f *Fetcher) {
		f.tempDir = dir
	}
}

// NewFetcher creates a fetcher using the git binary.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{git: git.NewClient()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Checkout is a fetched plugin.
type Checkout struct {
	// Root is the temporary clone.
	Root string

	// Dir is the folder holding plugin.xml: Root or Root/<subdir>.
	Dir string
}

// Close removes the temporary clone.
func (c *Checkout) Close() error {
	if c == nil || c.Root == "" {
		return nil
	}
	return os.RemoveAll(c.Root)
}

// Fetch clones src and checks out its commit. Cancellation is checked
// before the clone and before the checkout; a running clone is not
// interrupted. A cancelled fetch returns ctx.Err() and leaves nothing
// behind.
func (f *Fetcher) Fetch(ctx context.Context, src Source) (*Checkout, error) {
	logger := slogcontext.FromCtx(ctx)
	uri := src.String()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if src.Subdir != "" && !filepath.IsLocal(filepath.FromSlash(src.Subdir)) {
		return nil, &FetchError{URI: uri, Op: "resolve " + src.Subdir, Err: ErrSubdirOutside}
	}

	tempDir := f.tempDir
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	root := filepath.Join(tempDir, TempPrefix+uuid.NewString())
	co := &Checkout{Root: root, Dir: root}

	logger.Info("cloning plugin", "uri", uri, "dir", root)
	if err := f.git.Clone(src.Repository, root, git.CloneOptions{}); err != nil {
		_ = co.Close()
		return nil, &FetchError{URI: uri, Op: "clone", Err: err}
	}

	if err := ctx.Err(); err != nil {
		_ = co.Close()
		return nil, err
	}

	if src.Commit != "" {
		logger.Debug("checking out", "uri", uri, "commit", src.Commit)
		if err := f.git.Checkout(root, src.Commit); err != nil {
			_ = co.Close()
			return nil, &FetchError{URI: uri, Op: "checkout " + src.Commit, Err: err}
		}
	}

	if src.Subdir != "" {
		co.Dir = filepath.Join(root, filepath.FromSlash(src.Subdir))
		if info, err := os.Stat(co.Dir); err != nil || !info.IsDir() {
			_ = co.Close()
			return nil, &FetchError{URI: uri, Op: "resolve " + src.Subdir, Err: ErrSubdirNotFound}
		}
	}
	return co, nil
}
