package git

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// CloneOptions configures clone behavior.
type CloneOptions struct {
	// Branch is the branch or tag to clone.
	Branch string

	// Depth limits clone to the specified number of commits.
	// A pinned commit usually needs the full history, so leave it zero
	// when a checkout follows.
	Depth int

	// Recursive clones submodules.
	Recursive bool
}

// Client runs git commands.
type Client struct {
	// Binary is the git executable. Defaults to "git".
	Binary string

	// Env is appended to the process environment.
	Env []string
}

// NewClient creates a client using git from PATH.
func NewClient() *Client {
	return &Client{Binary: "git"}
}

// Available reports whether the git binary can be found.
func (c *Client) Available() bool {
	_, err := exec.LookPath(c.binary())
	return err == nil
}

// Clone clones url into path. The parent of path must exist; path itself
// must be absent or empty.
func (c *Client) Clone(url, path string, opts CloneOptions) error {
	if url == "" {
		return ErrEmptyURL
	}
	args := []string{"clone"}

	if opts.Branch != "" {
		args = append(args, "-b", opts.Branch)
	}

	if opts.Depth > 0 {
		args = append(args, "--depth", strconv.Itoa(opts.Depth))
	}

	if opts.Recursive {
		args = append(args, "--recursive")
	}

	args = append(args, "--", url, path)

	// Runs from the working directory; path does not exist yet.
	if _, err := c.command("", args...).run(); err != nil {
		return fmt.Errorf("clone %s: %w", url, err)
	}
	return nil
}

// Checkout switches the repository at dir to ref in detached HEAD state.
func (c *Client) Checkout(dir, ref string) error {
	if _, err := os.Stat(filepath.Join(dir, ".git")); err != nil {
		return fmt.Errorf("%s: %w", dir, ErrNotRepository)
	}
	if _, err := c.command(dir, "checkout", "--detach", ref).run(); err != nil {
		return fmt.Errorf("detach to %s: %w", ref, err)
	}
	return nil
}

// Head returns the commit hash HEAD points to.
func (c *Client) Head(dir string) (string, error) {
	out, err := c.command(dir, "rev-parse", "HEAD").run()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (c *Client) binary() string {
	if c.Binary == "" {
		return "git"
	}
	return c.Binary
}

func (c *Client) command(dir string, args ...string) *gitCommand {
	return &gitCommand{bin: c.binary(), dir: dir, args: args, env: c.Env}
}

// gitCommand is a single git invocation.
type gitCommand struct {
	bin  string
	dir  string
	args []string
	env  []string
}

// run executes the command and returns its stdout.
func (c *gitCommand) run() (string, error) {
	cmd := exec.Command(c.bin, c.args...)
	if c.dir != "" {
		cmd.Dir = c.dir
	}
	if len(c.env) > 0 {
		cmd.Env = append(os.Environ(), c.env...)
	}
	// Never prompt for credentials.
	cmd.Env = append(cmd.Environ(), "GIT_TERMINAL_PROMPT=0")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			err = ErrGitNotFound
		}
		return "", &CommandError{Args: c.args, Stderr: strings.TrimSpace(stderr.String()), Err: err}
	}

	return stdout.String(), nil
}

func joinArgs(args []string) string {
	return strings.Join(args, " ")
}
