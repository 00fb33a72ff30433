package git

import "errors"

// Error types for git operations.
var (
	// ErrGitNotFound indicates the git binary is not on PATH.
	ErrGitNotFound = errors.New("git executable not found")

	// ErrNotRepository indicates the path is not a git repository.
	ErrNotRepository = errors.New("not a git repository")

	// ErrEmptyURL indicates a clone without a URL.
	ErrEmptyURL = errors.New("repository URL is empty")
)

// CommandError reports a failed git invocation.
type CommandError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	msg := "git " + joinArgs(e.Args)
	if e.Stderr != "" {
		return msg + ": " + e.Stderr
	}
	return msg + ": " + e.Err.Error()
}

func (e *CommandError) Unwrap() error {
	return e.Err
}
