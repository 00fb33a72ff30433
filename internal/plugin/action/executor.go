package action

import (
	"context"
	"fmt"

	slogcontext "github.com/veqryn/slog-context"

	"github.com/DSS32/thym/internal/project/vfs"
)

// OverwritePolicy decides whether an action may replace existing files.
type OverwritePolicy interface {
	AllowOverwrite(ctx context.Context, files []string) bool
}

// OverwriteFunc adapts a function to OverwritePolicy.
type OverwriteFunc func(ctx context.Context, files []string) bool

// AllowOverwrite calls f.
func (f OverwriteFunc) AllowOverwrite(ctx context.Context, files []string) bool {
	return f(ctx, files)
}

// Stock policies.
var (
	AlwaysOverwrite OverwritePolicy = OverwriteFunc(func(context.Context, []string) bool { return true })
	NeverOverwrite  OverwritePolicy = OverwriteFunc(func(context.Context, []string) bool { return false })
)

// Batcher groups the mutations of one run so observers of the tree see a
// single change once the run ends.
type Batcher interface {
	Batch(ctx context.Context, fn func(ctx context.Context) error) error
}

type directBatcher struct{}

func (directBatcher) Batch(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// Executor runs action lists against a tree.
type Executor struct {
	fsys    vfs.VFS
	batcher Batcher
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithBatcher runs every Run inside b.
func WithBatcher(b Batcher) ExecutorOption {
	return func(e *Executor) {
		e.batcher = b
	}
}

// NewExecutor creates an executor over fsys.
func NewExecutor(fsys vfs.VFS, opts ...ExecutorOption) *Executor {
	e := &Executor{fsys: fsys, batcher: directBatcher{}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes actions in order within one batch, stopping at the first
// failure with an *ExecutionError. Effects of earlier actions are kept.
//
// Cancellation is checked before the batch starts and before each action;
// a cancelled run returns nil without touching further actions.
//
// On install, actions implementing Overwriter are first checked against
// overwrite; a refusal aborts the run with ErrOverwriteRefused. A nil
// policy refuses.
func (e *Executor) Run(ctx context.Context, actions []Action, uninstall bool, overwrite OverwritePolicy) error {
	logger := slogcontext.FromCtx(ctx)
	if ctx.Err() != nil {
		logger.Info("run cancelled before start", "actions", len(actions))
		return nil
	}
	if overwrite == nil {
		overwrite = NeverOverwrite
	}

	return e.batcher.Batch(ctx, func(ctx context.Context) error {
		for i, a := range actions {
			if ctx.Err() != nil {
				logger.Info("run cancelled", "done", i, "actions", len(actions))
				return nil
			}
			if err := e.runOne(ctx, a, uninstall, overwrite); err != nil {
				return &ExecutionError{Index: i, Action: a, Uninstall: uninstall, Err: err}
			}
		}
		return nil
	})
}

func (e *Executor) runOne(ctx context.Context, a Action, uninstall bool, overwrite OverwritePolicy) error {
	logger := slogcontext.FromCtx(ctx)
	if uninstall {
		logger.Debug("uninstall", "kind", a.Kind(), "action", a.String())
		return a.Uninstall(ctx, e.fsys)
	}

	if ow, ok := a.(Overwriter); ok {
		files, err := ow.Overwrites(e.fsys)
		if err != nil {
			return fmt.Errorf("check overwrites: %w", err)
		}
		if len(files) > 0 && !overwrite.AllowOverwrite(ctx, files) {
			return fmt.Errorf("%w: %d existing files", ErrOverwriteRefused, len(files))
		}
	}
	logger.Debug("install", "kind", a.Kind(), "action", a.String())
	return a.Install(ctx, e.fsys)
}
