package project

import (
	"context"
	"time"

	"github.com/google/uuid"
	slogcontext "github.com/veqryn/slog-context"
)

// batcher groups nested executor runs into one logical batch. Every log
// record of a batch carries its id, and the registry is invalidated once
// when the outermost batch ends. Callers hold the manager lock, so depth
// needs no synchronization of its own.
type batcher struct {
	depth int
	done  func()
}

func (b *batcher) Batch(ctx context.Context, fn func(ctx context.Context) error) error {
	if b.depth > 0 {
		b.depth++
		defer func() { b.depth-- }()
		return fn(ctx)
	}

	logger := slogcontext.FromCtx(ctx).With("batch", uuid.NewString())
	ctx = slogcontext.NewCtx(ctx, logger)
	start := time.Now()

	b.depth = 1
	defer func() {
		b.depth = 0
		if b.done != nil {
			b.done()
		}
		logger.Debug("batch finished", "elapsed", time.Since(start))
	}()
	return fn(ctx)
}
