package concurrency

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// RowRange is a disjoint chunk of row ids assigned to one worker task,
// [First, First+Count).
type RowRange struct {
	First int64
	Count int64
}

// Task processes one RowRange. It must poll ctx.Done() at chunk boundaries
// and before I/O, per §5's cooperative cancellation requirement, and must
// release any buffers it owns on every return path.
type Task func(ctx context.Context, r RowRange) error

// RunWorkerBag splits [0, total) into chunkSize-wide row ranges and runs fn
// over each with up to parallelism tasks in flight at once, mirroring the
// source's "bag of fixed-width worker tasks consuming disjoint row ranges"
// model (§5). It returns the first non-nil error seen across all tasks,
// cancelling the remaining tasks' context.
func RunWorkerBag(ctx context.Context, total, chunkSize int64, parallelism int, fn Task) error {
	if chunkSize <= 0 {
		chunkSize = total
	}
	if chunkSize <= 0 {
		return nil
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(parallelism)

	for first := int64(0); first < total; first += chunkSize {
		first := first
		count := chunkSize
		if first+count > total {
			count = total - first
		}

		eg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			return fn(ctx, RowRange{First: first, Count: count})
		})
	}

	return eg.Wait()
}

// IsQuitting reports whether ctx has been cancelled, the generic
// cooperative-cancellation poll inserted at every chunk boundary and before
// each I/O call per §5.
func IsQuitting(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}
