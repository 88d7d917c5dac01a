// Package seqprimaryjoin is the specialised, concurrent SEQUENCE/PRIMARY
// cross-check named by §5: a producer/consumer pair sharing one lookup map,
// grounded on the original tool's tools/sra-validate/csra-producer.c and
// csra-consumer.c. It runs in addition to (not instead of) the generic
// referential-integrity join of the same two columns: the generic join
// (see semantics.CheckReferentialIntegrity) proves the keys round-trip;
// this proves the joined rows' data agrees.
package seqprimaryjoin

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jacobsa/vdbvalidate/internal/archivereader"
	"github.com/jacobsa/vdbvalidate/internal/concurrency"
	"github.com/jacobsa/vdbvalidate/internal/cursor"
	"github.com/jacobsa/vdbvalidate/internal/semantics/primarylookup"
	"github.com/jacobsa/vdbvalidate/internal/verrors"
)

// errStopped is the sentinel a consumer task returns to unwind the worker
// bag after the first violation in non-exhaustive mode; it is not itself a
// failure of the join.
var errStopped = errors.New("seq-primary-join: stopped after first violation")

// Options configures the concurrent cross-check.
type Options struct {
	Parallelism int
	ChunkSize   int64
	Exhaustive  bool
}

// Check runs one producer goroutine (primarylookup.Produce) against a bag
// of consumer worker tasks partitioning SEQUENCE's row range. Each consumer
// resolves its rows' PRIMARY_ALIGNMENT_ID references against the shared
// map -- blocking briefly via LookupMap.TakeBlocking if the producer
// hasn't reached that row yet -- and cross-checks PRIMARY.READ_LEN against
// the referencing SEQUENCE read's own length.
func Check(ctx context.Context, sequence, primary archivereader.Node, opts Options) []error {
	if opts.Parallelism <= 0 {
		opts.Parallelism = 4
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = 1024
	}

	lm := concurrency.NewLookupMap()
	group, gctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return primarylookup.Produce(gctx, primary, lm)
	})

	var mu sync.Mutex
	var errs []error
	record := func(e error) {
		mu.Lock()
		errs = append(errs, e)
		mu.Unlock()
	}

	group.Go(func() error {
		return consume(gctx, sequence, lm, opts, record)
	})

	if err := group.Wait(); err != nil {
		switch {
		case errors.Is(err, errStopped), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			if ctx.Err() != nil {
				return []error{verrors.New(verrors.KindCancelled, "table", "SEQUENCE", "seq-primary-join", "", ctx.Err())}
			}
			// Early stop after the first violation in non-exhaustive mode;
			// errs already holds it.
		default:
			return []error{verrors.New(verrors.KindFatalStructure, "table", "SEQUENCE", "seq-primary-join", "", err)}
		}
	}

	return errs
}

func consume(ctx context.Context, sequence archivereader.Node, lm *concurrency.LookupMap, opts Options, record func(error)) error {
	c := cursor.Open(sequence)
	alignID, err := c.AddColumn(ctx, "PRIMARY_ALIGNMENT_ID")
	if err != nil {
		return fmt.Errorf("SEQUENCE.PRIMARY_ALIGNMENT_ID: %w", err)
	}
	readLenID, err := c.AddColumn(ctx, "READ_LEN")
	if err != nil {
		return fmt.Errorf("SEQUENCE.READ_LEN: %w", err)
	}
	if err := c.OpenCursor(ctx); err != nil {
		return fmt.Errorf("SEQUENCE open-cursor: %w", err)
	}

	rng := c.RowRange(alignID)

	task := func(ctx context.Context, r concurrency.RowRange) error {
		lo := rng.First + r.First
		hi := lo + r.Count
		for row := lo; row < hi; row++ {
			if concurrency.IsQuitting(ctx) {
				return ctx.Err()
			}

			if err := joinRow(ctx, c, alignID, readLenID, row, lm, opts, record); err != nil {
				return err
			}
		}
		return nil
	}

	return concurrency.RunWorkerBag(ctx, rng.Count, opts.ChunkSize, opts.Parallelism, task)
}

func joinRow(ctx context.Context, c *cursor.Cursor, alignID, readLenID cursor.ColID, row int64, lm *concurrency.LookupMap, opts Options, record func(error)) error {
	ids, err := c.ReadArray(ctx, alignID, row, c.ElementBits(alignID))
	if err != nil {
		if _, ok := err.(cursor.ErrRowNotFound); ok {
			return nil
		}
		record(verrors.New(verrors.KindDataConsistency, "row", fmt.Sprintf("SEQUENCE[%d]", row), "seq-primary-join", "reading PRIMARY_ALIGNMENT_ID", err))
		if !opts.Exhaustive {
			return errStopped
		}
		return nil
	}

	readLens, err := c.ReadArray(ctx, readLenID, row, c.ElementBits(readLenID))
	if err != nil {
		record(verrors.New(verrors.KindDataConsistency, "row", fmt.Sprintf("SEQUENCE[%d]", row), "seq-primary-join", "reading READ_LEN", err))
		return nil
	}

	for i, alignedID := range ids {
		if alignedID == 0 {
			continue
		}

		entry, err := lm.TakeBlocking(ctx, int64(alignedID))
		if err != nil {
			return err
		}

		if i < len(readLens) && uint64(entry.ReadLen) != readLens[i] {
			record(verrors.New(
				verrors.KindDataConsistency,
				"row", fmt.Sprintf("SEQUENCE[%d]", row), "seq-primary-join",
				fmt.Sprintf("PRIMARY[%d].READ_LEN=%d != SEQUENCE read %d length %d", alignedID, entry.ReadLen, i, readLens[i]),
				nil,
			))
			if !opts.Exhaustive {
				return errStopped
			}
		}
	}

	return nil
}
