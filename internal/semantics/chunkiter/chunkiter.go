// Package chunkiter is the chunked-scan abstraction of §4.6.3 steps 2-3,
// grounded on the original tool's tools/sra-validate/cmn-iter.c/.h: any
// RI or sum-of-parts scan is split into contiguous row-range chunks sized
// from a memory budget, walked one at a time so that only one chunk's
// working set is ever resident.
package chunkiter

import (
	"context"

	"github.com/jacobsa/vdbvalidate/internal/concurrency"
	"github.com/jacobsa/vdbvalidate/internal/verrors"
)

// DefaultChunkSize is a conservative default row-range width used when the
// caller has no more specific memory budget in mind.
const DefaultChunkSize = 4096

// BytesPerPair is the assumed per-pair working-set cost (an (fkey, row_id)
// pair) used to size RI scan chunks from a memory budget, per §4.6.3 step 2.
const BytesPerPair = 16

// WorkChunk returns the chunk width for a scan of count rows given a memory
// budget in bytes, per §4.6.3 step 2: the smaller of count and
// budget/bytesPerPair.
func WorkChunk(count int64, budgetBytes int64, bytesPerPair int64) int64 {
	if bytesPerPair <= 0 {
		bytesPerPair = BytesPerPair
	}
	if budgetBytes <= 0 {
		return count
	}

	fromBudget := budgetBytes / bytesPerPair
	if fromBudget <= 0 {
		return 0
	}
	if fromBudget < count {
		return fromBudget
	}
	return count
}

// Walk calls fn once per contiguous chunk of [first, first+count), each
// chunk spanning at most chunkSize rows, passing the chunk's inclusive
// [lo, hi] row bounds. It stops and returns fn's error as soon as fn
// returns a non-nil error.
//
// ctx is polled at every chunk boundary, before fn is called for that
// chunk, per the cooperative-cancellation poll §5 requires at every chunk
// boundary and before each I/O call -- a cancelled ctx aborts promptly
// with a KindCancelled error instead of running the remaining chunks.
func Walk(ctx context.Context, first, count, chunkSize int64, fn func(lo, hi int64) error) error {
	if chunkSize <= 0 {
		chunkSize = count
	}
	if chunkSize <= 0 {
		return nil
	}

	end := first + count
	for lo := first; lo < end; lo += chunkSize {
		if concurrency.IsQuitting(ctx) {
			return verrors.New(verrors.KindCancelled, "chunk", "", "chunk-walk", "", ctx.Err())
		}

		hi := lo + chunkSize - 1
		if hi >= end {
			hi = end - 1
		}
		if err := fn(lo, hi); err != nil {
			return err
		}
	}
	return nil
}
