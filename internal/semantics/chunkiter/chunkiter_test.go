package chunkiter_test

import (
	"context"
	"testing"

	"github.com/jacobsa/vdbvalidate/internal/semantics/chunkiter"
	. "github.com/jacobsa/oglematchers"
	. "github.com/jacobsa/ogletest"
)

func TestChunkiter(t *testing.T) { RunTests(t) }

////////////////////////////////////////////////////////////////////////
// Helpers
////////////////////////////////////////////////////////////////////////

type ChunkiterTest struct {
}

func init() { RegisterTestSuite(&ChunkiterTest{}) }

////////////////////////////////////////////////////////////////////////
// Tests
////////////////////////////////////////////////////////////////////////

func (t *ChunkiterTest) WalksEveryRowExactlyOnce() {
	var seen []int64
	err := chunkiter.Walk(context.Background(), 10, 25, 4, func(lo, hi int64) error {
		for r := lo; r <= hi; r++ {
			seen = append(seen, r)
		}
		return nil
	})
	AssertEq(nil, err)

	AssertEq(25, len(seen))
	for i, r := range seen {
		ExpectEq(int64(10+i), r)
	}
}

func (t *ChunkiterTest) ZeroOrNegativeChunkSizeTreatsWholeRangeAsOneChunk() {
	var calls int
	err := chunkiter.Walk(context.Background(), 0, 5, 0, func(lo, hi int64) error {
		calls++
		ExpectEq(int64(0), lo)
		ExpectEq(int64(4), hi)
		return nil
	})
	AssertEq(nil, err)
	ExpectEq(1, calls)
}

// Testable property 6 / scenario S6: a context already cancelled before the
// scan starts must abort at the first chunk boundary, before fn is called
// for any chunk.
func (t *ChunkiterTest) CancelledBeforeFirstChunk() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := chunkiter.Walk(ctx, 0, 100, 4, func(lo, hi int64) error {
		called = true
		return nil
	})

	AssertNe(nil, err)
	ExpectThat(err.Error(), HasSubstr("cancelled"))
	ExpectFalse(called)
}

// Cancellation issued mid-scan stops before the next chunk boundary, not at
// the end of the whole range (S6: "exits within one chunk's worth of
// work").
func (t *ChunkiterTest) CancelledAfterFirstChunkStopsPromptly() {
	ctx, cancel := context.WithCancel(context.Background())

	var chunksRun int
	err := chunkiter.Walk(ctx, 0, 32, 4, func(lo, hi int64) error {
		chunksRun++
		if chunksRun == 1 {
			cancel()
		}
		return nil
	})

	AssertNe(nil, err)
	ExpectThat(err.Error(), HasSubstr("cancelled"))
	// Cancellation fires inside the first chunk's callback; the poll at the
	// top of the next loop iteration catches it before fn runs again, so
	// exactly one chunk's worth of work completes.
	ExpectEq(1, chunksRun)
}

func (t *ChunkiterTest) PropagatesCallbackError() {
	sentinel := context.Canceled // any distinguishable error value
	err := chunkiter.Walk(context.Background(), 0, 8, 4, func(lo, hi int64) error {
		return sentinel
	})
	ExpectEq(sentinel, err)
}
