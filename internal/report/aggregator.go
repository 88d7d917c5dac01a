package report

import (
	"sync"

	"github.com/jacobsa/vdbvalidate/internal/verrors"
)

// Aggregator accumulates per-kind counters under a single mutex and tracks
// the first fatal or subtree-stopping error seen by any worker, mirroring the original tool's
// result.c: a manual mutex guarding a small set of counters plus a
// termination latch the driver awaits.
//
// finish decrements the latch so the driver can block until every worker
// that registered with Add has reported in.
type Aggregator struct {
	mu sync.Mutex

	counts   map[verrors.Kind]int
	firstErr error

	wg sync.WaitGroup
}

// NewAggregator returns an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{
		counts: make(map[verrors.Kind]int),
	}
}

// Add registers n outstanding workers whose completion the caller will await
// with Wait.
func (a *Aggregator) Add(n int) {
	a.wg.Add(n)
}

// Finish marks one registered worker as complete. Call exactly once per Add
// unit, on every exit path including cancellation.
func (a *Aggregator) Finish() {
	a.wg.Done()
}

// Wait blocks until every registered worker has called Finish.
func (a *Aggregator) Wait() {
	a.wg.Wait()
}

// Record accounts for err (which may be nil, a warning, or fatal) and
// remembers the first fatal or subtree-stopping error seen across all
// callers.
func (a *Aggregator) Record(err error) {
	if err == nil {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if ve, ok := err.(*verrors.ValidationError); ok {
		a.counts[ve.Kind]++
	}

	if a.firstErr == nil && verrors.IsFatal(err) {
		a.firstErr = err
	} else if a.firstErr == nil && verrors.StopsSubtree(err) {
		a.firstErr = err
	}
}

// FirstError returns the first fatal-or-subtree-stopping error recorded, or
// nil if validation is clean so far.
func (a *Aggregator) FirstError() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.firstErr
}

// Counts returns a snapshot of the per-kind counters.
func (a *Aggregator) Counts() map[verrors.Kind]int {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make(map[verrors.Kind]int, len(a.counts))
	for k, v := range a.counts {
		out[k] = v
	}
	return out
}

// Clean reports whether no fatal or subtree-stopping error has been
// recorded. Warnings do not affect this.
func (a *Aggregator) Clean() bool {
	return a.FirstError() == nil
}
