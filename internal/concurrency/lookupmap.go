// Package concurrency holds the few pieces of shared mutable state the
// semantic validator's worker tasks touch, per §5: the RI producer/consumer
// lookup map and a simple bounded worker pool for the bag of fixed-width
// tasks that do the actual row-range scanning.
package concurrency

import (
	"context"
	"time"

	"github.com/jacobsa/syncutil"
)

// PrimaryEntry is the value type carried by LookupMap: the subset of a
// PRIMARY row's data that the SEQUENCE-side consumer needs, grounded on
// csra-producer.c's (read_len, ref_orient) pair.
type PrimaryEntry struct {
	ReadLen    uint32
	RefOrient  bool
}

// LookupMap is the single mutex-guarded map shared between one producer
// goroutine (streaming primary-alignment rows) and many consumer goroutines
// (reading SEQUENCE rows and looking up the matching PRIMARY row). Entries
// are deleted on successful match to bound memory, exactly as described in
// §5 and csra-consumer.c.
type LookupMap struct {
	mu syncutil.InvariantMutex
	m  map[int64]PrimaryEntry
}

// NewLookupMap returns an empty LookupMap.
func NewLookupMap() *LookupMap {
	lm := &LookupMap{m: make(map[int64]PrimaryEntry)}
	lm.mu = syncutil.NewInvariantMutex(func() {})
	return lm
}

// Put installs the entry for primary row id, called by the producer.
func (lm *LookupMap) Put(id int64, e PrimaryEntry) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	lm.m[id] = e
}

// Take removes and returns the entry for id if present.
func (lm *LookupMap) Take(id int64) (PrimaryEntry, bool) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	e, ok := lm.m[id]
	if ok {
		delete(lm.m, id)
	}
	return e, ok
}

// Len reports the current number of pending entries. Intended for tests and
// diagnostics only.
func (lm *LookupMap) Len() int {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return len(lm.m)
}

// RetryInterval is the sleep duration a consumer uses when a key is not yet
// present in the map. The original tool does not make this load-adaptive
// (§9 open question); we keep it a fixed short sleep and document that a
// condition-variable-based wakeup would be an equally valid implementation
// without changing semantics.
const RetryInterval = 200 * time.Microsecond

// TakeBlocking waits for id to appear in the map, retrying every
// RetryInterval, until it appears or ctx is cancelled.
func (lm *LookupMap) TakeBlocking(ctx context.Context, id int64) (PrimaryEntry, error) {
	for {
		if e, ok := lm.Take(id); ok {
			return e, nil
		}

		select {
		case <-ctx.Done():
			return PrimaryEntry{}, ctx.Err()
		case <-time.After(RetryInterval):
		}
	}
}
