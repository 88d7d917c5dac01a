// Package progress implements the advisory progress model of §4.7: a
// lock-protected counter updated after each row batch, painted by a separate
// poller goroutine. Grounded on the original tool's progress.c/.h, which
// serializes both the counter update and the repaint under one manual mutex
// rather than using a lock-free atomic, because the repaint itself reads
// several related fields together.
//
// Disabling the poller MUST NOT change validation outcomes -- nothing in
// this package is consulted by any checker.
package progress

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/jacobsa/timeutil"
)

// State mirrors the original's {idle, init, running, stop, term} states.
type State int

const (
	StateIdle State = iota
	StateInit
	StateRunning
	StateStop
	StateTerm
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInit:
		return "init"
	case StateRunning:
		return "running"
	case StateStop:
		return "stop"
	case StateTerm:
		return "term"
	default:
		return "unknown"
	}
}

// Counter is a lock-protected progress counter, safe for concurrent use by
// many worker goroutines.
type Counter struct {
	mu    sync.Mutex
	state State
	done  int64
	total int64
}

// NewCounter returns a Counter in StateInit tracking total rows of expected
// work.
func NewCounter(total int64) *Counter {
	return &Counter{state: StateInit, total: total}
}

// Advance records that n additional rows of work completed.
func (c *Counter) Advance(n int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateRunning
	c.done += n
}

// Stop transitions the counter to StateStop; the poller will see this and
// stop painting after one more frame.
func (c *Counter) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateStop
}

// snapshot returns (state, done, total) consistently.
func (c *Counter) snapshot() (State, int64, int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state, c.done, c.total
}

// Poller paints Counter snapshots to an io.Writer on an interval until the
// counter reaches StateStop, then writes a final frame and exits. It is
// purely advisory: validation results never depend on whether a Poller is
// running.
type Poller struct {
	Counter  *Counter
	Out      io.Writer
	Interval time.Duration
	Clock    timeutil.Clock
}

// NewPoller returns a Poller painting c to out every interval using the real
// clock.
func NewPoller(c *Counter, out io.Writer, interval time.Duration) *Poller {
	return &Poller{Counter: c, Out: out, Interval: interval, Clock: timeutil.RealClock()}
}

// Run paints frames until the counter reaches StateStop or StateTerm, or
// the caller closes stop; it returns once a final frame has been painted.
// Intended to be run in its own goroutine.
func (p *Poller) Run(stop <-chan struct{}) {
	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			p.paint()
			return
		case <-ticker.C:
			if p.paint() {
				return
			}
		}
	}
}

// paint writes one frame and reports whether the poller should terminate.
func (p *Poller) paint() bool {
	state, done, total := p.Counter.snapshot()
	fmt.Fprintf(p.Out, "[%s] %d/%d\n", state, done, total)
	return state == StateStop || state == StateTerm
}
