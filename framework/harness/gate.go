package harness

import (
	"sync/atomic"
	"time"

	"github.com/sfgbrewery/beer-contract-tests/framework/helpers"
)

// CompletionGate is a one-shot countdown that a scenario waits on. It starts at the number of
// completions the scenario expects and reaches zero when every expected callback has fired.
//
// CountDown never takes the count below zero, and Done is closed exactly once, on the
// transition to zero.
type CompletionGate struct {
	expected  int
	remaining atomic.Int64
	done      chan struct{}
}

// NewCompletionGate creates a gate expecting count completions. A count of zero or less gives
// a gate that is already open.
func NewCompletionGate(count int) *CompletionGate {
	g := &CompletionGate{expected: count, done: make(chan struct{})}
	if count <= 0 {
		g.expected = 0
		close(g.done)
		return g
	}
	g.remaining.Store(int64(count))
	return g
}

// CountDown records one completion. It returns false if the gate was already at zero.
func (g *CompletionGate) CountDown() bool {
	for {
		current := g.remaining.Load()
		if current <= 0 {
			return false
		}
		if g.remaining.CompareAndSwap(current, current-1) {
			if current == 1 {
				close(g.done)
			}
			return true
		}
	}
}

// Count returns the number of completions still outstanding.
func (g *CompletionGate) Count() int {
	return int(g.remaining.Load())
}

// Expected returns the count the gate was created with.
func (g *CompletionGate) Expected() int {
	return g.expected
}

// Done returns a channel that is closed when the count reaches zero.
func (g *CompletionGate) Done() <-chan struct{} {
	return g.done
}

// Await blocks until the count reaches zero or the timeout elapses, and returns true in the
// first case.
func (g *CompletionGate) Await(timeout time.Duration) bool {
	select {
	case <-g.done:
		return true
	default:
	}
	return helpers.TryReceive(g.done, timeout).IsDefined()
}
