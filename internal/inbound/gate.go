package inbound

import "sync/atomic"

// PollGate admits at most one inbox batch at a time. A slow batch makes the
// timer ticks that fire meanwhile bounce off instead of piling up. A fatal
// condition closes the gate for good.
type PollGate struct {
	busy   atomic.Bool
	closed atomic.Bool
}

// TryAcquire claims the gate for one batch. It reports false when a batch is
// already in flight or the gate has been force-closed.
func (g *PollGate) TryAcquire() bool {
	if g.closed.Load() {
		return false
	}
	return g.busy.CompareAndSwap(false, true)
}

// Release returns the gate after a batch completes.
func (g *PollGate) Release() {
	g.busy.Store(false)
}

// ForceClose shuts the gate permanently. Used when the process has hit a
// condition it cannot recover from and must not pick up further work.
func (g *PollGate) ForceClose() {
	g.closed.Store(true)
}

// Closed reports whether the gate has been force-closed.
func (g *PollGate) Closed() bool {
	return g.closed.Load()
}
