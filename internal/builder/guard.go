package builder

import (
	"sync/atomic"
	"time"
)

// Scheduler runs fn after the current synchronous turn has completed.
type Scheduler func(fn func())

// NextTick schedules fn on a zero-delay timer.
func NextTick(fn func()) {
	time.AfterFunc(0, fn)
}

// Guard lets at most one mutation through per cycle. A cycle starts when Enter
// succeeds and ends when the scheduled release runs; calls in between are dropped.
type Guard struct {
	busy     atomic.Bool
	schedule Scheduler
}

func NewGuard(schedule Scheduler) *Guard {
	if schedule == nil {
		schedule = NextTick
	}
	return &Guard{schedule: schedule}
}

// Enter sets the busy flag and schedules its release. It returns false without
// scheduling anything when the flag is already set.
func (g *Guard) Enter() bool {
	if !g.busy.CompareAndSwap(false, true) {
		return false
	}
	g.schedule(func() { g.busy.Store(false) })
	return true
}

// Busy reports whether a cycle is in progress.
func (g *Guard) Busy() bool {
	return g.busy.Load()
}
