// Package clock implements the engine's evaluation clock: the single
// source of truth for "what time is it, from the graph's point of view"
// during one evaluation cycle.
package clock

import (
	"sync"
	"time"

	"github.com/tsflow/engine/enginetime"
)

// Mode selects how the clock advances evaluation time.
type Mode int

const (
	// Simulation advances evaluation time freely to the next scheduled
	// time with no wall-clock waiting. The engine never blocks.
	Simulation Mode = iota
	// RealTime advances evaluation time but blocks until wall-clock now
	// reaches the next scheduled time, or until woken by a push source.
	RealTime
)

// Clock holds the three times described in spec.md §4.1: the evaluation
// time of the cycle currently being processed, the earliest future time
// requested by any node, and wall-clock now. Once a cycle begins at time T,
// evaluationTime is frozen at T for the whole cycle: scheduling calls made
// during the cycle only ever affect nextScheduled, never the frozen T.
type Clock struct {
	mode Mode

	mu              sync.Mutex
	evaluationTime  enginetime.Time
	nextScheduled   enginetime.Time
	wallClockNow    enginetime.Time
	cond            *sync.Cond
	pushSignaled    bool
	stopped         bool
}

// New returns a clock starting at startTime in the given mode.
func New(mode Mode, startTime enginetime.Time) *Clock {
	c := &Clock{
		mode:           mode,
		evaluationTime: startTime,
		nextScheduled:  enginetime.MaxTime,
		wallClockNow:   enginetime.FromTime(time.Now()),
	}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// Mode returns the clock's evaluation mode.
func (c *Clock) Mode() Mode {
	return c.mode
}

// EvaluationTime returns the frozen time of the cycle being processed.
func (c *Clock) EvaluationTime() enginetime.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evaluationTime
}

// NextScheduledEvaluationTime returns the earliest future time any node has
// requested, or enginetime.MaxTime if nothing is scheduled.
func (c *Clock) NextScheduledEvaluationTime() enginetime.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nextScheduled
}

// RequestSchedule records that some node wants to run at t. It only ever
// lowers nextScheduled; it never touches the frozen evaluationTime, even
// mid-cycle, per the clock's contract.
func (c *Clock) RequestSchedule(t enginetime.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t < c.nextScheduled {
		c.nextScheduled = t
		c.cond.Broadcast()
	}
}

// ResetNextScheduled clears the pending schedule marker; the engine loop
// calls it between cycles before recording the next cycle's time.
func (c *Clock) ResetNextScheduled() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextScheduled = enginetime.MaxTime
}

// AdvanceTo freezes evaluationTime at t, beginning a new cycle. t must not
// be before the current evaluationTime (SchedulingError territory is
// enforced by the caller, the engine loop, which never calls AdvanceTo with
// a past time).
func (c *Clock) AdvanceTo(t enginetime.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.evaluationTime = t
}

// WallClockNow returns the last wall-clock time observed by the engine.
func (c *Clock) WallClockNow() enginetime.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.wallClockNow
}

// SignalPush wakes up any goroutine blocked in WaitForNext, used by a
// push-source when it enqueues a new value in real-time mode.
func (c *Clock) SignalPush() {
	c.mu.Lock()
	c.pushSignaled = true
	c.cond.Broadcast()
	c.mu.Unlock()
}

// Stop wakes any waiter permanently; used by stop_engine.
func (c *Clock) Stop() {
	c.mu.Lock()
	c.stopped = true
	c.cond.Broadcast()
	c.mu.Unlock()
}

// WaitForNext blocks (real-time mode only) until wall-clock now reaches the
// next scheduled time, or a push source signals, or the clock is stopped.
// It returns false if the clock was stopped while waiting. In simulation
// mode it returns true immediately without blocking.
func (c *Clock) WaitForNext() bool {
	if c.mode == Simulation {
		return true
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for {
		if c.stopped {
			return false
		}

		now := enginetime.FromTime(time.Now())
		c.wallClockNow = now

		if c.pushSignaled {
			c.pushSignaled = false
			return true
		}

		if c.nextScheduled == enginetime.MaxTime {
			c.cond.Wait()
			continue
		}

		remaining := c.nextScheduled.Sub(now)
		if remaining <= 0 {
			return true
		}

		// Wait with a timeout by releasing the lock and sleeping in slices,
		// re-checking pushSignaled/stopped between slices so a push wakes us
		// promptly instead of waiting out the whole remaining duration.
		c.mu.Unlock()
		time.Sleep(minDuration(remaining.ToDuration(), 10*time.Millisecond))
		c.mu.Lock()
	}
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
