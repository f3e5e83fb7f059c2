package clock

import (
	"github.com/tsflow/engine/enginetime"
)

// Nested is the evaluation clock seen by a child graph running inside a
// nested node (map/reduce/switch). It shares the parent's evaluationTime
// and wall-clock now (a child graph is evaluated within one outer cycle,
// it never has its own notion of "what time is it") but keeps its own
// nextScheduled so the owning nested node can track, independently of
// sibling children, when this particular child next wants to run, then
// forward that request to the parent's real clock.
type Nested struct {
	parent        *Clock
	nextScheduled enginetime.Time
}

// NewNested returns a nested clock forwarding scheduling requests to parent.
func NewNested(parent *Clock) *Nested {
	return &Nested{parent: parent, nextScheduled: enginetime.MaxTime}
}

// EvaluationTime mirrors the parent's frozen cycle time.
func (n *Nested) EvaluationTime() enginetime.Time {
	return n.parent.EvaluationTime()
}

// NextScheduledEvaluationTime returns this child's own next-time, not the
// parent's (which may be earlier, driven by sibling children).
func (n *Nested) NextScheduledEvaluationTime() enginetime.Time {
	return n.nextScheduled
}

// RequestSchedule records the child's own next-time locally and forwards
// the request upward so the outer scheduler wakes the owning nested node
// at or before that time.
func (n *Nested) RequestSchedule(t enginetime.Time) {
	if t < n.nextScheduled {
		n.nextScheduled = t
	}
	n.parent.RequestSchedule(t)
}

// ResetNextScheduled clears this child's own bookkeeping, called by the
// nested node before evaluating the child graph each outer cycle.
func (n *Nested) ResetNextScheduled() {
	n.nextScheduled = enginetime.MaxTime
}

// WallClockNow mirrors the parent's wall-clock now.
func (n *Nested) WallClockNow() enginetime.Time {
	return n.parent.WallClockNow()
}
