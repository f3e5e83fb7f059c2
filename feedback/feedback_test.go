package feedback_test

import (
	"testing"

	"github.com/tsflow/engine/enginetime"
	"github.com/tsflow/engine/feedback"
	"github.com/tsflow/engine/graph"
	"github.com/tsflow/engine/timeseries"
)

type fakeClock struct {
	now       enginetime.Time
	requested enginetime.Time
}

func newFakeClock(now enginetime.Time) *fakeClock {
	return &fakeClock{now: now, requested: enginetime.MaxTime}
}

func (c *fakeClock) EvaluationTime() enginetime.Time { return c.now }
func (c *fakeClock) RequestSchedule(t enginetime.Time) {
	if t < c.requested {
		c.requested = t
	}
}

func TestFeedbackWriteVisibleNextCycleOnly(t *testing.T) {
	g := graph.New(newFakeClock(0))
	fb := feedback.New[int](g, 0, func(a, b int) bool { return a == b })

	if err := fb.Write(5, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Not visible yet at the same cycle.
	if fb.Output().Value() != 0 {
		t.Fatalf("got %v, want 0 (write must not be visible until flushed)", fb.Output().Value())
	}

	if err := g.Evaluate(10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fb.Output().Value() != 0 {
		t.Fatalf("got %v, want 0 at t=10 (flush node scheduled for t=10+MinDelta)", fb.Output().Value())
	}

	next := enginetime.Time(10).Add(enginetime.MinDelta)
	if err := g.Evaluate(next); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fb.Output().Value() != 5 {
		t.Fatalf("got %v, want 5 at t=10+MinDelta", fb.Output().Value())
	}
}

func TestFeedbackWriteTwiceSameCycleLastWins(t *testing.T) {
	g := graph.New(newFakeClock(0))
	fb := feedback.New[int](g, 0, func(a, b int) bool { return a == b })

	_ = fb.Write(1, 10)
	_ = fb.Write(2, 10)

	next := enginetime.Time(10).Add(enginetime.MinDelta)
	if err := g.Evaluate(next); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fb.Output().Value() != 2 {
		t.Fatalf("got %v, want 2 (last write wins)", fb.Output().Value())
	}
}

func TestDelayedBindingResolveAndDoubleBindError(t *testing.T) {
	d := feedback.NewDelayedBinding[int]()

	if err := d.CheckResolved(); err == nil {
		t.Fatal("expected CheckResolved to fail before Bind")
	}

	src := timeseries.NewOutput[int](nil)
	if err := d.Bind(src); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := d.CheckResolved(); err != nil {
		t.Fatalf("unexpected error after Bind: %v", err)
	}

	if err := d.Bind(src); err == nil {
		t.Fatal("expected a second Bind to fail")
	}
}
