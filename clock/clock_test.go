package clock_test

import (
	"testing"
	"time"

	"github.com/tsflow/engine/clock"
	"github.com/tsflow/engine/enginetime"
)

func TestRequestScheduleOnlyLowers(t *testing.T) {
	c := clock.New(clock.Simulation, 0)

	c.RequestSchedule(10)
	if got := c.NextScheduledEvaluationTime(); got != 10 {
		t.Fatalf("got %v, want 10", got)
	}

	c.RequestSchedule(20)
	if got := c.NextScheduledEvaluationTime(); got != 10 {
		t.Fatalf("got %v, want 10 (later request must not raise it)", got)
	}

	c.RequestSchedule(5)
	if got := c.NextScheduledEvaluationTime(); got != 5 {
		t.Fatalf("got %v, want 5", got)
	}
}

func TestAdvanceToFreezesEvaluationTime(t *testing.T) {
	c := clock.New(clock.Simulation, 0)
	c.RequestSchedule(10)

	c.AdvanceTo(10)
	if got := c.EvaluationTime(); got != 10 {
		t.Fatalf("got %v, want 10", got)
	}

	// RequestSchedule during the cycle must never touch the frozen time.
	c.RequestSchedule(15)
	if got := c.EvaluationTime(); got != 10 {
		t.Fatalf("got %v, want evaluation time to stay frozen at 10", got)
	}
}

func TestResetNextScheduledClearsToMaxTime(t *testing.T) {
	c := clock.New(clock.Simulation, 0)
	c.RequestSchedule(10)
	c.ResetNextScheduled()
	if got := c.NextScheduledEvaluationTime(); got != enginetime.MaxTime {
		t.Fatalf("got %v, want MaxTime", got)
	}
}

func TestWaitForNextSimulationModeNeverBlocks(t *testing.T) {
	c := clock.New(clock.Simulation, 0)
	if !c.WaitForNext() {
		t.Fatal("expected simulation mode to return true without blocking")
	}
}

func TestWaitForNextRealTimeStopUnblocks(t *testing.T) {
	c := clock.New(clock.RealTime, enginetime.FromTime(time.Now()))

	done := make(chan bool, 1)
	go func() {
		done <- c.WaitForNext()
	}()

	c.Stop()

	select {
	case got := <-done:
		if got {
			t.Fatal("expected WaitForNext to return false once stopped")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("WaitForNext did not unblock after Stop")
	}
}

func TestWaitForNextRealTimePushSignalUnblocks(t *testing.T) {
	c := clock.New(clock.RealTime, enginetime.FromTime(time.Now()))
	c.RequestSchedule(enginetime.FromTime(time.Now().Add(time.Hour)))

	done := make(chan bool, 1)
	go func() {
		done <- c.WaitForNext()
	}()

	c.SignalPush()

	select {
	case got := <-done:
		if !got {
			t.Fatal("expected WaitForNext to return true on push signal")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("WaitForNext did not unblock after SignalPush")
	}
}

func TestNestedForwardsEarliestRequestToParent(t *testing.T) {
	parent := clock.New(clock.Simulation, 0)
	n1 := clock.NewNested(parent)
	n2 := clock.NewNested(parent)

	n1.RequestSchedule(20)
	n2.RequestSchedule(10)

	if got := parent.NextScheduledEvaluationTime(); got != 10 {
		t.Fatalf("got %v, want 10 (earliest of the two children)", got)
	}
	if got := n1.NextScheduledEvaluationTime(); got != 20 {
		t.Fatalf("got %v, want n1's own next-time of 20", got)
	}
	if got := n2.NextScheduledEvaluationTime(); got != 10 {
		t.Fatalf("got %v, want n2's own next-time of 10", got)
	}
}

func TestNestedResetIsIndependentOfParent(t *testing.T) {
	parent := clock.New(clock.Simulation, 0)
	n := clock.NewNested(parent)
	n.RequestSchedule(10)

	n.ResetNextScheduled()
	if got := n.NextScheduledEvaluationTime(); got != enginetime.MaxTime {
		t.Fatalf("got %v, want MaxTime after reset", got)
	}
	// The parent's bookkeeping is untouched by the child's own reset.
	if got := parent.NextScheduledEvaluationTime(); got != 10 {
		t.Fatalf("got %v, want parent's schedule to remain at 10", got)
	}
}

func TestNestedEvaluationTimeMirrorsParent(t *testing.T) {
	parent := clock.New(clock.Simulation, 0)
	n := clock.NewNested(parent)

	parent.AdvanceTo(42)
	if got := n.EvaluationTime(); got != 42 {
		t.Fatalf("got %v, want 42", got)
	}
}
