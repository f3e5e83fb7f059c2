package timeseries_test

import (
	"testing"

	"github.com/tsflow/engine/enginetime"
	"github.com/tsflow/engine/timeseries"
)

// countingObserver counts the notifications it receives.
type countingObserver struct{ n *int }

func (c countingObserver) NotifyModified(enginetime.Time) { *c.n++ }

func TestRefDereferencesCurrentTarget(t *testing.T) {
	r := timeseries.NewRef[int]()
	if r.Valid() {
		t.Fatal("expected an unbound ref to be invalid")
	}
	if got := r.Value(); got != 0 {
		t.Fatalf("got %d, want the zero value while unbound", got)
	}

	first := timeseries.NewOutput[int](func(a, b int) bool { return a == b })
	first.Set(7, 1)
	r.Rebind(first, 1)

	if !r.Valid() {
		t.Fatal("expected the ref to be valid once bound to a valid target")
	}
	if got := r.Value(); got != 7 {
		t.Fatalf("got %d, want 7", got)
	}
}

func TestRefRebindTicksAtMostOncePerCycle(t *testing.T) {
	r := timeseries.NewRef[int]()
	first := timeseries.NewOutput[int](func(a, b int) bool { return a == b })
	second := timeseries.NewOutput[int](func(a, b int) bool { return a == b })
	first.Set(1, 1)
	second.Set(2, 1)

	notified := 0
	in := timeseries.NewInput[int](countingObserver{&notified})
	in.Bind(r)

	r.Rebind(first, 1)
	if r.LastModifiedTime() != 1 {
		t.Fatal("expected the rebind itself to tick the ref")
	}

	// A target tick forwarded the same cycle a rebind already ticked in
	// must not produce a second, separately-observable tick.
	r.Rebind(second, 2)
	first.Set(99, 2)
	if got := r.Value(); got != 2 {
		t.Fatalf("got %d, want the rebind to win over a same-cycle target change from the old target", got)
	}
	before := notified
	second.Set(3, 2)
	if notified != before {
		t.Fatalf("got %d notifications, want %d: a new target's tick in the rebind cycle must not tick the ref again", notified, before)
	}
}

func TestRefRebindUnsubscribesFromPreviousTarget(t *testing.T) {
	r := timeseries.NewRef[int]()
	first := timeseries.NewOutput[int](func(a, b int) bool { return a == b })
	second := timeseries.NewOutput[int](func(a, b int) bool { return a == b })

	r.Rebind(first, 1)
	r.Rebind(second, 2)

	// Ticking the old target after the ref has moved on must not make the
	// ref observably tick again this new cycle via the stale subscription.
	first.Set(123, 3)
	if r.LastModifiedTime() == 3 {
		t.Fatal("expected the ref to no longer observe its previous target")
	}
}
