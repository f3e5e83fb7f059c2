package nested_test

import (
	"testing"

	"github.com/tsflow/engine/enginetime"
	"github.com/tsflow/engine/graph"
	"github.com/tsflow/engine/nested"
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

// TestReduceTSDInsertAndRemoveRebalance is spec.md §8's scenario 4: insert
// keys a..z with values 0..25 (sum 325), then remove a..t (values 0..19,
// sum 190), leaving 135.
func TestReduceTSDInsertAndRemoveRebalance(t *testing.T) {
	g := graph.New(newFakeClock(0))
	tsd := timeseries.NewTSDOutput[string, int](func(a, b int) bool { return a == b })

	sum := func(a, b int) int { return a + b }
	r := nested.NewReduceTSD[string, int](g, tsd, sum, 0, func(a, b int) bool { return a == b })

	now := enginetime.Time(1)
	for i := 0; i < 26; i++ {
		key := string(rune('a' + i))
		if err := tsd.SetValue(key, i, now); err != nil {
			t.Fatalf("unexpected error setting %s: %v", key, err)
		}
	}
	if err := g.Evaluate(now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := r.Output().Value(); got != 325 {
		t.Fatalf("got %d, want 325 after inserting a..z", got)
	}

	now = 2
	for i := 0; i < 20; i++ {
		key := string(rune('a' + i))
		if err := tsd.Remove(key, now); err != nil {
			t.Fatalf("unexpected error removing %s: %v", key, err)
		}
	}
	if err := g.Evaluate(now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := r.Output().Value(); got != 135 {
		t.Fatalf("got %d, want 135 after removing a..t", got)
	}
}

func TestReduceTSDGrowsAndShrinksCapacity(t *testing.T) {
	g := graph.New(newFakeClock(0))
	tsd := timeseries.NewTSDOutput[int, int](func(a, b int) bool { return a == b })
	r := nested.NewReduceTSD[int, int](g, tsd, func(a, b int) int { return a + b }, 0, func(a, b int) bool { return a == b })

	now := enginetime.Time(1)
	for i := 0; i < 20; i++ {
		_ = tsd.SetValue(i, i, now)
	}
	if err := g.Evaluate(now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	capAfterGrowth := r.Capacity()
	if capAfterGrowth < 20 {
		t.Fatalf("got capacity %d, want at least 20 after inserting 20 keys", capAfterGrowth)
	}

	now = 2
	for i := 0; i < 18; i++ {
		_ = tsd.Remove(i, now)
	}
	if err := g.Evaluate(now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Capacity() >= capAfterGrowth {
		t.Fatalf("got capacity %d, want it to have shrunk below %d after removing most keys", r.Capacity(), capAfterGrowth)
	}
}

func TestReduceNonAssocTSDFollowsInsertionOrder(t *testing.T) {
	g := graph.New(newFakeClock(0))
	tsd := timeseries.NewTSDOutput[string, string](func(a, b string) bool { return a == b })

	concat := func(acc, v string) string { return acc + v }
	r := nested.NewReduceNonAssocTSD[string, string](g, tsd, concat, "", func(a, b string) bool { return a == b })

	now := enginetime.Time(1)
	_ = tsd.SetValue("x", "c", now)
	_ = tsd.SetValue("y", "a", now)
	_ = tsd.SetValue("z", "t", now)
	if err := g.Evaluate(now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := r.Output().Value(); got != "cat" {
		t.Fatalf("got %q, want %q (chain follows insertion order x,y,z, not key order)", got, "cat")
	}
}
