package timeseries_test

import (
	"testing"

	"github.com/tsflow/engine/timeseries"
)

func TestTSDKeysPreserveInsertionOrder(t *testing.T) {
	d := timeseries.NewTSDOutput[string, int](nil)
	_ = d.SetValue("b", 2, 10)
	_ = d.SetValue("a", 1, 10)
	_ = d.SetValue("c", 3, 10)
	_ = d.Remove("a", 20)
	_ = d.SetValue("d", 4, 20)

	got := d.Keys()
	want := []string{"b", "c", "d"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestTSDKeyReaddedSameCycleErrors(t *testing.T) {
	d := timeseries.NewTSDOutput[string, int](nil)
	_ = d.SetValue("a", 1, 10)
	_ = d.Remove("a", 20)

	if err := d.SetValue("a", 2, 20); err == nil {
		t.Fatal("expected error re-adding a key removed earlier in the same cycle")
	}
	if err := d.SetValue("a", 2, 21); err != nil {
		t.Fatalf("unexpected error re-adding in a later cycle: %v", err)
	}
}

func TestTSDKeySetUpdatedOnSetValue(t *testing.T) {
	d := timeseries.NewTSDOutput[string, int](nil)

	_ = d.SetValue("a", 1, 30)
	if !d.KeySet().Contains("a") {
		t.Fatal("expected key-set to contain newly added key")
	}
	if d.LastModifiedTime() != 30 {
		t.Fatalf("got %v, want 30", d.LastModifiedTime())
	}

	_ = d.Remove("a", 40)
	if d.KeySet().Contains("a") {
		t.Fatal("expected key-set to drop the removed key")
	}
}

func TestTSDRemoveAbsentKeyErrors(t *testing.T) {
	d := timeseries.NewTSDOutput[string, int](nil)
	if err := d.Remove("missing", 10); err == nil {
		t.Fatal("expected error removing an absent key")
	}
	d.RemoveIfExists("missing", 10) // must not panic or error
}

func TestTSDAddedOrModifiedAndRemovedKeysAreCycleScoped(t *testing.T) {
	d := timeseries.NewTSDOutput[string, int](nil)
	_ = d.SetValue("a", 1, 10)
	_ = d.SetValue("b", 2, 10)
	if got := d.AddedOrModifiedKeys(10); len(got) != 2 {
		t.Fatalf("got %v, want 2 keys added at t=10", got)
	}
	_ = d.Remove("a", 20)

	if got := d.RemovedKeys(20); len(got) != 1 || got[0] != "a" {
		t.Fatalf("got %v, want [a]", got)
	}
	if got := d.RemovedKeys(10); got != nil {
		t.Fatalf("expected nil outside the removal cycle, got %v", got)
	}
}
