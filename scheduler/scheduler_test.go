package scheduler_test

import (
	"testing"

	"github.com/tsflow/engine/enginetime"
	"github.com/tsflow/engine/scheduler"
)

func TestScheduleAnonymousEarliestWins(t *testing.T) {
	s := scheduler.New()
	if err := s.Schedule(3, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Schedule(3, 20); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	due := s.PopDue(9)
	if len(due) != 0 {
		t.Fatalf("expected nothing due at t=9, got %v", due)
	}

	due = s.PopDue(10)
	if len(due) != 1 || due[0] != 3 {
		t.Fatalf("expected [3] due at t=10, got %v", due)
	}
}

func TestScheduleOrderingByNodeIndex(t *testing.T) {
	s := scheduler.New()
	s.Schedule(5, 10)
	s.Schedule(1, 10)
	s.Schedule(3, 10)

	due := s.PopDue(10)
	want := []int{1, 3, 5}
	if len(due) != len(want) {
		t.Fatalf("got %v, want %v", due, want)
	}
	for i, n := range want {
		if due[i] != n {
			t.Fatalf("got %v, want %v", due, want)
		}
	}
}

func TestScheduleLabeledReplaces(t *testing.T) {
	s := scheduler.New()
	s.ScheduleLabeled(1, 100, "timeout")
	s.ScheduleLabeled(1, 5, "timeout")

	due := s.PopDue(5)
	if len(due) != 1 || due[0] != 1 {
		t.Fatalf("expected node 1 due at t=5 after replace, got %v", due)
	}

	due = s.PopDue(100)
	if len(due) != 0 {
		t.Fatalf("expected nothing left pending, got %v", due)
	}
}

func TestUnschedule(t *testing.T) {
	s := scheduler.New()
	s.ScheduleLabeled(2, 10, "poll")
	if !s.Unschedule(2, "poll") {
		t.Fatal("expected unschedule to report removal")
	}

	due := s.PopDue(10)
	if len(due) != 0 {
		t.Fatalf("expected nothing due, got %v", due)
	}
}

func TestPastScheduleIsError(t *testing.T) {
	s := scheduler.New()
	s.Schedule(1, 10)
	s.PopDue(10)

	if err := s.Schedule(1, 5); err == nil {
		t.Fatal("expected error scheduling a past time")
	}
}

func TestNextTimeAndIsEmpty(t *testing.T) {
	s := scheduler.New()
	if !s.IsEmpty() {
		t.Fatal("expected empty scheduler")
	}
	s.Schedule(1, 42)
	if s.IsEmpty() {
		t.Fatal("expected non-empty scheduler")
	}
	if s.NextTime() != enginetime.Time(42) {
		t.Fatalf("got %v, want 42", s.NextTime())
	}
}
