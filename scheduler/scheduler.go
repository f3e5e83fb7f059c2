// Package scheduler implements the per-graph priority queue described in
// spec.md §4.2: a min-heap keyed by (time, node index), supporting
// idempotent scheduling, named-slot rescheduling, and due-node draining in
// ascending node-index order.
//
// There is no third-party priority-queue implementation anywhere in the
// retrieval pack; container/heap is the idiomatic stdlib mechanism for
// exactly this shape and is what is used here (see DESIGN.md).
package scheduler

import (
	"container/heap"
	"errors"
	"fmt"

	"github.com/tsflow/engine/enginetime"
)

// ErrPastSchedule is returned when a caller attempts to schedule a node at
// a time strictly before the scheduler's current notion of "now". Per
// spec.md §7 this is a SchedulingError: fatal, indicates an engine bug.
var ErrPastSchedule = errors.New("scheduler: attempt to schedule a past time")

// entry is one heap element: a node waiting to run at time At. Label is
// empty for anonymous (unnamed) schedule requests; named requests replace
// any prior entry sharing (NodeIndex, Label).
type entry struct {
	at        enginetime.Time
	nodeIndex int
	label     string
	seq       int // tie-break for equal (at, nodeIndex): insertion order
	removed   bool
}

type entryHeap []*entry

func (h entryHeap) Len() int { return len(h) }
func (h entryHeap) Less(i, j int) bool {
	if h[i].at != h[j].at {
		return h[i].at < h[j].at
	}
	if h[i].nodeIndex != h[j].nodeIndex {
		return h[i].nodeIndex < h[j].nodeIndex
	}
	return h[i].seq < h[j].seq
}
func (h entryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *entryHeap) Push(x any)   { *h = append(*h, x.(*entry)) }
func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// Scheduler is a single graph's priority queue of pending node activations.
type Scheduler struct {
	heap entryHeap
	seq  int
	// slots tracks the live (non-removed) entry for each (nodeIndex, label)
	// pair so named rescheduling and un-scheduling are O(1) to find.
	slots map[int]map[string]*entry
	// lowWaterMark is the latest time a cycle was popped up to; scheduling
	// strictly before it is a SchedulingError.
	lowWaterMark enginetime.Time
}

// New returns an empty scheduler.
func New() *Scheduler {
	return &Scheduler{
		slots:        make(map[int]map[string]*entry),
		lowWaterMark: enginetime.MinTime,
	}
}

// Schedule requests that nodeIndex be evaluated at time t under an
// anonymous slot. It is idempotent for the same (node, time) pair: calling
// it twice with the same time does not create two entries, and the
// earliest request for a node always wins (a later call with a larger t
// than an already-pending anonymous request is a no-op).
func (s *Scheduler) Schedule(nodeIndex int, t enginetime.Time) error {
	return s.ScheduleLabeled(nodeIndex, t, "")
}

// ScheduleLabeled requests that nodeIndex be evaluated at time t under a
// named slot. Re-scheduling with the same (nodeIndex, label) replaces the
// prior entry for that slot outright (last write wins), unlike the
// anonymous slot's earliest-wins rule.
func (s *Scheduler) ScheduleLabeled(nodeIndex int, t enginetime.Time, label string) error {
	if t < s.lowWaterMark {
		return fmt.Errorf("%w: node %d requested %s, current floor is %s", ErrPastSchedule, nodeIndex, t, s.lowWaterMark)
	}

	byLabel, ok := s.slots[nodeIndex]
	if !ok {
		byLabel = make(map[string]*entry)
		s.slots[nodeIndex] = byLabel
	}

	if label == "" {
		if existing, found := byLabel[""]; found && !existing.removed {
			if t >= existing.at {
				// earliest wins for the anonymous slot
				return nil
			}
			existing.removed = true
		}
	} else if existing, found := byLabel[label]; found && !existing.removed {
		// named slot: replace unconditionally
		existing.removed = true
	}

	e := &entry{at: t, nodeIndex: nodeIndex, label: label, seq: s.seq}
	s.seq++
	byLabel[label] = e
	heap.Push(&s.heap, e)
	return nil
}

// Unschedule removes the named slot for nodeIndex, if present. It returns
// true if a pending entry was removed.
func (s *Scheduler) Unschedule(nodeIndex int, label string) bool {
	byLabel, ok := s.slots[nodeIndex]
	if !ok {
		return false
	}

	e, found := byLabel[label]
	if !found || e.removed {
		return false
	}

	e.removed = true
	delete(byLabel, label)
	return true
}

// PopDue removes and returns every node whose earliest pending entry is
// <= currentTime, in ascending node-index order (ties broken by insertion
// order), per spec.md §4.2's ordering guarantee. Advances the low-water
// mark to currentTime so a subsequent Schedule call cannot target the past.
func (s *Scheduler) PopDue(currentTime enginetime.Time) []int {
	if currentTime > s.lowWaterMark {
		s.lowWaterMark = currentTime
	}

	var due []*entry
	for s.heap.Len() > 0 {
		top := s.heap[0]
		if top.removed {
			heap.Pop(&s.heap)
			continue
		}
		if top.at > currentTime {
			break
		}

		heap.Pop(&s.heap)
		if byLabel, ok := s.slots[top.nodeIndex]; ok {
			if cur, found := byLabel[top.label]; found && cur == top {
				delete(byLabel, top.label)
			}
		}
		due = append(due, top)
	}

	// within-cycle ordering: ascending node index, then insertion order
	// (entryHeap.Less already encodes this, but PopDue may interleave
	// entries from different labels for the same node-index in arbitrary
	// pop order if their times tie; sort defensively).
	sortEntries(due)

	seen := make(map[int]bool, len(due))
	var result []int
	for _, e := range due {
		if !seen[e.nodeIndex] {
			seen[e.nodeIndex] = true
			result = append(result, e.nodeIndex)
		}
	}

	return result
}

func sortEntries(due []*entry) {
	for i := 1; i < len(due); i++ {
		j := i
		for j > 0 && less(due[j], due[j-1]) {
			due[j], due[j-1] = due[j-1], due[j]
			j--
		}
	}
}

func less(a, b *entry) bool {
	if a.at != b.at {
		return a.at < b.at
	}
	if a.nodeIndex != b.nodeIndex {
		return a.nodeIndex < b.nodeIndex
	}
	return a.seq < b.seq
}

// NextTime returns the earliest pending time across all live entries, or
// enginetime.MaxTime if the scheduler is empty.
func (s *Scheduler) NextTime() enginetime.Time {
	for s.heap.Len() > 0 {
		top := s.heap[0]
		if top.removed {
			heap.Pop(&s.heap)
			continue
		}
		return top.at
	}
	return enginetime.MaxTime
}

// IsEmpty returns true if no node has a pending entry.
func (s *Scheduler) IsEmpty() bool {
	return s.NextTime() == enginetime.MaxTime
}
