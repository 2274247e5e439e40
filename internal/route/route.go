// Package route implements the Route aggregate (spec C2): block sequence
// construction, activation/advancement, and the look-ahead queries the
// kernel and communication core depend on. Grounded on original_source
// route.py.
package route

import (
	"fmt"
	"time"

	"github.com/ctcsys/ctc-core/internal/errs"
	"github.com/ctcsys/ctc-core/internal/models"
)

// Route is a plan: a contiguous block sequence from start to end, with
// scheduling metadata and an activation cursor.
type Route struct {
	ID        string
	Line      models.Line
	Sequence  []int // block numbers, contiguous, block_sequence[0]=start, [-1]=end

	ScheduledArrival   time.Time
	ScheduledDeparture time.Time
	ActualDeparture    time.Time
	ActualArrival      time.Time
	EstimatedTravel    time.Duration

	CurrentIndex int
	IsActive     bool
	TrainID      string
}

// New constructs a Route with a monotonic block_sequence: if end > start the
// sequence increments, else decrements. This satisfies spec §4.2's
// requirement of a physically-connected contiguous sequence without
// consulting track topology beyond adjacency.
func New(id string, line models.Line, start, end int, arrival time.Time, epoch int64, now time.Time) (*Route, error) {
	if start == end {
		return nil, errs.RouteInfeasible(fmt.Sprintf("start %d equals end %d", start, end))
	}
	var seq []int
	if end > start {
		for b := start; b <= end; b++ {
			seq = append(seq, b)
		}
	} else {
		for b := start; b >= end; b-- {
			seq = append(seq, b)
		}
	}
	r := &Route{
		ID:                 fmt.Sprintf("route_%d_%d_%d", start, end, epoch),
		Line:               line,
		Sequence:           seq,
		ScheduledArrival:   arrival,
		ScheduledDeparture: now,
		EstimatedTravel:    arrival.Sub(now),
	}
	return r, nil
}

// StartBlock / EndBlock read the sequence's endpoints.
func (r *Route) StartBlock() int { return r.Sequence[0] }
func (r *Route) EndBlock() int   { return r.Sequence[len(r.Sequence)-1] }

// Validate returns true iff all blocks are pairwise connected (guaranteed by
// construction here), operational per the supplied predicate, and the
// scheduled arrival still allows the minimum travel time from now.
func (r *Route) Validate(now time.Time, minTravel time.Duration, operational func(block int) bool) bool {
	if len(r.Sequence) == 0 {
		return false
	}
	for _, b := range r.Sequence {
		if !operational(b) {
			return false
		}
	}
	return !r.ScheduledArrival.Before(now.Add(minTravel))
}

// indexOf returns the sequence index of a block number, or -1.
func (r *Route) indexOf(block int) int {
	for i, b := range r.Sequence {
		if b == block {
			return i
		}
	}
	return -1
}

// AdvanceTo moves the activation cursor to block's index, recording actual
// departure on first advance and actual arrival when the final block is
// reached. Returns false if block is not part of the sequence.
func (r *Route) AdvanceTo(block int, now time.Time) bool {
	idx := r.indexOf(block)
	if idx < 0 {
		return false
	}
	if r.ActualDeparture.IsZero() {
		r.ActualDeparture = now
	}
	r.CurrentIndex = idx
	if idx == len(r.Sequence)-1 {
		r.ActualArrival = now
	}
	return true
}

// Finished reports whether the train has reached the route's final block.
func (r *Route) Finished() bool {
	return !r.ActualArrival.IsZero()
}

// BlockAt returns the block at a given sequence index, clamped to the last
// block beyond the end (open question in spec.md §9: retained as
// clamp-and-continue).
func (r *Route) BlockAt(index int) int {
	if index < 0 {
		index = 0
	}
	if index >= len(r.Sequence) {
		index = len(r.Sequence) - 1
	}
	return r.Sequence[index]
}

// Distance returns the hop count from block a to block b along this route's
// sequence, not the arithmetic difference. Undefined (returns 0, false) if
// either block is absent from the sequence.
func (r *Route) Distance(a, b int) (int, bool) {
	ia, ib := r.indexOf(a), r.indexOf(b)
	if ia < 0 || ib < 0 {
		return 0, false
	}
	return ib - ia, true
}

// Lookahead returns authority/speed slices of length n+1 starting at the
// current index, via the supplied per-block calculator; padded with zeros
// beyond the sequence end.
func (r *Route) Lookahead(n int, calc func(block int) (int, int)) (authorities []int, speeds []int) {
	authorities = make([]int, n+1)
	speeds = make([]int, n+1)
	for i := 0; i <= n; i++ {
		idx := r.CurrentIndex + i
		if idx >= len(r.Sequence) {
			continue
		}
		a, s := calc(r.Sequence[idx])
		authorities[i] = a
		speeds[i] = s
	}
	return authorities, speeds
}

// Deactivate marks the route inactive. Called when a train passes the final
// block; the coordinator is notified by its caller (the train lifecycle
// owns that wiring, not the route itself).
func (r *Route) Deactivate() {
	r.IsActive = false
}
