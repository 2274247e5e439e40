// Package kernel implements the Authority/Speed Safety Kernel (spec C6): a
// single pure calculation per (train, target-block, route). Grounded on
// original_source block.py's authority/speed checks and spec §4.6.
package kernel

import (
	"github.com/ctcsys/ctc-core/internal/block"
	"github.com/ctcsys/ctc-core/internal/models"
	"github.com/ctcsys/ctc-core/internal/route"
)

// TrainView is the minimal train-state the kernel needs, supplied by the
// caller so this package has no dependency on the train package (keeps the
// calculation pure and independently testable).
type TrainView struct {
	ID           string
	CurrentBlock int
	Stopped      bool
	// Direction is +1 if the route advances to higher block numbers from
	// the train's current position, -1 if to lower numbers, and 0 when
	// unknown (no route, or no block ahead). Used for bidirectional
	// conflict detection, which ignores 0.
	Direction int
}

// Blocks abstracts lookups the kernel needs without owning block storage.
type Blocks interface {
	Get(number int) *block.Block
}

// Calculate implements spec §4.6: authority falls through on first 0;
// speed is computed only when authority == 1.
func Calculate(trainID string, targetBlock int, r *route.Route, blocks Blocks, others []TrainView) (authority int, speed int) {
	tb := blocks.Get(targetBlock)
	if tb == nil || !tb.Operational() {
		return 0, 0
	}
	occupied, occupant := tb.Occupied()
	if occupied && occupant != trainID {
		return 0, 0
	}
	if tb.Summary().Bidirectional && hasOpposingConflict(targetBlock, r, others) {
		return 0, 0
	}
	if !switchAligned(targetBlock, r, blocks) {
		return 0, 0
	}
	authority = 1
	speed = computeSpeed(targetBlock, r, blocks, others)
	return authority, speed
}

// hasOpposingConflict reports whether another train currently in the target
// block travels the opposite direction. This route's direction comes from
// the (prev_block, block) ordering at the target; the other train's comes
// from its TrainView. Trains in other blocks of the sequence are not checked.
func hasOpposingConflict(targetBlock int, r *route.Route, others []TrainView) bool {
	idx, ok := r.Distance(r.StartBlock(), targetBlock)
	_ = idx
	if !ok {
		return false
	}
	myDir := directionAt(r, targetBlock)
	for _, o := range others {
		if o.CurrentBlock != targetBlock {
			continue
		}
		if o.Direction != 0 && myDir != 0 && o.Direction != myDir {
			return true
		}
	}
	return false
}

func directionAt(r *route.Route, block int) int {
	idx := -1
	for i, b := range r.Sequence {
		if b == block {
			idx = i
			break
		}
	}
	if idx <= 0 || idx >= len(r.Sequence)-1 {
		if idx == 0 && len(r.Sequence) > 1 {
			if r.Sequence[1] > r.Sequence[0] {
				return 1
			}
			return -1
		}
		return 0
	}
	if r.Sequence[idx] > r.Sequence[idx-1] {
		return 1
	}
	return -1
}

// switchAligned checks every block between current and target whose
// predecessor has a switch: the required position is the higher-numbered
// connection iff the route enters a higher-numbered block next.
func switchAligned(targetBlock int, r *route.Route, blocks Blocks) bool {
	startIdx := r.CurrentIndex
	targetIdx := -1
	for i, b := range r.Sequence {
		if b == targetBlock {
			targetIdx = i
			break
		}
	}
	if targetIdx < 0 {
		return true
	}
	for i := startIdx; i < targetIdx; i++ {
		predNum := r.Sequence[i]
		pred := blocks.Get(predNum)
		if pred == nil || !pred.Summary().HasSwitch {
			continue
		}
		entersHigher := r.Sequence[i+1] > predNum
		want := models.SwitchLower
		if entersHigher {
			want = models.SwitchHigher
		}
		if pred.SwitchPosition() != want {
			return false
		}
	}
	return true
}

// computeSpeed implements the speed table: base 3, collapsed by nearest
// stopped train, nearest station, and active crossing within look-ahead.
func computeSpeed(targetBlock int, r *route.Route, blocks Blocks, others []TrainView) int {
	targetIdx := -1
	for i, b := range r.Sequence {
		if b == targetBlock {
			targetIdx = i
			break
		}
	}
	if targetIdx < 0 {
		return 3
	}

	speed := 3

	if hops := nearestStoppedTrainHops(r, targetIdx, others); hops >= 0 {
		switch {
		case hops <= 1:
			speed = min(speed, 0)
		case hops <= 2:
			speed = min(speed, 1)
		case hops <= 3:
			speed = min(speed, 2)
		}
	}

	if hops := nearestStationHops(r, targetIdx, blocks); hops >= 0 {
		switch {
		case hops <= 1:
			speed = min(speed, 1)
		case hops <= 2:
			speed = min(speed, 2)
		}
	}

	if crossingAheadWithin(r, targetIdx, blocks, 1) {
		speed = 0
	}

	return speed
}

func nearestStoppedTrainHops(r *route.Route, targetIdx int, others []TrainView) int {
	best := -1
	for _, o := range others {
		if !o.Stopped {
			continue
		}
		for i := targetIdx; i < len(r.Sequence) && i <= targetIdx+3; i++ {
			if r.Sequence[i] == o.CurrentBlock {
				hops := i - targetIdx
				if best < 0 || hops < best {
					best = hops
				}
			}
		}
	}
	return best
}

func nearestStationHops(r *route.Route, targetIdx int, blocks Blocks) int {
	for i := targetIdx; i < len(r.Sequence) && i <= targetIdx+2; i++ {
		b := blocks.Get(r.Sequence[i])
		if b != nil && b.Summary().HasStation {
			return i - targetIdx
		}
	}
	return -1
}

func crossingAheadWithin(r *route.Route, targetIdx int, blocks Blocks, within int) bool {
	for i := targetIdx; i < len(r.Sequence) && i <= targetIdx+within; i++ {
		b := blocks.Get(r.Sequence[i])
		if b != nil && b.CrossingActive() {
			return true
		}
	}
	return false
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
