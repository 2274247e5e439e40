// Package block implements the per-block state machine (spec C1): occupancy,
// infrastructure flags, and the per-block authority/speed calculators that
// feed the kernel. Grounded on original_source block.py, re-expressed as a
// fixed record type per block instead of dynamic attribute access.
package block

import (
	"sync"
	"time"

	"github.com/ctcsys/ctc-core/internal/models"
)

// OccupationTransition is one entry of a block's bounded occupancy history.
type OccupationTransition struct {
	At       time.Time
	Occupied bool
	TrainID  string
}

const maxOccupationHistory = 100

// Summary is a read-only snapshot of a block's static infrastructure
// attributes, separate from its mutable occupancy state.
type Summary struct {
	Number        int
	Line          models.Line
	LengthM       float64
	GradePercent  float64
	SpeedLimitKMH float64
	HasSwitch     bool
	HasCrossing   bool
	HasStation    bool
	Station       *models.Station
	Bidirectional bool
	Underground   bool
}

// Block is one physical track section on one line. All mutation happens
// under mu; the coordinator is the sole lock holder per the concurrency
// model, with the kernel reading under the same lock.
type Block struct {
	mu sync.Mutex

	rec models.BlockRecord

	occupied       bool
	occupyingTrain string
	operational    bool
	failed         bool
	inMaintenance  bool

	history            []OccupationTransition
	scheduledOccupy    []time.Time
	switchPosition     models.SwitchPosition
	crossingActive     bool
	closures           []ClosureWindow
}

// ClosureWindow mirrors a scheduled closure mirrored from the Failure/Closure
// Manager (C8) onto the block for local validation/lookahead queries.
type ClosureWindow struct {
	Start time.Time
	End   time.Time
}

// New constructs an operational, unoccupied block from a Track Reader record.
func New(rec models.BlockRecord) *Block {
	b := &Block{rec: rec, operational: true}
	if rec.HasSwitch && rec.Switch != nil {
		b.switchPosition = models.SwitchLower
	}
	return b
}

func (b *Block) Number() int       { return b.rec.Number }
func (b *Block) Line() models.Line { return b.rec.Line }
func (b *Block) IsYard() bool      { return b.rec.Number == 0 }

// AdjacentCandidates returns the neighboring block number(s) reachable
// from this block in the given direction, accounting for a switch's two
// connections. Grounded on original_source block.py's
// get_next_valid_blocks: with no switch there is exactly one neighbor
// (this block's number ±1); with a switch both connections are returned as
// candidates. Route generation (route.New) does not call it; it numbers
// blocks monotonically.
func (b *Block) AdjacentCandidates(forward bool) []int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.rec.HasSwitch && b.rec.Switch != nil {
		return []int{b.rec.Switch.LowerConnection, b.rec.Switch.HigherConnection}
	}
	if forward {
		return []int{b.rec.Number + 1}
	}
	return []int{b.rec.Number - 1}
}

// Summary returns the block's static attributes.
func (b *Block) Summary() Summary {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Summary{
		Number: b.rec.Number, Line: b.rec.Line, LengthM: b.rec.LengthM,
		GradePercent: b.rec.GradePercent, SpeedLimitKMH: b.rec.SpeedLimitKMH,
		HasSwitch: b.rec.HasSwitch, HasCrossing: b.rec.HasCrossing,
		HasStation: b.rec.HasStation, Station: b.rec.Station,
		Bidirectional: b.rec.Bidirectional, Underground: b.rec.Underground,
	}
}

// UpdateOccupation is the atomic occupancy setter. It records a timestamped
// transition (bounded to the last 100) and keeps OccupyingTrain consistent:
// occupied ⇒ occupyingTrain != "".
func (b *Block) UpdateOccupation(occupied bool, trainID string, now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.occupied = occupied
	if occupied {
		b.occupyingTrain = trainID
	} else {
		b.occupyingTrain = ""
	}
	b.history = append(b.history, OccupationTransition{At: now, Occupied: occupied, TrainID: trainID})
	if len(b.history) > maxOccupationHistory {
		b.history = b.history[len(b.history)-maxOccupationHistory:]
	}
}

func (b *Block) Occupied() (bool, string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.occupied, b.occupyingTrain
}

// SetSwitchPosition is rejected unless the block has a switch.
func (b *Block) SetSwitchPosition(pos models.SwitchPosition) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.rec.HasSwitch {
		return false
	}
	b.switchPosition = pos
	return true
}

func (b *Block) SwitchPosition() models.SwitchPosition {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.switchPosition
}

// SetCrossingStatus is rejected unless the block has a crossing.
func (b *Block) SetCrossingStatus(active bool) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.rec.HasCrossing {
		return false
	}
	b.crossingActive = active
	return true
}

func (b *Block) CrossingActive() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.crossingActive
}

func (b *Block) Operational() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.operational && !b.failed && !b.inMaintenance
}

func (b *Block) SetOperational(v bool) {
	b.mu.Lock()
	b.operational = v
	b.mu.Unlock()
}

func (b *Block) SetFailed(v bool) {
	b.mu.Lock()
	b.failed = v
	b.mu.Unlock()
}

func (b *Block) Failed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failed
}

func (b *Block) SetInMaintenance(v bool) {
	b.mu.Lock()
	b.inMaintenance = v
	b.mu.Unlock()
}

// ScheduleClosure appends to the block's own closure list; the authoritative
// record lives in the Failure/Closure Manager (C8), this is a local mirror
// used by lookahead/validation queries.
func (b *Block) ScheduleClosure(start, end time.Time) {
	b.mu.Lock()
	b.closures = append(b.closures, ClosureWindow{Start: start, End: end})
	b.mu.Unlock()
}

func (b *Block) IsClosedAt(t time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, c := range b.closures {
		if !t.Before(c.Start) && t.Before(c.End) {
			return true
		}
	}
	return false
}

// CalculateSafeAuthority returns 0/1 per spec §4.1: not operational, failed,
// in maintenance, or crossing-active collapses to 0; occupation by a
// different train than callerTrainID collapses to 0; else 1.
func (b *Block) CalculateSafeAuthority(callerTrainID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.operational || b.failed || b.inMaintenance || b.crossingActive {
		return 0
	}
	if b.occupied && b.occupyingTrain != callerTrainID {
		return 0
	}
	return 1
}

// CalculateSuggestedSpeed implements spec §4.1's falling table given the
// block's own authority and its two downstream look-ahead blocks.
func (b *Block) CalculateSuggestedSpeed(authority int, next1, next2 *Block) int {
	if authority == 0 {
		return 0
	}
	b.mu.Lock()
	selfCrossing := b.crossingActive
	grade := b.rec.GradePercent
	b.mu.Unlock()

	if selfCrossing || (next1 != nil && next1.CrossingActive()) {
		return 0
	}
	if next1 != nil && next1.Summary().HasStation {
		return 1
	}
	if grade > 5.0 || grade < -5.0 {
		return 1
	}
	if next2 != nil && next2.Summary().HasStation {
		return 2
	}
	return 3
}
