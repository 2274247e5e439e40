// Package closure implements the Failure/Closure Manager (spec C8):
// scheduled closures/openings, failed-block/failed-train tracking,
// affected-train discovery, and coordinated emergency stop. Grounded on
// original_source failure_manager.py.
package closure

import (
	"fmt"
	"sync"
	"time"

	"github.com/ctcsys/ctc-core/internal/errs"
	"github.com/ctcsys/ctc-core/internal/models"
)

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

type Closure struct {
	ID        string
	Line      models.Line
	Block     int
	StartTime time.Time
	EndTime   time.Time
	Status    Status
}

// BlockOps is the narrow view of block state the manager mutates and
// queries, supplied by the owner (system facade) to avoid an import cycle
// with the block package's coordinator-only mutation discipline.
type BlockOps interface {
	SetOperational(line models.Line, block int, operational bool) bool
	IsOccupied(line models.Line, block int) bool
}

// TrainOps lets the manager discover and stop trains without owning train
// storage.
type TrainOps interface {
	TrainsOnRoute(line models.Line, block int) []string
	EmergencyStop(trainID string)
}

// EmergencyEntry is a bounded history record (SPEC_FULL.md supplemented
// feature), observability-only per spec §7.
type EmergencyEntry struct {
	At      time.Time
	TrainID string
	Reason  string
}

const maxEmergencyHistory = 200

// failedBlockKey identifies a failed block by line and number so
// FindAffectedTrains can re-query TrainsOnRoute per failed block without
// parsing a composite string key.
type failedBlockKey struct {
	Line  models.Line
	Block int
}

type Manager struct {
	mu sync.Mutex

	closures     map[string]*Closure
	epoch        int64
	failedBlocks map[failedBlockKey]bool
	failedTrains map[string]bool
	history      []EmergencyEntry

	blocks BlockOps
	trains TrainOps
}

func New(blocks BlockOps, trains TrainOps) *Manager {
	return &Manager{
		closures:     make(map[string]*Closure),
		failedBlocks: make(map[failedBlockKey]bool),
		failedTrains: make(map[string]bool),
		blocks:       blocks,
		trains:       trains,
	}
}

// CloseBlock immediately marks a block non-operational, or — if
// scheduledTime is non-zero — enqueues a scheduled Closure (paired with an
// Opening at end) for ProcessScheduled to promote later.
func (m *Manager) CloseBlock(line models.Line, block int, scheduledTime time.Time, duration time.Duration) (*Closure, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if scheduledTime.IsZero() {
		if m.blocks.IsOccupied(line, block) {
			return nil, errs.BlockClosureConflict(fmt.Sprintf("block %d on %s is occupied", block, line))
		}
		m.blocks.SetOperational(line, block, false)
		m.epoch++
		c := &Closure{ID: fmt.Sprintf("closure%d", m.epoch), Line: line, Block: block, StartTime: time.Time{}, Status: StatusActive}
		m.closures[c.ID] = c
		return c, nil
	}

	m.epoch++
	c := &Closure{ID: fmt.Sprintf("closure%d", m.epoch), Line: line, Block: block, StartTime: scheduledTime, EndTime: scheduledTime.Add(duration), Status: StatusScheduled}
	m.closures[c.ID] = c
	return c, nil
}

// OpenBlock reverses a closure's effect on a block.
func (m *Manager) OpenBlock(line models.Line, block int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blocks.SetOperational(line, block, true)
}

// ProcessScheduled runs each tick: promotes scheduled closures whose start
// has passed to active, and promotes active closures whose end has passed
// to completed (reopening the block).
func (m *Manager) ProcessScheduled(now time.Time) {
	m.mu.Lock()
	var toActivate, toComplete []*Closure
	for _, c := range m.closures {
		switch c.Status {
		case StatusScheduled:
			if !c.StartTime.After(now) {
				toActivate = append(toActivate, c)
			}
		case StatusActive:
			if !c.EndTime.IsZero() && !c.EndTime.After(now) {
				toComplete = append(toComplete, c)
			}
		}
	}
	m.mu.Unlock()

	for _, c := range toActivate {
		m.blocks.SetOperational(c.Line, c.Block, false)
		m.mu.Lock()
		c.Status = StatusActive
		m.mu.Unlock()
	}
	for _, c := range toComplete {
		m.blocks.SetOperational(c.Line, c.Block, true)
		m.mu.Lock()
		c.Status = StatusCompleted
		m.mu.Unlock()
	}
}

// AddFailedBlock records a block failure, forces it non-operational, and
// emergency-stops every affected train.
func (m *Manager) AddFailedBlock(line models.Line, block int, now time.Time) {
	m.mu.Lock()
	m.failedBlocks[failedBlockKey{Line: line, Block: block}] = true
	m.mu.Unlock()
	m.blocks.SetOperational(line, block, false)

	for _, trainID := range m.trains.TrainsOnRoute(line, block) {
		m.trains.EmergencyStop(trainID)
		m.recordEmergency(now, trainID, fmt.Sprintf("block %d failed", block))
	}
}

// AddFailedTrain records a train failure and emergency-stops it directly.
func (m *Manager) AddFailedTrain(trainID string, now time.Time) {
	m.mu.Lock()
	m.failedTrains[trainID] = true
	m.mu.Unlock()
	m.trains.EmergencyStop(trainID)
	m.recordEmergency(now, trainID, "train failure")
}

func (m *Manager) recordEmergency(now time.Time, trainID, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = append(m.history, EmergencyEntry{At: now, TrainID: trainID, Reason: reason})
	if len(m.history) > maxEmergencyHistory {
		m.history = m.history[len(m.history)-maxEmergencyHistory:]
	}
}

// FindAffectedTrains returns the union of directly-failed trains and trains
// whose active route passes through any currently failed block (spec
// §4.8/§4.9's add_failed_block cascade, Testable Property #9).
func (m *Manager) FindAffectedTrains() []string {
	m.mu.Lock()
	keys := make([]failedBlockKey, 0, len(m.failedBlocks))
	for k := range m.failedBlocks {
		keys = append(keys, k)
	}
	seen := make(map[string]bool, len(m.failedTrains))
	out := make([]string, 0, len(m.failedTrains))
	for id := range m.failedTrains {
		seen[id] = true
		out = append(out, id)
	}
	m.mu.Unlock()

	for _, k := range keys {
		for _, id := range m.trains.TrainsOnRoute(k.Line, k.Block) {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}

// History returns a copy of the bounded emergency/conflict log.
func (m *Manager) History() []EmergencyEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]EmergencyEntry, len(m.history))
	copy(out, m.history)
	return out
}
