// Package wayside implements the Wayside Registry (spec C4): controllers
// with their block-coverage mask and line affiliation, plus the
// block→controller reverse index. Grounded on spec.md §4.4; the mask/
// coverage discipline is strict-checked at registration.
package wayside

import (
	"fmt"
	"sync"

	"github.com/ctcsys/ctc-core/internal/errs"
	"github.com/ctcsys/ctc-core/internal/models"
)

// Controller is the wayside peer contract (spec §6): three outbound
// operations a registered controller must expose.
type Controller interface {
	ID() string
	CommandTrain(speeds, authorities []int, blockNums, updateFlags, nextStations, blocksAway []int) error
	SetOccupied(occupations []bool) error
	CommandSwitch(positions []bool) error
}

type registration struct {
	controller Controller
	mask       []bool
	line       models.Line
}

// Registry owns controller handles and the per-line block→controller index.
type Registry struct {
	mu           sync.RWMutex
	layout       models.TrackLayout
	byLine       map[models.Line][]*registration
	blockToCtrl  map[models.Line]map[int]Controller
}

func New(layout models.TrackLayout) *Registry {
	return &Registry{
		layout:      layout,
		byLine:      make(map[models.Line][]*registration),
		blockToCtrl: make(map[models.Line]map[int]Controller),
	}
}

// Register validates and records a controller. Strict protocol checks per
// spec §4.4: non-empty mask, length matching the line's block count, a
// present identifier, at least one covered block, and no overlap with an
// already-registered controller's coverage. Any failure rejects the whole
// registration and returns ProtocolViolation — the registry is left
// unmodified.
func (r *Registry) Register(c Controller, mask []bool, line models.Line) error {
	if c == nil || c.ID() == "" {
		return errs.ProtocolViolation("controller missing identifier")
	}
	if len(mask) == 0 {
		return errs.ProtocolViolation("empty coverage mask")
	}
	want := r.layout.LineLength(line)
	if len(mask) != want {
		return errs.ProtocolViolation(fmt.Sprintf("mask length %d does not match line length %d", len(mask), want))
	}
	covered := 0
	for _, v := range mask {
		if v {
			covered++
		}
	}
	if covered == 0 {
		return errs.ProtocolViolation("mask covers zero blocks")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	idx, ok := r.blockToCtrl[line]
	if !ok {
		idx = make(map[int]Controller)
		r.blockToCtrl[line] = idx
	}
	for i, v := range mask {
		if v {
			if _, taken := idx[i]; taken {
				return errs.ProtocolViolation(fmt.Sprintf("block %d on %s already covered by another controller", i, line))
			}
		}
	}

	reg := &registration{controller: c, mask: mask, line: line}
	r.byLine[line] = append(r.byLine[line], reg)
	for i, v := range mask {
		if v {
			idx[i] = c
		}
	}
	return nil
}

// LineLength reports the Track Reader's block count for a line.
func (r *Registry) LineLength(line models.Line) int {
	return r.layout.LineLength(line)
}

// ControllersOnLine returns controllers in registration order.
func (r *Registry) ControllersOnLine(line models.Line) []Controller {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Controller, 0, len(r.byLine[line]))
	for _, reg := range r.byLine[line] {
		out = append(out, reg.controller)
	}
	return out
}

// ControllerForBlock returns the single controller covering a block, or nil.
func (r *Registry) ControllerForBlock(line models.Line, block int) Controller {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.blockToCtrl[line][block]
}

// MaskFor returns the registered coverage mask for a controller on a line,
// used by the communication core to filter inbound arrays.
func (r *Registry) MaskFor(line models.Line, c Controller) ([]bool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, reg := range r.byLine[line] {
		if reg.controller.ID() == c.ID() {
			return reg.mask, true
		}
	}
	return nil, false
}
