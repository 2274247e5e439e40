// Package train implements the Train aggregate (spec C3): a thin record of
// identity, current block, assigned route, and commanded/authorized state.
// Grounded on original_source train.py, including its to_dict() snapshot
// pattern (SPEC_FULL.md supplemented feature).
package train

import (
	"fmt"
	"regexp"
	"time"

	"github.com/ctcsys/ctc-core/internal/errs"
	"github.com/ctcsys/ctc-core/internal/models"
	"github.com/ctcsys/ctc-core/internal/route"
)

type RoutingStatus string

const (
	Unrouted RoutingStatus = "Unrouted"
	Routed   RoutingStatus = "Routed"
	Active   RoutingStatus = "Active"
	Stopped  RoutingStatus = "Stopped"
)

var idPattern = regexp.MustCompile(`^[BRG]\d{3}$`)

// ValidateID enforces the spec's 4-character ID format: one line letter
// followed by exactly three decimal digits.
func ValidateID(id string) error {
	if !idPattern.MatchString(id) {
		return errs.TrainIDInvalid(fmt.Sprintf("malformed train id %q", id))
	}
	return nil
}

// LineForID derives the line from a validated ID's leading letter.
func LineForID(id string) models.Line {
	switch id[0] {
	case 'R':
		return models.LineRed
	case 'G':
		return models.LineGreen
	case 'B':
		return models.LineBlue
	}
	return ""
}

// Train is a logical mover, identity plus current dynamic state.
type Train struct {
	ID             string
	Line           models.Line
	CurrentBlock   int
	Route          *route.Route
	CommandedSpeed int
	Authority      int
	RoutingStatus  RoutingStatus
}

// New constructs a Train at the given starting block, unrouted.
func New(id string, startBlock int) (*Train, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	return &Train{ID: id, Line: LineForID(id), CurrentBlock: startBlock, RoutingStatus: Unrouted}, nil
}

// AssignRoute attaches a route, records the train on it, and moves routing
// status to Routed. The route's schedule is not copied onto the Train; it is
// read through Route.
func (t *Train) AssignRoute(r *route.Route) {
	t.Route = r
	r.TrainID = t.ID
	t.RoutingStatus = Routed
}

func (t *Train) Activate() {
	if t.Route != nil {
		t.Route.IsActive = true
	}
	t.RoutingStatus = Active
}

func (t *Train) SetAuthority(a int) {
	if a < 0 {
		a = 0
	}
	if a > 1 {
		a = 1
	}
	t.Authority = a
}

func (t *Train) SetCommandedSpeed(s int) {
	if s < 0 {
		s = 0
	}
	if s > 3 {
		s = 3
	}
	t.CommandedSpeed = s
}

// AdvanceTo moves the train onto block, delegating to the route's own
// activation cursor. Returns false if the train has no assigned route or
// block is not part of its sequence.
func (t *Train) AdvanceTo(block int, now time.Time) bool {
	if t.Route == nil {
		return false
	}
	if !t.Route.AdvanceTo(block, now) {
		return false
	}
	t.CurrentBlock = block
	return true
}

// NextBlock reads the route's target four hops ahead of the train's current
// position, clamped at the route's end — the target the communication core
// computes commands for.
func (t *Train) NextBlock() (int, bool) {
	if t.Route == nil {
		return 0, false
	}
	idx := t.Route.CurrentIndex
	return t.Route.BlockAt(idx + 4), true
}

// Snapshot is an immutable read-only view for observers (event bus, HTTP
// API) — SPEC_FULL.md's supplemented feature, keeping mutable internals
// private.
type Snapshot struct {
	ID             string
	Line           models.Line
	CurrentBlock   int
	RoutingStatus  RoutingStatus
	Authority      int
	CommandedSpeed int
	RouteID        string
}

func (t *Train) ToSnapshot() Snapshot {
	s := Snapshot{
		ID: t.ID, Line: t.Line, CurrentBlock: t.CurrentBlock,
		RoutingStatus: t.RoutingStatus, Authority: t.Authority, CommandedSpeed: t.CommandedSpeed,
	}
	if t.Route != nil {
		s.RouteID = t.Route.ID
	}
	return s
}
