// Package comms implements the Communication Core (spec C5): the inbound
// pipeline (filter/reassemble/change-detect), outbound fan-out, batched
// periodic updates, and the yard departure sequencer. Grounded on
// engine/internal/pipeline/pipeline.go's worker/queue/retry architecture
// and original_source communication_handler.py's filter/reassembly
// semantics.
package comms

import (
	"time"

	"github.com/google/uuid"

	"github.com/ctcsys/ctc-core/internal/models"
	"github.com/ctcsys/ctc-core/internal/wayside"
)

// Kind is the tagged sum type over the three inbound message shapes the
// design notes require in place of a string-keyed dict.
type Kind int

const (
	KindOccupancy Kind = iota
	KindSwitch
	KindCrossing
)

func (k Kind) String() string {
	switch k {
	case KindOccupancy:
		return "occupancy"
	case KindSwitch:
		return "switch"
	case KindCrossing:
		return "crossing"
	default:
		return "unknown"
	}
}

// InboundMessage is one enqueued wayside report. ID is a per-message
// identifier assigned at enqueue; it is not passed to the occupancy,
// switch or crossing handlers, nor written to logs or events.
type InboundMessage struct {
	ID        uuid.UUID
	Kind      Kind
	Payload   []bool
	Sender    wayside.Controller
	Line      models.Line
	Timestamp time.Time
}

// CommandArrays is the six-array outbound payload of spec §4.5.2, always
// carrying the full line state.
type CommandArrays struct {
	SuggestedSpeed     []int
	Authority          []int
	BlockNum           []int
	UpdateBlockInQueue []int
	NextStation        []int
	BlocksAway         []int
}

func NewCommandArrays(lineLength int) CommandArrays {
	return CommandArrays{
		SuggestedSpeed:     make([]int, lineLength),
		Authority:          make([]int, lineLength),
		BlockNum:           make([]int, lineLength),
		UpdateBlockInQueue: make([]int, lineLength),
		NextStation:        make([]int, lineLength),
		BlocksAway:         make([]int, lineLength),
	}
}
