package comms

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"github.com/sony/gobreaker"

	"github.com/ctcsys/ctc-core/internal/clock"
	"github.com/ctcsys/ctc-core/internal/errs"
	"github.com/ctcsys/ctc-core/internal/models"
	"github.com/ctcsys/ctc-core/internal/telemetry/logging"
	"github.com/ctcsys/ctc-core/internal/wayside"
)

// OccupancyHandler is invoked once per changed full-line occupancy state,
// triggering the batched periodic update (spec §4.5.3). The caller (system
// facade) owns the kernel/route/train wiring needed to build a CommandArrays
// and call EmitBatch back.
type OccupancyHandler func(line models.Line, fullState []bool, changedIndices []int)

// SideChannelHandler handles switch/crossing reports, forwarded to
// coordinator state only (spec §4.5.1d).
type SideChannelHandler func(line models.Line, fullState []bool)

// Core is one communication-core instance: one inbound queue, one
// background worker, synchronous outbound fan-out, per-controller retry and
// circuit breaking.
type Core struct {
	registry *wayside.Registry
	clock    clock.Clock
	log      logging.Logger

	onOccupancy OccupancyHandler
	onSwitch    SideChannelHandler
	onCrossing  SideChannelHandler

	q       *queue
	running bool
	wg      sync.WaitGroup
	stopCh  chan struct{}

	mu           sync.Mutex
	lastOccupied map[models.Line][]bool
	lastSwitch   map[models.Line][]bool
	lastCrossing map[models.Line][]bool
	firstSeen    map[models.Line]map[Kind]bool

	breakersMu sync.Mutex
	breakers   map[string]*gobreaker.CircuitBreaker

	activeDepartures sync.Map // trainID -> cancel func
}

func New(registry *wayside.Registry, c clock.Clock, log logging.Logger, onOccupancy OccupancyHandler, onSwitch, onCrossing SideChannelHandler) *Core {
	return &Core{
		registry:     registry,
		clock:        c,
		log:          log,
		onOccupancy:  onOccupancy,
		onSwitch:     onSwitch,
		onCrossing:   onCrossing,
		q:            newQueue(),
		stopCh:       make(chan struct{}),
		lastOccupied: make(map[models.Line][]bool),
		lastSwitch:   make(map[models.Line][]bool),
		lastCrossing: make(map[models.Line][]bool),
		firstSeen:    make(map[models.Line]map[Kind]bool),
		breakers:     make(map[string]*gobreaker.CircuitBreaker),
	}
}

// Start launches the single background worker draining the inbound queue.
func (c *Core) Start() {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return
	}
	c.running = true
	c.mu.Unlock()
	c.wg.Add(1)
	go c.workerLoop()
}

// Stop sets the running flag false; the worker exits on its next queue wake.
func (c *Core) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	c.mu.Unlock()
	close(c.stopCh)
	c.q.close()
	c.wg.Wait()
}

func (c *Core) workerLoop() {
	defer c.wg.Done()
	for {
		msg, ok := c.q.pop()
		if !ok {
			return
		}
		select {
		case <-c.stopCh:
			return
		default:
		}
		c.process(msg)
	}
}

// --- Inbound -----------------------------------------------------------

// UpdateOccupiedBlocks is the inbound operation spec §4.5.1 names. It
// performs the strict protocol check synchronously and returns immediately
// after enqueue; processing happens on the worker.
func (c *Core) UpdateOccupiedBlocks(array []bool, sender wayside.Controller, line models.Line) error {
	return c.enqueue(KindOccupancy, array, sender, line)
}

func (c *Core) UpdateSwitchPositions(array []bool, sender wayside.Controller, line models.Line) error {
	return c.enqueue(KindSwitch, array, sender, line)
}

func (c *Core) UpdateRailwayCrossings(array []bool, sender wayside.Controller, line models.Line) error {
	return c.enqueue(KindCrossing, array, sender, line)
}

func (c *Core) enqueue(kind Kind, array []bool, sender wayside.Controller, line models.Line) error {
	if sender == nil {
		return errs.ProtocolViolation("inbound message missing sender")
	}
	want := c.registry.LineLength(line)
	if len(array) != want {
		return errs.ProtocolViolation("inbound array length does not match line length")
	}
	c.q.push(InboundMessage{
		ID:        uuid.New(),
		Kind:      kind,
		Payload:   array,
		Sender:    sender,
		Line:      line,
		Timestamp: c.clock.Now(),
	})
	return nil
}

func (c *Core) process(msg InboundMessage) {
	mask, ok := c.registry.MaskFor(msg.Line, msg.Sender)
	if !ok {
		if c.log != nil {
			c.log.DebugCtx(context.Background(), "inbound message from unregistered controller ignored")
		}
		return
	}

	filtered := make([]bool, len(msg.Payload))
	for i, v := range msg.Payload {
		if i < len(mask) && mask[i] {
			filtered[i] = v
		}
	}

	full, changed, first := c.reassembleAndDetect(msg.Line, msg.Kind, filtered, mask)
	hasChanges := first || len(changed) > 0

	switch msg.Kind {
	case KindOccupancy:
		if hasChanges && c.onOccupancy != nil {
			c.onOccupancy(msg.Line, full, changed)
		}
	case KindSwitch:
		if hasChanges && c.onSwitch != nil {
			c.onSwitch(msg.Line, full)
		}
	case KindCrossing:
		if hasChanges && c.onCrossing != nil {
			c.onCrossing(msg.Line, full)
		}
	}
}

// reassembleAndDetect overlays filtered values at covered indices onto the
// stored full-line snapshot for (line, kind), returning the new snapshot,
// the indices that changed, and whether this is the first delivery.
func (c *Core) reassembleAndDetect(line models.Line, kind Kind, filtered []bool, mask []bool) (full []bool, changed []int, first bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	store := c.storeFor(line, kind)
	prev := store[line]
	if prev == nil {
		prev = make([]bool, len(filtered))
		first = c.markFirst(line, kind)
	}

	next := make([]bool, len(filtered))
	copy(next, prev)
	for i, covered := range mask {
		if covered && i < len(filtered) {
			if next[i] != filtered[i] {
				changed = append(changed, i)
			}
			next[i] = filtered[i]
		}
	}
	store[line] = next
	return next, changed, first
}

func (c *Core) storeFor(line models.Line, kind Kind) map[models.Line][]bool {
	switch kind {
	case KindSwitch:
		return c.lastSwitch
	case KindCrossing:
		return c.lastCrossing
	default:
		return c.lastOccupied
	}
}

func (c *Core) markFirst(line models.Line, kind Kind) bool {
	seen, ok := c.firstSeen[line]
	if !ok {
		seen = make(map[Kind]bool)
		c.firstSeen[line] = seen
	}
	if seen[kind] {
		return false
	}
	seen[kind] = true
	return true
}

// ReassembleLineState is the helper of spec §4.5.5, usable directly by
// callers needing a kernel input not yet streamed from wayside.
func (c *Core) ReassembleLineState(line models.Line, kind Kind) []bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	store := c.storeFor(line, kind)
	v := store[line]
	out := make([]bool, len(v))
	copy(out, v)
	return out
}

// --- Outbound ------------------------------------------------------------

func (c *Core) breakerFor(id string) *gobreaker.CircuitBreaker {
	c.breakersMu.Lock()
	defer c.breakersMu.Unlock()
	if cb, ok := c.breakers[id]; ok {
		return cb
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        id,
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})
	c.breakers[id] = cb
	return cb
}

// EmitBatch fans the full command arrays out to every controller on the
// line (spec §4.5.2: every controller receives the full arrays and filters
// locally). Per-controller sends are retried with bounded backoff and
// circuit-broken; a failing controller never aborts the rest of the batch
// (Transient error policy, spec §7).
func (c *Core) EmitBatch(line models.Line, arrays CommandArrays) []error {
	var errsOut []error
	for _, ctrl := range c.registry.ControllersOnLine(line) {
		if err := c.sendCommandTrain(ctrl, arrays); err != nil {
			errsOut = append(errsOut, errs.Transient("command_train send failed for controller "+ctrl.ID(), err))
		}
	}
	return errsOut
}

func (c *Core) sendCommandTrain(ctrl wayside.Controller, arrays CommandArrays) error {
	cb := c.breakerFor(ctrl.ID())
	_, err := cb.Execute(func() (interface{}, error) {
		backoff := retry.WithMaxRetries(2, retry.NewExponential(50*time.Millisecond))
		return nil, retry.Do(context.Background(), backoff, func(ctx context.Context) error {
			if err := ctrl.CommandTrain(arrays.SuggestedSpeed, arrays.Authority, arrays.BlockNum, arrays.UpdateBlockInQueue, arrays.NextStation, arrays.BlocksAway); err != nil {
				return retry.RetryableError(err)
			}
			return nil
		})
	})
	return err
}

// EmitOccupancy forces a set_occupied call across every controller on the
// line. System.CloseBlock uses it to force an immediately closed block
// occupied; closures promoted later by the scheduler do not emit it.
func (c *Core) EmitOccupancy(line models.Line, occupations []bool) []error {
	var errsOut []error
	for _, ctrl := range c.registry.ControllersOnLine(line) {
		if err := ctrl.SetOccupied(occupations); err != nil {
			errsOut = append(errsOut, errs.Transient("set_occupied send failed for controller "+ctrl.ID(), err))
		}
	}
	return errsOut
}
