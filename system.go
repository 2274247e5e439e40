// Package ctc is the public facade: a single System value owning every
// subsystem and exposing the operations an operator or HTTP surface drives
// (add a train, dispatch from yard, activate a route, tick the clock).
// Grounded on engine/engine.go's Engine struct (atomic started flag,
// Snapshot(), RegisterEventObserver/dispatchEvent fan-out), generalized
// from a scrape pipeline facade to the CTC coordinator (spec C9).
package ctc

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ctcsys/ctc-core/internal/block"
	"github.com/ctcsys/ctc-core/internal/clock"
	"github.com/ctcsys/ctc-core/internal/closure"
	"github.com/ctcsys/ctc-core/internal/comms"
	"github.com/ctcsys/ctc-core/internal/config"
	"github.com/ctcsys/ctc-core/internal/errs"
	"github.com/ctcsys/ctc-core/internal/idpool"
	"github.com/ctcsys/ctc-core/internal/kernel"
	"github.com/ctcsys/ctc-core/internal/models"
	"github.com/ctcsys/ctc-core/internal/route"
	"github.com/ctcsys/ctc-core/internal/routemgr"
	"github.com/ctcsys/ctc-core/internal/telemetry/events"
	"github.com/ctcsys/ctc-core/internal/telemetry/health"
	"github.com/ctcsys/ctc-core/internal/telemetry/logging"
	"github.com/ctcsys/ctc-core/internal/telemetry/metrics"
	"github.com/ctcsys/ctc-core/internal/train"
	"github.com/ctcsys/ctc-core/internal/wayside"
)

// System owns every subsystem instance for one running line set. There is
// exactly one coordinator per System; the coordinator is the sole mutator
// of block/train state outside the comms worker, per the concurrency model.
type System struct {
	cfg    config.Config
	layout models.TrackLayout
	clock  clock.Clock
	log    logging.Logger

	blocksMu sync.RWMutex
	blocks   map[models.Line]map[int]*block.Block

	registry *wayside.Registry
	core     *comms.Core
	routeMgr *routemgr.Manager
	closures *closure.Manager
	ids      *idpool.Pool

	trainsMu sync.Mutex
	trains   map[string]*train.Train

	bus    events.Bus
	health *health.Evaluator

	throughputMu sync.Mutex
	throughput   map[models.Line]int64

	startedAt time.Time
	started   atomic.Bool
}

// Snapshot is a unified, read-only view of system state for operators and
// the HTTP API — the single piece of "ticketing/throughput accounting"
// the spec's Non-goals allow (a per-line completion counter), grounded on
// original_source ctc_system.py's line-level bookkeeping.
type Snapshot struct {
	StartedAt        time.Time
	Uptime           time.Duration
	Trains           []train.Snapshot
	ThroughputByLine map[models.Line]int64
}

// Snapshot returns a Snapshot of current system state.
func (s *System) Snapshot() Snapshot {
	s.throughputMu.Lock()
	throughput := make(map[models.Line]int64, len(s.throughput))
	for line, n := range s.throughput {
		throughput[line] = n
	}
	s.throughputMu.Unlock()
	return Snapshot{
		StartedAt:        s.startedAt,
		Uptime:           time.Since(s.startedAt),
		Trains:           s.TrainSnapshots(),
		ThroughputByLine: throughput,
	}
}

func (s *System) recordRouteCompletion(line models.Line) {
	s.throughputMu.Lock()
	s.throughput[line]++
	s.throughputMu.Unlock()
}

// New assembles a System from a decoded track layout and configuration.
// The caller owns loading the layout (internal/trackdata) and config
// (internal/config) before wiring them together here.
func New(cfg config.Config, layout models.TrackLayout, c clock.Clock, log logging.Logger, provider metrics.Provider) *System {
	s := &System{
		cfg:    cfg,
		layout: layout,
		clock:  c,
		log:    log,
		blocks: make(map[models.Line]map[int]*block.Block),
		trains:     make(map[string]*train.Train),
		ids:        idpool.New(),
		bus:        events.NewBus(provider),
		throughput: make(map[models.Line]int64),
	}
	for line, recs := range layout.Lines {
		m := make(map[int]*block.Block, len(recs))
		for _, rec := range recs {
			m[rec.Number] = block.New(rec)
		}
		s.blocks[line] = m
	}
	s.registry = wayside.New(layout)
	s.routeMgr = routemgr.New(c, cfg.RouteManager.CacheTTL, cfg.RouteManager.CacheCapacity, s.blockOperational)
	s.closures = closure.New(blockOpsAdapter{s}, trainOpsAdapter{s})
	s.core = comms.New(s.registry, c, log, s.handleOccupancy, s.handleSwitch, s.handleCrossing)
	s.health = health.NewEvaluator(cfg.Telemetry.HealthTTL,
		health.ProbeFunc(func(ctx context.Context) health.ProbeResult {
			if s.started.Load() {
				return health.Healthy("coordinator")
			}
			return health.Unhealthy("coordinator", "not started")
		}),
	)
	return s
}

// Start launches the communication core's background worker. Idempotent.
func (s *System) Start() {
	if s.started.CompareAndSwap(false, true) {
		s.startedAt = s.clock.Now()
		s.core.Start()
	}
}

// Stop stops the communication core worker; inbound messages still queued
// at that point are not processed.
func (s *System) Stop() {
	if s.started.CompareAndSwap(true, false) {
		s.core.Stop()
	}
}

func (s *System) getBlock(line models.Line, number int) *block.Block {
	s.blocksMu.RLock()
	defer s.blocksMu.RUnlock()
	return s.blocks[line][number]
}

func (s *System) blockOperational(number int) bool {
	for _, byNum := range s.blocks {
		if b, ok := byNum[number]; ok {
			return b.Operational()
		}
	}
	return false
}

// RegisterController exposes the wayside registry's strict registration.
func (s *System) RegisterController(c wayside.Controller, mask []bool, line models.Line) error {
	return s.registry.Register(c, mask, line)
}

// --- Inbound wayside reports (spec §4.5.1) ----------------------------

// UpdateOccupiedBlocks accepts a controller's occupancy report for its
// registered line and enqueues it on the communication core's inbound
// pipeline; handleOccupancy runs once the worker dequeues it.
func (s *System) UpdateOccupiedBlocks(line models.Line, array []bool, sender wayside.Controller) error {
	return s.core.UpdateOccupiedBlocks(array, sender, line)
}

// UpdateSwitchPositions accepts a controller's switch-position report.
func (s *System) UpdateSwitchPositions(line models.Line, array []bool, sender wayside.Controller) error {
	return s.core.UpdateSwitchPositions(array, sender, line)
}

// UpdateRailwayCrossings accepts a controller's crossing-status report.
func (s *System) UpdateRailwayCrossings(line models.Line, array []bool, sender wayside.Controller) error {
	return s.core.UpdateRailwayCrossings(array, sender, line)
}

// --- Train lifecycle -------------------------------------------------

// AddTrain creates a train at a starting block, allocating an ID from the
// per-line pool when id is empty.
func (s *System) AddTrain(line models.Line, startBlock int, id string) (*train.Train, error) {
	if id == "" {
		id = s.ids.Generate(line)
	}
	t, err := train.New(id, startBlock)
	if err != nil {
		return nil, err
	}
	s.trainsMu.Lock()
	if _, exists := s.trains[id]; exists {
		s.trainsMu.Unlock()
		return nil, errs.TrainIDInvalid(fmt.Sprintf("train %s already exists", id))
	}
	s.trains[id] = t
	s.trainsMu.Unlock()
	s.publish(events.CategoryMapUpdated, "train_added", map[string]any{"train_id": id})
	return t, nil
}

func (s *System) getTrain(id string) *train.Train {
	s.trainsMu.Lock()
	defer s.trainsMu.Unlock()
	return s.trains[id]
}

// ActivateRouteFor generates (or reuses a cached) route for a train,
// reserves its blocks, and activates the train, publishing the first
// batched command so wayside controllers converge immediately rather than
// waiting for the next periodic update.
func (s *System) ActivateRouteFor(trainID string, start, end int, arrival time.Time) (*route.Route, error) {
	t := s.getTrain(trainID)
	if t == nil {
		return nil, errs.TrainIDInvalid(fmt.Sprintf("unknown train %s", trainID))
	}
	r, err := s.routeMgr.Generate(t.Line, start, end, arrival)
	if err != nil {
		return nil, err
	}
	if err := s.routeMgr.Activate(r, trainID); err != nil {
		return nil, err
	}
	t.AssignRoute(r)
	t.Activate()
	s.publish(events.CategoryTrainUpdated, "route_activated", map[string]any{"train_id": trainID, "route_id": r.ID})
	s.emitForLine(t.Line)
	return r, nil
}

// DispatchFromYard starts the yard-departure command sequencer (spec
// §4.5.4) for a train already assigned an active route.
func (s *System) DispatchFromYard(trainID string) error {
	t := s.getTrain(trainID)
	if t == nil || t.Route == nil {
		return errs.ProtocolViolation(fmt.Sprintf("train %s has no active route to dispatch", trainID))
	}
	lineLen := s.layout.LineLength(t.Line)
	compute := func(targetIndex, targetBlock int) (int, int) {
		return s.calculateFor(t, targetBlock)
	}
	active := func() bool {
		tt := s.getTrain(trainID)
		return tt != nil && tt.RoutingStatus == train.Active
	}
	s.core.DispatchFromYard(trainID, t.Line, lineLen, t.Route.Sequence, compute, active)
	return nil
}

func (s *System) calculateFor(t *train.Train, targetBlock int) (int, int) {
	blocks := lineBlocks{s: s, line: t.Line}
	others := s.otherTrainViews(t.ID, t.Line)
	return kernel.Calculate(t.ID, targetBlock, t.Route, blocks, others)
}

func (s *System) otherTrainViews(excludeID string, line models.Line) []kernel.TrainView {
	s.trainsMu.Lock()
	defer s.trainsMu.Unlock()
	var out []kernel.TrainView
	for id, t := range s.trains {
		if id == excludeID || t.Line != line {
			continue
		}
		dir := 0
		if t.Route != nil {
			if next, ok := t.NextBlock(); ok && next != t.CurrentBlock {
				if next > t.CurrentBlock {
					dir = 1
				} else {
					dir = -1
				}
			}
		}
		out = append(out, kernel.TrainView{ID: id, CurrentBlock: t.CurrentBlock, Stopped: t.CommandedSpeed == 0, Direction: dir})
	}
	return out
}

type lineBlocks struct {
	s    *System
	line models.Line
}

func (lb lineBlocks) Get(number int) *block.Block { return lb.s.getBlock(lb.line, number) }

// --- Communication core callbacks ------------------------------------

// handleOccupancy is the §4.5.1 inbound occupancy handler. An index
// transitioning to occupied advances whichever train's route expects that
// block next (spec §4.2's advance_to, driven here rather than left
// unreachable); an index transitioning to unoccupied just clears the
// block's occupant.
func (s *System) handleOccupancy(line models.Line, full []bool, changed []int) {
	now := s.clock.Now()
	for _, idx := range changed {
		occupied := full[idx]
		b := s.getBlock(line, idx)
		if b == nil {
			continue
		}
		trainAt := ""
		if occupied {
			if t := s.trainEnteringBlock(line, idx); t != nil {
				t.AdvanceTo(idx, now)
				trainAt = t.ID
			} else {
				trainAt = s.trainAtBlock(line, idx)
			}
		}
		b.UpdateOccupation(occupied, trainAt, now)
	}
	s.emitForLine(line)
	s.publish(events.CategoryMapUpdated, "occupancy_changed", map[string]any{"line": string(line), "changed": changed})
}

// trainEnteringBlock finds the active-route train whose route sequence
// expects blockNum as its very next step, i.e. the train an occupied-true
// transition at blockNum should be attributed to.
func (s *System) trainEnteringBlock(line models.Line, blockNum int) *train.Train {
	s.trainsMu.Lock()
	defer s.trainsMu.Unlock()
	for _, t := range s.trains {
		if t.Line != line || t.Route == nil || !t.Route.IsActive || blockNum == t.CurrentBlock {
			continue
		}
		seq := t.Route.Sequence
		next := t.Route.CurrentIndex + 1
		if next < len(seq) && seq[next] == blockNum {
			return t
		}
	}
	return nil
}

func (s *System) handleSwitch(line models.Line, full []bool) {
	s.publish(events.CategoryMapUpdated, "switch_changed", map[string]any{"line": string(line)})
}

func (s *System) handleCrossing(line models.Line, full []bool) {
	s.publish(events.CategoryMapUpdated, "crossing_changed", map[string]any{"line": string(line)})
}

func (s *System) trainAtBlock(line models.Line, block int) string {
	s.trainsMu.Lock()
	defer s.trainsMu.Unlock()
	for id, t := range s.trains {
		if t.Line == line && t.CurrentBlock == block {
			return id
		}
	}
	return ""
}

// emitForLine recomputes and fans out a full batched command array for
// every active train on the line (spec §4.5.3's periodic update, triggered
// here on occupancy change rather than purely on a fixed timer).
func (s *System) emitForLine(line models.Line) {
	lineLen := s.layout.LineLength(line)
	arrays := comms.NewCommandArrays(lineLen)

	s.trainsMu.Lock()
	actives := make([]*train.Train, 0)
	for _, t := range s.trains {
		if t.Line == line && t.RoutingStatus == train.Active && t.Route != nil {
			actives = append(actives, t)
		}
	}
	s.trainsMu.Unlock()

	for _, t := range actives {
		next, ok := t.NextBlock()
		if !ok {
			continue
		}
		authority, speed := s.calculateFor(t, next)
		t.SetAuthority(authority)
		t.SetCommandedSpeed(speed)
		// Critical indexing rule (spec §4.5.2): array index is the train's
		// current block; the value at that index concerns the target block.
		cur := t.CurrentBlock
		if cur >= 0 && cur < lineLen {
			arrays.BlockNum[cur] = next
			arrays.Authority[cur] = authority
			arrays.SuggestedSpeed[cur] = speed
			arrays.UpdateBlockInQueue[cur] = 1
			if hops, ok := t.Route.Distance(t.CurrentBlock, next); ok {
				arrays.BlocksAway[cur] = hops
			}
		}
	}
	s.core.EmitBatch(line, arrays)
}

// --- Closures ----------------------------------------------------------

func (s *System) CloseBlock(line models.Line, blockNum int, scheduled time.Time, duration time.Duration) (*closure.Closure, error) {
	c, err := s.closures.CloseBlock(line, blockNum, scheduled, duration)
	if err == nil {
		if scheduled.IsZero() {
			// An immediate closure is sent to the wayside as the full line's
			// occupancy with the closed block forced occupied.
			occ := s.core.ReassembleLineState(line, comms.KindOccupancy)
			if len(occ) != s.layout.LineLength(line) {
				occ = make([]bool, s.layout.LineLength(line))
			}
			if blockNum >= 0 && blockNum < len(occ) {
				occ[blockNum] = true
				s.core.EmitOccupancy(line, occ)
			}
		}
		s.publish(events.CategoryConflict, "block_closed", map[string]any{"line": string(line), "block": blockNum})
	}
	return c, err
}

func (s *System) OpenBlock(line models.Line, blockNum int) {
	s.closures.OpenBlock(line, blockNum)
	s.publish(events.CategoryMapUpdated, "block_opened", map[string]any{"line": string(line), "block": blockNum})
}

// AddFailedBlock marks a block failed: forces it non-operational,
// emergency-stops every train whose active route passes through it, and
// attempts to reroute any other train already stopped because of the
// failure around the failed block (spec §4.8's reroute_affected).
func (s *System) AddFailedBlock(line models.Line, blockNum int) {
	s.closures.AddFailedBlock(line, blockNum, s.clock.Now())
	s.publish(events.CategoryConflict, "block_failed", map[string]any{"line": string(line), "block": blockNum})
	s.rerouteAffected(line, blockNum)
}

// AddFailedTrain marks a train failed and emergency-stops it directly.
func (s *System) AddFailedTrain(trainID string) {
	s.closures.AddFailedTrain(trainID, s.clock.Now())
	s.publish(events.CategoryWarning, "train_failed", map[string]any{"train_id": trainID})
}

// FindAffectedTrains returns every train directly failed or whose active
// route passes through a currently failed block (Testable Property #9).
func (s *System) FindAffectedTrains() []string {
	return s.closures.FindAffectedTrains()
}

// rerouteAffected finds trains stopped because of blockNum's failure —
// excluding the train whose own route runs through blockNum, which is
// itself the failing subject rather than a candidate for rerouting — and
// assigns each an alternative route around it.
func (s *System) rerouteAffected(line models.Line, blockNum int) {
	s.trainsMu.Lock()
	var candidates []*train.Train
	for _, t := range s.trains {
		if t.Line != line || t.Route == nil || t.RoutingStatus != train.Stopped {
			continue
		}
		if _, onFailedBlock := t.Route.Distance(t.Route.StartBlock(), blockNum); onFailedBlock {
			continue
		}
		candidates = append(candidates, t)
	}
	s.trainsMu.Unlock()

	avoid := map[int]bool{blockNum: true}
	for _, t := range candidates {
		alts, err := s.routeMgr.FindAlternative(line, t.CurrentBlock, t.Route.EndBlock(), avoid, t.Route.ScheduledArrival)
		if err != nil || len(alts) == 0 {
			continue
		}
		alt := alts[0]
		// The alternative shares at least the end block with the current
		// route, so the current route's reservations are released first.
		old := t.Route
		s.routeMgr.Release(old)
		if err := s.routeMgr.Activate(alt, t.ID); err != nil {
			_ = s.routeMgr.Activate(old, t.ID)
			continue
		}
		t.AssignRoute(alt)
		t.Activate()
		s.publish(events.CategoryMapUpdated, "train_rerouted", map[string]any{"train_id": t.ID, "route_id": alt.ID})
	}
}

type blockOpsAdapter struct{ s *System }

func (a blockOpsAdapter) SetOperational(line models.Line, blockNum int, operational bool) bool {
	b := a.s.getBlock(line, blockNum)
	if b == nil {
		return false
	}
	b.SetOperational(operational)
	return true
}

func (a blockOpsAdapter) IsOccupied(line models.Line, blockNum int) bool {
	b := a.s.getBlock(line, blockNum)
	if b == nil {
		return false
	}
	occ, _ := b.Occupied()
	return occ
}

type trainOpsAdapter struct{ s *System }

func (a trainOpsAdapter) TrainsOnRoute(line models.Line, blockNum int) []string {
	a.s.trainsMu.Lock()
	defer a.s.trainsMu.Unlock()
	var out []string
	for id, t := range a.s.trains {
		if t.Line != line || t.Route == nil {
			continue
		}
		if _, ok := t.Route.Distance(t.Route.StartBlock(), blockNum); ok {
			out = append(out, id)
		}
	}
	return out
}

func (a trainOpsAdapter) EmergencyStop(trainID string) {
	t := a.s.getTrain(trainID)
	if t == nil {
		return
	}
	t.SetAuthority(0)
	t.SetCommandedSpeed(0)
	t.RoutingStatus = train.Stopped
	a.s.publish(events.CategoryWarning, "emergency_stop", map[string]any{"train_id": trainID})
}

// --- Tick loop (C9) ------------------------------------------------------

// Tick runs one coordinator cycle: promote/complete scheduled closures and
// run conflict detection over every line's live train set. It never halts
// the system on a detected conflict — it emergency-stops the offending
// train(s) and publishes a conflict event, per spec §7's non-aborting
// error policy.
func (s *System) Tick(now time.Time) {
	s.closures.ProcessScheduled(now)
	for line := range s.layout.Lines {
		s.detectConflicts(line)
	}
	s.completeFinishedRoutes()
}

// completeFinishedRoutes releases blocks reserved by any route whose train
// has reached its final block, records the per-line throughput counter,
// and returns the train to Unrouted for its next assignment.
func (s *System) completeFinishedRoutes() {
	s.trainsMu.Lock()
	var finished []*train.Train
	for _, t := range s.trains {
		if t.Route != nil && t.Route.IsActive && t.Route.Finished() {
			finished = append(finished, t)
		}
	}
	s.trainsMu.Unlock()

	for _, t := range finished {
		s.routeMgr.Release(t.Route)
		s.recordRouteCompletion(t.Line)
		t.RoutingStatus = train.Unrouted
		s.publish(events.CategoryMapUpdated, "route_completed", map[string]any{"train_id": t.ID, "route_id": t.Route.ID})
	}
}

// detectConflicts runs spec §4.9's five Tick-driven checks over one line's
// live train set: same-block occupation, rear-end separation, authority-0-
// but-moving, maintenance-area violation, and over-speed. None of these are
// expected to fire from a correct kernel calculation and valid topology —
// they guard invariants that out-of-band failure injection (AddFailedBlock/
// AddFailedTrain) or a stale command could otherwise violate — and per
// spec §7's non-aborting error policy they emergency-stop the offending
// train(s) rather than halt the system.
func (s *System) detectConflicts(line models.Line) {
	s.trainsMu.Lock()
	var onLine []*train.Train
	for _, t := range s.trains {
		if t.Line == line {
			onLine = append(onLine, t)
		}
	}
	s.trainsMu.Unlock()

	stopped := make(map[string]bool, len(onLine))
	stop := func(id, reason string, fields map[string]any) {
		if stopped[id] {
			return
		}
		stopped[id] = true
		s.publish(events.CategoryConflict, reason, fields)
		s.emergencyStopTrain(id)
	}

	// The yard (block 0) legitimately holds several unrouted trains at
	// once, so it's excluded from same-block and rear-end checks.
	byBlock := make(map[int][]*train.Train)
	for _, t := range onLine {
		if t.CurrentBlock == 0 {
			continue
		}
		byBlock[t.CurrentBlock] = append(byBlock[t.CurrentBlock], t)
	}
	for blockNum, ts := range byBlock {
		if len(ts) <= 1 {
			continue
		}
		ids := make([]string, len(ts))
		for i, t := range ts {
			ids[i] = t.ID
		}
		for _, t := range ts {
			stop(t.ID, "same_block_occupation", map[string]any{"line": string(line), "block": blockNum, "trains": ids})
		}
	}

	for _, t := range onLine {
		if t.Authority == 0 && t.CommandedSpeed > 0 {
			stop(t.ID, "moving_without_authority", map[string]any{"train_id": t.ID})
		}
	}

	for _, t := range onLine {
		b := s.getBlock(line, t.CurrentBlock)
		if b != nil && !b.Operational() {
			stop(t.ID, "maintenance_violation", map[string]any{"train_id": t.ID, "block": t.CurrentBlock})
		}
	}

	overspeedFactor := s.cfg.Conflict.OverspeedFactor
	for _, t := range onLine {
		b := s.getBlock(line, t.CurrentBlock)
		if b == nil {
			continue
		}
		limit := b.Summary().SpeedLimitKMH
		actual := limit * float64(t.CommandedSpeed) / 3
		if limit > 0 && actual > limit*overspeedFactor {
			stop(t.ID, "overspeed", map[string]any{"train_id": t.ID, "block": t.CurrentBlock, "speed_kmh": actual, "limit_kmh": limit})
		}
	}

	sep := s.cfg.Conflict.RearEndSeparationBlocks
	var ordered []*train.Train
	for _, t := range onLine {
		if t.CurrentBlock != 0 {
			ordered = append(ordered, t)
		}
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].CurrentBlock < ordered[j].CurrentBlock })
	for i := 0; i < len(ordered)-1; i++ {
		following, leading := ordered[i], ordered[i+1]
		dist := leading.CurrentBlock - following.CurrentBlock
		if dist <= 0 || dist > sep {
			continue
		}
		if following.CommandedSpeed > leading.CommandedSpeed {
			stop(following.ID, "rear_end_proximity", map[string]any{"following": following.ID, "leading": leading.ID, "separation_blocks": dist})
		}
	}
}

func (s *System) emergencyStopTrain(trainID string) {
	trainOpsAdapter{s}.EmergencyStop(trainID)
}

// --- Telemetry -----------------------------------------------------------

func (s *System) publish(category, typ string, fields map[string]any) {
	_ = s.bus.Publish(events.Event{Category: category, Type: typ, Fields: fields})
}

// Subscribe exposes the event bus for HTTP/streaming observers.
func (s *System) Subscribe(buffer int) (events.Subscription, error) {
	return s.bus.Subscribe(buffer)
}

// Health reports an aggregated evaluator snapshot for readiness probes.
func (s *System) Health(ctx context.Context) health.Snapshot {
	return s.health.Evaluate(ctx)
}

// TrainSnapshots returns an immutable view of every tracked train, used by
// the HTTP API and map display.
func (s *System) TrainSnapshots() []train.Snapshot {
	s.trainsMu.Lock()
	defer s.trainsMu.Unlock()
	out := make([]train.Snapshot, 0, len(s.trains))
	for _, t := range s.trains {
		out = append(out, t.ToSnapshot())
	}
	return out
}

// BlockSummary returns a block's static attributes for display.
func (s *System) BlockSummary(line models.Line, number int) (block.Summary, bool) {
	b := s.getBlock(line, number)
	if b == nil {
		return block.Summary{}, false
	}
	return b.Summary(), true
}
