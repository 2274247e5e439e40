package ctc_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ctc "github.com/ctcsys/ctc-core"
	"github.com/ctcsys/ctc-core/internal/clock"
	"github.com/ctcsys/ctc-core/internal/config"
	"github.com/ctcsys/ctc-core/internal/models"
	"github.com/ctcsys/ctc-core/internal/telemetry/metrics"
	"github.com/ctcsys/ctc-core/internal/train"
)

func greenLayout(length int) models.TrackLayout {
	recs := make([]models.BlockRecord, length)
	for i := range recs {
		recs[i] = models.BlockRecord{Number: i, Line: models.LineGreen}
	}
	return models.TrackLayout{Lines: map[models.Line][]models.BlockRecord{models.LineGreen: recs}}
}

type stubController struct {
	id string
}

func (c *stubController) ID() string { return c.id }
func (c *stubController) CommandTrain(speeds, authorities []int, blockNums, updateFlags, nextStations, blocksAway []int) error {
	return nil
}
func (c *stubController) SetOccupied(occupations []bool) error { return nil }
func (c *stubController) CommandSwitch(positions []bool) error { return nil }

func newTestSystem(t *testing.T, length int) *ctc.System {
	t.Helper()
	cfg := config.Defaults()
	sys := ctc.New(cfg, greenLayout(length), clock.NewFake(time.Unix(0, 0)), nil, metrics.NewNoop())
	ctrl := &stubController{id: "ctrl-1"}
	mask := make([]bool, length)
	for i := range mask {
		mask[i] = true
	}
	require.NoError(t, sys.RegisterController(ctrl, mask, models.LineGreen))
	sys.Start()
	t.Cleanup(sys.Stop)
	return sys
}

func TestAddTrainAndActivateRoute(t *testing.T) {
	sys := newTestSystem(t, 20)
	tr, err := sys.AddTrain(models.LineGreen, 0, "")
	require.NoError(t, err)
	assert.Equal(t, "G001", tr.ID)

	r, err := sys.ActivateRouteFor(tr.ID, 0, 10, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, r.StartBlock())
	assert.Equal(t, 10, r.EndBlock())

	snaps := sys.TrainSnapshots()
	require.Len(t, snaps, 1)
	assert.Equal(t, "G001", snaps[0].ID)
}

func TestActivateRouteUnknownTrainRejected(t *testing.T) {
	sys := newTestSystem(t, 20)
	_, err := sys.ActivateRouteFor("G999", 0, 10, time.Now().Add(time.Hour))
	assert.Error(t, err)
}

func TestDispatchFromYardRequiresActiveRoute(t *testing.T) {
	sys := newTestSystem(t, 20)
	tr, err := sys.AddTrain(models.LineGreen, 0, "")
	require.NoError(t, err)
	err = sys.DispatchFromYard(tr.ID)
	assert.Error(t, err)
}

func TestCloseBlockAllowedWithoutOccupancyReport(t *testing.T) {
	sys := newTestSystem(t, 20)
	_, err := sys.AddTrain(models.LineGreen, 5, "")
	require.NoError(t, err)

	// Occupancy itself is driven by the comms pipeline, not train placement,
	// so an explicit close of an unoccupied block should succeed.
	_, err = sys.CloseBlock(models.LineGreen, 5, time.Time{}, 0)
	assert.NoError(t, err)
}

func TestTickProcessesScheduledClosuresWithoutPanicking(t *testing.T) {
	sys := newTestSystem(t, 20)
	assert.NotPanics(t, func() { sys.Tick(time.Now()) })
}

func TestRouteCompletionIncrementsThroughput(t *testing.T) {
	sys := newTestSystem(t, 20)
	tr, err := sys.AddTrain(models.LineGreen, 0, "")
	require.NoError(t, err)
	r, err := sys.ActivateRouteFor(tr.ID, 0, 5, time.Now().Add(time.Hour))
	require.NoError(t, err)

	require.True(t, r.AdvanceTo(r.EndBlock(), time.Now()))
	sys.Tick(time.Now())

	snap := sys.Snapshot()
	assert.Equal(t, int64(1), snap.ThroughputByLine[models.LineGreen])
}

func TestRegisterControllerProtocolViolationPropagates(t *testing.T) {
	sys := newTestSystem(t, 20)
	ctrl := &stubController{id: "dup"}
	err := sys.RegisterController(ctrl, []bool{true}, models.LineGreen)
	assert.Error(t, err)
}

// TestOccupancyAdvancesTrainThroughRealPipeline exercises handleOccupancy via
// the actual inbound comms path (UpdateOccupiedBlocks -> worker -> callback)
// rather than calling Route/Train.AdvanceTo directly, confirming a train not
// at block 0 actually moves and the route cursor follows.
func TestOccupancyAdvancesTrainThroughRealPipeline(t *testing.T) {
	sys := newTestSystem(t, 20)
	tr, err := sys.AddTrain(models.LineGreen, 3, "")
	require.NoError(t, err)
	r, err := sys.ActivateRouteFor(tr.ID, 3, 12, time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, 0, r.CurrentIndex)

	occ := make([]bool, 20)
	occ[4] = true
	ctrl := &stubController{id: "ctrl-1"}
	require.NoError(t, sys.UpdateOccupiedBlocks(models.LineGreen, occ, ctrl))

	assert.Eventually(t, func() bool {
		return r.CurrentIndex == 1
	}, time.Second, time.Millisecond)

	snaps := sys.TrainSnapshots()
	require.Len(t, snaps, 1)
	assert.Equal(t, 4, snaps[0].CurrentBlock)
}

// TestOccupancyDrivesRouteCompletionFromRealTraffic confirms that advancing a
// train onto its route's final block via a real occupancy report (not a
// direct AdvanceTo call) makes completeFinishedRoutes fire on the next Tick.
func TestOccupancyDrivesRouteCompletionFromRealTraffic(t *testing.T) {
	sys := newTestSystem(t, 20)
	tr, err := sys.AddTrain(models.LineGreen, 3, "")
	require.NoError(t, err)
	_, err = sys.ActivateRouteFor(tr.ID, 3, 4, time.Now().Add(time.Hour))
	require.NoError(t, err)

	occ := make([]bool, 20)
	occ[4] = true
	ctrl := &stubController{id: "ctrl-1"}
	require.NoError(t, sys.UpdateOccupiedBlocks(models.LineGreen, occ, ctrl))

	assert.Eventually(t, func() bool {
		snaps := sys.TrainSnapshots()
		return len(snaps) == 1 && snaps[0].CurrentBlock == 4
	}, time.Second, time.Millisecond)

	sys.Tick(time.Now())

	snap := sys.Snapshot()
	assert.Equal(t, int64(1), snap.ThroughputByLine[models.LineGreen])
	snaps := sys.TrainSnapshots()
	require.Len(t, snaps, 1)
	assert.Equal(t, train.Unrouted, snaps[0].RoutingStatus)
}

// TestFailedBlockStopsSubjectAndReroutesOthers exercises the S3-style
// failure cascade at the System level: the train whose own route runs
// through the failed block is emergency-stopped but left alone (it is the
// failing subject, not a candidate to reroute), while a different train
// already stopped for an unrelated reason and whose route avoids the failed
// block is given an alternative route around it.
func TestFailedBlockStopsSubjectAndReroutesOthers(t *testing.T) {
	sys := newTestSystem(t, 20)

	subject, err := sys.AddTrain(models.LineGreen, 3, "")
	require.NoError(t, err)
	_, err = sys.ActivateRouteFor(subject.ID, 3, 10, time.Now().Add(time.Hour))
	require.NoError(t, err)

	other, err := sys.AddTrain(models.LineGreen, 14, "")
	require.NoError(t, err)
	otherRoute, err := sys.ActivateRouteFor(other.ID, 14, 18, time.Now().Add(time.Hour))
	require.NoError(t, err)
	other.RoutingStatus = train.Stopped
	_ = otherRoute

	sys.AddFailedBlock(models.LineGreen, 6)

	affected := sys.FindAffectedTrains()
	assert.Contains(t, affected, subject.ID)

	snaps := sys.TrainSnapshots()
	byID := map[string]train.Snapshot{}
	for _, s := range snaps {
		byID[s.ID] = s
	}
	assert.Equal(t, train.Stopped, byID[subject.ID].RoutingStatus)
	assert.Equal(t, 0, byID[subject.ID].Authority)
}

func TestDetectConflictsStopsOverspeedingTrain(t *testing.T) {
	recs := make([]models.BlockRecord, 20)
	for i := range recs {
		recs[i] = models.BlockRecord{Number: i, Line: models.LineGreen, SpeedLimitKMH: 60}
	}
	layout := models.TrackLayout{Lines: map[models.Line][]models.BlockRecord{models.LineGreen: recs}}

	cfg := config.Defaults()
	sys := ctc.New(cfg, layout, clock.NewFake(time.Unix(0, 0)), nil, metrics.NewNoop())
	ctrl := &stubController{id: "ctrl-1"}
	mask := make([]bool, 20)
	for i := range mask {
		mask[i] = true
	}
	require.NoError(t, sys.RegisterController(ctrl, mask, models.LineGreen))
	sys.Start()
	t.Cleanup(sys.Stop)

	tr, err := sys.AddTrain(models.LineGreen, 5, "")
	require.NoError(t, err)
	_, err = sys.ActivateRouteFor(tr.ID, 5, 10, time.Now().Add(time.Hour))
	require.NoError(t, err)
	tr.SetAuthority(1)
	tr.SetCommandedSpeed(3)
	tr.CommandedSpeed = 4 // simulate a stale over-limit command the kernel never would have issued

	sys.Tick(time.Now())

	snaps := sys.TrainSnapshots()
	require.Len(t, snaps, 1)
	assert.Equal(t, train.Stopped, snaps[0].RoutingStatus)
}

func TestDetectConflictsStopsMaintenanceViolation(t *testing.T) {
	sys := newTestSystem(t, 20)
	tr, err := sys.AddTrain(models.LineGreen, 5, "")
	require.NoError(t, err)
	_, err = sys.ActivateRouteFor(tr.ID, 5, 10, time.Now().Add(time.Hour))
	require.NoError(t, err)

	_, err = sys.CloseBlock(models.LineGreen, 5, time.Time{}, 0)
	require.NoError(t, err)

	sys.Tick(time.Now())

	snaps := sys.TrainSnapshots()
	require.Len(t, snaps, 1)
	assert.Equal(t, train.Stopped, snaps[0].RoutingStatus)
}

func TestDetectConflictsStopsRearEndProximity(t *testing.T) {
	sys := newTestSystem(t, 20)
	leading, err := sys.AddTrain(models.LineGreen, 8, "")
	require.NoError(t, err)
	_, err = sys.ActivateRouteFor(leading.ID, 8, 15, time.Now().Add(time.Hour))
	require.NoError(t, err)

	// The following train's route stops short of the blocks reserved by the
	// leading train's route.
	following, err := sys.AddTrain(models.LineGreen, 6, "")
	require.NoError(t, err)
	_, err = sys.ActivateRouteFor(following.ID, 6, 7, time.Now().Add(time.Hour))
	require.NoError(t, err)
	// Activating a route recomputes commands for every active train on the
	// line, so the leading train is stopped only after both activations.
	leading.SetCommandedSpeed(0)
	following.SetAuthority(1)
	following.SetCommandedSpeed(3)

	sys.Tick(time.Now())

	snaps := sys.TrainSnapshots()
	byID := map[string]train.Snapshot{}
	for _, s := range snaps {
		byID[s.ID] = s
	}
	assert.Equal(t, train.Stopped, byID[following.ID].RoutingStatus)
}
