package routemgr_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ctcsys/ctc-core/internal/clock"
	"github.com/ctcsys/ctc-core/internal/errs"
	"github.com/ctcsys/ctc-core/internal/models"
	"github.com/ctcsys/ctc-core/internal/routemgr"
)

func allOperational(int) bool { return true }

func TestGenerateAndCache(t *testing.T) {
	c := clock.NewFake(time.Now())
	m := routemgr.New(c, time.Minute, 8, allOperational)
	r1, err := m.Generate(models.LineGreen, 0, 10, c.Now().Add(time.Hour))
	require.NoError(t, err)
	r2, err := m.Generate(models.LineGreen, 0, 10, c.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Same(t, r1, r2, "second call within TTL returns cached route")
}

func TestGenerateInfeasibleWhenBlockDown(t *testing.T) {
	c := clock.NewFake(time.Now())
	blocked := func(b int) bool { return b != 5 }
	m := routemgr.New(c, time.Minute, 8, blocked)
	_, err := m.Generate(models.LineGreen, 0, 10, c.Now().Add(time.Hour))
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.CodeRouteInfeasible))
}

func TestActivateReservesBlocks(t *testing.T) {
	c := clock.NewFake(time.Now())
	m := routemgr.New(c, time.Minute, 8, allOperational)
	r, err := m.Generate(models.LineGreen, 0, 5, c.Now().Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, m.Activate(r, "G001"))
	assert.True(t, r.IsActive)
	assert.Equal(t, "G001", r.TrainID)
}

func TestReleaseFreesReservations(t *testing.T) {
	c := clock.NewFake(time.Now())
	m := routemgr.New(c, time.Minute, 8, allOperational)
	r, err := m.Generate(models.LineGreen, 0, 5, c.Now().Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, m.Activate(r, "G001"))
	m.Release(r)
	assert.False(t, r.IsActive)
}
