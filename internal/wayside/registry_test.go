package wayside_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ctcsys/ctc-core/internal/errs"
	"github.com/ctcsys/ctc-core/internal/models"
	"github.com/ctcsys/ctc-core/internal/wayside"
)

type fakeController struct {
	id string
}

func (f *fakeController) ID() string { return f.id }
func (f *fakeController) CommandTrain(speeds, authorities []int, blockNums, updateFlags, nextStations, blocksAway []int) error {
	return nil
}
func (f *fakeController) SetOccupied(occupations []bool) error { return nil }
func (f *fakeController) CommandSwitch(positions []bool) error { return nil }

func redLayout(length int) models.TrackLayout {
	recs := make([]models.BlockRecord, length)
	for i := range recs {
		recs[i] = models.BlockRecord{Number: i, Line: models.LineRed}
	}
	return models.TrackLayout{Lines: map[models.Line][]models.BlockRecord{models.LineRed: recs}}
}

func TestRegister_Invariant(t *testing.T) {
	reg := wayside.New(redLayout(77))
	c := &fakeController{id: "c1"}
	mask := make([]bool, 77)
	for i := 0; i <= 25; i++ {
		mask[i] = true
	}
	require.NoError(t, reg.Register(c, mask, models.LineRed))

	for i := 0; i <= 25; i++ {
		assert.Equal(t, c, reg.ControllerForBlock(models.LineRed, i))
	}
	assert.Nil(t, reg.ControllerForBlock(models.LineRed, 26))
}

func TestRegister_MismatchedLengthRejected(t *testing.T) {
	reg := wayside.New(redLayout(77))
	c := &fakeController{id: "bad"}
	mask := make([]bool, 100)
	mask[0] = true
	err := reg.Register(c, mask, models.LineRed)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.CodeProtocolViolation))
	assert.Nil(t, reg.ControllerForBlock(models.LineRed, 0))
}

func TestRegister_OverlapRejected(t *testing.T) {
	reg := wayside.New(redLayout(77))
	a := &fakeController{id: "a"}
	b := &fakeController{id: "b"}
	maskA := make([]bool, 77)
	maskA[5] = true
	require.NoError(t, reg.Register(a, maskA, models.LineRed))

	maskB := make([]bool, 77)
	maskB[5] = true
	err := reg.Register(b, maskB, models.LineRed)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.CodeProtocolViolation))
}

func TestRegistrationRejection_S6(t *testing.T) {
	reg := wayside.New(redLayout(77))
	c := &fakeController{id: "c"}
	mask := make([]bool, 100)
	for i := range mask {
		mask[i] = true
	}
	err := reg.Register(c, mask, models.LineRed)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.CodeProtocolViolation))
	for i := 0; i < 100; i++ {
		if i < 77 {
			assert.Nil(t, reg.ControllerForBlock(models.LineRed, i))
		}
	}
}

func TestThreeControllersPartitionLine_S5(t *testing.T) {
	reg := wayside.New(redLayout(77))
	c1, c2, c3 := &fakeController{id: "c1"}, &fakeController{id: "c2"}, &fakeController{id: "c3"}
	m1, m2, m3 := make([]bool, 77), make([]bool, 77), make([]bool, 77)
	for i := 0; i <= 25; i++ {
		m1[i] = true
	}
	for i := 26; i <= 50; i++ {
		m2[i] = true
	}
	for i := 51; i <= 76; i++ {
		m3[i] = true
	}
	require.NoError(t, reg.Register(c1, m1, models.LineRed))
	require.NoError(t, reg.Register(c2, m2, models.LineRed))
	require.NoError(t, reg.Register(c3, m3, models.LineRed))

	assert.Len(t, reg.ControllersOnLine(models.LineRed), 3)
	assert.Equal(t, c1, reg.ControllerForBlock(models.LineRed, 0))
	assert.Equal(t, c2, reg.ControllerForBlock(models.LineRed, 30))
	assert.Equal(t, c3, reg.ControllerForBlock(models.LineRed, 76))
}
