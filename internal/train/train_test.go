package train_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ctcsys/ctc-core/internal/errs"
	"github.com/ctcsys/ctc-core/internal/models"
	"github.com/ctcsys/ctc-core/internal/train"
)

func TestValidateID(t *testing.T) {
	require.NoError(t, train.ValidateID("R001"))
	for _, bad := range []string{"X001", "R1", "R0001", ""} {
		err := train.ValidateID(bad)
		require.Error(t, err, bad)
		assert.True(t, errs.Is(err, errs.CodeTrainIDInvalid))
	}
}

func TestLineForID(t *testing.T) {
	assert.Equal(t, models.LineRed, train.LineForID("R001"))
	assert.Equal(t, models.LineGreen, train.LineForID("G001"))
	assert.Equal(t, models.LineBlue, train.LineForID("B001"))
}

func TestSetAuthorityAndSpeedBounds(t *testing.T) {
	tr, err := train.New("R001", 0)
	require.NoError(t, err)
	tr.SetAuthority(5)
	assert.Equal(t, 1, tr.Authority)
	tr.SetCommandedSpeed(9)
	assert.Equal(t, 3, tr.CommandedSpeed)
	tr.SetCommandedSpeed(-1)
	assert.Equal(t, 0, tr.CommandedSpeed)
}

func TestSnapshotIsImmutableView(t *testing.T) {
	tr, err := train.New("G001", 0)
	require.NoError(t, err)
	snap := tr.ToSnapshot()
	assert.Equal(t, "G001", snap.ID)
	assert.Equal(t, models.LineGreen, snap.Line)
	assert.Equal(t, train.Unrouted, snap.RoutingStatus)
}
