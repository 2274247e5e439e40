package route_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ctcsys/ctc-core/internal/models"
	"github.com/ctcsys/ctc-core/internal/route"
)

func TestRouteDistanceVsArithmetic(t *testing.T) {
	// route containing blocks [10, 20, 11, 30]; distance(10,30) == 3, not 20.
	r := &route.Route{Sequence: []int{10, 20, 11, 30}}
	d, ok := r.Distance(10, 30)
	require.True(t, ok)
	assert.Equal(t, 3, d)
}

func TestCreateMonotonicSequence(t *testing.T) {
	now := time.Now()
	r, err := route.New("r1", models.LineGreen, 0, 4, now.Add(time.Hour), 1, now)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, r.Sequence)
	assert.Equal(t, 0, r.StartBlock())
	assert.Equal(t, 4, r.EndBlock())
}

func TestAdvanceToAndFinished(t *testing.T) {
	now := time.Now()
	r, err := route.New("r1", models.LineGreen, 0, 4, now.Add(time.Hour), 1, now)
	require.NoError(t, err)

	ok := r.AdvanceTo(2, now.Add(time.Minute))
	require.True(t, ok)
	assert.Equal(t, 2, r.CurrentIndex)
	assert.False(t, r.Finished())

	ok = r.AdvanceTo(4, now.Add(2*time.Minute))
	require.True(t, ok)
	assert.True(t, r.Finished())
}

func TestBlockAtClamps(t *testing.T) {
	r := &route.Route{Sequence: []int{1, 2, 3}}
	assert.Equal(t, 3, r.BlockAt(10))
	assert.Equal(t, 1, r.BlockAt(-1))
}

func TestLookaheadPadsWithZeros(t *testing.T) {
	r := &route.Route{Sequence: []int{1, 2, 3}, CurrentIndex: 2}
	auths, speeds := r.Lookahead(3, func(block int) (int, int) { return 1, 3 })
	assert.Equal(t, []int{1, 0, 0, 0}, auths)
	assert.Equal(t, []int{3, 0, 0, 0}, speeds)
}

func TestCommandIndexing_Property4(t *testing.T) {
	// train at block 63 (index 1) on route [0,63,64,65,66,67]: the target four hops ahead is 67, at route distance 4
	r := &route.Route{Sequence: []int{0, 63, 64, 65, 66, 67}, CurrentIndex: 1}
	target := r.BlockAt(r.CurrentIndex + 4)
	assert.Equal(t, 67, target)
	hops, ok := r.Distance(63, target)
	require.True(t, ok)
	assert.Equal(t, 4, hops)
}
