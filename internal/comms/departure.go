package comms

import (
	"time"

	"github.com/ctcsys/ctc-core/internal/models"
)

// DispatchFromYard implements spec §4.5.4: four commands at 2-second
// intervals of simulated time, one per each of the first four route blocks
// (skipping yard), each placed at array index 0. It polls the simulated
// clock rather than blocking on it, checking cancellation every poll so no
// suspension point exceeds spec §5's 100ms real-time bound.
//
// routeBlocks holds the train's route sequence; routeBlocks[1..4] are the
// targets for the four commands. compute supplies the kernel's
// (authority, speed) for the i-th target, recomputed at send time so a
// newly-unsafe condition still sends, with reduced values.
func (c *Core) DispatchFromYard(trainID string, line models.Line, lineLength int, routeBlocks []int, compute func(targetIndex int, targetBlock int) (authority, speed int), isActive func() bool) {
	cancel := make(chan struct{})
	c.activeDepartures.Store(trainID, cancel)
	start := c.clock.Now()

	go func() {
		defer c.activeDepartures.Delete(trainID)
		for i := 1; i <= 4 && i < len(routeBlocks); i++ {
			deadline := start.Add(time.Duration(2*i) * time.Second)
			for c.clock.Now().Before(deadline) {
				select {
				case <-cancel:
					return
				default:
				}
				if !isActive() {
					return
				}
				c.clock.Sleep(10 * time.Millisecond)
			}
			if !isActive() {
				return
			}
			select {
			case <-cancel:
				return
			default:
			}

			target := routeBlocks[i]
			authority, speed := compute(i, target)

			arrays := NewCommandArrays(lineLength)
			arrays.BlockNum[0] = target
			arrays.BlocksAway[0] = i
			arrays.Authority[0] = authority
			arrays.SuggestedSpeed[0] = speed
			c.EmitBatch(line, arrays)
		}
	}()
}

// CancelDeparture stops an in-flight departure sequence for a train, called
// when the train is removed from the active set.
func (c *Core) CancelDeparture(trainID string) {
	if v, ok := c.activeDepartures.Load(trainID); ok {
		close(v.(chan struct{}))
		c.activeDepartures.Delete(trainID)
	}
}
