package engine

import (
	"math/rand/v2"
	"time"
)

// backoffDelay returns the wait before re-dispatching a save whose
// attempt-th try just failed. Delays grow exponentially from base and
// cap at max, with up to 25% random jitter so several builder tabs
// hitting the same rate limit don't retry in lockstep.
func backoffDelay(base, max time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= max {
			d = max
			break
		}
	}
	if d > max {
		d = max
	}
	return d + rand.N(d/4+1)
}
