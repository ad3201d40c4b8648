// internal/game/timers.go
package game

import (
	"sync"
	"time"
)

// matchTimer drives the global match clock for one room: one tick per
// second, counting down from the fixed match duration. At most one instance
// may run per room; starting a replacement must stop the old one first.
type matchTimer struct {
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// startMatchTimer launches the tick loop. onTick receives the remaining
// seconds after each decrement; when the clock reaches zero, onExpire fires
// exactly once and the loop exits. Stop cancels the loop without firing
// onExpire.
func startMatchTimer(seconds int, interval time.Duration, onTick func(remaining int), onExpire func()) *matchTimer {
	mt := &matchTimer{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}

	go func() {
		defer close(mt.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		remaining := seconds
		for {
			select {
			case <-mt.stop:
				return
			case <-ticker.C:
				remaining--
				if remaining < 0 {
					return
				}
				onTick(remaining)
				if remaining == 0 {
					onExpire()
					return
				}
			}
		}
	}()

	return mt
}

// Stop cancels the timer. Safe to call more than once and after expiry.
func (mt *matchTimer) Stop() {
	mt.stopOnce.Do(func() { close(mt.stop) })
}
