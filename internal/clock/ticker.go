package clock

import (
	"context"
	"sync"
	"time"
)

// DefaultTickInterval is how often the engine compares the clock against
// the alarm collection.
const DefaultTickInterval = time.Second

// Ticker emits the current time once immediately and then every Interval.
type Ticker struct {
	Clock    Clock
	Interval time.Duration
}

// NewTicker creates a Ticker on c. A non-positive interval means
// DefaultTickInterval.
func NewTicker(c Clock, interval time.Duration) *Ticker {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &Ticker{Clock: c, Interval: interval}
}

// Run starts ticking and returns the tick channel. The channel is closed
// once ctx is done.
//
// The channel has a buffer of one; a tick that finds the buffer full is
// dropped. Matching is per minute, so a dropped tick is recovered by the
// next one.
func (t *Ticker) Run(ctx context.Context) <-chan time.Time {
	ch := make(chan time.Time, 1)

	var (
		mu     sync.Mutex
		timer  Timer
		closed bool
	)

	var tick func()
	tick = func() {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case ch <- t.Clock.Now():
		default:
		}
		timer = t.Clock.AfterFunc(t.Interval, tick)
	}
	tick()

	go func() {
		<-ctx.Done()
		mu.Lock()
		defer mu.Unlock()
		closed = true
		if timer != nil {
			timer.Stop()
		}
		close(ch)
	}()

	return ch
}
