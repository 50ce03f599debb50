package clock

import (
	"sync"
	"time"
)

// Manual is a Clock that only moves when told to.
//
// Timers fire synchronously inside Set/Advance, in deadline order (ties in
// scheduling order), with Now reporting each timer's deadline while it runs.
// Callbacks may schedule or stop timers; callbacks run without the clock's
// lock held.
//
// Thread-safety: all methods are safe for concurrent use.
type Manual struct {
	mu     sync.Mutex
	now    time.Time
	seq    int64
	timers map[*manualTimer]struct{}
}

var _ Clock = (*Manual)(nil)

// NewManual creates a Manual clock reading start.
func NewManual(start time.Time) *Manual {
	return &Manual{
		now:    start,
		timers: make(map[*manualTimer]struct{}),
	}
}

// Now returns the clock's current time.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// AfterFunc schedules f at Now()+d. A non-positive d fires on the next
// Set/Advance.
func (m *Manual) AfterFunc(d time.Duration, f func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	t := &manualTimer{clock: m, at: m.now.Add(d), seq: m.seq, f: f}
	m.timers[t] = struct{}{}
	return t
}

// Advance moves the clock forward by d, firing due timers.
func (m *Manual) Advance(d time.Duration) {
	m.Set(m.Now().Add(d))
}

// Set moves the clock to t, firing every timer due at or before t.
// Moving backwards fires nothing.
func (m *Manual) Set(t time.Time) {
	for {
		m.mu.Lock()
		next := m.nextDue(t)
		if next == nil {
			if t.After(m.now) {
				m.now = t
			}
			m.mu.Unlock()
			return
		}
		delete(m.timers, next)
		if next.at.After(m.now) {
			m.now = next.at
		}
		m.mu.Unlock()

		next.f()
	}
}

// Pending returns the number of scheduled timers that have not fired or
// been stopped.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}

// nextDue returns the earliest timer due at or before t. Caller must hold mu.
func (m *Manual) nextDue(t time.Time) *manualTimer {
	var best *manualTimer
	for tm := range m.timers {
		if tm.at.After(t) {
			continue
		}
		if best == nil || tm.at.Before(best.at) || (tm.at.Equal(best.at) && tm.seq < best.seq) {
			best = tm
		}
	}
	return best
}

type manualTimer struct {
	clock *Manual
	at    time.Time
	seq   int64
	f     func()
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()

	if _, ok := t.clock.timers[t]; !ok {
		return false
	}
	delete(t.clock.timers, t)
	return true
}
