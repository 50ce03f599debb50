package engine

import (
	"time"

	"github.com/roach88/reveille/internal/alarm"
	"github.com/roach88/reveille/internal/clock"
	"github.com/roach88/reveille/internal/sound"
)

// Session is one ringing cycle of one alarm, from trigger to resolution.
type Session struct {
	// Alarm is a copy taken when ringing started, independent of the store.
	Alarm     alarm.Alarm
	StartedAt time.Time
	Deadline  time.Time

	source sound.Source
	timer  clock.Timer
	gen    uint64
}

// View returns what the display collaborator shows for s.
func (s *Session) View() View {
	return View{
		ID:       s.Alarm.ID,
		Label:    s.Alarm.Label,
		Time:     s.Alarm.Time,
		Sound:    s.source.Kind(),
		Deadline: s.Deadline,
	}
}

// Reason is how a session ended.
type Reason string

const (
	ReasonAutoStop Reason = "auto_stop"
	ReasonDismiss  Reason = "dismiss"
	ReasonSnooze   Reason = "snooze"
	ReasonShutdown Reason = "shutdown"
)

// View is the ringing alarm as shown to the user.
type View struct {
	ID       alarm.ID
	Label    string
	Time     alarm.TimeOfDay
	Sound    sound.Kind
	Deadline time.Time
}

// Resolution reports the end of a session.
type Resolution struct {
	View   View
	Reason Reason
	At     time.Time

	// Rescheduled is the alarm's new time after a snooze; nil otherwise or
	// when the alarm no longer exists.
	Rescheduled *alarm.TimeOfDay
}

// Display is the display collaborator. Calls are made without the engine
// mutex held, in the order the transitions happened.
type Display interface {
	Ringing(View)
	Resolved(Resolution)
}

type nopDisplay struct{}

func (nopDisplay) Ringing(View)        {}
func (nopDisplay) Resolved(Resolution) {}

// notice is a pending display call collected under the mutex.
type notice struct {
	ringing  *View
	resolved *Resolution
}
