package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/roach88/reveille/internal/engine"
)

// terminalDisplay prints ringing and resolution notices. In JSON mode it
// writes one DisplayEvent per line.
type terminalDisplay struct {
	mu   sync.Mutex
	w    io.Writer
	json bool
}

var _ engine.Display = (*terminalDisplay)(nil)

func newTerminalDisplay(w io.Writer, jsonLines bool) *terminalDisplay {
	return &terminalDisplay{w: w, json: jsonLines}
}

// DisplayEvent is the JSON form of a display notice.
type DisplayEvent struct {
	Event       string    `json:"event"` // "ringing" or "resolved"
	ID          string    `json:"id"`
	Label       string    `json:"label"`
	Time        string    `json:"time"`
	Sound       string    `json:"sound"`
	Deadline    time.Time `json:"deadline"`
	Reason      string    `json:"reason,omitempty"`
	Rescheduled string    `json:"rescheduled,omitempty"`
}

func (d *terminalDisplay) Ringing(v engine.View) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.json {
		d.encode(viewEvent("ringing", v))
		return
	}
	fmt.Fprintf(d.w, "\a>>> %s  %s  (%s, stops %s)  [d]ismiss [s]nooze\n",
		v.Time, v.Label, v.Sound, v.Deadline.Format(time.TimeOnly))
}

func (d *terminalDisplay) Resolved(r engine.Resolution) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.json {
		e := viewEvent("resolved", r.View)
		e.Reason = string(r.Reason)
		if r.Rescheduled != nil {
			e.Rescheduled = r.Rescheduled.String()
		}
		d.encode(e)
		return
	}

	var what string
	switch r.Reason {
	case engine.ReasonDismiss:
		what = "dismissed"
	case engine.ReasonAutoStop:
		what = "stopped ringing"
	case engine.ReasonSnooze:
		what = "snoozed"
		if r.Rescheduled != nil {
			what = "snoozed until " + r.Rescheduled.String()
		}
	default:
		what = "stopped (" + string(r.Reason) + ")"
	}
	fmt.Fprintf(d.w, "<<< %s  %s  %s\n", r.View.Time, r.View.Label, what)
}

func (d *terminalDisplay) encode(e DisplayEvent) {
	_ = json.NewEncoder(d.w).Encode(e)
}

func viewEvent(event string, v engine.View) DisplayEvent {
	return DisplayEvent{
		Event:    event,
		ID:       string(v.ID),
		Label:    v.Label,
		Time:     v.Time.String(),
		Sound:    string(v.Sound),
		Deadline: v.Deadline,
	}
}
