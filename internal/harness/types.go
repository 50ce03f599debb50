package harness

import (
	"fmt"
	"strings"
	"time"
)

// Event types recorded in the trace.
const (
	EventCreated  = "created"
	EventUpdated  = "updated"
	EventDeleted  = "deleted"
	EventRinging  = "ringing"
	EventResolved = "resolved"
	EventReloaded = "reloaded"
	EventError    = "error"
)

// TraceEvent is one observable thing that happened during a scenario.
type TraceEvent struct {
	Seq    int
	At     time.Time
	Type   string
	ID     string
	Reason string

	// Detail holds extra key=value pairs for the golden trace.
	Detail string
}

// Key identifies the event for trace_order assertions: "type id" or
// "type id reason".
func (e TraceEvent) Key() string {
	parts := []string{e.Type}
	if e.ID != "" {
		parts = append(parts, e.ID)
	}
	if e.Reason != "" {
		parts = append(parts, e.Reason)
	}
	return strings.Join(parts, " ")
}

// AlarmState is an alarm as shown in the final state section.
type AlarmState struct {
	ID        string
	Label     string
	Time      string
	Duration  time.Duration
	Sound     string
	Triggered bool
}

func (a AlarmState) String() string {
	return fmt.Sprintf("%s %s %s %s triggered=%t label=%q",
		a.ID, a.Time, a.Duration, a.Sound, a.Triggered, a.Label)
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	Pass bool

	// Trace contains engine and store events in order.
	Trace []TraceEvent

	// Errors contains step and assertion failure messages.
	Errors []string

	// Final is the alarm collection after the last step.
	Final []AlarmState

	// Ringing is the id ringing after the last step, or "".
	Ringing string

	start time.Time
}

// NewResult creates a new passing result.
func NewResult(start time.Time) *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		start:  start,
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// record appends an event to the trace.
func (r *Result) record(e TraceEvent) {
	e.Seq = len(r.Trace) + 1
	r.Trace = append(r.Trace, e)
}

// stamp formats t as "HH:MM:SS", with a "+Nd" suffix on later days.
func (r *Result) stamp(t time.Time) string {
	days := int(t.Sub(r.start.Truncate(24*time.Hour)) / (24 * time.Hour))
	if days == 0 {
		return t.Format(time.TimeOnly)
	}
	return fmt.Sprintf("%s+%dd", t.Format(time.TimeOnly), days)
}

// Format renders the result as the text stored in golden files.
func (r *Result) Format(name string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "scenario: %s\n", name)

	b.WriteString("trace:\n")
	for _, e := range r.Trace {
		fmt.Fprintf(&b, "  [%d] %s %s", e.Seq, r.stamp(e.At), e.Key())
		if e.Detail != "" {
			fmt.Fprintf(&b, " %s", e.Detail)
		}
		b.WriteString("\n")
	}

	b.WriteString("final:\n")
	if len(r.Final) == 0 {
		b.WriteString("  (none)\n")
	}
	for _, a := range r.Final {
		fmt.Fprintf(&b, "  %s\n", a)
	}

	ringing := r.Ringing
	if ringing == "" {
		ringing = "none"
	}
	fmt.Fprintf(&b, "ringing: %s\n", ringing)
	return b.String()
}
