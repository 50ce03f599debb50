package harness

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/reveille/internal/alarm"
)

// Scenario is a scripted run of the alarm engine against a manual clock.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Start is the initial wall-clock time as "HH:MM:SS" on the first day.
	// Defaults to "00:00:00".
	Start string `yaml:"start,omitempty"`

	// Snooze overrides the engine's snooze interval.
	Snooze time.Duration `yaml:"snooze,omitempty"`

	// Alarms are created, in order, before the first step.
	Alarms []CreateStep `yaml:"alarms,omitempty"`

	// Steps drive the clock and the engine.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final trace and state.
	// Supported types: trace_contains, trace_order, trace_count, final_state, session
	Assertions []Assertion `yaml:"assertions"`
}

// CreateStep adds an alarm.
type CreateStep struct {
	Label    string        `yaml:"label,omitempty"`
	Time     string        `yaml:"time"`
	Duration time.Duration `yaml:"duration,omitempty"`

	// Clip gives the alarm a recorded sound clip.
	Clip bool `yaml:"clip,omitempty"`
}

// UpdateStep edits an alarm. Absent fields are left unchanged.
type UpdateStep struct {
	ID       string         `yaml:"id"`
	Label    *string        `yaml:"label,omitempty"`
	Time     string         `yaml:"time,omitempty"`
	Duration *time.Duration `yaml:"duration,omitempty"`
}

// Step is one scripted action. Exactly one action field must be set.
type Step struct {
	// Tick moves the clock forward to the next "HH:MM:SS" and ticks once.
	// Deadlines that fall due on the way fire first.
	Tick string `yaml:"tick,omitempty"`

	// TickUntil ticks every Every (default 1s) up to and including the next
	// "HH:MM:SS".
	TickUntil string        `yaml:"tick_until,omitempty"`
	Every     time.Duration `yaml:"every,omitempty"`

	// Advance moves the clock forward without ticking.
	Advance time.Duration `yaml:"advance,omitempty"`

	Create  *CreateStep `yaml:"create,omitempty"`
	Update  *UpdateStep `yaml:"update,omitempty"`
	Delete  string      `yaml:"delete,omitempty"`
	Dismiss bool        `yaml:"dismiss,omitempty"`
	Snooze  bool        `yaml:"snooze,omitempty"`

	// Reload shuts the engine down and restarts it from the database.
	Reload bool `yaml:"reload,omitempty"`

	// FailSaves makes the database reject (true) or accept (false) saves.
	FailSaves *bool `yaml:"fail_saves,omitempty"`

	// ExpectError is the error code this step must fail with. Without it,
	// any step error fails the scenario.
	ExpectError alarm.ErrorCode `yaml:"expect_error,omitempty"`
}

// action names the action field set on s, and counts how many are set.
func (s Step) action() (string, int) {
	var name string
	n := 0
	set := func(ok bool, label string) {
		if ok {
			name = label
			n++
		}
	}
	set(s.Tick != "", "tick")
	set(s.TickUntil != "", "tick_until")
	set(s.Advance != 0, "advance")
	set(s.Create != nil, "create")
	set(s.Update != nil, "update")
	set(s.Delete != "", "delete")
	set(s.Dismiss, "dismiss")
	set(s.Snooze, "snooze")
	set(s.Reload, "reload")
	set(s.FailSaves != nil, "fail_saves")
	return name, n
}

// Assertion validates trace or final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_contains": an event with Event and ID (and Reason) occurred
	// - "trace_order": Events occur in this order, not necessarily adjacent
	// - "trace_count": an event with Event and ID occurred exactly Count times
	// - "final_state": the alarm with ID has the Expect field values
	// - "session": the alarm with ID is ringing at the end ("" for idle)
	Type string `yaml:"type"`

	Event  string `yaml:"event,omitempty"`
	ID     string `yaml:"id,omitempty"`
	Reason string `yaml:"reason,omitempty"`

	// Events are event keys such as "ringing a1" or "resolved a1 snooze".
	Events []string `yaml:"events,omitempty"`

	Count int `yaml:"count,omitempty"`

	// Expect holds field values for final_state. Keys: label, time,
	// duration, sound, triggered, exists.
	Expect map[string]string `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
	AssertSession       = "session"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML with strict field checking.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Start != "" {
		if _, err := parseClock(s.Start); err != nil {
			return fmt.Errorf("start: %w", err)
		}
	}

	if s.Snooze != 0 && s.Snooze < time.Minute {
		return fmt.Errorf("snooze must be at least 1m, got %s", s.Snooze)
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, a := range s.Alarms {
		if a.Time == "" {
			return fmt.Errorf("alarms[%d]: time is required", i)
		}
	}

	for i, step := range s.Steps {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(s Step) error {
	name, n := s.action()
	switch {
	case n == 0:
		return fmt.Errorf("no action set")
	case n > 1:
		return fmt.Errorf("exactly one action per step, got %d", n)
	}

	switch name {
	case "tick":
		if _, err := parseClock(s.Tick); err != nil {
			return err
		}
	case "tick_until":
		if _, err := parseClock(s.TickUntil); err != nil {
			return err
		}
		if s.Every < 0 {
			return fmt.Errorf("every must be positive")
		}
	case "advance":
		if s.Advance < 0 {
			return fmt.Errorf("advance must be positive")
		}
	case "update":
		if s.Update.ID == "" {
			return fmt.Errorf("update: id is required")
		}
	}

	if s.Every != 0 && name != "tick_until" {
		return fmt.Errorf("every is only valid with tick_until")
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Events) == 0 {
			return fmt.Errorf("assertions[%d]: events list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalState:
		if a.ID == "" {
			return fmt.Errorf("assertions[%d]: id is required for final_state", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	case AssertSession:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

// parseClock parses "HH:MM:SS" into an offset from midnight.
func parseClock(s string) (time.Duration, error) {
	t, err := time.Parse(time.TimeOnly, s)
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q: want HH:MM:SS", s)
	}
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second, nil
}
