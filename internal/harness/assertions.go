package harness

import (
	"fmt"
	"strconv"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s\n", event.Seq, event.Key())
		}
	}

	return buf.String()
}

// EvaluateAssertions checks every assertion against the result and returns
// one message per failure.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var failures []string
	for i, a := range assertions {
		if err := evaluateAssertion(result, a); err != nil {
			failures = append(failures, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return failures
}

func evaluateAssertion(result *Result, a Assertion) error {
	switch a.Type {
	case AssertTraceContains:
		return assertTraceContains(result.Trace, a)
	case AssertTraceOrder:
		return assertTraceOrder(result.Trace, a)
	case AssertTraceCount:
		return assertTraceCount(result.Trace, a)
	case AssertFinalState:
		return assertFinalState(result, a)
	case AssertSession:
		return assertSession(result, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// matches reports whether e has the assertion's event type and, when set,
// its id and reason.
func matches(e TraceEvent, a Assertion) bool {
	if e.Type != a.Event {
		return false
	}
	if a.ID != "" && e.ID != a.ID {
		return false
	}
	if a.Reason != "" && e.Reason != a.Reason {
		return false
	}
	return true
}

func describe(a Assertion) string {
	return TraceEvent{Type: a.Event, ID: a.ID, Reason: a.Reason}.Key()
}

// assertTraceContains checks that at least one event matches.
func assertTraceContains(trace []TraceEvent, assertion Assertion) error {
	for _, event := range trace {
		if matches(event, assertion) {
			return nil
		}
	}

	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: describe(assertion),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that the event keys appear in the given order.
// Events don't need to be consecutive (intervening events are allowed), and
// each expected key is matched after the previous match.
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	pos := 0
	for _, want := range assertion.Events {
		found := false
		for pos < len(trace) {
			key := trace[pos].Key()
			pos++
			if key == want {
				found = true
				break
			}
		}
		if !found {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("events in order: %v", assertion.Events),
				Actual:   fmt.Sprintf("%q not found after earlier events", want),
				Trace:    trace,
			}
		}
	}
	return nil
}

// assertTraceCount checks that exactly Count events match.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if matches(event, assertion) {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, describe(assertion)),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertFinalState checks the final alarm with the assertion's id.
// "exists: false" asserts the alarm is gone; other keys are compared as text.
func assertFinalState(result *Result, assertion Assertion) error {
	var (
		state AlarmState
		found bool
	)
	for _, a := range result.Final {
		if a.ID == assertion.ID {
			state, found = a, true
			break
		}
	}

	if exists, ok := assertion.Expect["exists"]; ok {
		want, err := strconv.ParseBool(exists)
		if err != nil {
			return fmt.Errorf("final_state: exists must be a bool: %w", err)
		}
		if want != found {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("alarm %s exists=%t", assertion.ID, want),
				Actual:   fmt.Sprintf("exists=%t", found),
			}
		}
		if !found {
			return nil
		}
	}

	if !found {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("alarm %s", assertion.ID),
			Actual:   "alarm not found",
		}
	}

	actual := map[string]string{
		"label":     state.Label,
		"time":      state.Time,
		"duration":  state.Duration.String(),
		"sound":     state.Sound,
		"triggered": strconv.FormatBool(state.Triggered),
	}
	for key, want := range assertion.Expect {
		if key == "exists" {
			continue
		}
		got, ok := actual[key]
		if !ok {
			return fmt.Errorf("final_state: unknown field %q", key)
		}
		if got != want {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("alarm %s %s=%q", assertion.ID, key, want),
				Actual:   fmt.Sprintf("%s=%q", key, got),
			}
		}
	}
	return nil
}

// assertSession checks which alarm is ringing at the end.
func assertSession(result *Result, assertion Assertion) error {
	if result.Ringing != assertion.ID {
		want, got := assertion.ID, result.Ringing
		if want == "" {
			want = "idle"
		}
		if got == "" {
			got = "idle"
		}
		return &AssertionError{
			Type:     AssertSession,
			Expected: want,
			Actual:   got,
		}
	}
	return nil
}
