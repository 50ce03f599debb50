package harness

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_UnexpectedStepErrorFails(t *testing.T) {
	result, err := Run(&Scenario{
		Name:        "unexpected_error",
		Description: "update of a missing alarm without expect_error",
		Steps:       []Step{{Update: &UpdateStep{ID: "alarm-7", Time: "08:00"}}},
		Assertions:  []Assertion{{Type: AssertSession}},
	})
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "steps[0]: unexpected error")
}

func TestRun_MissingExpectedErrorFails(t *testing.T) {
	result, err := Run(&Scenario{
		Name:        "missing_error",
		Description: "dismiss while idle succeeds",
		Steps:       []Step{{Dismiss: true, ExpectError: "NOT_FOUND"}},
		Assertions:  []Assertion{{Type: AssertSession}},
	})
	require.NoError(t, err)

	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "expected NOT_FOUND error, got none")
}

func TestRun_FailedAssertionIsReported(t *testing.T) {
	result, err := Run(&Scenario{
		Name:        "wrong_session",
		Description: "claims the alarm still rings after auto-stop",
		Start:       "06:59:00",
		Alarms:      []CreateStep{{Time: "07:00", Duration: 5 * time.Second}},
		Steps:       []Step{{Tick: "07:00:00"}, {Advance: 10 * time.Second}},
		Assertions:  []Assertion{{Type: AssertSession, ID: "alarm-1"}},
	})
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Expected: alarm-1")
	assert.Contains(t, result.Errors[0], "Actual: idle")
}

func TestRun_AdvanceFiresAutoStopWithoutTick(t *testing.T) {
	result, err := Run(&Scenario{
		Name:        "advance_only",
		Description: "auto-stop is driven by the clock, not by ticks",
		Start:       "06:59:00",
		Alarms:      []CreateStep{{Time: "07:00", Duration: 5 * time.Second}},
		Steps:       []Step{{Tick: "07:00:00"}, {Advance: time.Minute}},
		Assertions: []Assertion{
			{Type: AssertTraceContains, Event: EventResolved, ID: "alarm-1", Reason: "auto_stop"},
		},
	})
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	last := result.Trace[len(result.Trace)-1]
	assert.Equal(t, "resolved alarm-1 auto_stop", last.Key())
	assert.Equal(t, "07:00:05", result.stamp(last.At))
}

func TestRun_ReloadWithinMinuteRingsAgain(t *testing.T) {
	result, err := Run(&Scenario{
		Name:        "restart_same_minute",
		Description: "a restart forgets which alarms already rang",
		Start:       "06:59:00",
		Alarms:      []CreateStep{{Time: "07:00"}},
		Steps:       []Step{{Tick: "07:00:00"}, {Dismiss: true}, {Reload: true}, {Tick: "07:00:30"}},
		Assertions: []Assertion{
			{Type: AssertTraceCount, Event: EventRinging, ID: "alarm-1", Count: 2},
			{Type: AssertSession, ID: "alarm-1"},
		},
	})
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_CustomSnooze(t *testing.T) {
	result, err := Run(&Scenario{
		Name:        "custom_snooze",
		Description: "snooze interval comes from the scenario",
		Start:       "06:59:00",
		Snooze:      10 * time.Minute,
		Alarms:      []CreateStep{{Time: "07:00"}},
		Steps:       []Step{{Tick: "07:00:00"}, {Snooze: true}},
		Assertions: []Assertion{
			{Type: AssertFinalState, ID: "alarm-1", Expect: map[string]string{"time": "07:10"}},
		},
	})
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestHarness_NextWrapsToTomorrow(t *testing.T) {
	result, err := Run(&Scenario{
		Name:        "wrap",
		Description: "a tick target earlier than now is tomorrow",
		Start:       "23:00:00",
		Steps:       []Step{{Tick: "01:00:00"}, {Create: &CreateStep{Time: "02:00"}}},
		Assertions:  []Assertion{{Type: AssertSession}},
	})
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	created := result.Trace[0]
	assert.Equal(t, "01:00:00+1d", result.stamp(created.At))
}

func TestResult_FormatEmpty(t *testing.T) {
	r := NewResult(scenarioDay)
	assert.Equal(t, "scenario: empty\ntrace:\nfinal:\n  (none)\nringing: none\n", r.Format("empty"))
}

func TestTraceEvent_Key(t *testing.T) {
	assert.Equal(t, "reloaded", TraceEvent{Type: EventReloaded}.Key())
	assert.Equal(t, "ringing alarm-1", TraceEvent{Type: EventRinging, ID: "alarm-1"}.Key())
	assert.Equal(t, "resolved alarm-1 snooze", TraceEvent{Type: EventResolved, ID: "alarm-1", Reason: "snooze"}.Key())
}
