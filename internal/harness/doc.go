// Package harness runs scripted alarm scenarios against the real engine and
// compares their traces with golden files.
//
// A scenario drives a manual clock, so a run is deterministic: the same
// scenario always produces the same trace. The harness uses the SQLite store
// (in memory), the alarm store, the engine, and the sound resolver with a
// discarding sink. Only the clock and the ids are fixed.
//
// # Scenario Format
//
//	name: snooze_reschedules
//	description: "Snooze moves the alarm five minutes later"
//	start: "06:59:00"
//	alarms:
//	  - label: Wake
//	    time: "07:00"
//	    duration: 30s
//	steps:
//	  - tick: "07:00:00"
//	  - advance: 2s
//	  - snooze: true
//	  - tick_until: "07:04:59"
//	  - tick: "07:05:00"
//	assertions:
//	  - type: trace_order
//	    events: ["ringing alarm-1", "resolved alarm-1 snooze", "ringing alarm-1"]
//	  - type: final_state
//	    id: alarm-1
//	    expect: { time: "07:05" }
//
// Alarm ids are "alarm-1", "alarm-2", ... in creation order. Clock targets
// are wall-clock "HH:MM:SS" values; a target earlier than the current time
// means that time on the following day.
//
// # Steps
//
//   - tick: move the clock to the next occurrence of a time and tick once
//   - tick_until: tick every second (or "every") up to a time
//   - advance: move the clock without ticking; due auto-stops still fire
//   - create, update, delete: change the alarm collection
//   - dismiss, snooze: user actions on the ringing alarm
//   - reload: shut down and restart from the database
//   - fail_saves: make database saves fail or succeed
//
// A step may name the error code it must fail with in expect_error.
//
// # Golden Files
//
// Golden files live in testdata/golden/{name}.golden and hold the formatted
// trace, the final alarms, and the ringing alarm. Regenerate with:
//
//	go test ./internal/harness -update
package harness
