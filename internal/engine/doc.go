// Package engine implements the ringing state machine of the alarm engine.
//
// The engine compares each clock tick against the alarm store, starts a
// ringing session when an alarm matches, and resolves that session by
// auto-stop, dismiss or snooze.
//
// STATES:
//
//	Idle --tick matches--> Ringing --auto-stop | dismiss | snooze--> Idle
//
// Entering Ringing marks the alarm triggered, starts its sound source and
// schedules the auto-stop deadline (now + alarm duration). Every exit stops
// the sound, clears triggered and cancels the deadline. Snooze additionally
// moves the alarm's time forward by the snooze interval and saves.
//
// CONCURRENT MATCHES:
// Only one session rings at a time. Alarms that match while a session is
// active are queued and ring one after another, in match order, as each
// session resolves. A queued alarm deleted before its turn is skipped.
//
// ONCE PER MINUTE:
// The matcher compares hour and minute only. The engine remembers the minute
// in which each alarm last started ringing, so an alarm dismissed within its
// own minute does not ring again on the next tick. This bookkeeping lives in
// memory only.
//
// CANCELLATION:
// Each session carries a generation number. The auto-stop callback is bound
// to the generation it was scheduled for and does nothing once that session
// is gone, so a deadline that fires concurrently with a dismiss cannot
// resolve a later session.
//
// The session holds its own copy of the alarm. Deleting the ringing alarm
// from the store does not break auto-stop, dismiss or snooze.
//
// Thread-safety model:
//   - Tick, Dismiss, Snooze, Close: safe from any goroutine (engine mutex)
//   - Submit: safe from any goroutine; executed by Run
//   - Run: must be called from exactly one goroutine
//   - Display callbacks run without the engine mutex held, so a display may
//     call Dismiss or Snooze directly.
package engine
