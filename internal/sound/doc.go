// Package sound resolves and drives the audio of a ringing alarm.
//
// A Source is either a ClipSource looping the alarm's recorded clip or a
// ToneSource beeping a synthesized square wave once per interval. Both write
// to a Sink, which is the only part that touches an actual audio device.
//
// Stop on any Source is idempotent, safe before Start, and returns only once
// every timer and playback goroutine the Source created is gone.
package sound
