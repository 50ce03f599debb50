// Package testutil provides fakes for the engine's collaborators: an
// in-memory Persister, a Sink that records plays, and a scriptable Capturer.
package testutil
