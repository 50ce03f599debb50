package sound

// Kind identifies which sound a Source plays.
type Kind string

const (
	KindClip Kind = "clip"
	KindTone Kind = "tone"
)

// Source is the active sound of a ringing alarm.
type Source interface {
	// Start begins playback. Calling Start again, or after Stop, does nothing.
	Start() error

	// Stop ends playback and releases every timer and goroutine. Stop is
	// idempotent and safe to call on a Source that never started.
	Stop()

	Kind() Kind
}
