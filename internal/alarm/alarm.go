package alarm

import (
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

const (
	// DefaultLabel replaces a blank label on create and edit.
	DefaultLabel = "Alarm"

	// DefaultDuration is the auto-stop window used when none is given.
	DefaultDuration = 30 * time.Second
)

// ID is an opaque, unique alarm identifier.
type ID string

// Alarm is a user-configured alarm that rings daily at Time.
type Alarm struct {
	ID        ID
	Label     string
	Time      TimeOfDay
	Duration  time.Duration
	SoundClip []byte // nil rings the fallback tone
	Triggered bool   // true only while this alarm is the active ringing session
	CreatedAt time.Time
}

// HasClip reports whether a recorded clip is attached.
func (a Alarm) HasClip() bool {
	return len(a.SoundClip) > 0
}

// clone returns a deep copy so callers never share SoundClip backing arrays
// with the store.
func (a Alarm) clone() Alarm {
	if a.SoundClip != nil {
		a.SoundClip = append([]byte(nil), a.SoundClip...)
	}
	return a
}

// NormalizeLabel trims and NFC-normalizes a label, falling back to DefaultLabel
// when nothing is left.
func NormalizeLabel(label string) string {
	label = strings.TrimSpace(norm.NFC.String(label))
	if label == "" {
		return DefaultLabel
	}
	return label
}

// NormalizeDuration rounds d down to whole seconds and falls back to
// DefaultDuration when the result is not positive.
func NormalizeDuration(d time.Duration) time.Duration {
	d = d.Truncate(time.Second)
	if d <= 0 {
		return DefaultDuration
	}
	return d
}
