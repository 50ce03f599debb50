package alarm

import (
	"time"
)

const minutesPerDay = 24 * 60

// TimeOfDay is a local wall-clock hour and minute with no date and no seconds.
// The zero value is midnight.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses a 24h "HH:MM" string.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	if s == "" {
		return TimeOfDay{}, NewValidationError("time is required")
	}
	if len(s) != 5 || s[2] != ':' {
		return TimeOfDay{}, NewValidationError("time %q must be HH:MM", s)
	}
	h, okH := twoDigits(s[0], s[1])
	m, okM := twoDigits(s[3], s[4])
	if !okH || !okM || h > 23 || m > 59 {
		return TimeOfDay{}, NewValidationError("time %q must be HH:MM", s)
	}
	return TimeOfDay{Hour: h, Minute: m}, nil
}

// MustParseTimeOfDay is like ParseTimeOfDay but panics on error.
// Intended for tests and constants.
func MustParseTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

func twoDigits(a, b byte) (int, bool) {
	if a < '0' || a > '9' || b < '0' || b > '9' {
		return 0, false
	}
	return int(a-'0')*10 + int(b-'0'), true
}

// TimeOfDayOf returns the hour and minute of t in t's location.
func TimeOfDayOf(t time.Time) TimeOfDay {
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}
}

// Add returns t shifted by d, truncated to whole minutes, wrapping at midnight.
// 23:58 plus five minutes is 00:03.
func (t TimeOfDay) Add(d time.Duration) TimeOfDay {
	total := (t.minutes() + int(d/time.Minute)) % minutesPerDay
	if total < 0 {
		total += minutesPerDay
	}
	return TimeOfDay{Hour: total / 60, Minute: total % 60}
}

func (t TimeOfDay) minutes() int {
	return t.Hour*60 + t.Minute
}

// String returns the zero-padded "HH:MM" form.
func (t TimeOfDay) String() string {
	return string([]byte{
		byte('0' + t.Hour/10), byte('0' + t.Hour%10),
		':',
		byte('0' + t.Minute/10), byte('0' + t.Minute%10),
	})
}

// MarshalText implements encoding.TextMarshaler.
func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *TimeOfDay) UnmarshalText(b []byte) error {
	parsed, err := ParseTimeOfDay(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
