package alarm

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"
)

// Record is the persisted form of an Alarm.
//
// SoundClip is standard base64 and omitted when absent. Triggered has no
// field: a reloaded alarm is never ringing.
type Record struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	Time      string    `json:"time"`
	Duration  int64     `json:"duration"`
	SoundClip string    `json:"soundClip,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Persister is the persistence collaborator. Save receives the complete
// ordered collection; Load returns it in the same order.
type Persister interface {
	Save(ctx context.Context, records []Record) error
	Load(ctx context.Context) ([]Record, error)
}

// ToRecord encodes an alarm for persistence.
func ToRecord(a Alarm) Record {
	r := Record{
		ID:        string(a.ID),
		Label:     a.Label,
		Time:      a.Time.String(),
		Duration:  int64(a.Duration / time.Second),
		CreatedAt: a.CreatedAt,
	}
	if len(a.SoundClip) > 0 {
		r.SoundClip = base64.StdEncoding.EncodeToString(a.SoundClip)
	}
	return r
}

// FromRecord decodes a persisted alarm. The result always has Triggered=false.
func FromRecord(r Record) (Alarm, error) {
	if r.ID == "" {
		return Alarm{}, NewValidationError("record has no id")
	}
	tod, err := ParseTimeOfDay(r.Time)
	if err != nil {
		return Alarm{}, fmt.Errorf("record %s: %w", r.ID, err)
	}
	a := Alarm{
		ID:        ID(r.ID),
		Label:     NormalizeLabel(r.Label),
		Time:      tod,
		Duration:  NormalizeDuration(time.Duration(r.Duration) * time.Second),
		CreatedAt: r.CreatedAt,
	}
	if r.SoundClip != "" {
		clip, err := base64.StdEncoding.DecodeString(r.SoundClip)
		if err != nil {
			return Alarm{}, fmt.Errorf("record %s: decode sound clip: %w", r.ID, err)
		}
		a.SoundClip = clip
	}
	return a, nil
}
