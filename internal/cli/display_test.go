package cli

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/reveille/internal/alarm"
	"github.com/roach88/reveille/internal/engine"
	"github.com/roach88/reveille/internal/sound"
)

var sampleView = engine.View{
	ID:       "a1",
	Label:    "Wake",
	Time:     alarm.MustParseTimeOfDay("07:00"),
	Sound:    sound.KindClip,
	Deadline: time.Date(2026, 1, 15, 7, 0, 30, 0, time.UTC),
}

func TestTerminalDisplay_Text(t *testing.T) {
	next := alarm.MustParseTimeOfDay("07:05")
	tests := []struct {
		name string
		res  engine.Resolution
		want string
	}{
		{"dismiss", engine.Resolution{View: sampleView, Reason: engine.ReasonDismiss}, "<<< 07:00  Wake  dismissed\n"},
		{"auto_stop", engine.Resolution{View: sampleView, Reason: engine.ReasonAutoStop}, "<<< 07:00  Wake  stopped ringing\n"},
		{"snooze", engine.Resolution{View: sampleView, Reason: engine.ReasonSnooze, Rescheduled: &next}, "<<< 07:00  Wake  snoozed until 07:05\n"},
		{"snooze_deleted", engine.Resolution{View: sampleView, Reason: engine.ReasonSnooze}, "<<< 07:00  Wake  snoozed\n"},
		{"shutdown", engine.Resolution{View: sampleView, Reason: engine.ReasonShutdown}, "<<< 07:00  Wake  stopped (shutdown)\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			newTerminalDisplay(buf, false).Resolved(tt.res)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestTerminalDisplay_RingingBanner(t *testing.T) {
	buf := &bytes.Buffer{}
	newTerminalDisplay(buf, false).Ringing(sampleView)
	assert.Equal(t, "\a>>> 07:00  Wake  (clip, stops 07:00:30)  [d]ismiss [s]nooze\n", buf.String())
}

func TestTerminalDisplay_JSONLines(t *testing.T) {
	buf := &bytes.Buffer{}
	d := newTerminalDisplay(buf, true)
	next := alarm.MustParseTimeOfDay("07:05")

	d.Ringing(sampleView)
	d.Resolved(engine.Resolution{View: sampleView, Reason: engine.ReasonSnooze, Rescheduled: &next})

	dec := json.NewDecoder(buf)
	var ringing, resolved DisplayEvent
	require.NoError(t, dec.Decode(&ringing))
	require.NoError(t, dec.Decode(&resolved))

	assert.Equal(t, "ringing", ringing.Event)
	assert.Equal(t, "a1", ringing.ID)
	assert.Equal(t, "clip", ringing.Sound)
	assert.Empty(t, ringing.Reason)
	assert.True(t, ringing.Deadline.Equal(sampleView.Deadline))

	assert.Equal(t, "resolved", resolved.Event)
	assert.Equal(t, "snooze", resolved.Reason)
	assert.Equal(t, "07:05", resolved.Rescheduled)
}
