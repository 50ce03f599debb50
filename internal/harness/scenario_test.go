package harness

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/reveille/internal/alarm"
)

const validScenario = `
name: minimal
description: "one alarm, one tick"
start: "06:59:00"
alarms:
  - time: "07:00"
    duration: 5s
steps:
  - tick: "07:00:00"
  - snooze: true
    expect_error: PERSISTENCE
assertions:
  - type: session
`

func TestParseScenario_Valid(t *testing.T) {
	s, err := ParseScenario([]byte(validScenario))
	require.NoError(t, err)

	assert.Equal(t, "minimal", s.Name)
	assert.Equal(t, "06:59:00", s.Start)
	require.Len(t, s.Alarms, 1)
	assert.Equal(t, 5*time.Second, s.Alarms[0].Duration)
	require.Len(t, s.Steps, 2)
	assert.Equal(t, "07:00:00", s.Steps[0].Tick)
	assert.True(t, s.Steps[1].Snooze)
	assert.Equal(t, alarm.ErrCodePersistence, s.Steps[1].ExpectError)
}

func TestLoadScenario_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "minimal.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validScenario), 0o644))

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "minimal", s.Name)

	_, err = LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParseScenario_RejectsUnknownFields(t *testing.T) {
	_, err := ParseScenario([]byte(validScenario + "assertion: []\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "missing name",
			yaml: "description: d\nsteps: [{dismiss: true}]\nassertions: [{type: session}]\n",
			want: "name is required",
		},
		{
			name: "missing description",
			yaml: "name: n\nsteps: [{dismiss: true}]\nassertions: [{type: session}]\n",
			want: "description is required",
		},
		{
			name: "no steps",
			yaml: "name: n\ndescription: d\nassertions: [{type: session}]\n",
			want: "steps list is required",
		},
		{
			name: "no assertions",
			yaml: "name: n\ndescription: d\nsteps: [{dismiss: true}]\n",
			want: "assertions list is required",
		},
		{
			name: "bad start",
			yaml: "name: n\ndescription: d\nstart: \"7am\"\nsteps: [{dismiss: true}]\nassertions: [{type: session}]\n",
			want: "start",
		},
		{
			name: "empty step",
			yaml: "name: n\ndescription: d\nsteps: [{}]\nassertions: [{type: session}]\n",
			want: "no action set",
		},
		{
			name: "two actions",
			yaml: "name: n\ndescription: d\nsteps: [{dismiss: true, snooze: true}]\nassertions: [{type: session}]\n",
			want: "exactly one action",
		},
		{
			name: "every without tick_until",
			yaml: "name: n\ndescription: d\nsteps: [{tick: \"07:00:00\", every: 1s}]\nassertions: [{type: session}]\n",
			want: "every is only valid",
		},
		{
			name: "bad tick",
			yaml: "name: n\ndescription: d\nsteps: [{tick: \"7:00\"}]\nassertions: [{type: session}]\n",
			want: "want HH:MM:SS",
		},
		{
			name: "alarm without time",
			yaml: "name: n\ndescription: d\nalarms: [{label: x}]\nsteps: [{dismiss: true}]\nassertions: [{type: session}]\n",
			want: "alarms[0]: time is required",
		},
		{
			name: "short snooze",
			yaml: "name: n\ndescription: d\nsnooze: 30s\nsteps: [{dismiss: true}]\nassertions: [{type: session}]\n",
			want: "snooze must be at least 1m",
		},
		{
			name: "unknown assertion",
			yaml: "name: n\ndescription: d\nsteps: [{dismiss: true}]\nassertions: [{type: vibes}]\n",
			want: "unknown assertion type",
		},
		{
			name: "final_state without expect",
			yaml: "name: n\ndescription: d\nsteps: [{dismiss: true}]\nassertions: [{type: final_state, id: alarm-1}]\n",
			want: "expect is required",
		},
		{
			name: "trace_order without events",
			yaml: "name: n\ndescription: d\nsteps: [{dismiss: true}]\nassertions: [{type: trace_order}]\n",
			want: "events list is required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseClock(t *testing.T) {
	d, err := parseClock("07:00:05")
	require.NoError(t, err)
	assert.Equal(t, 7*time.Hour+5*time.Second, d)

	_, err = parseClock("24:00:00")
	assert.Error(t, err)
}
