package alarm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(hh, mm, ss int) time.Time {
	return time.Date(2026, 1, 15, hh, mm, ss, 0, time.Local)
}

func TestMatch(t *testing.T) {
	alarms := []Alarm{
		{ID: "a", Time: MustParseTimeOfDay("07:00")},
		{ID: "b", Time: MustParseTimeOfDay("07:01")},
		{ID: "c", Time: MustParseTimeOfDay("07:00"), Triggered: true},
		{ID: "d", Time: MustParseTimeOfDay("07:00")},
	}

	assert.Equal(t, []ID{"a", "d"}, Match(at(7, 0, 0), alarms))
	assert.Equal(t, []ID{"a", "d"}, Match(at(7, 0, 59), alarms))
	assert.Equal(t, []ID{"b"}, Match(at(7, 1, 30), alarms))
	assert.Empty(t, Match(at(6, 59, 59), alarms))
	assert.Empty(t, Match(at(19, 0, 0), alarms), "24h clock: 19:00 is not 07:00")
}

func TestMatch_TriggeredSuppressesRestOfMinute(t *testing.T) {
	alarms := []Alarm{{ID: "a", Time: MustParseTimeOfDay("07:00")}}

	assert.Equal(t, []ID{"a"}, Match(at(7, 0, 0), alarms))
	alarms[0].Triggered = true
	for sec := 1; sec < 60; sec++ {
		assert.Empty(t, Match(at(7, 0, sec), alarms), "second %d", sec)
	}
}

func TestMatch_Empty(t *testing.T) {
	assert.Nil(t, Match(at(7, 0, 0), nil))
}
