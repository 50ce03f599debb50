package alarm

import "time"

// Match returns the ids of alarms that should start ringing at now, in
// collection order.
//
// An alarm matches when its Time equals now's hour and minute and it is not
// already Triggered. Seconds are ignored, so an alarm matches on every tick of
// its minute until the first match sets Triggered.
func Match(now time.Time, alarms []Alarm) []ID {
	current := TimeOfDayOf(now)

	var ids []ID
	for _, a := range alarms {
		if a.Time == current && !a.Triggered {
			ids = append(ids, a.ID)
		}
	}
	return ids
}
