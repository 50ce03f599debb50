// Package alarm holds the alarm domain: the Alarm entity, the Store that owns
// the alarm collection, and the minute-granularity Trigger Matcher.
//
// The Store is the only owner of the collection. Every mutation that changes
// user-visible fields (Create, Update, Delete) saves a full snapshot through the
// Persister before returning. Several processes may share one Persister, so a
// mutation first refreshes from it and the saved snapshot keeps their changes.
// Triggered is transient ringing state: it is never persisted, is reset to
// false on Load and survives Refresh.
//
// Binary audio stays as raw bytes in memory. Base64 encoding happens only at
// the persistence boundary (see Record).
package alarm
