// Package store provides SQLite-backed persistence for the alarm collection.
//
// The store keeps one snapshot of the collection in the alarms table:
//   - Save replaces every row in a single transaction
//   - Load reads rows back ordered by position
//
// Rows carry the alarm.Record fields. Whether an alarm is ringing is runtime
// state and never reaches the database.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
