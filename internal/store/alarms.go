package store

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/reveille/internal/alarm"
)

var _ alarm.Persister = (*Store)(nil)

// Save replaces the stored collection with records, in order, in one
// transaction. A failed Save leaves the previous snapshot intact.
func (s *Store) Save(ctx context.Context, records []alarm.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save alarms: begin: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if _, err := tx.ExecContext(ctx, `DELETE FROM alarms`); err != nil {
		return fmt.Errorf("save alarms: clear: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO alarms (id, position, label, time, duration, sound_clip, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("save alarms: prepare: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		_, err := stmt.ExecContext(ctx,
			r.ID,
			i,
			r.Label,
			r.Time,
			r.Duration,
			r.SoundClip,
			r.CreatedAt.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("save alarms: insert %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save alarms: commit: %w", err)
	}
	return nil
}

// Load returns the stored collection in saved order.
//
// Rows are returned as stored; validation of time and duration happens in
// alarm.FromRecord.
func (s *Store) Load(ctx context.Context) ([]alarm.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, label, time, duration, sound_clip, created_at
		FROM alarms
		ORDER BY position ASC, id ASC COLLATE BINARY
	`)
	if err != nil {
		return nil, fmt.Errorf("load alarms: %w", err)
	}
	defer rows.Close()

	var records []alarm.Record
	for rows.Next() {
		var (
			r         alarm.Record
			createdAt string
		)
		if err := rows.Scan(&r.ID, &r.Label, &r.Time, &r.Duration, &r.SoundClip, &createdAt); err != nil {
			return nil, fmt.Errorf("load alarms: scan: %w", err)
		}
		if createdAt != "" {
			t, err := time.Parse(time.RFC3339Nano, createdAt)
			if err != nil {
				return nil, fmt.Errorf("load alarms: created_at for %s: %w", r.ID, err)
			}
			r.CreatedAt = t
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load alarms: %w", err)
	}
	return records, nil
}
