package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/reveille/internal/alarm"
	"github.com/roach88/reveille/internal/testutil"
)

func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}
}

func TestOpen_Pragmas(t *testing.T) {
	s := createTestStore(t)

	tests := []struct {
		name string
		want string
	}{
		{"journal_mode", "wal"},
		{"synchronous", "1"}, // NORMAL
		{"busy_timeout", "5000"},
		{"foreign_keys", "1"},
		{"user_version", "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.pragma(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOpen_MigratesVersionZero(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	require.NoError(t, err)

	// Simulate a database from before the position index existed.
	_, err = s.db.Exec(`DROP INDEX idx_alarms_position`)
	require.NoError(t, err)
	_, err = s.db.Exec(`PRAGMA user_version = 0`)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	var count int
	err = s.db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name = 'idx_alarms_position'`).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	v, err := s.pragma("user_version")
	require.NoError(t, err)
	assert.Equal(t, "1", v)
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing", "dir", "test.db"))
	assert.Error(t, err)
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{}
	assert.NoError(t, s.Close())
}

func TestSaveLoad_PreservesOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	created := time.Date(2026, 1, 15, 6, 0, 0, 123, time.UTC)

	in := []alarm.Record{
		{ID: "zz", Label: "Last id, first slot", Time: "07:00", Duration: 30, CreatedAt: created},
		{ID: "aa", Label: "Gym", Time: "18:30", Duration: 5, SoundClip: "UklGRg==", CreatedAt: created},
		{ID: "mm", Label: "Café", Time: "00:00", Duration: 120, CreatedAt: created},
	}
	require.NoError(t, s.Save(ctx, in))

	out, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestSave_ReplacesSnapshot(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, []alarm.Record{
		{ID: "a1", Label: "One", Time: "07:00", Duration: 30},
		{ID: "a2", Label: "Two", Time: "08:00", Duration: 30},
	}))
	require.NoError(t, s.Save(ctx, []alarm.Record{
		{ID: "a2", Label: "Two", Time: "08:05", Duration: 30},
	}))

	out, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "a2", out[0].ID)
	assert.Equal(t, "08:05", out[0].Time)

	require.NoError(t, s.Save(ctx, nil))
	out, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestSave_FailureKeepsPreviousSnapshot(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	good := []alarm.Record{{ID: "a1", Label: "One", Time: "07:00", Duration: 30}}
	require.NoError(t, s.Save(ctx, good))

	// Duplicate ids violate the primary key halfway through the transaction.
	err := s.Save(ctx, []alarm.Record{
		{ID: "b1", Label: "B", Time: "09:00", Duration: 30},
		{ID: "b1", Label: "B", Time: "09:00", Duration: 30},
	})
	require.Error(t, err)

	out, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "a1", out[0].ID)
}

func TestSave_RejectsInvalidRows(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	err := s.Save(ctx, []alarm.Record{{ID: "a1", Label: "x", Time: "7:00", Duration: 30}})
	assert.Error(t, err, "time must be HH:MM")

	err = s.Save(ctx, []alarm.Record{{ID: "a1", Label: "x", Time: "07:00", Duration: 0}})
	assert.Error(t, err, "duration must be positive")
}

func TestLoad_EmptyDatabase(t *testing.T) {
	s := createTestStore(t)

	out, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestStore_BacksAlarmStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alarms.db")
	ctx := context.Background()

	db, err := Open(path)
	require.NoError(t, err)

	alarms := alarm.NewStore(db,
		alarm.WithIDGenerator(alarm.NewFixedGenerator("a1", "a2")),
		alarm.WithLogger(testutil.DiscardLogger()),
	)
	first, err := alarms.Create(ctx, alarm.NewAlarm{Label: "  Wake  ", Time: "07:00", SoundClip: []byte{0x52, 0x49, 0x46, 0x46, 0x00}})
	require.NoError(t, err)
	_, err = alarms.Create(ctx, alarm.NewAlarm{Time: "06:30", Duration: 10 * time.Second})
	require.NoError(t, err)
	require.NoError(t, alarms.SetTriggered(first.ID, true))
	require.NoError(t, db.Close())

	// A new process sees the same collection, nothing ringing.
	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()

	reloaded := alarm.NewStore(db, alarm.WithLogger(testutil.DiscardLogger()))
	require.NoError(t, reloaded.Load(ctx))

	got := reloaded.List()
	require.Len(t, got, 2)
	assert.Equal(t, alarm.ID("a1"), got[0].ID)
	assert.Equal(t, "Wake", got[0].Label)
	assert.Equal(t, []byte{0x52, 0x49, 0x46, 0x46, 0x00}, got[0].SoundClip)
	assert.Equal(t, 30*time.Second, got[0].Duration)
	assert.False(t, got[0].Triggered)
	assert.Equal(t, alarm.ID("a2"), got[1].ID)
	assert.Equal(t, "Alarm", got[1].Label)
	assert.Equal(t, "06:30", got[1].Time.String())
}

func TestStore_TwoProcessesShareDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alarms.db")
	ctx := context.Background()

	open := func(ids ...alarm.ID) *alarm.Store {
		db, err := Open(path)
		require.NoError(t, err)
		t.Cleanup(func() { db.Close() })
		s := alarm.NewStore(db,
			alarm.WithIDGenerator(alarm.NewFixedGenerator(ids...)),
			alarm.WithLogger(testutil.DiscardLogger()),
		)
		require.NoError(t, s.Load(ctx))
		return s
	}

	running := open("wake")
	wake, err := running.Create(ctx, alarm.NewAlarm{Label: "Wake", Time: "07:00"})
	require.NoError(t, err)

	// A one-shot command adds an alarm while the engine process is up.
	other := open("gym")
	_, err = other.Create(ctx, alarm.NewAlarm{Label: "Gym", Time: "18:00"})
	require.NoError(t, err)

	next := alarm.MustParseTimeOfDay("07:05")
	_, err = running.Update(ctx, wake.ID, alarm.Patch{Time: &next})
	require.NoError(t, err)

	check := open()
	got := check.List()
	require.Len(t, got, 2)
	assert.Equal(t, "07:05", got[0].Time.String())
	assert.Equal(t, "Gym", got[1].Label)
}
