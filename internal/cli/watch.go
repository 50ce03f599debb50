package cli

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/roach88/reveille/internal/alarm"
)

// watchQuiet is how long the database must stay untouched before a refresh.
const watchQuiet = 250 * time.Millisecond

// watchDatabase refreshes alarms whenever the SQLite file at path, or its
// WAL, is written by another command. Bursts of writes are coalesced into one
// refresh once the file has been quiet for quiet. The watch stops with ctx.
func watchDatabase(ctx context.Context, path string, alarms *alarm.Store, quiet time.Duration) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	// Watch the directory: SQLite creates and removes the -wal file.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()

		var pending <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return

			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 && isDatabaseFile(path, evt.Name) {
					pending = time.After(quiet)
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Warn("database watch error", "error", err)

			case <-pending:
				pending = nil
				if err := alarms.Refresh(ctx); err != nil {
					slog.Error("refresh after database change failed", "error", err)
					continue
				}
				slog.Debug("alarms refreshed", "count", len(alarms.List()))
			}
		}
	}()
	return nil
}

func isDatabaseFile(db, name string) bool {
	db, name = filepath.Clean(db), filepath.Clean(name)
	return name == db || name == db+"-wal"
}
