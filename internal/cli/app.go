package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/roach88/reveille/internal/alarm"
	"github.com/roach88/reveille/internal/capture"
	"github.com/roach88/reveille/internal/config"
	"github.com/roach88/reveille/internal/sound"
	"github.com/roach88/reveille/internal/store"
)

// app is the loaded configuration and alarm collection shared by commands.
type app struct {
	cfg    config.Config
	db     *store.Store
	alarms *alarm.Store
}

// openApp loads configuration, opens the database (creating its directory)
// and loads the alarm collection.
func openApp(ctx context.Context, opts *RootOptions, storeOpts ...alarm.StoreOption) (*app, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if opts.Database != "" {
		cfg.Database = opts.Database
	}

	if cfg.Database != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database), 0o755); err != nil {
			return nil, WrapExitError(ExitFailure, "failed to create database directory", err)
		}
	}

	slog.Debug("opening database", "path", cfg.Database)
	db, err := store.Open(cfg.Database)
	if err != nil {
		return nil, WrapExitError(ExitFailure, "failed to open database", err)
	}

	alarms := alarm.NewStore(db, storeOpts...)
	if err := alarms.Load(ctx); err != nil {
		db.Close()
		return nil, WrapAlarmError("failed to load alarms", err)
	}

	return &app{cfg: cfg, db: db, alarms: alarms}, nil
}

// Close closes the database.
func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}

// sink returns the configured player, or a Discard sink when none is set.
func (a *app) sink() sound.Sink {
	if a.cfg.Player.IsZero() {
		slog.Warn("no player configured, alarms will ring silently")
		return sound.Discard{}
	}
	return sound.Command{Name: a.cfg.Player.Command, Args: a.cfg.Player.Args}
}

// capturer returns the configured recorder.
func (a *app) capturer() (capture.Capturer, error) {
	if a.cfg.Recorder.IsZero() {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("no recorder configured (set recorder in config or %s)", config.EnvRecorder))
	}
	return capture.Command{Name: a.cfg.Recorder.Command, Args: a.cfg.Recorder.Args}, nil
}
