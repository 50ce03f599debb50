// Package config loads reveille settings from an optional YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/reveille/internal/sound"
)

// Environment variables read by Load.
const (
	EnvConfig      = "REVEILLE_CONFIG"
	EnvDatabase    = "REVEILLE_DB"
	EnvPlayer      = "REVEILLE_PLAYER"
	EnvRecorder    = "REVEILLE_RECORDER"
	EnvMetricsAddr = "REVEILLE_METRICS_ADDR"
)

// Config defines reveille configuration.
type Config struct {
	Database     string           `yaml:"database"`
	TickInterval time.Duration    `yaml:"tick_interval"`
	Snooze       time.Duration    `yaml:"snooze"`
	ClipGap      time.Duration    `yaml:"clip_gap"`
	Tone         sound.ToneConfig `yaml:"tone"`
	Player       Command          `yaml:"player"`
	Recorder     Command          `yaml:"recorder"`
	MetricsAddr  string           `yaml:"metrics_addr"`
}

// Command is an external program and its arguments.
type Command struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
}

// IsZero reports whether no program is configured.
func (c Command) IsZero() bool { return c.Command == "" }

// String renders the command line for logs.
func (c Command) String() string {
	return strings.TrimSpace(c.Command + " " + strings.Join(c.Args, " "))
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Database:     DefaultDatabasePath(),
		TickInterval: time.Second,
		Snooze:       5 * time.Minute,
		ClipGap:      sound.DefaultClipGap,
		Tone:         sound.DefaultToneConfig(),
		Player:       Command{Command: "aplay", Args: []string{"-q", "-"}},
		Recorder:     Command{Command: "arecord", Args: []string{"-q", "-f", "cd", "-t", "wav", "-"}},
	}
}

// DefaultDatabasePath is alarms.db under the user config directory, or in
// the working directory when that is unknown.
func DefaultDatabasePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "reveille.db"
	}
	return filepath.Join(dir, "reveille", "alarms.db")
}

// Load builds the configuration from defaults, then the YAML file at path
// (or $REVEILLE_CONFIG when path is empty), then environment overrides.
// A missing file is an error only when it was named explicitly.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = os.Getenv(EnvConfig)
		explicit = path != ""
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist) && !explicit:
		default:
			return cfg, fmt.Errorf("config: %w", err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvDatabase); v != "" {
		cfg.Database = v
	}
	if v, ok := os.LookupEnv(EnvPlayer); ok {
		cfg.Player = parseCommand(v)
	}
	if v, ok := os.LookupEnv(EnvRecorder); ok {
		cfg.Recorder = parseCommand(v)
	}
	if v := os.Getenv(EnvMetricsAddr); v != "" {
		cfg.MetricsAddr = v
	}
}

// parseCommand splits a command line on whitespace. An empty value clears
// the command.
func parseCommand(value string) Command {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return Command{}
	}
	return Command{Command: fields[0], Args: fields[1:]}
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.Database == "" {
		return errors.New("config: database path required")
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("config: tick_interval must be positive, got %s", c.TickInterval)
	}
	if c.TickInterval > time.Minute {
		return fmt.Errorf("config: tick_interval %s would skip minutes", c.TickInterval)
	}
	if c.Snooze < time.Minute || c.Snooze%time.Minute != 0 {
		return fmt.Errorf("config: snooze must be a whole number of minutes, got %s", c.Snooze)
	}
	if c.ClipGap < 0 {
		return fmt.Errorf("config: clip_gap must not be negative, got %s", c.ClipGap)
	}
	if c.Tone.Gain < 0 || c.Tone.Gain > 1 {
		return fmt.Errorf("config: tone gain must be within [0, 1], got %v", c.Tone.Gain)
	}
	return nil
}
