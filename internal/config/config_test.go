package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every variable Load reads for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvConfig, EnvDatabase, EnvPlayer, EnvRecorder, EnvMetricsAddr} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reveille.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, time.Second, cfg.TickInterval)
	assert.Equal(t, 5*time.Minute, cfg.Snooze)
	assert.Equal(t, 800.0, cfg.Tone.FrequencyHz)
	assert.Equal(t, 500*time.Millisecond, cfg.Tone.Length)
	assert.Equal(t, 0.3, cfg.Tone.Gain)
	assert.Equal(t, time.Second, cfg.Tone.Interval)
	assert.Equal(t, "aplay -q -", cfg.Player.String())
	assert.Equal(t, "arecord", cfg.Recorder.Command)
	assert.NotEmpty(t, cfg.Database)
	assert.Empty(t, cfg.MetricsAddr)
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
database: /tmp/alarms.db
tick_interval: 500ms
snooze: 10m
tone:
  frequency_hz: 440
player:
  command: paplay
  args: ["--raw"]
metrics_addr: ":9090"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/alarms.db", cfg.Database)
	assert.Equal(t, 500*time.Millisecond, cfg.TickInterval)
	assert.Equal(t, 10*time.Minute, cfg.Snooze)
	assert.Equal(t, 440.0, cfg.Tone.FrequencyHz)
	assert.Equal(t, 0.3, cfg.Tone.Gain, "unset tone fields keep defaults")
	assert.Equal(t, "paplay --raw", cfg.Player.String())
	assert.Equal(t, "arecord", cfg.Recorder.Command)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
}

func TestLoad_FileFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvConfig, writeConfig(t, "snooze: 15m\n"))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, cfg.Snooze)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "database: /from/file.db\nmetrics_addr: \":1\"\n")
	t.Setenv(EnvDatabase, "/from/env.db")
	t.Setenv(EnvPlayer, "  mpv --no-video -  ")
	t.Setenv(EnvMetricsAddr, "127.0.0.1:9100")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/from/env.db", cfg.Database)
	assert.Equal(t, Command{Command: "mpv", Args: []string{"--no-video", "-"}}, cfg.Player)
	assert.Equal(t, "127.0.0.1:9100", cfg.MetricsAddr)
}

func TestLoad_EmptyPlayerEnvDisablesPlayer(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvPlayer, "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.True(t, cfg.Player.IsZero())
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_MalformedFile(t *testing.T) {
	clearEnv(t)

	_, err := Load(writeConfig(t, "tick_interval: [1, 2]\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"no database", func(c *Config) { c.Database = "" }, false},
		{"zero tick", func(c *Config) { c.TickInterval = 0 }, false},
		{"tick over a minute", func(c *Config) { c.TickInterval = 2 * time.Minute }, false},
		{"sub-minute snooze", func(c *Config) { c.Snooze = 30 * time.Second }, false},
		{"fractional snooze", func(c *Config) { c.Snooze = 90 * time.Second }, false},
		{"negative clip gap", func(c *Config) { c.ClipGap = -time.Second }, false},
		{"gain too high", func(c *Config) { c.Tone.Gain = 1.5 }, false},
		{"no player", func(c *Config) { c.Player = Command{} }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
