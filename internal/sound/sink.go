package sound

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
)

// Sink plays audio bytes.
type Sink interface {
	// Play plays data once. It returns when playback finishes or ctx is done.
	Play(ctx context.Context, data []byte) error
}

// Discard is a Sink that logs and drops audio.
type Discard struct {
	Logger *slog.Logger
}

var _ Sink = Discard{}

// Play logs the request and returns immediately.
func (d Discard) Play(ctx context.Context, data []byte) error {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("discarding audio", "bytes", len(data))
	return ctx.Err()
}

// Command is a Sink that pipes audio into an external player process, for
// example "aplay -q -" or "paplay". The process is killed when ctx is done.
type Command struct {
	Name string
	Args []string
}

var _ Sink = Command{}

// Play runs the player with data on stdin.
func (c Command) Play(ctx context.Context, data []byte) error {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Stdin = bytes.NewReader(data)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("player %s: %w: %s", c.Name, err, bytes.TrimSpace(stderr.Bytes()))
	}
	return nil
}
