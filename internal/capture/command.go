package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/roach88/reveille/internal/alarm"
)

// stopGrace is how long a recorder gets to flush after SIGINT before it is
// killed.
const stopGrace = 2 * time.Second

// Command is a Capturer that runs an external recorder writing audio to
// stdout, for example "arecord -q -f cd -t wav -".
type Command struct {
	Name string
	Args []string
}

var _ Capturer = Command{}

// Start launches the recorder. The process outlives ctx; it ends on Stop.
func (c Command) Start(ctx context.Context) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cmd := exec.Command(c.Name, c.Args...)
	h := &commandHandle{cmd: cmd}
	cmd.Stdout = &h.out
	cmd.Stderr = &h.errOut

	if err := cmd.Start(); err != nil {
		if errors.Is(err, os.ErrPermission) {
			return nil, alarm.NewPermissionError(err)
		}
		return nil, fmt.Errorf("start recorder %s: %w", c.Name, err)
	}
	return h, nil
}

type commandHandle struct {
	cmd    *exec.Cmd
	out    bytes.Buffer
	errOut bytes.Buffer
	once   sync.Once
	clip   []byte
	err    error
}

// Stop interrupts the recorder, waits for it to exit and returns stdout.
func (h *commandHandle) Stop() ([]byte, error) {
	h.once.Do(func() {
		done := make(chan error, 1)
		_ = h.cmd.Process.Signal(os.Interrupt)
		go func() { done <- h.cmd.Wait() }()

		var err error
		select {
		case err = <-done:
		case <-time.After(stopGrace):
			_ = h.cmd.Process.Kill()
			err = <-done
		}

		// A recorder stopped by a signal exits non-zero; only an empty
		// recording is treated as a failure.
		var exitErr *exec.ExitError
		if err != nil && !errors.As(err, &exitErr) {
			h.err = fmt.Errorf("wait for recorder: %w", err)
			return
		}
		if h.out.Len() == 0 {
			h.err = fmt.Errorf("recorder produced no audio: %s", bytes.TrimSpace(h.errOut.Bytes()))
			if isPermissionMessage(h.errOut.String()) {
				h.err = alarm.NewPermissionError(h.err)
			}
			return
		}
		h.clip = append([]byte(nil), h.out.Bytes()...)
	})
	return h.clip, h.err
}

func isPermissionMessage(s string) bool {
	return strings.Contains(strings.ToLower(s), "permission denied")
}
