package testutil

import (
	"context"
	"sync"

	"github.com/roach88/reveille/internal/alarm"
	"github.com/roach88/reveille/internal/capture"
)

// FakeCapturer hands out captures that return Clip when stopped.
// Setting Deny makes Start fail with a permission error.
type FakeCapturer struct {
	mu     sync.Mutex
	Clip   []byte
	Deny   bool
	starts int
	stops  int
}

var _ capture.Capturer = (*FakeCapturer)(nil)

func (c *FakeCapturer) Start(_ context.Context) (capture.Handle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Deny {
		return nil, alarm.NewPermissionError(nil)
	}
	c.starts++
	return &fakeHandle{capturer: c, clip: append([]byte(nil), c.Clip...)}, nil
}

// Starts returns how many captures were started.
func (c *FakeCapturer) Starts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.starts
}

// Stops returns how many captures were stopped.
func (c *FakeCapturer) Stops() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stops
}

type fakeHandle struct {
	capturer *FakeCapturer
	clip     []byte
}

func (h *fakeHandle) Stop() ([]byte, error) {
	h.capturer.mu.Lock()
	h.capturer.stops++
	h.capturer.mu.Unlock()
	return h.clip, nil
}
