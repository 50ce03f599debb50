// Package capture coordinates microphone recordings with the alarm store.
//
// A recording either becomes a draft (PendingRecording without a target),
// consumed by the next alarm created, or replaces the clip of an existing
// alarm (re-recording).
package capture

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/reveille/internal/alarm"
)

// Handle is an in-progress capture.
type Handle interface {
	// Stop ends the capture and returns the recorded clip.
	Stop() ([]byte, error)
}

// Capturer starts captures. A denied device is reported as an
// alarm.ErrCodePermission error.
type Capturer interface {
	Start(ctx context.Context) (Handle, error)
}

// PendingRecording is a finished capture. An empty Target is a draft for
// the next alarm created.
type PendingRecording struct {
	Clip   []byte
	Target alarm.ID
}

// IsDraft reports whether the recording has no target alarm.
func (p PendingRecording) IsDraft() bool {
	return p.Target == ""
}

type recording struct {
	handle Handle
	target alarm.ID
}

// Coordinator owns the single active capture and the single pending draft.
//
// Thread-safety: all methods are safe for concurrent use.
type Coordinator struct {
	capturer Capturer
	store    *alarm.Store
	logger   *slog.Logger

	mu      sync.Mutex
	active  *recording
	pending *PendingRecording
}

// NewCoordinator creates a Coordinator. A nil logger means slog.Default().
func NewCoordinator(c Capturer, store *alarm.Store, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{capturer: c, store: store, logger: logger}
}

// StartDraft begins a capture whose clip becomes the pending draft.
func (c *Coordinator) StartDraft(ctx context.Context) error {
	return c.start(ctx, "")
}

// StartForAlarm begins a capture whose clip replaces id's clip.
func (c *Coordinator) StartForAlarm(ctx context.Context, id alarm.ID) error {
	if _, ok := c.store.Get(id); !ok {
		return alarm.NewNotFoundError(id)
	}
	return c.start(ctx, id)
}

func (c *Coordinator) start(ctx context.Context, target alarm.ID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active != nil {
		return alarm.NewValidationError("a recording is already in progress")
	}

	h, err := c.capturer.Start(ctx)
	if err != nil {
		if alarm.IsPermission(err) {
			c.logger.Warn("microphone access denied", "target", target, "error", err)
			return err
		}
		return fmt.Errorf("start capture: %w", err)
	}

	c.active = &recording{handle: h, target: target}
	c.logger.Info("recording started", "target", target)
	return nil
}

// Recording reports whether a capture is in progress and for which alarm.
func (c *Coordinator) Recording() (alarm.ID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return "", false
	}
	return c.active.target, true
}

// Stop ends the active capture and attaches the clip.
//
// A draft replaces any previous draft. A targeted clip is written to the
// alarm and saved; if the alarm was deleted while recording, the clip is
// kept as a draft instead. A persistence error is returned with the clip
// already attached in memory.
func (c *Coordinator) Stop(ctx context.Context) (PendingRecording, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec := c.active
	if rec == nil {
		return PendingRecording{}, alarm.NewValidationError("no recording in progress")
	}
	c.active = nil

	clip, err := rec.handle.Stop()
	if err != nil {
		return PendingRecording{}, fmt.Errorf("stop capture: %w", err)
	}

	p := PendingRecording{Clip: clip, Target: rec.target}
	if p.IsDraft() {
		c.pending = &p
		c.logger.Info("recording saved as draft", "bytes", len(clip))
		return p, nil
	}

	_, err = c.store.Update(ctx, rec.target, alarm.Patch{SoundClip: clip})
	switch {
	case alarm.IsNotFound(err):
		c.logger.Warn("alarm deleted while recording, keeping clip as draft", "id", rec.target)
		p.Target = ""
		c.pending = &p
		return p, nil
	case err != nil:
		return p, err
	}

	c.logger.Info("recording attached", "id", rec.target, "bytes", len(clip))
	return p, nil
}

// Cancel aborts the active capture without attaching anything.
func (c *Coordinator) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active == nil {
		return
	}
	if _, err := c.active.handle.Stop(); err != nil {
		c.logger.Warn("stopping cancelled capture failed", "error", err)
	}
	c.logger.Info("recording cancelled", "target", c.active.target)
	c.active = nil
}

// Pending returns the current draft, if any.
func (c *Coordinator) Pending() (PendingRecording, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return PendingRecording{}, false
	}
	return *c.pending, true
}

// TakeDraft returns the draft clip and clears it. It returns nil when no
// draft is pending.
func (c *Coordinator) TakeDraft() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return nil
	}
	clip := c.pending.Clip
	c.pending = nil
	return clip
}

// Discard drops the pending draft.
func (c *Coordinator) Discard() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = nil
}
