package sound

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/reveille/internal/clock"
)

// DefaultClipGap is the pause between two plays of a looping clip.
const DefaultClipGap = 250 * time.Millisecond

// ClipSource loops a recorded clip until stopped. A playback error ends the
// loop; the alarm keeps ringing silently until it is resolved.
type ClipSource struct {
	sink   Sink
	clock  clock.Clock
	clip   []byte
	gap    time.Duration
	logger *slog.Logger

	mu      sync.Mutex
	started bool
	stopped bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

var _ Source = (*ClipSource)(nil)

// NewClipSource creates a ClipSource for clip.
func NewClipSource(sink Sink, clk clock.Clock, clip []byte, gap time.Duration, logger *slog.Logger) *ClipSource {
	if gap <= 0 {
		gap = DefaultClipGap
	}
	return &ClipSource{
		sink:   sink,
		clock:  clk,
		clip:   clip,
		gap:    gap,
		logger: logger,
	}
}

func (s *ClipSource) Kind() Kind { return KindClip }

func (s *ClipSource) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started || s.stopped {
		return nil
	}
	s.started = true

	var ctx context.Context
	ctx, s.cancel = context.WithCancel(context.Background())
	s.wg.Add(1)
	go s.loop(ctx)
	return nil
}

func (s *ClipSource) loop(ctx context.Context) {
	defer s.wg.Done()
	for {
		if err := s.sink.Play(ctx, s.clip); err != nil {
			if ctx.Err() == nil {
				s.logger.Warn("clip playback failed, stopping loop", "error", err)
			}
			return
		}
		if !s.pause(ctx) {
			return
		}
	}
}

// pause waits for the loop gap. It returns false if ctx ended first.
func (s *ClipSource) pause(ctx context.Context) bool {
	wake := make(chan struct{})
	t := s.clock.AfterFunc(s.gap, func() { close(wake) })
	select {
	case <-ctx.Done():
		t.Stop()
		return false
	case <-wake:
		return true
	}
}

func (s *ClipSource) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	s.wg.Wait()
}
