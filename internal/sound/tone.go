package sound

import (
	"context"
	"log/slog"
	"sync"

	"github.com/roach88/reveille/internal/clock"
)

// ToneSource beeps immediately on Start and then once per interval until
// stopped. The repetition is a chain of clock timers, each scheduling the
// next, and the chain is cut under the same lock that Stop takes.
type ToneSource struct {
	sink   Sink
	clock  clock.Clock
	beep   []byte
	cfg    ToneConfig
	logger *slog.Logger

	mu      sync.Mutex
	started bool
	stopped bool
	timer   clock.Timer
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

var _ Source = (*ToneSource)(nil)

// NewToneSource creates a ToneSource playing beep (a WAV) through sink.
func NewToneSource(sink Sink, clk clock.Clock, beep []byte, cfg ToneConfig, logger *slog.Logger) *ToneSource {
	return &ToneSource{
		sink:   sink,
		clock:  clk,
		beep:   beep,
		cfg:    cfg.withDefaults(),
		logger: logger,
	}
}

func (s *ToneSource) Kind() Kind { return KindTone }

func (s *ToneSource) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started || s.stopped {
		return nil
	}
	s.started = true
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.beatLocked()
	return nil
}

// beat fires from the clock timer.
func (s *ToneSource) beat() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.beatLocked()
}

// beatLocked plays one beep and schedules the next. Caller must hold mu.
func (s *ToneSource) beatLocked() {
	s.wg.Add(1)
	go func(ctx context.Context) {
		defer s.wg.Done()
		if err := s.sink.Play(ctx, s.beep); err != nil && ctx.Err() == nil {
			s.logger.Warn("fallback tone playback failed", "error", err)
		}
	}(s.ctx)
	s.timer = s.clock.AfterFunc(s.cfg.Interval, s.beat)
}

func (s *ToneSource) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	s.wg.Wait()
}
