package sound

import (
	"context"
	"log/slog"
	"time"

	"github.com/roach88/reveille/internal/alarm"
	"github.com/roach88/reveille/internal/clock"
)

// Resolver picks the Source for a ringing alarm.
type Resolver struct {
	sink    Sink
	clock   clock.Clock
	tone    ToneConfig
	beep    []byte
	clipGap time.Duration
	logger  *slog.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithTone overrides the fallback tone. Zero fields keep their defaults.
func WithTone(cfg ToneConfig) ResolverOption {
	return func(r *Resolver) { r.tone = cfg.withDefaults() }
}

// WithClipGap sets the pause between plays of a looping clip.
func WithClipGap(d time.Duration) ResolverOption {
	return func(r *Resolver) { r.clipGap = d }
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) ResolverOption {
	return func(r *Resolver) { r.logger = l }
}

// NewResolver creates a Resolver writing to sink and timing with clk.
// The fallback beep is synthesized once here.
func NewResolver(sink Sink, clk clock.Clock, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		sink:    sink,
		clock:   clk,
		tone:    DefaultToneConfig(),
		clipGap: DefaultClipGap,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.beep = EncodeWAV(SquareWave(r.tone), r.tone.SampleRate)
	return r
}

// Resolve returns a ClipSource when a has a recorded clip and a ToneSource
// otherwise. The returned Source is not started.
func (r *Resolver) Resolve(a alarm.Alarm) Source {
	if a.HasClip() {
		return NewClipSource(r.sink, r.clock, a.SoundClip, r.clipGap, r.logger)
	}
	return NewToneSource(r.sink, r.clock, r.beep, r.tone, r.logger)
}

// Preview plays clip once, blocking until done or ctx ends.
func (r *Resolver) Preview(ctx context.Context, clip []byte) error {
	if len(clip) == 0 {
		return alarm.NewValidationError("no recorded clip to play")
	}
	return r.sink.Play(ctx, clip)
}
