package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/reveille/internal/alarm"
	"github.com/roach88/reveille/internal/clock"
	"github.com/roach88/reveille/internal/metrics"
	"github.com/roach88/reveille/internal/sound"
)

// DefaultSnoozeInterval is how far a snooze moves an alarm.
const DefaultSnoozeInterval = 5 * time.Minute

// SoundResolver picks the sound source for a ringing alarm.
// Implemented by *sound.Resolver.
type SoundResolver interface {
	Resolve(a alarm.Alarm) sound.Source
}

// Engine owns the ringing session.
type Engine struct {
	store    *alarm.Store
	resolver SoundResolver
	clock    clock.Clock
	display  Display
	metrics  *metrics.Metrics
	logger   *slog.Logger
	snooze   time.Duration
	commands *commandQueue

	mu      sync.Mutex
	session *Session
	queue   []alarm.ID
	fired   map[alarm.ID]time.Time // minute each alarm last started ringing
	gen     uint64
}

// Option configures an Engine.
type Option func(*Engine)

// WithDisplay sets the display collaborator. Default: a no-op display.
func WithDisplay(d Display) Option {
	return func(e *Engine) { e.display = d }
}

// WithMetrics sets the metrics collectors. Default: none.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithSnoozeInterval overrides DefaultSnoozeInterval. Values under a minute
// are ignored: alarm times have minute resolution.
func WithSnoozeInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d >= time.Minute {
			e.snooze = d
		}
	}
}

// New creates an idle Engine.
func New(store *alarm.Store, resolver SoundResolver, clk clock.Clock, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		resolver: resolver,
		clock:    clk,
		display:  nopDisplay{},
		logger:   slog.Default(),
		snooze:   DefaultSnoozeInterval,
		commands: newCommandQueue(),
		fired:    make(map[alarm.ID]time.Time),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Tick compares now against the store and starts or queues matching alarms.
func (e *Engine) Tick(ctx context.Context, now time.Time) error {
	alarms := e.store.List()
	minute := now.Truncate(time.Minute)

	e.mu.Lock()
	e.pruneFiredLocked(alarms)
	for _, id := range alarm.Match(now, alarms) {
		if e.isActiveLocked(id) || e.fired[id].Equal(minute) {
			continue
		}
		e.logger.Debug("alarm matched", "id", id, "now", now.Format(time.TimeOnly))
		e.queue = append(e.queue, id)
	}

	var notes []notice
	if e.session == nil {
		notes = e.advanceLocked(now)
	}
	e.metrics.SetQueued(len(e.queue))
	e.mu.Unlock()

	e.deliver(notes)
	return ctx.Err()
}

// Dismiss resolves the ringing session. It does nothing when idle.
func (e *Engine) Dismiss(ctx context.Context) error {
	e.mu.Lock()
	if e.session == nil {
		e.mu.Unlock()
		e.logger.Debug("dismiss while idle")
		return nil
	}

	now := e.clock.Now()
	res := e.resolveLocked(ReasonDismiss, now)
	notes := append([]notice{{resolved: &res}}, e.advanceLocked(now)...)
	e.mu.Unlock()

	e.deliver(notes)
	return nil
}

// Snooze resolves the ringing session and moves its alarm forward by the
// snooze interval. It does nothing when idle.
//
// If the alarm was deleted while ringing, here or by another process sharing
// the database, only the session is resolved. A persistence error is returned
// after the session has been resolved and the new time applied in memory.
func (e *Engine) Snooze(ctx context.Context) error {
	e.mu.Lock()
	if e.session == nil {
		e.mu.Unlock()
		e.logger.Debug("snooze while idle")
		return nil
	}

	now := e.clock.Now()
	id := e.session.Alarm.ID
	base := e.session.Alarm.Time
	res := e.resolveLocked(ReasonSnooze, now)

	var err error
	if current, ok := e.store.Get(id); ok {
		base = current.Time
		next := base.Add(e.snooze)
		_, err = e.store.Update(ctx, id, alarm.Patch{Time: &next})
		switch {
		case alarm.IsNotFound(err):
			// Deleted by another writer; the update's refresh dropped it.
			e.logger.Info("snoozed alarm no longer exists, not rescheduling", "id", id)
			err = nil
		case err == nil || alarm.IsPersistence(err):
			res.Rescheduled = &next
			e.logger.Info("alarm snoozed", "id", id, "from", base, "to", next)
		}
		if err != nil {
			err = fmt.Errorf("snooze %s: %w", id, err)
		}
	} else {
		e.logger.Info("snoozed alarm no longer exists, not rescheduling", "id", id)
	}

	notes := append([]notice{{resolved: &res}}, e.advanceLocked(now)...)
	e.mu.Unlock()

	e.deliver(notes)
	return err
}

// Close resolves any ringing session with ReasonShutdown and drops the
// queue. The engine can be ticked again afterwards.
func (e *Engine) Close() {
	e.mu.Lock()
	var notes []notice
	if e.session != nil {
		res := e.resolveLocked(ReasonShutdown, e.clock.Now())
		notes = append(notes, notice{resolved: &res})
	}
	e.queue = nil
	e.metrics.SetQueued(0)
	e.mu.Unlock()

	e.deliver(notes)
}

// Ringing returns the view of the active session.
func (e *Engine) Ringing() (View, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return View{}, false
	}
	return e.session.View(), true
}

// Queued returns the ids waiting for the active session to resolve.
func (e *Engine) Queued() []alarm.ID {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]alarm.ID(nil), e.queue...)
}

// autoStop is the deadline callback for session generation gen.
func (e *Engine) autoStop(gen uint64) {
	e.mu.Lock()
	if e.session == nil || e.session.gen != gen {
		e.mu.Unlock()
		return
	}

	now := e.clock.Now()
	res := e.resolveLocked(ReasonAutoStop, now)
	notes := append([]notice{{resolved: &res}}, e.advanceLocked(now)...)
	e.mu.Unlock()

	e.deliver(notes)
}

// advanceLocked starts the next queued alarm that still exists.
// Caller must hold mu and the engine must be idle.
func (e *Engine) advanceLocked(now time.Time) []notice {
	for len(e.queue) > 0 {
		id := e.queue[0]
		e.queue = e.queue[1:]

		a, ok := e.store.Get(id)
		if !ok {
			e.logger.Debug("queued alarm deleted before ringing", "id", id)
			continue
		}
		if err := e.store.SetTriggered(id, true); err != nil {
			e.logger.Debug("queued alarm deleted before ringing", "id", id)
			continue
		}
		a.Triggered = true

		view := e.startLocked(a, now)
		e.metrics.SetQueued(len(e.queue))
		return []notice{{ringing: &view}}
	}
	e.metrics.SetQueued(0)
	return nil
}

// startLocked enters Ringing for a. Caller must hold mu.
func (e *Engine) startLocked(a alarm.Alarm, now time.Time) View {
	src := e.resolver.Resolve(a)
	if err := src.Start(); err != nil {
		// The session still rings (and times out) without sound.
		e.logger.Warn("sound source failed to start", "id", a.ID, "sound", src.Kind(), "error", err)
	}

	e.gen++
	gen := e.gen
	e.session = &Session{
		Alarm:     a,
		StartedAt: now,
		Deadline:  now.Add(a.Duration),
		source:    src,
		timer:     e.clock.AfterFunc(a.Duration, func() { e.autoStop(gen) }),
		gen:       gen,
	}
	e.fired[a.ID] = now.Truncate(time.Minute)

	e.metrics.Rang(string(src.Kind()))
	e.logger.Info("alarm ringing",
		"id", a.ID,
		"label", a.Label,
		"time", a.Time,
		"sound", src.Kind(),
		"duration", a.Duration,
	)
	return e.session.View()
}

// resolveLocked leaves Ringing. Caller must hold mu and session must be set.
func (e *Engine) resolveLocked(reason Reason, now time.Time) Resolution {
	s := e.session
	e.session = nil

	s.timer.Stop()
	s.source.Stop()
	if err := e.store.SetTriggered(s.Alarm.ID, false); err != nil {
		e.logger.Debug("ringing alarm no longer in store", "id", s.Alarm.ID)
	}

	e.metrics.Resolved(string(reason))
	e.logger.Info("alarm stopped", "id", s.Alarm.ID, "reason", reason, "rang_for", now.Sub(s.StartedAt))
	return Resolution{View: s.View(), Reason: reason, At: now}
}

// isActiveLocked reports whether id is ringing or queued. Caller must hold mu.
func (e *Engine) isActiveLocked(id alarm.ID) bool {
	if e.session != nil && e.session.Alarm.ID == id {
		return true
	}
	for _, q := range e.queue {
		if q == id {
			return true
		}
	}
	return false
}

// pruneFiredLocked forgets alarms that left the store. Caller must hold mu.
func (e *Engine) pruneFiredLocked(alarms []alarm.Alarm) {
	if len(e.fired) <= len(alarms) {
		return
	}
	present := make(map[alarm.ID]struct{}, len(alarms))
	for _, a := range alarms {
		present[a.ID] = struct{}{}
	}
	for id := range e.fired {
		if _, ok := present[id]; !ok {
			delete(e.fired, id)
		}
	}
}

// deliver forwards notices to the display. Must be called without mu.
func (e *Engine) deliver(notes []notice) {
	for _, n := range notes {
		switch {
		case n.ringing != nil:
			e.display.Ringing(*n.ringing)
		case n.resolved != nil:
			e.display.Resolved(*n.resolved)
		}
	}
}

// Submit queues a command for the Run loop.
// Thread-safe: may be called from any goroutine.
//
// Returns false if the engine has been stopped.
func (e *Engine) Submit(c Command) bool {
	return e.commands.Enqueue(c)
}

// Run drives the engine from ticks and submitted commands until ctx is done
// or ticks is closed.
//
// CRITICAL: Must be called from exactly ONE goroutine.
//
// ERROR HANDLING: a failing tick or command is logged and the loop continues.
// In-memory state stays authoritative when persistence fails.
func (e *Engine) Run(ctx context.Context, ticks <-chan time.Time) error {
	e.logger.Info("engine starting")
	defer e.Close()

	for {
		// Drain commands before waiting so user actions are not starved by ticks.
		if cmd, ok := e.commands.TryDequeue(); ok {
			if err := e.execute(ctx, cmd); err != nil {
				e.logger.Error("command failed", "command", cmd.Type, "error", err)
			}
			continue
		}

		select {
		case <-ctx.Done():
			e.logger.Info("engine stopping: context cancelled")
			e.commands.Close()
			return ctx.Err()

		case now, ok := <-ticks:
			if !ok {
				e.logger.Info("engine stopping: tick source closed")
				e.commands.Close()
				return nil
			}
			if err := e.Tick(ctx, now); err != nil && ctx.Err() == nil {
				e.logger.Error("tick failed", "now", now, "error", err)
			}

		case _, open := <-e.commands.Wait():
			if !open && e.commands.Len() == 0 {
				e.logger.Info("engine stopping: command queue closed")
				return nil
			}
			// Signal consumed; loop back to TryDequeue.
		}
	}
}

// Stop closes the command queue. Run returns after draining it.
func (e *Engine) Stop() {
	e.commands.Close()
}

func (e *Engine) execute(ctx context.Context, cmd Command) error {
	switch cmd.Type {
	case CommandDismiss:
		return e.Dismiss(ctx)
	case CommandSnooze:
		return e.Snooze(ctx)
	default:
		return fmt.Errorf("unknown command type: %d", cmd.Type)
	}
}
