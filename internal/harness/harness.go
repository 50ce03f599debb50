package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/reveille/internal/alarm"
	"github.com/roach88/reveille/internal/clock"
	"github.com/roach88/reveille/internal/engine"
	"github.com/roach88/reveille/internal/sound"
	"github.com/roach88/reveille/internal/store"
)

// scenarioDay is the first day of every scenario. Scenarios run in UTC so
// traces do not depend on the host's zone.
var scenarioDay = time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

// sampleClip stands in for a recorded clip.
var sampleClip = []byte("RIFF\x04\x00\x00\x00WAVE")

var errSaveRejected = errors.New("save rejected by scenario")

// flakyPersister lets a scenario switch saves off.
type flakyPersister struct {
	alarm.Persister

	mu   sync.Mutex
	fail bool
}

func (p *flakyPersister) setFail(fail bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fail = fail
}

func (p *flakyPersister) Save(ctx context.Context, records []alarm.Record) error {
	p.mu.Lock()
	fail := p.fail
	p.mu.Unlock()
	if fail {
		return errSaveRejected
	}
	return p.Persister.Save(ctx, records)
}

// Harness executes one scenario.
// It runs the real engine and store over an in-memory SQLite database, with a
// manual clock and fixed alarm ids ("alarm-1", "alarm-2", ...).
type Harness struct {
	persister *flakyPersister
	ids       alarm.IDGenerator
	clock     *clock.Manual
	resolver  *sound.Resolver
	snooze    time.Duration
	logger    *slog.Logger

	alarms *alarm.Store
	engine *engine.Engine

	mu     sync.Mutex
	result *Result
	done   bool
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Create fresh in-memory database
// 2. Start store and engine, create the scenario's alarms
// 3. Execute steps, recording engine and store events
// 4. Capture final state and evaluate assertions
func Run(scenario *Scenario) (*Result, error) {
	db, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer db.Close()

	start := scenarioDay
	if scenario.Start != "" {
		offset, err := parseClock(scenario.Start)
		if err != nil {
			return nil, err
		}
		start = start.Add(offset)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in scenarios
	clk := clock.NewManual(start)

	h := &Harness{
		persister: &flakyPersister{Persister: db},
		ids:       alarm.NewFixedGenerator(),
		clock:     clk,
		resolver:  sound.NewResolver(sound.Discard{Logger: logger}, clk, sound.WithLogger(logger)),
		snooze:    scenario.Snooze,
		logger:    logger,
		result:    NewResult(scenarioDay),
	}

	ctx := context.Background()
	if err := h.startEngine(ctx); err != nil {
		return nil, err
	}

	for i, a := range scenario.Alarms {
		if err := h.create(ctx, a); err != nil {
			return nil, fmt.Errorf("failed to create alarms[%d]: %w", i, err)
		}
	}

	for i, step := range scenario.Steps {
		h.execute(ctx, i, step)
	}

	result := h.finish()

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	return result, nil
}

// startEngine loads the store from the database and starts a fresh engine.
func (h *Harness) startEngine(ctx context.Context) error {
	h.alarms = alarm.NewStore(h.persister,
		alarm.WithIDGenerator(h.ids),
		alarm.WithNow(h.clock.Now),
		alarm.WithLogger(h.logger),
	)
	if err := h.alarms.Load(ctx); err != nil {
		return fmt.Errorf("failed to load alarms: %w", err)
	}

	opts := []engine.Option{
		engine.WithDisplay(h),
		engine.WithLogger(h.logger),
	}
	if h.snooze > 0 {
		opts = append(opts, engine.WithSnoozeInterval(h.snooze))
	}
	h.engine = engine.New(h.alarms, h.resolver, h.clock, opts...)
	return nil
}

// execute runs one step and checks its error against ExpectError.
func (h *Harness) execute(ctx context.Context, i int, step Step) {
	err := h.apply(ctx, step)

	if err != nil {
		code := alarm.CodeOf(err)
		h.record(TraceEvent{Type: EventError, Detail: fmt.Sprintf("step=%d code=%s", i, codeOrUnknown(code))})
		if step.ExpectError == "" {
			h.addError(fmt.Sprintf("steps[%d]: unexpected error: %v", i, err))
		} else if code != step.ExpectError {
			h.addError(fmt.Sprintf("steps[%d]: expected %s error, got %v", i, step.ExpectError, err))
		}
		return
	}

	if step.ExpectError != "" {
		h.addError(fmt.Sprintf("steps[%d]: expected %s error, got none", i, step.ExpectError))
	}
}

func (h *Harness) apply(ctx context.Context, step Step) error {
	name, _ := step.action()
	switch name {
	case "tick":
		target, err := h.next(step.Tick)
		if err != nil {
			return err
		}
		return h.tick(ctx, target)

	case "tick_until":
		target, err := h.next(step.TickUntil)
		if err != nil {
			return err
		}
		every := step.Every
		if every == 0 {
			every = time.Second
		}
		for t := h.clock.Now().Add(every); !t.After(target); t = t.Add(every) {
			if err := h.tick(ctx, t); err != nil {
				return err
			}
		}
		return nil

	case "advance":
		h.clock.Advance(step.Advance)
		return nil

	case "create":
		return h.create(ctx, *step.Create)

	case "update":
		return h.update(ctx, *step.Update)

	case "delete":
		if err := h.alarms.Delete(ctx, alarm.ID(step.Delete)); err != nil {
			return err
		}
		h.record(TraceEvent{Type: EventDeleted, ID: step.Delete})
		return nil

	case "dismiss":
		return h.engine.Dismiss(ctx)

	case "snooze":
		return h.engine.Snooze(ctx)

	case "reload":
		h.engine.Close()
		if err := h.startEngine(ctx); err != nil {
			return err
		}
		h.record(TraceEvent{Type: EventReloaded, Detail: fmt.Sprintf("alarms=%d", len(h.alarms.List()))})
		return nil

	case "fail_saves":
		h.persister.setFail(*step.FailSaves)
		return nil

	default:
		return fmt.Errorf("unknown step action %q", name)
	}
}

func (h *Harness) tick(ctx context.Context, at time.Time) error {
	h.clock.Set(at)
	return h.engine.Tick(ctx, h.clock.Now())
}

// next returns the first instant at or after the clock's current time whose
// wall clock reads hhmmss.
func (h *Harness) next(hhmmss string) (time.Time, error) {
	offset, err := parseClock(hhmmss)
	if err != nil {
		return time.Time{}, err
	}
	now := h.clock.Now()
	t := now.Truncate(24 * time.Hour).Add(offset)
	if t.Before(now) {
		t = t.Add(24 * time.Hour)
	}
	return t, nil
}

func (h *Harness) create(ctx context.Context, c CreateStep) error {
	in := alarm.NewAlarm{Label: c.Label, Time: c.Time, Duration: c.Duration}
	if c.Clip {
		in.SoundClip = sampleClip
	}
	a, err := h.alarms.Create(ctx, in)
	if a.ID != "" {
		h.record(TraceEvent{
			Type:   EventCreated,
			ID:     string(a.ID),
			Detail: fmt.Sprintf("time=%s duration=%s sound=%s label=%q", a.Time, a.Duration, soundOf(a), a.Label),
		})
	}
	return err
}

func (h *Harness) update(ctx context.Context, u UpdateStep) error {
	var p alarm.Patch
	p.Label = u.Label
	p.Duration = u.Duration
	if u.Time != "" {
		tod, err := alarm.ParseTimeOfDay(u.Time)
		if err != nil {
			return err
		}
		p.Time = &tod
	}

	a, err := h.alarms.Update(ctx, alarm.ID(u.ID), p)
	if a.ID != "" {
		h.record(TraceEvent{
			Type:   EventUpdated,
			ID:     string(a.ID),
			Detail: fmt.Sprintf("time=%s duration=%s label=%q", a.Time, a.Duration, a.Label),
		})
	}
	return err
}

// finish captures the final state and shuts the engine down.
func (h *Harness) finish() *Result {
	h.mu.Lock()
	result := h.result
	for _, a := range h.alarms.List() {
		result.Final = append(result.Final, AlarmState{
			ID:        string(a.ID),
			Label:     a.Label,
			Time:      a.Time.String(),
			Duration:  a.Duration,
			Sound:     string(soundOf(a)),
			Triggered: a.Triggered,
		})
	}
	if v, ok := h.engine.Ringing(); ok {
		result.Ringing = string(v.ID)
	}
	h.done = true
	h.mu.Unlock()

	h.engine.Close()
	return result
}

// Ringing implements engine.Display.
func (h *Harness) Ringing(v engine.View) {
	h.record(TraceEvent{
		Type:   EventRinging,
		ID:     string(v.ID),
		Detail: fmt.Sprintf("time=%s deadline=%s sound=%s", v.Time, h.result.stamp(v.Deadline), v.Sound),
	})
}

// Resolved implements engine.Display.
func (h *Harness) Resolved(r engine.Resolution) {
	e := TraceEvent{Type: EventResolved, ID: string(r.View.ID), Reason: string(r.Reason), At: r.At}
	if r.Rescheduled != nil {
		e.Detail = "rescheduled=" + r.Rescheduled.String()
	}
	h.record(e)
}

func (h *Harness) record(e TraceEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.done {
		return
	}
	if e.At.IsZero() {
		e.At = h.clock.Now()
	}
	h.result.record(e)
}

func (h *Harness) addError(msg string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.result.AddError(msg)
}

func soundOf(a alarm.Alarm) sound.Kind {
	if a.HasClip() {
		return sound.KindClip
	}
	return sound.KindTone
}

func codeOrUnknown(code alarm.ErrorCode) alarm.ErrorCode {
	if code == "" {
		return "UNKNOWN"
	}
	return code
}
