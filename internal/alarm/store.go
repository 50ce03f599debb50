package alarm

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// NewAlarm holds the user input for Store.Create.
type NewAlarm struct {
	Label     string
	Time      string // "HH:MM", required
	Duration  time.Duration
	SoundClip []byte
}

// Patch describes an Update. Nil fields are left unchanged.
type Patch struct {
	Label     *string
	Time      *TimeOfDay
	Duration  *time.Duration
	SoundClip []byte // non-nil replaces the clip
}

// Store owns the ordered alarm collection.
//
// Thread-safety: all methods are safe for concurrent use. The mutex is held
// across a mutation and its snapshot save, so a Save never observes a
// half-applied change and two saves never race.
type Store struct {
	mu        sync.Mutex
	alarms    []Alarm
	persister Persister
	dirty     bool // last save failed; memory is ahead of the persister
	ids       IDGenerator
	now       func() time.Time
	logger    *slog.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithIDGenerator sets the id generator. Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) StoreOption {
	return func(s *Store) { s.ids = g }
}

// WithNow sets the function used to stamp CreatedAt. Default: time.Now.
func WithNow(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) StoreOption {
	return func(s *Store) { s.logger = l }
}

// NewStore creates an empty Store backed by p. A nil Persister keeps the
// collection in memory only.
func NewStore(p Persister, opts ...StoreOption) *Store {
	s := &Store{
		persister: p,
		ids:       UUIDv7Generator{},
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the collection with the persisted snapshot.
// Triggered is false for every loaded alarm. Records that fail to decode are
// logged and skipped. If the persister fails, the collection is left as it
// was.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.persister == nil {
		s.alarms = nil
		return nil
	}
	alarms, err := s.read(ctx)
	if err != nil {
		return err
	}
	s.alarms = alarms
	s.dirty = false

	s.logger.Debug("alarms loaded", "count", len(alarms))
	return nil
}

// Refresh merges the persisted snapshot into the collection, picking up
// changes written by other processes. Triggered flags survive for alarms
// still present. Refresh does nothing while an unsaved mutation is pending,
// and keeps the collection unchanged if the persister fails.
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshLocked(ctx)
}

// refreshLocked is Refresh with mu held.
func (s *Store) refreshLocked(ctx context.Context) error {
	if s.persister == nil || s.dirty {
		return nil
	}
	alarms, err := s.read(ctx)
	if err != nil {
		return err
	}
	for i := range alarms {
		if j := s.index(alarms[i].ID); j >= 0 {
			alarms[i].Triggered = s.alarms[j].Triggered
		}
	}
	s.alarms = alarms
	return nil
}

// read decodes the persisted snapshot. Caller must hold mu.
func (s *Store) read(ctx context.Context) ([]Alarm, error) {
	records, err := s.persister.Load(ctx)
	if err != nil {
		s.logger.Error("alarm snapshot load failed", "error", err)
		return nil, NewPersistenceError("load", err)
	}

	alarms := make([]Alarm, 0, len(records))
	for _, r := range records {
		a, err := FromRecord(r)
		if err != nil {
			s.logger.Warn("skipping unreadable alarm record", "id", r.ID, "error", err)
			continue
		}
		alarms = append(alarms, a)
	}
	return alarms, nil
}

// sync refreshes before a mutation so the snapshot about to be saved does not
// drop another writer's changes. A failed read is logged and the mutation
// goes ahead on the in-memory collection. Caller must hold mu.
func (s *Store) sync(ctx context.Context) {
	if err := s.refreshLocked(ctx); err != nil {
		s.logger.Warn("mutating without refresh", "error", err)
	}
}

// Create validates input, appends a new alarm and saves the snapshot.
//
// A missing or malformed time is rejected with a validation error before any
// mutation. A non-positive duration becomes DefaultDuration and a blank label
// becomes DefaultLabel.
//
// If only the save fails, the alarm is kept and returned together with a
// persistence error.
func (s *Store) Create(ctx context.Context, in NewAlarm) (Alarm, error) {
	tod, err := ParseTimeOfDay(in.Time)
	if err != nil {
		return Alarm{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sync(ctx)

	a := Alarm{
		ID:        s.ids.Generate(),
		Label:     NormalizeLabel(in.Label),
		Time:      tod,
		Duration:  NormalizeDuration(in.Duration),
		CreatedAt: s.now(),
	}
	if len(in.SoundClip) > 0 {
		a.SoundClip = append([]byte(nil), in.SoundClip...)
	}
	s.alarms = append(s.alarms, a)

	s.logger.Info("alarm created", "id", a.ID, "time", a.Time, "duration", a.Duration, "clip", a.HasClip())
	return a.clone(), s.save(ctx)
}

// Update applies p to the alarm with the given id and saves the snapshot.
func (s *Store) Update(ctx context.Context, id ID, p Patch) (Alarm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sync(ctx)

	i := s.index(id)
	if i < 0 {
		return Alarm{}, NewNotFoundError(id)
	}

	a := &s.alarms[i]
	if p.Label != nil {
		a.Label = NormalizeLabel(*p.Label)
	}
	if p.Time != nil {
		a.Time = *p.Time
	}
	if p.Duration != nil {
		a.Duration = NormalizeDuration(*p.Duration)
	}
	if p.SoundClip != nil {
		a.SoundClip = append([]byte(nil), p.SoundClip...)
	}

	s.logger.Info("alarm updated", "id", id, "time", a.Time, "label", a.Label)
	return a.clone(), s.save(ctx)
}

// Delete removes the alarm with the given id and saves the snapshot.
// Deleting an unknown id is a no-op.
func (s *Store) Delete(ctx context.Context, id ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sync(ctx)

	i := s.index(id)
	if i < 0 {
		return nil
	}
	s.alarms = append(s.alarms[:i], s.alarms[i+1:]...)

	s.logger.Info("alarm deleted", "id", id)
	return s.save(ctx)
}

// SetTriggered marks or clears the transient ringing flag. It does not save:
// Triggered is never persisted.
func (s *Store) SetTriggered(id ID, triggered bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return NewNotFoundError(id)
	}
	s.alarms[i].Triggered = triggered
	return nil
}

// List returns copies of all alarms in insertion order.
func (s *Store) List() []Alarm {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Alarm, len(s.alarms))
	for i, a := range s.alarms {
		out[i] = a.clone()
	}
	return out
}

// Get returns a copy of the alarm with the given id.
func (s *Store) Get(id ID) (Alarm, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return Alarm{}, false
	}
	return s.alarms[i].clone(), true
}

// index returns the position of id, or -1. Caller must hold mu.
func (s *Store) index(id ID) int {
	for i := range s.alarms {
		if s.alarms[i].ID == id {
			return i
		}
	}
	return -1
}

// save writes the full snapshot. Caller must hold mu.
func (s *Store) save(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	records := make([]Record, len(s.alarms))
	for i, a := range s.alarms {
		records[i] = ToRecord(a)
	}
	if err := s.persister.Save(ctx, records); err != nil {
		s.logger.Error("alarm snapshot save failed", "count", len(records), "error", err)
		s.dirty = true
		return NewPersistenceError("save", err)
	}
	s.dirty = false
	return nil
}
