package testutil

import (
	"context"
	"sync"

	"github.com/roach88/reveille/internal/alarm"
)

// MemoryPersister keeps the last saved snapshot in memory.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type MemoryPersister struct {
	mu      sync.Mutex
	records []alarm.Record
	saves   int
	saveErr error
	loadErr error
}

var _ alarm.Persister = (*MemoryPersister)(nil)

// NewMemoryPersister creates an empty persister.
func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{}
}

func (p *MemoryPersister) Save(_ context.Context, records []alarm.Record) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saves++
	if p.saveErr != nil {
		return p.saveErr
	}
	p.records = append([]alarm.Record(nil), records...)
	return nil
}

func (p *MemoryPersister) Load(_ context.Context) ([]alarm.Record, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loadErr != nil {
		return nil, p.loadErr
	}
	return append([]alarm.Record(nil), p.records...), nil
}

// FailSaves makes every following Save return err. A nil err restores
// normal behavior.
func (p *MemoryPersister) FailSaves(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saveErr = err
}

// FailLoads makes every following Load return err.
func (p *MemoryPersister) FailLoads(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loadErr = err
}

// Saves returns how many times Save was called.
func (p *MemoryPersister) Saves() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.saves
}

// Records returns the last successfully saved snapshot.
func (p *MemoryPersister) Records() []alarm.Record {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]alarm.Record(nil), p.records...)
}
