package testutil

import (
	"context"
	"sync"
)

// RecordingSink records every Play call.
//
// When Block is set, Play waits until its context is done, like a player
// stuck on a long clip.
type RecordingSink struct {
	Block bool
	Err   error

	mu     sync.Mutex
	plays  [][]byte
	active int
}

// Play records data and returns Err.
func (s *RecordingSink) Play(ctx context.Context, data []byte) error {
	s.mu.Lock()
	s.plays = append(s.plays, data)
	s.active++
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.active--
		s.mu.Unlock()
	}()

	if s.Block {
		<-ctx.Done()
		return ctx.Err()
	}
	return s.Err
}

// Plays returns how many times Play was called.
func (s *RecordingSink) Plays() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.plays)
}

// Last returns the data of the most recent Play, or nil.
func (s *RecordingSink) Last() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.plays) == 0 {
		return nil
	}
	return s.plays[len(s.plays)-1]
}

// Active returns how many Play calls are still running.
func (s *RecordingSink) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}
