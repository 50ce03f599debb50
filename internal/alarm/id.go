package alarm

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// IDGenerator produces unique alarm ids.
// Implemented by UUIDv7Generator (production) and FixedGenerator (tests).
type IDGenerator interface {
	Generate() ID
}

// UUIDv7Generator generates time-sortable UUIDv7 ids, so ids created later
// sort after ids created earlier.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7.
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() ID {
	return ID(uuid.Must(uuid.NewV7()).String())
}

// FixedGenerator returns predetermined ids for testing, then falls back to
// "alarm-N" once the list is exhausted.
//
// Thread-safety: FixedGenerator is safe for concurrent use via internal mutex.
type FixedGenerator struct {
	mu  sync.Mutex
	ids []ID
	idx int
}

// NewFixedGenerator creates a generator that returns ids in order.
func NewFixedGenerator(ids ...ID) *FixedGenerator {
	return &FixedGenerator{ids: ids}
}

// Generate returns the next predetermined id.
func (g *FixedGenerator) Generate() ID {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.idx++
	if g.idx <= len(g.ids) {
		return g.ids[g.idx-1]
	}
	return ID(fmt.Sprintf("alarm-%d", g.idx))
}
