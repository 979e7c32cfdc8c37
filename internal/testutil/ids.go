package testutil

import (
	"fmt"
	"sync"
)

// SequenceGenerator generates film IDs "<prefix>-1", "<prefix>-2", ...
//
// It never runs out, which suits scenario runs whose number of nominations is
// not known up front. The same scenario with a fresh SequenceGenerator
// produces byte-identical state.
//
// Thread-safety: SequenceGenerator is safe for concurrent use via internal mutex.
type SequenceGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequenceGenerator creates a generator. An empty prefix becomes "film".
func NewSequenceGenerator(prefix string) *SequenceGenerator {
	if prefix == "" {
		prefix = "film"
	}
	return &SequenceGenerator{prefix: prefix}
}

// Generate returns the next ID.
//
// Implements engine.IDGenerator interface.
func (g *SequenceGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}
