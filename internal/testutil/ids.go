package testutil

import (
	"fmt"
	"sync"
)

// SequenceIDGenerator generates predictable record IDs.
//
// This enables deterministic test execution and golden snapshot comparison:
// the same scenario produces byte-identical acceptance IDs on every run.
//
// Thread-safety: SequenceIDGenerator is safe for concurrent use via internal mutex.
type SequenceIDGenerator struct {
	mu     sync.Mutex
	prefix string
	seq    int
}

// NewSequenceIDGenerator creates a generator producing "<prefix>-0001",
// "<prefix>-0002", and so on.
//
// If prefix is empty, "test-id" is used.
func NewSequenceIDGenerator(prefix string) *SequenceIDGenerator {
	if prefix == "" {
		prefix = "test-id"
	}
	return &SequenceIDGenerator{prefix: prefix}
}

// Generate returns the next ID in the sequence.
func (g *SequenceIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return fmt.Sprintf("%s-%04d", g.prefix, g.seq)
}

// Reset restarts the sequence at 1.
func (g *SequenceIDGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq = 0
}
