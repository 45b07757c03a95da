package testutil

import (
	"fmt"
	"sync"
)

// SequenceSeeds hands out ticket seeds "<prefix>-1", "<prefix>-2", ...
//
// Ticket addresses derived from them are stable across runs, which keeps
// golden traces byte-identical. Safe for concurrent use.
type SequenceSeeds struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequenceSeeds returns a generator with the given prefix. An empty
// prefix means "seed".
func NewSequenceSeeds(prefix string) *SequenceSeeds {
	if prefix == "" {
		prefix = "seed"
	}
	return &SequenceSeeds{prefix: prefix}
}

// Generate returns the next seed.
func (s *SequenceSeeds) Generate() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("%s-%d", s.prefix, s.n)
}
