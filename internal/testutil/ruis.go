package testutil

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/mcwdsi/rt2n4j/internal/ir"
)

// Rui returns the n-th deterministic identifier:
// 00000000-0000-7000-8000-<n as 12 digits>.
//
// The value is a well-formed version 7 UUID, so it parses like any
// generated identifier and sorts by n.
func Rui(n int) ir.IDRui {
	return ir.IDRui{UUID: uuid.MustParse(fmt.Sprintf("00000000-0000-7000-8000-%012d", n))}
}

// RuiSequence hands out Rui(1), Rui(2), ... in order.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type RuiSequence struct {
	mu sync.Mutex
	n  int
}

// NewRuiSequence creates a sequence whose first identifier is Rui(1).
func NewRuiSequence() *RuiSequence {
	return &RuiSequence{}
}

// Next returns the next identifier.
func (s *RuiSequence) Next() ir.IDRui {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return Rui(s.n)
}

// Reset restarts the sequence at Rui(1).
func (s *RuiSequence) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n = 0
}
