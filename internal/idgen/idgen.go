package idgen

import (
	"sync"

	"github.com/google/uuid"
)

// New returns a new globally unique identifier as string. It is implemented
// as a thin wrapper so tests can stub it.

var NewFunc = func() string { return uuid.New().String() }

func New() string { return NewFunc() }

// Sequence hands out increasing integer identifiers starting at 1.
type Sequence struct {
	mu   sync.Mutex
	next int
}

// NewSequence creates a sequence whose first value is 1.
func NewSequence() *Sequence {
	return &Sequence{next: 1}
}

// Next returns the next identifier.
func (s *Sequence) Next() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.next == 0 {
		s.next = 1
	}
	id := s.next
	s.next++
	return id
}
