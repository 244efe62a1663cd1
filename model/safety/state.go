// Package safety holds the Banker's-algorithm snapshot: what every process
// currently holds, what it may still ask for, and what is free.
package safety

import (
	"errors"
	"fmt"

	"github.com/viant/safealloc/model/resource"
)

// ErrInvalidInput is returned for ragged, mismatched or negative matrices.
var ErrInvalidInput = errors.New("invalid safety input")

// State is a snapshot of allocation, remaining need and available units.
// Need is the remaining demand of each process, not its total maximum.
type State struct {
	Allocation []resource.Vector `json:"allocation" yaml:"allocation"`
	Need       []resource.Vector `json:"need" yaml:"need"`
	Available  resource.Vector   `json:"available" yaml:"available"`
}

// Processes returns n, the number of process rows.
func (s *State) Processes() int {
	return len(s.Allocation)
}

// Resources returns m, the number of resource columns.
func (s *State) Resources() int {
	return len(s.Available)
}

// Validate checks shape consistency and non-negativity.
func (s *State) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: nil state", ErrInvalidInput)
	}
	n, m := len(s.Allocation), len(s.Available)
	if len(s.Need) != n {
		return fmt.Errorf("%w: allocation has %d rows, need has %d", ErrInvalidInput, n, len(s.Need))
	}
	if !s.Available.IsNonNegative() {
		return fmt.Errorf("%w: negative available units", ErrInvalidInput)
	}
	for p := 0; p < n; p++ {
		if len(s.Allocation[p]) != m || len(s.Need[p]) != m {
			return fmt.Errorf("%w: row P%d must have %d columns", ErrInvalidInput, p, m)
		}
		if !s.Allocation[p].IsNonNegative() || !s.Need[p].IsNonNegative() {
			return fmt.Errorf("%w: negative entry in row P%d", ErrInvalidInput, p)
		}
	}
	return nil
}

// Clone returns a deep copy.
func (s *State) Clone() *State {
	ret := &State{
		Allocation: make([]resource.Vector, len(s.Allocation)),
		Need:       make([]resource.Vector, len(s.Need)),
		Available:  s.Available.Clone(),
	}
	for i := range s.Allocation {
		ret.Allocation[i] = s.Allocation[i].Clone()
	}
	for i := range s.Need {
		ret.Need[i] = s.Need[i].Clone()
	}
	return ret
}

// Default returns the compiled-in dataset: five processes over three
// resource types.
func Default() *State {
	return &State{
		Available: resource.Vector{10, 5, 7},
		Allocation: []resource.Vector{
			{0, 1, 0},
			{2, 0, 0},
			{3, 0, 2},
			{2, 1, 1},
			{0, 0, 2},
		},
		Need: []resource.Vector{
			{7, 4, 3},
			{3, 2, 2},
			{9, 0, 0},
			{0, 1, 0},
			{4, 3, 3},
		},
	}
}
