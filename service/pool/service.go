// Package pool tracks available units per resource type and grants or
// releases them in fixed quanta. Grants are all-or-nothing across the
// requested set.
package pool

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/viant/safealloc/model/resource"
)

// Config represents pool configuration
type Config struct {
	// Capacity is the initial number of units per resource type.
	Capacity resource.Vector `json:"capacity" yaml:"capacity"`
	// Quantum is the number of units granted or released per type per call.
	Quantum int `json:"quantum" yaml:"quantum"`
	// CPUCeiling is the highest declared CPU usage (percent) accepted when
	// EnforceCeiling is set.
	CPUCeiling int `json:"cpuCeiling" yaml:"cpuCeiling"`
	// EnforceCeiling turns on the CPU-aware variant.
	EnforceCeiling bool `json:"enforceCeiling" yaml:"enforceCeiling"`
}

// DefaultConfig returns the default pool configuration
func DefaultConfig() Config {
	return Config{
		Capacity:   resource.NewVector(100),
		Quantum:    30,
		CPUCeiling: 70,
	}
}

// Validate returns an error describing invalid settings or nil.
func (c *Config) Validate() error {
	if len(c.Capacity) != resource.Count {
		return fmt.Errorf("pool.capacity must have %d entries, got %d", resource.Count, len(c.Capacity))
	}
	if !c.Capacity.IsNonNegative() {
		return fmt.Errorf("pool.capacity must be >= 0")
	}
	if c.Quantum <= 0 {
		return fmt.Errorf("pool.quantum must be > 0")
	}
	if c.CPUCeiling < 0 || c.CPUCeiling > 100 {
		return fmt.Errorf("pool.cpuCeiling must be within [0,100]")
	}
	return nil
}

// Service is the resource pool. It is safe for concurrent use.
type Service struct {
	config    Config
	capacity  resource.Vector
	available resource.Vector
	granted   resource.Vector
	mux       sync.Mutex
}

// New creates a pool with every type at its configured capacity.
func New(config Config) (*Service, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Service{
		config:    config,
		capacity:  config.Capacity.Clone(),
		available: config.Capacity.Clone(),
		granted:   make(resource.Vector, resource.Count),
	}, nil
}

// Config returns the pool configuration.
func (s *Service) Config() Config {
	return s.config
}

// CanAllocate runs the TryAllocate check without deducting anything.
func (s *Service) CanAllocate(set resource.Set, cpuUsage int) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	return s.check(set, cpuUsage)
}

// TryAllocate deducts one quantum from every type in set, or nothing at all
// when any type is short or the CPU ceiling is exceeded. A type listed more
// than once is charged once per occurrence.
func (s *Service) TryAllocate(set resource.Set, cpuUsage int) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	if err := s.check(set, cpuUsage); err != nil {
		return err
	}
	for t, quanta := range demand(set) {
		s.available[t] -= quanta * s.config.Quantum
		s.granted[t] += quanta
	}
	return nil
}

// Release credits one quantum back to every type in set. Every type must
// have an outstanding grant, otherwise nothing is credited.
func (s *Service) Release(set resource.Set) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	quantaByType := demand(set)
	for _, t := range set {
		if !t.Valid() {
			return fmt.Errorf("unknown resource type %v", t)
		}
		if s.granted[t] < quantaByType[t] {
			return fmt.Errorf("%w: %v", ErrUnbackedRelease, t)
		}
	}
	for t, quanta := range quantaByType {
		s.available[t] += quanta * s.config.Quantum
		s.granted[t] -= quanta
	}
	return nil
}

func (s *Service) check(set resource.Set, cpuUsage int) error {
	if s.config.EnforceCeiling && cpuUsage > s.config.CPUCeiling {
		return fmt.Errorf("%w: %d%% > %d%%", ErrCeilingExceeded, cpuUsage, s.config.CPUCeiling)
	}
	quantaByType := demand(set)
	for _, t := range set {
		if !t.Valid() {
			return fmt.Errorf("unknown resource type %v", t)
		}
		needed := quantaByType[t] * s.config.Quantum
		if s.available[t] < needed {
			return fmt.Errorf("%w: %v has %d, needs %d", ErrResourceExhausted, t, s.available[t], needed)
		}
	}
	return nil
}

// demand counts the quanta requested per type.
func demand(set resource.Set) map[resource.Type]int {
	ret := make(map[resource.Type]int, len(set))
	for _, t := range set {
		ret[t]++
	}
	return ret
}

// Available returns a copy of the free units per type.
func (s *Service) Available() resource.Vector {
	s.mux.Lock()
	defer s.mux.Unlock()
	return s.available.Clone()
}

// Capacity returns a copy of the initial units per type.
func (s *Service) Capacity() resource.Vector {
	return s.capacity.Clone()
}

// Granted returns a copy of the outstanding quanta per type.
func (s *Service) Granted() resource.Vector {
	s.mux.Lock()
	defer s.mux.Unlock()
	return s.granted.Clone()
}

// Utilization returns the used fraction of every type's capacity, rounded
// to four decimal places. Types with zero capacity report zero.
func (s *Service) Utilization() map[resource.Type]decimal.Decimal {
	s.mux.Lock()
	defer s.mux.Unlock()
	ret := make(map[resource.Type]decimal.Decimal, resource.Count)
	for _, t := range resource.All() {
		if s.capacity[t] == 0 {
			ret[t] = decimal.Zero
			continue
		}
		used := decimal.NewFromInt(int64(s.capacity[t] - s.available[t]))
		ret[t] = used.DivRound(decimal.NewFromInt(int64(s.capacity[t])), 4)
	}
	return ret
}
