package process

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/viant/safealloc/internal/clock"
	"github.com/viant/safealloc/model/resource"
)

// ErrInvalidTransition is returned when a lifecycle edge is not allowed.
var ErrInvalidTransition = errors.New("invalid process state transition")

// Record represents one schedulable unit
type Record struct {
	ID          int          `json:"id"`
	CatalogID   int          `json:"catalogId"`
	Name        string       `json:"name"`
	State       State        `json:"state"`
	Resources   resource.Set `json:"resources"`
	CPUUsage    int          `json:"cpuUsage"`
	MemoryUsage int          `json:"memoryUsage"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
	mu          sync.RWMutex
}

// New creates a record in StateNew.
func New(id, catalogID int, name string, resources resource.Set, cpuUsage, memoryUsage int) *Record {
	now := clock.Now()
	return &Record{
		ID:          id,
		CatalogID:   catalogID,
		Name:        name,
		State:       StateNew,
		Resources:   resources.Types(),
		CPUUsage:    cpuUsage,
		MemoryUsage: memoryUsage,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// GetState returns the record state
func (r *Record) GetState() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.State
}

// Transition moves the record to the supplied state, returning the previous
// one. Edges outside the lifecycle table fail with ErrInvalidTransition and
// leave the record untouched.
func (r *Record) Transition(to State) (State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	from := r.State
	if !CanTransition(from, to) {
		return from, fmt.Errorf("%w: process %d %v -> %v", ErrInvalidTransition, r.ID, from, to)
	}
	r.State = to
	r.UpdatedAt = clock.Now()
	return from, nil
}

// Clone returns a detached copy safe to hand to callers.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return &Record{
		ID:          r.ID,
		CatalogID:   r.CatalogID,
		Name:        r.Name,
		State:       r.State,
		Resources:   r.Resources.Types(),
		CPUUsage:    r.CPUUsage,
		MemoryUsage: r.MemoryUsage,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}
