package progress

import (
	"sync"
	"time"

	"github.com/viant/safealloc/internal/clock"
)

// Delta represents an incremental counter change emitted by the scheduler.
// Running, Pending and Waiting are gauges and may be negative.
type Delta struct {
	Admitted   int
	Rejected   int
	Dispatched int
	Blocked    int
	Unblocked  int
	Terminated int
	Running    int
	Pending    int
	Waiting    int
}

// Counters is a point-in-time copy of the scheduler counters.
type Counters struct {
	StartedAt time.Time `json:"startedAt"`

	Admitted   int `json:"admitted"`
	Rejected   int `json:"rejected"`
	Dispatched int `json:"dispatched"`
	Blocked    int `json:"blocked"`
	Unblocked  int `json:"unblocked"`
	Terminated int `json:"terminated"`
	// Running is the number of records holding the CPU.
	Running int `json:"running"`
	// Pending is the number of records in the New and Ready queues.
	Pending int `json:"pending"`
	// Waiting is the number of Blocked records.
	Waiting int `json:"waiting"`
}

// Progress keeps aggregated scheduler counters. It is safe for concurrent use.
type Progress struct {
	counters Counters
	mu       sync.Mutex
	onChange func(Counters)
}

// New creates a tracker started now.
func New(onChange func(Counters)) *Progress {
	return &Progress{counters: Counters{StartedAt: clock.Now()}, onChange: onChange}
}

// Update applies d. The onChange callback, if any, receives the counters
// outside the critical section.
func (p *Progress) Update(d Delta) {
	if p == nil {
		return
	}
	p.mu.Lock()
	c := &p.counters
	c.Admitted += d.Admitted
	c.Rejected += d.Rejected
	c.Dispatched += d.Dispatched
	c.Blocked += d.Blocked
	c.Unblocked += d.Unblocked
	c.Terminated += d.Terminated
	c.Running += d.Running
	c.Pending += d.Pending
	c.Waiting += d.Waiting
	snapshot := *c
	cb := p.onChange
	p.mu.Unlock()

	if cb != nil {
		cb(snapshot)
	}
}

// Snapshot returns a copy of the counters.
func (p *Progress) Snapshot() Counters {
	if p == nil {
		return Counters{}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.counters
}

// OnChange replaces the change callback. Passing nil disables it.
func (p *Progress) OnChange(cb func(Counters)) {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.onChange = cb
	p.mu.Unlock()
}
