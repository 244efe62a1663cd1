package safealloc

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/viant/safealloc/model/process"
	"github.com/viant/safealloc/model/resource"
	msafety "github.com/viant/safealloc/model/safety"
	"github.com/viant/safealloc/progress"
	"github.com/viant/safealloc/service/catalog"
	"github.com/viant/safealloc/service/safety"
	"github.com/viant/safealloc/service/scheduler"
	"go.uber.org/zap"
)

// Runtime exposes the simulator operations: opening and closing processes
// and running the Banker's safety check.
type Runtime struct {
	variant   scheduler.Variant
	scheduler *scheduler.Service
	safety    *safety.Service
	dataset   *msafety.State
	logger    *zap.Logger
}

// Open admits catalogID and dispatches the next pending process. The returned
// record reflects the admitted process after the dispatch attempt: Running
// when it got the CPU, New while another process runs.
func (r *Runtime) Open(ctx context.Context, catalogID int) (*process.Record, error) {
	record, err := r.scheduler.Admit(ctx, catalogID)
	if err != nil {
		return nil, err
	}
	dispatched, err := r.scheduler.Dispatch(ctx)
	if dispatched != nil && dispatched.ID == record.ID {
		record = dispatched
	}
	if err != nil && !errors.Is(err, scheduler.ErrAlreadyRunning) {
		return record, err
	}
	return record, nil
}

// CloseRunning terminates the running process and dispatches the next
// pending one, if any. next is nil when nothing was dispatched.
func (r *Runtime) CloseRunning(ctx context.Context) (closed, next *process.Record, err error) {
	if closed, err = r.scheduler.Close(ctx); err != nil {
		return nil, nil, err
	}
	next, err = r.scheduler.Dispatch(ctx)
	if err != nil {
		if errors.Is(err, scheduler.ErrNoPendingProcess) {
			return closed, nil, nil
		}
		return closed, next, err
	}
	return closed, next, nil
}

// CheckSafety runs the safety algorithm on state, or on the configured
// dataset when state is nil.
func (r *Runtime) CheckSafety(ctx context.Context, state *msafety.State) (*safety.Result, error) {
	if state == nil {
		state = r.dataset
	}
	return r.safety.Check(ctx, state)
}

// RequestSafety evaluates a resource request of process p against state, or
// against the configured dataset when state is nil. The dataset itself is
// never modified.
func (r *Runtime) RequestSafety(ctx context.Context, state *msafety.State, p int, request resource.Vector) (*msafety.State, *safety.Result, error) {
	if state == nil {
		state = r.dataset
	}
	return r.safety.Request(ctx, state, p, request)
}

// Dataset returns a copy of the configured safety dataset.
func (r *Runtime) Dataset() *msafety.State {
	return r.dataset.Clone()
}

// Scheduler returns the underlying scheduler.
func (r *Runtime) Scheduler() *scheduler.Service {
	return r.scheduler
}

// Catalog returns the launchable applications in catalog order.
func (r *Runtime) Catalog() []catalog.Entry {
	return r.scheduler.Catalog().Entries()
}

// Variant returns the active scheduling variant.
func (r *Runtime) Variant() scheduler.Variant {
	return r.variant
}

// Snapshot is a point in time view of the pool and the scheduler queues.
type Snapshot struct {
	Variant     scheduler.Variant          `json:"variant,omitempty"`
	Available   map[string]int             `json:"available"`
	Capacity    map[string]int             `json:"capacity"`
	Utilization map[string]decimal.Decimal `json:"utilization"`
	Running     *process.Record            `json:"running,omitempty"`
	Queues      map[string]int             `json:"queues"`
	Stats       progress.Counters          `json:"stats"`
}

// Snapshot captures the current pool and scheduler state.
func (r *Runtime) Snapshot() *Snapshot {
	resources := r.scheduler.Pool()
	available := resources.Available()
	capacity := resources.Capacity()
	ret := &Snapshot{
		Variant:     r.variant,
		Available:   make(map[string]int, resource.Count),
		Capacity:    make(map[string]int, resource.Count),
		Utilization: make(map[string]decimal.Decimal, resource.Count),
		Running:     r.scheduler.Running(),
		Queues:      make(map[string]int),
		Stats:       r.scheduler.Stats(),
	}
	for _, t := range resource.All() {
		key := strings.ToLower(t.String())
		ret.Available[key] = available[t]
		ret.Capacity[key] = capacity[t]
	}
	for t, fraction := range resources.Utilization() {
		ret.Utilization[strings.ToLower(t.String())] = fraction
	}
	for _, state := range []process.State{process.StateNew, process.StateReady, process.StateBlocked} {
		ret.Queues[state.String()] = len(r.scheduler.Queue(state))
	}
	return ret
}
