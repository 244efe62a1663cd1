package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/viant/safealloc/internal/idgen"
	"github.com/viant/safealloc/logging"
	"github.com/viant/safealloc/model/process"
	"github.com/viant/safealloc/policy"
	"github.com/viant/safealloc/progress"
	"github.com/viant/safealloc/service/catalog"
	"github.com/viant/safealloc/service/dao"
	"github.com/viant/safealloc/service/dao/record/memory"
	"github.com/viant/safealloc/service/event"
	"github.com/viant/safealloc/service/pool"
	"github.com/viant/safealloc/tracing"
	"go.uber.org/zap"
)

const serviceName = "scheduler"

// Service is the process scheduler. All operations are serialized.
type Service struct {
	config    Config
	pool      *pool.Service
	catalog   *catalog.Service
	records   dao.Service[int, process.Record]
	publisher *event.Publisher[event.Lifecycle]
	progress  *progress.Progress
	logger    *zap.Logger
	estimator MemoryEstimator
	policy    *policy.Policy
	ids       *idgen.Sequence

	newQueue     []*process.Record
	readyQueue   []*process.Record
	blockedQueue []*process.Record
	running      *process.Record
	mux          sync.Mutex
}

// New creates a scheduler granting resources from resources.
func New(resources *pool.Service, options ...Option) (*Service, error) {
	if resources == nil {
		return nil, fmt.Errorf("resource pool was nil")
	}
	ret := &Service{
		pool:      resources,
		catalog:   catalog.Default(),
		records:   memory.New(),
		progress:  progress.New(nil),
		logger:    zap.NewNop(),
		estimator: RandomMemory,
		ids:       idgen.NewSequence(),
	}
	for _, opt := range options {
		opt(ret)
	}
	return ret, nil
}

// Admit creates a record for catalogID and appends it to the New queue. The
// pool is only checked, never debited. A record whose resources could not be
// granted right now, or that the admission policy refuses, is rejected.
func (s *Service) Admit(ctx context.Context, catalogID int) (record *process.Record, err error) {
	ctx, span := tracing.StartSpan(ctx, "scheduler.Admit", tracing.KindInternal)
	span.WithInt("catalogId", catalogID)
	defer func() { tracing.EndSpan(span, err) }()

	s.mux.Lock()
	defer s.mux.Unlock()

	entry, err := s.catalog.Lookup(catalogID)
	if err != nil {
		s.reject(ctx, catalogID, "", err)
		return nil, err
	}
	admission := policy.FromContext(ctx)
	if admission == nil {
		admission = s.policy
	}
	if err = admission.Evaluate(ctx, entry.ID, entry.Name); err != nil {
		s.reject(ctx, catalogID, entry.Name, err)
		return nil, err
	}
	if err = s.pool.CanAllocate(entry.Resources, entry.CPUUsage); err != nil {
		s.reject(ctx, catalogID, entry.Name, err)
		return nil, fmt.Errorf("failed to admit %v: %w", entry.Name, err)
	}

	record = process.New(s.ids.Next(), entry.ID, entry.Name, entry.Resources, entry.CPUUsage, s.estimator(entry.ID))
	if err = s.records.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to save process %d: %w", record.ID, err)
	}
	s.newQueue = append(s.newQueue, record)
	s.progress.Update(progress.Delta{Admitted: 1, Pending: 1})
	s.logger.Info("process admitted", logging.PIDField(record.ID), zap.Int("catalogId", entry.ID), zap.String("name", entry.Name))
	s.publish(ctx, record, event.TypeAdmitted, process.StateNew, process.StateNew, nil)
	return record.Clone(), nil
}

// Dispatch grants resources to the head of Ready, or of New when Ready is
// empty, and moves it to the Running slot. When the grant fails the record
// stays queued, or is blocked when BlockOnExhaustion is set; in both cases
// the record is returned with the pool error.
func (s *Service) Dispatch(ctx context.Context) (record *process.Record, err error) {
	ctx, span := tracing.StartSpan(ctx, "scheduler.Dispatch", tracing.KindInternal)
	defer func() { tracing.EndSpan(span, err) }()

	s.mux.Lock()
	defer s.mux.Unlock()

	if s.running != nil {
		return nil, fmt.Errorf("%w: process %d", ErrAlreadyRunning, s.running.ID)
	}
	queue := &s.readyQueue
	if len(*queue) == 0 {
		queue = &s.newQueue
	}
	if len(*queue) == 0 {
		return nil, ErrNoPendingProcess
	}
	candidate := (*queue)[0]
	span.WithInt("pid", candidate.ID)

	if err = s.pool.TryAllocate(candidate.Resources, candidate.CPUUsage); err != nil {
		if !s.config.BlockOnExhaustion {
			s.logger.Warn("dispatch failed", logging.PIDField(candidate.ID), logging.ErrField(err))
			s.publish(ctx, candidate, event.TypeDispatchFailed, candidate.GetState(), candidate.GetState(), err)
			return candidate.Clone(), err
		}
		if blockErr := s.transition(ctx, candidate, process.StateBlocked, event.TypeBlocked, err); blockErr != nil {
			return nil, blockErr
		}
		*queue = (*queue)[1:]
		s.blockedQueue = append(s.blockedQueue, candidate)
		s.progress.Update(progress.Delta{Blocked: 1, Pending: -1, Waiting: 1})
		return candidate.Clone(), err
	}

	if err = s.transition(ctx, candidate, process.StateRunning, event.TypeDispatched, nil); err != nil {
		if releaseErr := s.pool.Release(candidate.Resources); releaseErr != nil {
			err = errors.Join(err, releaseErr)
		}
		return nil, err
	}
	*queue = (*queue)[1:]
	s.running = candidate
	s.progress.Update(progress.Delta{Dispatched: 1, Running: 1, Pending: -1})
	return candidate.Clone(), nil
}

// Close terminates the running record, releases its resources and moves
// every Blocked record to Ready in FIFO order.
func (s *Service) Close(ctx context.Context) (record *process.Record, err error) {
	ctx, span := tracing.StartSpan(ctx, "scheduler.Close", tracing.KindInternal)
	defer func() { tracing.EndSpan(span, err) }()

	s.mux.Lock()
	defer s.mux.Unlock()

	if s.running == nil {
		return nil, ErrNoRunningProcess
	}
	record = s.running
	span.WithInt("pid", record.ID)
	if err = s.pool.Release(record.Resources); err != nil {
		return nil, fmt.Errorf("failed to release process %d: %w", record.ID, err)
	}
	if err = s.transition(ctx, record, process.StateTerminated, event.TypeTerminated, nil); err != nil {
		return nil, err
	}
	s.running = nil
	s.progress.Update(progress.Delta{Terminated: 1, Running: -1})
	if deleteErr := s.records.Delete(ctx, record.ID); deleteErr != nil {
		s.logger.Warn("failed to delete process record", logging.PIDField(record.ID), logging.ErrField(deleteErr))
	}
	s.unblock(ctx)
	return record.Clone(), nil
}

func (s *Service) unblock(ctx context.Context) {
	if len(s.blockedQueue) == 0 {
		return
	}
	remaining := s.blockedQueue[:0]
	for _, record := range s.blockedQueue {
		if err := s.transition(ctx, record, process.StateReady, event.TypeUnblocked, nil); err != nil {
			s.logger.Error("failed to unblock process", logging.PIDField(record.ID), logging.ErrField(err))
			remaining = append(remaining, record)
			continue
		}
		s.readyQueue = append(s.readyQueue, record)
		s.progress.Update(progress.Delta{Unblocked: 1, Pending: 1, Waiting: -1})
	}
	s.blockedQueue = remaining
}

func (s *Service) transition(ctx context.Context, record *process.Record, to process.State, eventType event.Type, reason error) error {
	from, err := record.Transition(to)
	if err != nil {
		return err
	}
	s.logger.Info("process state change", logging.PIDField(record.ID), zap.Stringer("from", from), zap.Stringer("to", to))
	if !to.IsTerminal() {
		if err = s.records.Save(ctx, record); err != nil {
			s.logger.Warn("failed to save process record", logging.PIDField(record.ID), logging.ErrField(err))
		}
	}
	s.publish(ctx, record, eventType, from, to, reason)
	return nil
}

func (s *Service) reject(ctx context.Context, catalogID int, name string, reason error) {
	s.progress.Update(progress.Delta{Rejected: 1})
	s.logger.Warn("admission rejected", zap.Int("catalogId", catalogID), logging.ErrField(reason))
	if s.publisher == nil {
		return
	}
	evt := event.NewEvent(&event.Context{CatalogID: catalogID, EventType: event.TypeRejected, Service: serviceName, Method: "Admit"},
		event.Lifecycle{Name: name, Available: s.pool.Available(), Reason: reason.Error()})
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.logger.Warn("failed to publish event", zap.String("type", string(event.TypeRejected)), logging.ErrField(err))
	}
}

func (s *Service) publish(ctx context.Context, record *process.Record, eventType event.Type, from, to process.State, reason error) {
	if s.publisher == nil {
		return
	}
	evtContext := &event.Context{
		ProcessID: record.ID,
		CatalogID: record.CatalogID,
		EventType: eventType,
		Service:   serviceName,
		To:        to.String(),
	}
	if eventType != event.TypeAdmitted {
		evtContext.From = from.String()
	}
	payload := event.Lifecycle{Name: record.Name, Resources: record.Resources.Types(), Available: s.pool.Available()}
	if reason != nil {
		payload.Reason = reason.Error()
	}
	if err := s.publisher.Publish(ctx, event.NewEvent(evtContext, payload)); err != nil {
		s.logger.Warn("failed to publish event", logging.PIDField(record.ID), zap.String("type", string(eventType)), logging.ErrField(err))
	}
}

// Running returns a copy of the running record or nil.
func (s *Service) Running() *process.Record {
	s.mux.Lock()
	defer s.mux.Unlock()
	return s.running.Clone()
}

// Queue returns copies of the records currently in state, in queue order.
func (s *Service) Queue(state process.State) []*process.Record {
	s.mux.Lock()
	defer s.mux.Unlock()
	var source []*process.Record
	switch state {
	case process.StateNew:
		source = s.newQueue
	case process.StateReady:
		source = s.readyQueue
	case process.StateBlocked:
		source = s.blockedQueue
	case process.StateRunning:
		if s.running != nil {
			source = []*process.Record{s.running}
		}
	}
	ret := make([]*process.Record, 0, len(source))
	for _, record := range source {
		ret = append(ret, record.Clone())
	}
	return ret
}

// Lookup loads a live record from the record store.
func (s *Service) Lookup(ctx context.Context, pid int) (*process.Record, error) {
	record, err := s.records.Load(ctx, pid)
	if err != nil {
		return nil, err
	}
	return record.Clone(), nil
}

// Records lists live records from the record store.
func (s *Service) Records(ctx context.Context, parameters ...*dao.Parameter) ([]*process.Record, error) {
	records, err := s.records.List(ctx, parameters...)
	if err != nil {
		return nil, err
	}
	ret := make([]*process.Record, 0, len(records))
	for _, record := range records {
		ret = append(ret, record.Clone())
	}
	return ret, nil
}

// Stats returns a snapshot of the scheduler counters.
func (s *Service) Stats() progress.Counters {
	return s.progress.Snapshot()
}

// Pool returns the resource pool the scheduler grants from.
func (s *Service) Pool() *pool.Service {
	return s.pool
}

// Catalog returns the catalog used for admission.
func (s *Service) Catalog() *catalog.Service {
	return s.catalog
}
