package memory

import (
	"context"

	"github.com/viant/safealloc/model/process"
	"github.com/viant/safealloc/service/dao"
	"github.com/viant/safealloc/service/dao/criteria"
	"github.com/viant/safealloc/service/dao/store"
)

// Service implements an in-memory, thread-safe store for process records.
// List returns records ordered by ID.
type Service struct {
	*store.MemoryStore[int, process.Record]
}

var _ dao.Service[int, process.Record] = (*Service)(nil)

func (s *Service) Save(ctx context.Context, record *process.Record) error {
	if record == nil {
		return dao.ErrNilEntity
	}
	if record.ID <= 0 {
		return dao.ErrInvalidID
	}
	return s.MemoryStore.Save(ctx, record)
}

func (s *Service) Load(ctx context.Context, id int) (*process.Record, error) {
	if id <= 0 {
		return nil, dao.ErrInvalidID
	}
	return s.MemoryStore.Load(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int) error {
	if id <= 0 {
		return dao.ErrInvalidID
	}
	return s.MemoryStore.Delete(ctx, id)
}

func New() *Service {
	return &Service{MemoryStore: store.NewMemoryStore[int, process.Record](
		func(r *process.Record) int { return r.ID },
		store.WithSharding[int, process.Record](func(id int) uint32 { return uint32(id) }),
		store.WithFilter[int, process.Record](func(r *process.Record, parameters []*dao.Parameter) bool {
			return criteria.FilterByState(r.GetState(), parameters)
		}),
		store.WithOrder[int, process.Record](func(a, b *process.Record) bool { return a.ID < b.ID }),
	)}
}
