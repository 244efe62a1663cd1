package store

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"

	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/viant/safealloc/service/dao"
)

// MemoryStore is a generic in-memory implementation of dao.Service keyed by
// K. The key is obtained from the supplied keySelector function. Concrete
// DAOs embed the store and plug in filtering and ordering. Records live in a
// sharded concurrent map.
type MemoryStore[K comparable, T any] struct {
	records     cmap.ConcurrentMap[K, *T]
	keySelector func(*T) K
	sharding    func(K) uint32
	filter      func(*T, []*dao.Parameter) bool
	less        func(a, b *T) bool
}

// MemoryOption customises a MemoryStore.
type MemoryOption[K comparable, T any] func(s *MemoryStore[K, T])

// WithFilter sets the predicate List applies to every record.
func WithFilter[K comparable, T any](filter func(*T, []*dao.Parameter) bool) MemoryOption[K, T] {
	return func(s *MemoryStore[K, T]) { s.filter = filter }
}

// WithOrder sets the ordering List returns records in.
func WithOrder[K comparable, T any](less func(a, b *T) bool) MemoryOption[K, T] {
	return func(s *MemoryStore[K, T]) { s.less = less }
}

// WithSharding sets the shard hash for keys; by default the FNV-1a hash of
// the key's printed form is used.
func WithSharding[K comparable, T any](sharding func(K) uint32) MemoryOption[K, T] {
	return func(s *MemoryStore[K, T]) { s.sharding = sharding }
}

func defaultSharding[K comparable](key K) uint32 {
	h := fnv.New32a()
	_, _ = fmt.Fprint(h, key)
	return h.Sum32()
}

// NewMemoryStore creates a new MemoryStore.
func NewMemoryStore[K comparable, T any](keySelector func(*T) K, options ...MemoryOption[K, T]) *MemoryStore[K, T] {
	ret := &MemoryStore[K, T]{
		keySelector: keySelector,
		sharding:    defaultSharding[K],
	}
	for _, opt := range options {
		opt(ret)
	}
	ret.records = cmap.NewWithCustomShardingFunction[K, *T](ret.sharding)
	return ret
}

// Save stores or overwrites a record.
func (s *MemoryStore[K, T]) Save(_ context.Context, v *T) error {
	if v == nil {
		return dao.ErrNilEntity
	}
	s.records.Set(s.keySelector(v), v)
	return nil
}

// Load returns a record by key.
func (s *MemoryStore[K, T]) Load(_ context.Context, key K) (*T, error) {
	v, ok := s.records.Get(key)
	if !ok {
		return nil, dao.ErrNotFound
	}
	return v, nil
}

// Delete removes a record.
func (s *MemoryStore[K, T]) Delete(_ context.Context, key K) error {
	removed := s.records.RemoveCb(key, func(_ K, _ *T, exists bool) bool {
		return exists
	})
	if !removed {
		return dao.ErrNotFound
	}
	return nil
}

// List returns stored records matching the filter, ordered when an order
// was configured.
func (s *MemoryStore[K, T]) List(_ context.Context, parameters ...*dao.Parameter) ([]*T, error) {
	out := make([]*T, 0, s.records.Count())
	for item := range s.records.IterBuffered() {
		if s.filter != nil && !s.filter(item.Val, parameters) {
			continue
		}
		out = append(out, item.Val)
	}
	if s.less != nil {
		sort.Slice(out, func(i, j int) bool { return s.less(out[i], out[j]) })
	}
	return out, nil
}

// Len returns the number of stored records.
func (s *MemoryStore[K, T]) Len() int {
	return s.records.Count()
}
