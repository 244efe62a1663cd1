// Package catalog maps application ids to the resources and CPU usage a
// process created from them declares.
package catalog

import (
	"fmt"
	"sync"

	"github.com/elliotchance/orderedmap/v2"
	"github.com/viant/safealloc/model/resource"
)

// Service is an ordered, read-mostly catalog.
type Service struct {
	entries *orderedmap.OrderedMap[int, Entry]
	mux     sync.RWMutex
}

// New creates a catalog from entries. Duplicate ids are rejected. An empty
// list yields an empty catalog.
func New(entries ...Entry) (*Service, error) {
	ret := &Service{entries: orderedmap.NewOrderedMap[int, Entry]()}
	for _, entry := range entries {
		if err := ret.Register(entry); err != nil {
			return nil, err
		}
	}
	return ret, nil
}

// Default returns the built-in catalog.
func Default() *Service {
	ret, _ := New(DefaultEntries()...)
	return ret
}

// Register adds an entry.
func (s *Service) Register(entry Entry) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	s.mux.Lock()
	defer s.mux.Unlock()
	if _, ok := s.entries.Get(entry.ID); ok {
		return fmt.Errorf("catalog entry %d already registered", entry.ID)
	}
	entry.Resources = resource.NewSet(entry.Resources...)
	s.entries.Set(entry.ID, entry)
	return nil
}

// Lookup returns the entry for id or ErrUnknownProcess.
func (s *Service) Lookup(id int) (*Entry, error) {
	s.mux.RLock()
	defer s.mux.RUnlock()
	entry, ok := s.entries.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownProcess, id)
	}
	entry.Resources = entry.Resources.Types()
	return &entry, nil
}

// Entries returns every entry in registration order.
func (s *Service) Entries() []Entry {
	s.mux.RLock()
	defer s.mux.RUnlock()
	ret := make([]Entry, 0, s.entries.Len())
	for el := s.entries.Front(); el != nil; el = el.Next() {
		entry := el.Value
		entry.Resources = entry.Resources.Types()
		ret = append(ret, entry)
	}
	return ret
}

// Len returns the number of entries.
func (s *Service) Len() int {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return s.entries.Len()
}
