// Package event publishes typed lifecycle events to memory or filesystem
// backed queues and runs listeners that consume them.
package event

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/safealloc/service/messaging"
	"github.com/viant/safealloc/service/messaging/fs"
	"github.com/viant/safealloc/service/messaging/memory"
	"go.uber.org/zap"
)

// Service owns one queue and publisher per payload type.
type Service struct {
	typedPublishers   map[reflect.Type]any
	typedListeners    map[reflect.Type]any
	mux               sync.RWMutex
	queueVendor       messaging.Vendor
	fs                afs.Service
	logger            *zap.Logger
	fsNewQueueConfig  func(name string) fs.QueueConfig
	memNewQueueConfig func(name string) memory.Config
}

func New(queueVendor messaging.Vendor, opts ...Option) (*Service, error) {
	ret := &Service{
		queueVendor:     queueVendor,
		typedPublishers: make(map[reflect.Type]any),
		typedListeners:  make(map[reflect.Type]any),
		logger:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(ret)
	}
	switch queueVendor {
	case messaging.VendorFS:
		if ret.fsNewQueueConfig == nil {
			return nil, fmt.Errorf("fs queue vendor requires fsNewQueueConfig")
		}
		if ret.fs == nil {
			ret.fs = afs.New()
		}
	case messaging.VendorMemory:
		if ret.memNewQueueConfig == nil {
			ret.memNewQueueConfig = func(string) memory.Config { return memory.DefaultConfig() }
		}
	default:
		return nil, fmt.Errorf("unsupported queue vendor: %s", queueVendor)
	}
	return ret, nil
}

// QueueOf creates a queue named name for the service vendor.
func QueueOf[T any](ctx context.Context, s *Service, name string) (messaging.Queue[T], error) {
	switch s.queueVendor {
	case messaging.VendorFS:
		return fs.NewQueue[T](ctx, s.fs, s.fsNewQueueConfig(name))
	case messaging.VendorMemory:
		return memory.NewQueue[T](s.memNewQueueConfig(name)), nil
	}
	return nil, fmt.Errorf("unsupported queue vendor: %s", s.queueVendor)
}

func keyOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// PublisherOf returns the publisher for payload type T, creating its queue
// on first use.
func PublisherOf[T any](ctx context.Context, s *Service) (*Publisher[T], error) {
	key := keyOf[T]()
	s.mux.Lock()
	defer s.mux.Unlock()
	if ret, ok := s.typedPublishers[key]; ok {
		return ret.(*Publisher[T]), nil
	}
	queue, err := QueueOf[Event[T]](ctx, s, key.Name())
	if err != nil {
		return nil, err
	}
	publisher := NewPublisher[T](queue)
	s.typedPublishers[key] = publisher
	return publisher, nil
}

// SetListenerOf starts a listener for payload type T, replacing any
// previous one.
func SetListenerOf[T any](ctx context.Context, s *Service, handler func(*Event[T])) error {
	publisher, err := PublisherOf[T](ctx, s)
	if err != nil {
		return err
	}
	key := keyOf[T]()
	s.mux.Lock()
	previous, ok := s.typedListeners[key]
	listener := NewListener[T](publisher, handler, s.logger)
	s.typedListeners[key] = listener
	s.mux.Unlock()
	if ok {
		previous.(*Listener[T]).Stop()
	}
	listener.Start()
	return nil
}

// Close stops all listeners.
func (s *Service) Close() {
	s.mux.Lock()
	listeners := s.typedListeners
	s.typedListeners = make(map[reflect.Type]any)
	s.mux.Unlock()
	for _, listener := range listeners {
		if stopper, ok := listener.(interface{ Stop() }); ok {
			stopper.Stop()
		}
	}
}
