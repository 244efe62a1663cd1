package event

import (
	"github.com/viant/afs"
	"github.com/viant/safealloc/service/messaging/fs"
	"github.com/viant/safealloc/service/messaging/memory"
	"go.uber.org/zap"
)

type Option func(s *Service)

// WithNewFsQueueConfig sets the file system queue configuration factory
func WithNewFsQueueConfig(newConfig func(name string) fs.QueueConfig) Option {
	return func(s *Service) {
		s.fsNewQueueConfig = newConfig
	}
}

// WithNewMemoryQueueConfig sets the memory queue configuration factory
func WithNewMemoryQueueConfig(newConfig func(name string) memory.Config) Option {
	return func(s *Service) {
		s.memNewQueueConfig = newConfig
	}
}

// WithFS sets the storage service used by fs queues
func WithFS(fs afs.Service) Option {
	return func(s *Service) {
		s.fs = fs
	}
}

// WithLogger sets the logger used by listeners
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}
