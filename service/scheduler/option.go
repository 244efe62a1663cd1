package scheduler

import (
	"math/rand"

	"github.com/viant/safealloc/model/process"
	"github.com/viant/safealloc/policy"
	"github.com/viant/safealloc/progress"
	"github.com/viant/safealloc/service/catalog"
	"github.com/viant/safealloc/service/dao"
	"github.com/viant/safealloc/service/event"
	"go.uber.org/zap"
)

// Config represents scheduler configuration
type Config struct {
	// BlockOnExhaustion moves a record to Blocked when its dispatch cannot
	// be granted instead of leaving it at the front of its queue.
	BlockOnExhaustion bool `json:"blockOnExhaustion" yaml:"blockOnExhaustion"`
}

// MemoryEstimator returns the display-only memory usage for a new record.
type MemoryEstimator func(catalogID int) int

// RandomMemory draws a value in [0,100].
func RandomMemory(int) int {
	return rand.Intn(101)
}

// Option configures a Service.
type Option func(s *Service)

// WithConfig sets the scheduler configuration.
func WithConfig(config Config) Option {
	return func(s *Service) {
		s.config = config
	}
}

// WithCatalog sets the catalog used by Admit.
func WithCatalog(c *catalog.Service) Option {
	return func(s *Service) {
		if c != nil {
			s.catalog = c
		}
	}
}

// WithRecordDAO sets the record storage.
func WithRecordDAO(records dao.Service[int, process.Record]) Option {
	return func(s *Service) {
		if records != nil {
			s.records = records
		}
	}
}

// WithPublisher sets the lifecycle event publisher.
func WithPublisher(publisher *event.Publisher[event.Lifecycle]) Option {
	return func(s *Service) {
		s.publisher = publisher
	}
}

// WithProgress sets the counters tracker.
func WithProgress(tracker *progress.Progress) Option {
	return func(s *Service) {
		if tracker != nil {
			s.progress = tracker
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMemoryEstimator sets the memory usage estimator.
func WithMemoryEstimator(estimator MemoryEstimator) Option {
	return func(s *Service) {
		if estimator != nil {
			s.estimator = estimator
		}
	}
}

// WithPolicy sets the admission policy; a policy embedded in the Admit
// context takes precedence.
func WithPolicy(p *policy.Policy) Option {
	return func(s *Service) {
		s.policy = p
	}
}
