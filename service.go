package safealloc

import (
	"context"
	"fmt"

	"github.com/viant/afs"
	"github.com/viant/afs/url"
	"github.com/viant/safealloc/logging"
	"github.com/viant/safealloc/model/process"
	msafety "github.com/viant/safealloc/model/safety"
	"github.com/viant/safealloc/policy"
	"github.com/viant/safealloc/progress"
	"github.com/viant/safealloc/service/catalog"
	"github.com/viant/safealloc/service/dao"
	fsrecord "github.com/viant/safealloc/service/dao/record/fs"
	"github.com/viant/safealloc/service/event"
	"github.com/viant/safealloc/service/messaging"
	"github.com/viant/safealloc/service/messaging/fs"
	"github.com/viant/safealloc/service/messaging/memory"
	"github.com/viant/safealloc/service/pool"
	"github.com/viant/safealloc/service/safety"
	"github.com/viant/safealloc/service/scheduler"
	"github.com/viant/safealloc/tracing"
	"go.uber.org/zap"
)

const (
	serviceName    = "safealloc"
	serviceVersion = "0.1.0"
)

// Service wires the pool, catalog, scheduler and safety checker into a
// Runtime.
type Service struct {
	runtime      *Runtime
	config       *Config
	variant      scheduler.Variant
	logger       *zap.Logger
	catalog      *catalog.Service
	pool         *pool.Service
	estimator    scheduler.MemoryEstimator
	policy       *policy.Policy
	records      dao.Service[int, process.Record]
	eventService *event.Service
	ownsEvents   bool
	listeners    []func(*event.Event[event.Lifecycle])
	fs           afs.Service
}

// New creates a service from options, falling back to DefaultConfig.
func New(options ...Option) (*Service, error) {
	ret := &Service{}
	for _, option := range options {
		option(ret)
	}
	if err := ret.init(context.Background()); err != nil {
		ret.Close()
		return nil, err
	}
	return ret, nil
}

func (s *Service) init(ctx context.Context) error {
	if s.config == nil {
		s.config = DefaultConfig()
	}
	if err := s.config.Validate(); err != nil {
		return err
	}
	if s.fs == nil {
		s.fs = afs.New()
	}
	if s.logger == nil {
		logger, err := logging.New(s.config.Log.Level)
		if err != nil {
			return err
		}
		s.logger = logger
	}
	if s.config.Tracing.Enabled {
		if err := tracing.Init(serviceName, serviceVersion, s.config.Tracing.Output); err != nil {
			return fmt.Errorf("failed to init tracing: %w", err)
		}
	}

	variant := s.variant
	if variant == "" {
		variant = s.config.Variant
	}
	poolConfig := s.config.Pool
	schedulerConfig := s.config.Scheduler
	if variant != "" {
		parsed, err := scheduler.ParseVariant(string(variant))
		if err != nil {
			return err
		}
		variant = parsed
		variant.Apply(&poolConfig, &schedulerConfig)
	} else {
		variant = scheduler.VariantOf(poolConfig, schedulerConfig)
	}
	if s.pool == nil {
		resources, err := pool.New(poolConfig)
		if err != nil {
			return err
		}
		s.pool = resources
	}
	if s.catalog == nil {
		if len(s.config.Catalog) == 0 {
			s.catalog = catalog.Default()
		} else {
			c, err := catalog.New(s.config.Catalog...)
			if err != nil {
				return err
			}
			s.catalog = c
		}
	}
	if s.records == nil && s.config.Records.BaseURL != "" {
		records, err := fsrecord.New(ctx, s.fs, s.config.Records.BaseURL)
		if err != nil {
			return err
		}
		s.records = records
	}
	publisher, err := s.ensureEvents(ctx)
	if err != nil {
		return err
	}

	if s.policy == nil {
		s.policy = policy.FromConfig(s.config.Policy)
	}
	tracker := progress.New(nil)
	sched, err := scheduler.New(s.pool,
		scheduler.WithConfig(schedulerConfig),
		scheduler.WithCatalog(s.catalog),
		scheduler.WithRecordDAO(s.records),
		scheduler.WithPublisher(publisher),
		scheduler.WithProgress(tracker),
		scheduler.WithLogger(s.logger),
		scheduler.WithMemoryEstimator(s.estimator),
		scheduler.WithPolicy(s.policy),
	)
	if err != nil {
		return err
	}
	dataset := s.config.Safety
	if dataset == nil {
		dataset = msafety.Default()
	}
	s.runtime = &Runtime{
		variant:   variant,
		scheduler: sched,
		safety:    safety.New(safety.WithLogger(s.logger)),
		dataset:   dataset,
		logger:    s.logger,
	}
	return nil
}

func (s *Service) ensureEvents(ctx context.Context) (*event.Publisher[event.Lifecycle], error) {
	if s.eventService == nil {
		vendor := s.config.Events.Vendor
		if vendor == "" && len(s.listeners) == 0 {
			return nil, nil
		}
		if vendor == "" {
			vendor = messaging.VendorMemory
		}
		buffer := s.config.Events.Buffer
		baseURL := s.config.Events.BaseURL
		srv, err := event.New(vendor,
			event.WithFS(s.fs),
			event.WithLogger(s.logger),
			event.WithNewMemoryQueueConfig(func(string) memory.Config {
				config := memory.DefaultConfig()
				if buffer > 0 {
					config.QueueBuffer = buffer
				}
				return config
			}),
			event.WithNewFsQueueConfig(func(name string) fs.QueueConfig {
				config := fs.DefaultConfig()
				config.BaseURL = url.Join(baseURL, name)
				return config
			}),
		)
		if err != nil {
			return nil, err
		}
		s.eventService = srv
		s.ownsEvents = true
	}
	publisher, err := event.PublisherOf[event.Lifecycle](ctx, s.eventService)
	if err != nil {
		return nil, err
	}
	if len(s.listeners) > 0 {
		handlers := s.listeners
		if err = event.SetListenerOf[event.Lifecycle](ctx, s.eventService, func(e *event.Event[event.Lifecycle]) {
			for _, handler := range handlers {
				handler(e)
			}
		}); err != nil {
			return nil, err
		}
	}
	return publisher, nil
}

// Runtime returns the command runtime.
func (s *Service) Runtime() *Runtime {
	return s.runtime
}

// Config returns the effective configuration.
func (s *Service) Config() *Config {
	return s.config
}

// Close stops event listeners owned by the service and flushes the logger.
func (s *Service) Close() {
	if s.eventService != nil && s.ownsEvents {
		s.eventService.Close()
	}
	if s.logger != nil {
		_ = s.logger.Sync()
	}
}
