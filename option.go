package safealloc

import (
	"github.com/viant/afs"
	"github.com/viant/safealloc/model/process"
	"github.com/viant/safealloc/policy"
	"github.com/viant/safealloc/service/catalog"
	"github.com/viant/safealloc/service/dao"
	"github.com/viant/safealloc/service/event"
	"github.com/viant/safealloc/service/pool"
	"github.com/viant/safealloc/service/scheduler"
	"github.com/viant/safealloc/tracing"
	"go.uber.org/zap"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Option configures a Service
type Option func(s *Service)

// WithConfig sets the configuration; nil keeps DefaultConfig.
func WithConfig(config *Config) Option {
	return func(s *Service) {
		if config != nil {
			s.config = config
		}
	}
}

// WithVariant overrides the configured scheduling variant.
func WithVariant(variant scheduler.Variant) Option {
	return func(s *Service) {
		s.variant = variant
	}
}

// WithLogger sets the logger; by default one is built from config log level.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithCatalog sets the process catalog, taking precedence over config entries.
func WithCatalog(c *catalog.Service) Option {
	return func(s *Service) {
		s.catalog = c
	}
}

// WithPolicy sets the admission policy, taking precedence over config.
func WithPolicy(p *policy.Policy) Option {
	return func(s *Service) {
		s.policy = p
	}
}

// WithPool shares a resource pool, for example between several runtimes.
func WithPool(resources *pool.Service) Option {
	return func(s *Service) {
		s.pool = resources
	}
}

// WithMemoryEstimator sets the display-only memory usage estimator.
func WithMemoryEstimator(estimator scheduler.MemoryEstimator) Option {
	return func(s *Service) {
		s.estimator = estimator
	}
}

// WithRecordDAO sets the process record storage.
func WithRecordDAO(records dao.Service[int, process.Record]) Option {
	return func(s *Service) {
		s.records = records
	}
}

// WithEventService sets the event service lifecycle events are published to.
func WithEventService(service *event.Service) Option {
	return func(s *Service) {
		s.eventService = service
	}
}

// WithEventListener registers a handler receiving every lifecycle event.
// It enables memory events when no vendor is configured.
func WithEventListener(handler func(*event.Event[event.Lifecycle])) Option {
	return func(s *Service) {
		s.listeners = append(s.listeners, handler)
	}
}

// WithFS sets the filesystem used for fs backed records and events.
func WithFS(fs afs.Service) Option {
	return func(s *Service) {
		s.fs = fs
	}
}

// WithTracing configures OpenTelemetry tracing for the service. If outputFile is empty the
// stdout exporter is used; otherwise traces are written to the supplied file path. The function is
// safe to call multiple times – the first successful initialisation wins.
func WithTracing(serviceName, serviceVersion, outputFile string) Option {
	return func(s *Service) {
		_ = tracing.Init(serviceName, serviceVersion, outputFile)
	}
}

// WithTracingExporter configures OpenTelemetry tracing using a custom SpanExporter.
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		_ = tracing.InitWithExporter(serviceName, serviceVersion, exporter)
	}
}
