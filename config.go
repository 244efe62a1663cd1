package safealloc

import (
	"context"
	"errors"
	"fmt"

	"github.com/viant/afs"
	msafety "github.com/viant/safealloc/model/safety"
	"github.com/viant/safealloc/policy"
	"github.com/viant/safealloc/service/catalog"
	"github.com/viant/safealloc/service/messaging"
	"github.com/viant/safealloc/service/meta"
	"github.com/viant/safealloc/service/pool"
	"github.com/viant/safealloc/service/scheduler"
)

// Config is a serialisable representation of the simulator configuration. It
// can be populated from YAML or JSON. Sections left out of a config file keep
// their DefaultConfig values.
type Config struct {
	// Variant selects the scheduling policy; when set it overrides
	// pool.enforceCeiling and scheduler.blockOnExhaustion.
	Variant   scheduler.Variant `json:"variant,omitempty" yaml:"variant,omitempty"`
	Pool      pool.Config       `json:"pool" yaml:"pool"`
	Scheduler scheduler.Config  `json:"scheduler" yaml:"scheduler"`
	Events    EventsConfig      `json:"events" yaml:"events"`
	Records   RecordsConfig     `json:"records" yaml:"records"`
	Catalog   []catalog.Entry   `json:"catalog,omitempty" yaml:"catalog,omitempty"`
	Policy    *policy.Config    `json:"policy,omitempty" yaml:"policy,omitempty"`
	Safety    *msafety.State    `json:"safety,omitempty" yaml:"safety,omitempty"`
	Log       LogConfig         `json:"log" yaml:"log"`
	Tracing   TracingConfig     `json:"tracing" yaml:"tracing"`
}

// EventsConfig controls lifecycle event publication. An empty vendor
// disables events.
type EventsConfig struct {
	Vendor  messaging.Vendor `json:"vendor,omitempty" yaml:"vendor,omitempty"`
	BaseURL string           `json:"baseURL,omitempty" yaml:"baseURL,omitempty"`
	Buffer  int              `json:"buffer,omitempty" yaml:"buffer,omitempty"`
}

// RecordsConfig selects the process record store; an empty BaseURL keeps
// records in memory.
type RecordsConfig struct {
	BaseURL string `json:"baseURL,omitempty" yaml:"baseURL,omitempty"`
}

type LogConfig struct {
	Level string `json:"level" yaml:"level"`
}

type TracingConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
	// Output is a trace file path; empty writes to stdout.
	Output string `json:"output,omitempty" yaml:"output,omitempty"`
}

// DefaultConfig returns the compiled-in configuration: a 100 unit pool per
// type granted in quanta of 30 with both variant switches off (variant A),
// the built-in catalog and the textbook safety dataset.
func DefaultConfig() *Config {
	return &Config{
		Pool:   pool.DefaultConfig(),
		Events: EventsConfig{Buffer: 100},
		Log:    LogConfig{Level: "info"},
	}
}

// Validate returns aggregated error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	var errs []error
	if c.Variant != "" {
		if _, err := scheduler.ParseVariant(string(c.Variant)); err != nil {
			errs = append(errs, err)
		}
	}
	if err := c.Pool.Validate(); err != nil {
		errs = append(errs, err)
	}
	switch c.Events.Vendor {
	case "", messaging.VendorMemory:
	case messaging.VendorFS:
		if c.Events.BaseURL == "" {
			errs = append(errs, fmt.Errorf("events.baseURL is required for vendor %q", c.Events.Vendor))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported events.vendor: %q", c.Events.Vendor))
	}
	if c.Events.Buffer < 0 {
		errs = append(errs, fmt.Errorf("events.buffer must be >= 0"))
	}
	seen := map[int]bool{}
	for i := range c.Catalog {
		entry := &c.Catalog[i]
		if err := entry.Validate(); err != nil {
			errs = append(errs, err)
		}
		if seen[entry.ID] {
			errs = append(errs, fmt.Errorf("catalog entry %d defined more than once", entry.ID))
		}
		seen[entry.ID] = true
	}
	if err := c.Policy.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Safety != nil {
		if err := c.Safety.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("safety: %w", err))
		}
	}
	return errors.Join(errs...)
}

// LoadConfig reads a YAML config from URL (any afs scheme) on top of
// DefaultConfig and validates it. ${env.KEY} expressions are expanded before
// decoding.
func LoadConfig(ctx context.Context, fs afs.Service, URL string) (*Config, error) {
	ret := DefaultConfig()
	if err := meta.New(fs).Load(ctx, URL, ret); err != nil {
		return nil, err
	}
	if err := ret.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %v: %w", URL, err)
	}
	return ret, nil
}
