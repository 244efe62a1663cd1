// Package meta loads YAML documents through afs, expanding ${env.KEY}
// expressions before decoding.
package meta

import (
	"context"
	"fmt"
	"os"

	"github.com/viant/afs"
	"gopkg.in/yaml.v3"
)

// Service loads and decodes YAML resources.
type Service struct {
	fs     afs.Service
	lookup func(string) string
}

// Option configures a Service.
type Option func(s *Service)

// WithEnv replaces the environment lookup, os.Getenv by default.
func WithEnv(lookup func(string) string) Option {
	return func(s *Service) {
		if lookup != nil {
			s.lookup = lookup
		}
	}
}

// New creates a meta service; a nil fs uses afs.New().
func New(fs afs.Service, options ...Option) *Service {
	if fs == nil {
		fs = afs.New()
	}
	ret := &Service{fs: fs, lookup: os.Getenv}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}

// Expand replaces ${env.KEY} expressions in value.
func (s *Service) Expand(value string) string {
	return expandEnvExpr(value, s.lookup)
}

// Load downloads URL, expands environment expressions and decodes the YAML
// into target. Fields missing from the document keep their target values.
func (s *Service) Load(ctx context.Context, URL string, target interface{}) error {
	data, err := s.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return fmt.Errorf("failed to load %v: %w", URL, err)
	}
	if err = yaml.Unmarshal([]byte(s.Expand(string(data))), target); err != nil {
		return fmt.Errorf("failed to decode %v: %w", URL, err)
	}
	return nil
}
