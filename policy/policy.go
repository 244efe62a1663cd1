package policy

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Admission modes.
const (
	ModeAsk  = "ask"  // ask before every admission
	ModeAuto = "auto" // admit automatically (default)
	ModeDeny = "deny" // reject every admission
)

// ErrDenied is returned when a policy refuses an admission.
var ErrDenied = errors.New("admission denied by policy")

// AskFunc is invoked when Mode==ask. Returning true approves the admission.
// Implementations may mutate the policy, for example switching to ModeAuto
// after the first approval.
type AskFunc func(ctx context.Context, catalogID int, name string, p *Policy) bool

// Policy holds operator rules applied before a process is admitted.
//
// AllowList and BlockList entries match either the application name or its
// catalog id, case-insensitive. A nil *Policy admits everything.
type Policy struct {
	Mode      string
	AllowList []string
	BlockList []string
	Ask       AskFunc
}

// Config represents the declarative, serialisable part of a Policy.
type Config struct {
	Mode      string   `json:"mode,omitempty" yaml:"mode,omitempty"`
	AllowList []string `json:"allow,omitempty" yaml:"allow,omitempty"`
	BlockList []string `json:"block,omitempty" yaml:"block,omitempty"`
}

// Validate checks the mode.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	switch strings.ToLower(c.Mode) {
	case "", ModeAuto, ModeAsk, ModeDeny:
		return nil
	}
	return fmt.Errorf("unsupported policy mode: %q", c.Mode)
}

// FromConfig converts a stored Config to a runtime Policy (without AskFunc).
func FromConfig(c *Config) *Policy {
	if c == nil {
		return nil
	}
	return &Policy{
		Mode:      strings.ToLower(c.Mode),
		AllowList: append([]string(nil), c.AllowList...),
		BlockList: append([]string(nil), c.BlockList...),
	}
}

// IsAllowed evaluates BlockList then AllowList for an application.
func (p *Policy) IsAllowed(catalogID int, name string) bool {
	if p == nil {
		return true
	}
	id := strconv.Itoa(catalogID)
	matches := func(candidate string) bool {
		candidate = strings.TrimSpace(candidate)
		return candidate == id || strings.EqualFold(candidate, name)
	}
	for _, b := range p.BlockList {
		if matches(b) {
			return false
		}
	}
	if len(p.AllowList) == 0 {
		return true
	}
	for _, a := range p.AllowList {
		if matches(a) {
			return true
		}
	}
	return false
}

// Evaluate returns nil when the application may be admitted, or an error
// wrapping ErrDenied.
func (p *Policy) Evaluate(ctx context.Context, catalogID int, name string) error {
	if p == nil {
		return nil
	}
	if !p.IsAllowed(catalogID, name) {
		return fmt.Errorf("%w: %v is not allowed", ErrDenied, name)
	}
	switch p.Mode {
	case ModeDeny:
		return fmt.Errorf("%w: mode %v", ErrDenied, ModeDeny)
	case ModeAsk:
		if p.Ask == nil || !p.Ask(ctx, catalogID, name, p) {
			return fmt.Errorf("%w: %v was not approved", ErrDenied, name)
		}
	}
	return nil
}

type ctxKeyT struct{}

var ctxKey ctxKeyT

// WithPolicy embeds policy in ctx; it takes precedence over the scheduler
// policy for admissions made with that context.
func WithPolicy(ctx context.Context, p *Policy) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey, p)
}

// FromContext extracts the policy embedded by WithPolicy, or nil.
func FromContext(ctx context.Context) *Policy {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxKey).(*Policy); ok {
		return v
	}
	return nil
}
