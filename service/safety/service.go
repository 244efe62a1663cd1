// Package safety implements the Banker's safety check and the matching
// resource-request step over a model/safety.State.
package safety

import (
	"context"
	"fmt"
	"strings"

	"github.com/viant/safealloc/model/resource"
	msafety "github.com/viant/safealloc/model/safety"
	"github.com/viant/safealloc/tracing"
	"go.uber.org/zap"
)

// Step records the work vector around one grant in the safe sequence.
type Step struct {
	Process int             `json:"process"`
	Before  resource.Vector `json:"before"`
	After   resource.Vector `json:"after"`
}

// Result is the outcome of a safety check. When Safe is false Sequence holds
// the processes that could finish before the scan got stuck.
type Result struct {
	Safe     bool   `json:"safe"`
	Sequence []int  `json:"sequence"`
	Steps    []Step `json:"steps,omitempty"`
}

// Service runs safety checks. It holds no allocation state.
type Service struct {
	logger *zap.Logger
}

// Option configures a Service.
type Option func(s *Service)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a safety service.
func New(options ...Option) *Service {
	ret := &Service{logger: zap.NewNop()}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}

// Check computes a safe sequence. Among eligible processes the lowest index
// is picked first, so the sequence is deterministic. The state is not
// modified.
func (s *Service) Check(ctx context.Context, state *msafety.State) (result *Result, err error) {
	_, span := tracing.StartSpan(ctx, "safety.Check", tracing.KindInternal)
	defer func() { tracing.EndSpan(span, err) }()

	if err = state.Validate(); err != nil {
		return nil, err
	}
	n := state.Processes()
	work := state.Available.Clone()
	finished := make([]bool, n)
	result = &Result{Sequence: make([]int, 0, n)}

	for len(result.Sequence) < n {
		p := s.nextEligible(state, work, finished)
		if p == -1 {
			span.WithInts("sequence", result.Sequence)
			s.logger.Debug("unsafe state", zap.Ints("partial", result.Sequence), zap.Ints("work", work))
			return result, fmt.Errorf("%w: %d of %d processes can finish", ErrUnsafe, len(result.Sequence), n)
		}
		before := work.Clone()
		work.Add(state.Allocation[p])
		finished[p] = true
		result.Sequence = append(result.Sequence, p)
		result.Steps = append(result.Steps, Step{Process: p, Before: before, After: work.Clone()})
	}
	result.Safe = true
	span.WithInts("sequence", result.Sequence)
	return result, nil
}

func (s *Service) nextEligible(state *msafety.State, work resource.Vector, finished []bool) int {
	for p := 0; p < state.Processes(); p++ {
		if !finished[p] && state.Need[p].LessOrEqual(work) {
			return p
		}
	}
	return -1
}

// Request tries to grant request to process p. The request must fit in both
// the remaining need of p and the available vector, and the resulting state
// must be safe. On success the new state is returned; otherwise state is left
// untouched and the returned state is nil.
func (s *Service) Request(ctx context.Context, state *msafety.State, p int, request resource.Vector) (*msafety.State, *Result, error) {
	ctx, span := tracing.StartSpan(ctx, "safety.Request", tracing.KindInternal)
	span.WithInt("process", p)
	var err error
	defer func() { tracing.EndSpan(span, err) }()

	if err = state.Validate(); err != nil {
		return nil, nil, err
	}
	if p < 0 || p >= state.Processes() {
		err = fmt.Errorf("%w: process P%d out of range", ErrInvalidInput, p)
		return nil, nil, err
	}
	if len(request) != state.Resources() || !request.IsNonNegative() {
		err = fmt.Errorf("%w: request must have %d non-negative entries", ErrInvalidInput, state.Resources())
		return nil, nil, err
	}
	if !request.LessOrEqual(state.Need[p]) {
		err = fmt.Errorf("%w: P%d requested %v beyond its need %v", ErrInvalidInput, p, request, state.Need[p])
		return nil, nil, err
	}
	if !request.LessOrEqual(state.Available) {
		err = fmt.Errorf("%w: P%d requested %v, available %v", ErrResourceExhausted, p, request, state.Available)
		return nil, nil, err
	}

	candidate := state.Clone()
	candidate.Available.Sub(request)
	candidate.Allocation[p].Add(request)
	candidate.Need[p].Sub(request)

	result, err := s.Check(ctx, candidate)
	if err != nil {
		return nil, result, err
	}
	return candidate, result, nil
}

// Format renders a result for console output.
func Format(result *Result) string {
	if result == nil || !result.Safe {
		return "system is not in a safe state"
	}
	builder := strings.Builder{}
	builder.WriteString("system is in a safe state, safe sequence:")
	for _, p := range result.Sequence {
		builder.WriteString(fmt.Sprintf(" P%d", p))
	}
	return builder.String()
}
