package pool

import (
	"errors"
	"fmt"
)

var (
	// ErrResourceExhausted is returned when a requested resource type has
	// fewer than one quantum available.
	ErrResourceExhausted = errors.New("resource exhausted")

	// ErrCeilingExceeded is returned when the declared CPU usage is above the
	// configured ceiling. It wraps ErrResourceExhausted so callers can treat
	// both as an allocation refusal.
	ErrCeilingExceeded = fmt.Errorf("cpu ceiling exceeded: %w", ErrResourceExhausted)

	// ErrUnbackedRelease is returned when a release is not paired with an
	// outstanding grant.
	ErrUnbackedRelease = errors.New("release without matching grant")
)
