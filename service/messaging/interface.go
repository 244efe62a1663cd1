// Package messaging defines the queue abstraction lifecycle events are
// published to. Implementations live in the memory and fs sub-packages.
package messaging

import (
	"context"
	"errors"
)

// Vendor represents the name of a messaging vendor
type Vendor string

const (
	VendorMemory Vendor = "memory"
	VendorFS     Vendor = "fs"
)

// ErrQueueFull is returned by non-blocking queues when no buffer space is left.
var ErrQueueFull = errors.New("queue is full")

// Queue represents an abstract message queue for any payload type
type Queue[T any] interface {
	// Publish adds a new message with payload to the queue
	Publish(ctx context.Context, t *T) error

	// Consume retrieves a single message from the queue
	Consume(ctx context.Context) (Message[T], error)
}

// Message represents a message retrieved from a queue
type Message[T any] interface {
	// T returns the payload of this message
	T() *T

	// Ack acknowledges successful processing of this message
	Ack() error

	// Nack indicates failure in processing this message
	Nack(err error) error
}
