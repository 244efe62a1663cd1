package event

import (
	"context"
	"fmt"

	"github.com/viant/safealloc/internal/clock"
	"github.com/viant/safealloc/service/messaging"
)

type Publisher[T any] struct {
	queue messaging.Queue[Event[T]]
}

func NewPublisher[T any](queue messaging.Queue[Event[T]]) *Publisher[T] {
	return &Publisher[T]{queue: queue}
}

// Publish stamps and enqueues event.
func (p *Publisher[T]) Publish(ctx context.Context, event *Event[T]) error {
	if p == nil || p.queue == nil {
		return nil
	}
	if event == nil {
		return fmt.Errorf("event was nil")
	}
	event.CreatedAt = clock.Now()
	return p.queue.Publish(ctx, event)
}

// Consume returns the next event, acknowledging it. A nil event with a nil
// error means the queue was empty.
func (p *Publisher[T]) Consume(ctx context.Context) (*Event[T], error) {
	msg, err := p.queue.Consume(ctx)
	if err != nil || msg == nil {
		return nil, err
	}
	if err = msg.Ack(); err != nil {
		return nil, err
	}
	return msg.T(), nil
}
