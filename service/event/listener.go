package event

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Listener consumes events in a background goroutine and hands them to handler.
type Listener[T any] struct {
	publisher    *Publisher[T]
	handler      func(*Event[T])
	logger       *zap.Logger
	pollInterval time.Duration
	cancel       context.CancelFunc
	done         chan struct{}
}

func NewListener[T any](publisher *Publisher[T], handler func(*Event[T]), logger *zap.Logger) *Listener[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Listener[T]{
		publisher:    publisher,
		handler:      handler,
		logger:       logger,
		pollInterval: 50 * time.Millisecond,
	}
}

// Start launches the consumer loop. It is a no-op when already started.
func (l *Listener[T]) Start() {
	if l.done != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	l.done = make(chan struct{})
	go func() {
		defer close(l.done)
		for {
			event, err := l.publisher.Consume(ctx)
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				l.logger.Warn("failed to consume event", zap.Error(err))
			}
			if event == nil {
				select {
				case <-ctx.Done():
					return
				case <-time.After(l.pollInterval):
				}
				continue
			}
			l.handler(event)
		}
	}()
}

// Stop cancels the consumer loop and waits for it to exit.
func (l *Listener[T]) Stop() {
	if l.cancel == nil {
		return
	}
	l.cancel()
	<-l.done
}
