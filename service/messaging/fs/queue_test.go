package fs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
)

type testPayload struct {
	PID  int    `json:"pid"`
	Type string `json:"type"`
}

func newQueue(t *testing.T, baseURL string) *Queue[testPayload] {
	queue, err := NewQueue[testPayload](context.Background(), afs.New(), QueueConfig{
		BaseURL:    baseURL,
		MaxRetries: 1,
	})
	require.NoError(t, err)
	return queue
}

func count(t *testing.T, q *Queue[testPayload], state MessageState) int {
	n, err := q.Count(context.Background(), state)
	require.NoError(t, err)
	return n
}

func TestQueue_Order(t *testing.T) {
	ctx := context.Background()
	backends := []struct {
		name    string
		baseURL string
	}{
		{name: "file", baseURL: t.TempDir() + "/events"},
		{name: "mem", baseURL: "mem://localhost/safealloc/queue/order"},
	}
	for _, backend := range backends {
		t.Run(backend.name, func(t *testing.T) {
			queue := newQueue(t, backend.baseURL)
			for pid := 1; pid <= 3; pid++ {
				require.NoError(t, queue.Publish(ctx, &testPayload{PID: pid, Type: "admitted"}))
			}
			assert.Equal(t, 3, count(t, queue, MessageStatePending))

			for pid := 1; pid <= 3; pid++ {
				message, err := queue.Consume(ctx)
				require.NoError(t, err)
				require.NotNil(t, message)
				assert.Equal(t, pid, message.T().PID)
				assert.Equal(t, 1, count(t, queue, MessageStateProcessing))
				require.NoError(t, message.Ack())
				assert.Error(t, message.Ack())
			}
			assert.Equal(t, 3, count(t, queue, MessageStateCompleted))
			assert.Equal(t, 0, count(t, queue, MessageStateProcessing))

			message, err := queue.Consume(ctx)
			assert.NoError(t, err)
			assert.Nil(t, message)
		})
	}
}

func TestQueue_RetryAndDeadLetter(t *testing.T) {
	ctx := context.Background()
	queue := newQueue(t, t.TempDir()+"/events")
	require.NoError(t, queue.Publish(ctx, &testPayload{PID: 1}))
	require.NoError(t, queue.Publish(ctx, &testPayload{PID: 2}))

	message, err := queue.Consume(ctx)
	require.NoError(t, err)
	require.NoError(t, message.Nack(errors.New("boom")))
	assert.Equal(t, 1, count(t, queue, MessageStateFailed))

	message, err = queue.Consume(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, message.T().PID, "failed messages are retried first")
	require.NoError(t, message.Nack(nil))
	assert.Equal(t, 0, count(t, queue, MessageStateFailed))
	assert.Equal(t, 1, count(t, queue, ""))

	message, err = queue.Consume(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, message.T().PID)
}

func TestNewQueue(t *testing.T) {
	_, err := NewQueue[testPayload](context.Background(), afs.New(), QueueConfig{})
	assert.Error(t, err)
}
