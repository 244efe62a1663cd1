package fs

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/storage"
	"github.com/viant/afs/url"
	"github.com/viant/safealloc/internal/clock"
	"github.com/viant/safealloc/internal/idgen"
	"github.com/viant/safealloc/service/messaging"
)

// MessageState represents the state of a message in the filesystem queue
type MessageState string

const (
	MessageStatePending    MessageState = "pending"
	MessageStateProcessing MessageState = "processing"
	MessageStateCompleted  MessageState = "completed"
	MessageStateFailed     MessageState = "failed"
)

// Message implements messaging.Message for the filesystem queue
type Message[T any] struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Data      T            `json:"data"`
	State     MessageState `json:"state"`
	Error     string       `json:"error,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
	Retries   int          `json:"retries"`

	queue     *Queue[T]
	processed bool
	mu        sync.Mutex
}

// T returns the message payload
func (m *Message[T]) T() *T {
	return &m.Data
}

// Ack moves the message to the completed directory.
func (m *Message[T]) Ack() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return fmt.Errorf("message %s already processed", m.ID)
	}
	m.processed = true
	m.State = MessageStateCompleted
	m.UpdatedAt = clock.Now()
	return m.queue.settle(context.Background(), m, m.queue.completedDir)
}

// Nack moves the message to the failed directory for retry, or to the dead
// letter directory once MaxRetries is exceeded.
func (m *Message[T]) Nack(err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return fmt.Errorf("message %s already processed", m.ID)
	}
	m.processed = true
	m.State = MessageStateFailed
	if err != nil {
		m.Error = err.Error()
	}
	m.Retries++
	m.UpdatedAt = clock.Now()
	dest := m.queue.failedDir
	if m.Retries > m.queue.config.MaxRetries {
		dest = m.queue.dlqDir
	}
	return m.queue.settle(context.Background(), m, dest)
}

// QueueConfig holds configuration for filesystem queue
type QueueConfig struct {
	BaseURL    string `json:"baseURL" yaml:"baseURL"`
	MaxRetries int    `json:"maxRetries" yaml:"maxRetries"`
}

// DefaultConfig returns a default queue configuration
func DefaultConfig() QueueConfig {
	return QueueConfig{
		BaseURL:    "/tmp/safealloc/events",
		MaxRetries: 3,
	}
}

// Queue implements a filesystem-backed messaging.Queue. Messages are
// consumed in publish order; failed messages are retried before new ones.
type Queue[T any] struct {
	fs            afs.Service
	config        QueueConfig
	pendingDir    string
	processingDir string
	completedDir  string
	failedDir     string
	dlqDir        string
	seq           *idgen.Sequence
	mu            sync.Mutex
}

// NewQueue creates a filesystem queue, creating its directories when missing.
func NewQueue[T any](ctx context.Context, fs afs.Service, config QueueConfig) (*Queue[T], error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("base URL cannot be empty")
	}
	if fs == nil {
		fs = afs.New()
	}
	q := &Queue[T]{
		fs:            fs,
		config:        config,
		pendingDir:    url.Join(config.BaseURL, "pending"),
		processingDir: url.Join(config.BaseURL, "processing"),
		completedDir:  url.Join(config.BaseURL, "completed"),
		failedDir:     url.Join(config.BaseURL, "failed"),
		dlqDir:        url.Join(config.BaseURL, "dlq"),
		seq:           idgen.NewSequence(),
	}
	for _, dir := range []string{q.pendingDir, q.processingDir, q.completedDir, q.failedDir, q.dlqDir} {
		if exists, _ := fs.Exists(ctx, dir); exists {
			continue
		}
		if err := fs.Create(ctx, dir, file.DefaultDirOsMode, true); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return q, nil
}

// Publish writes a new pending message.
func (q *Queue[T]) Publish(ctx context.Context, t *T) error {
	if t == nil {
		return fmt.Errorf("payload was nil")
	}
	now := clock.Now()
	message := &Message[T]{
		ID:        idgen.New(),
		Data:      *t,
		State:     MessageStatePending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	// names sort in publish order
	message.Name = fmt.Sprintf("%020d-%06d-%s.json", now.UnixNano(), q.seq.Next(), message.ID)
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.write(ctx, url.Join(q.pendingDir, message.Name), message)
}

// Consume returns the oldest failed message eligible for retry, else the
// oldest pending one, or nil when both directories are empty.
func (q *Queue[T]) Consume(ctx context.Context) (messaging.Message[T], error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, dir := range []string{q.failedDir, q.pendingDir} {
		objects, err := q.list(ctx, dir)
		if err != nil {
			return nil, err
		}
		if len(objects) == 0 {
			continue
		}
		obj := objects[0]
		message, err := q.read(ctx, obj.URL())
		if err != nil {
			_ = q.fs.Move(ctx, obj.URL(), url.Join(q.dlqDir, "invalid-"+obj.Name()))
			return nil, err
		}
		message.queue = q
		message.State = MessageStateProcessing
		message.UpdatedAt = clock.Now()
		if err = q.write(ctx, url.Join(q.processingDir, message.Name), message); err != nil {
			return nil, fmt.Errorf("failed to move message %s to processing: %w", message.ID, err)
		}
		if err = q.fs.Delete(ctx, obj.URL()); err != nil {
			return nil, fmt.Errorf("failed to delete message %s from %s: %w", message.ID, dir, err)
		}
		return message, nil
	}
	return nil, nil
}

func (q *Queue[T]) settle(ctx context.Context, m *Message[T], dir string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.write(ctx, url.Join(dir, m.Name), m); err != nil {
		return err
	}
	processingURL := url.Join(q.processingDir, m.Name)
	if exists, _ := q.fs.Exists(ctx, processingURL); exists {
		if err := q.fs.Delete(ctx, processingURL); err != nil {
			return fmt.Errorf("failed to delete message %s from processing: %w", m.ID, err)
		}
	}
	return nil
}

// Count returns the number of messages held in the directory for state, or
// the dead letter directory when state is empty.
func (q *Queue[T]) Count(ctx context.Context, state MessageState) (int, error) {
	dir := q.dlqDir
	switch state {
	case MessageStatePending:
		dir = q.pendingDir
	case MessageStateProcessing:
		dir = q.processingDir
	case MessageStateCompleted:
		dir = q.completedDir
	case MessageStateFailed:
		dir = q.failedDir
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	objects, err := q.list(ctx, dir)
	return len(objects), err
}

func (q *Queue[T]) list(ctx context.Context, dir string) ([]storage.Object, error) {
	objects, err := q.fs.List(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	var ret []storage.Object
	for _, obj := range objects {
		if !obj.IsDir() && strings.HasSuffix(obj.Name(), ".json") {
			ret = append(ret, obj)
		}
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].Name() < ret[j].Name() })
	return ret, nil
}

func (q *Queue[T]) write(ctx context.Context, URL string, m *Message[T]) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal message %s: %w", m.ID, err)
	}
	if err = q.fs.Upload(ctx, URL, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write message %s: %w", URL, err)
	}
	return nil
}

func (q *Queue[T]) read(ctx context.Context, URL string) (*Message[T], error) {
	data, err := q.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to read message %s: %w", URL, err)
	}
	message := &Message[T]{}
	if err = json.Unmarshal(data, message); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message %s: %w", URL, err)
	}
	return message, nil
}

// ensure Queue implements messaging.Queue interface
var _ messaging.Queue[any] = (*Queue[any])(nil)
