package tracing

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracingFile(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "span_test.txt")

	require.NoError(t, Init("safealloc", "0.0.1", fname))

	ctx, span := StartSpan(context.Background(), "safety.Check", KindInternal)
	span.WithAttributes(map[string]string{"k": "v"}).WithInts("sequence", []int{0, 1, 2})
	span.AddEvent("step", PID(1))
	_, child := StartSpan(ctx, "pool.TryAllocate", "")
	EndSpan(child, nil)
	EndSpan(span, nil)

	data, err := os.ReadFile(fname)
	require.NoError(t, err)
	assert.Contains(t, string(data), "safety.Check")
	assert.Contains(t, string(data), "parent.span_id")
}

func TestNilSpan(t *testing.T) {
	var span *Span
	assert.Nil(t, span.WithAttributes(map[string]string{"a": "b"}))
	assert.Nil(t, span.WithInt("pid", 1))
	span.AddEvent("noop", nil)
	EndSpan(span, nil)
	ctx := WithSpan(context.Background(), span)
	_, ok := SpanFromContext(ctx)
	assert.False(t, ok)
}
