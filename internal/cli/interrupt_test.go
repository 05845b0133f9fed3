package cli

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// syncBuffer provides thread-safe access to a bytes.Buffer.
type syncBuffer struct {
	buf bytes.Buffer
	mu  sync.Mutex
}

func (s *syncBuffer) Write(p []byte) (n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func TestNewInterruptHandler(t *testing.T) {
	tests := []struct {
		writer io.Writer
		name   string
	}{
		{name: "with custom writer", writer: &bytes.Buffer{}},
		{name: "with nil writer", writer: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewInterruptHandler(tt.writer)
			assert.NotNil(t, handler.writer)
			assert.False(t, handler.WasInterrupted())
		})
	}
}

func TestInterruptHandler_Interrupt(t *testing.T) {
	buf := &syncBuffer{}
	handler := NewInterruptHandler(buf)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	derived := handler.HandleInterrupts(ctx, "Finishing queued tasks")
	assert.NoError(t, derived.Err())

	handler.interrupt()
	handler.interrupt()

	assert.True(t, handler.WasInterrupted())
	out := buf.String()
	assert.Contains(t, out, "Interrupted!")
	assert.Contains(t, out, "Finishing queued tasks")
	assert.Equal(t, 1, bytes.Count([]byte(out), []byte("Interrupted!")))
}
