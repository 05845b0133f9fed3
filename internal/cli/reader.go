package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
)

// ErrInputCancelled is returned when input is canceled by context.
var ErrInputCancelled = errors.New("input canceled")

// NonBlockingReader provides context-aware input reading that can be interrupted.
type NonBlockingReader struct {
	reader      *bufio.Reader
	readingLock sync.Mutex
}

// NewNonBlockingReader creates a new non-blocking reader.
func NewNonBlockingReader(reader io.Reader) *NonBlockingReader {
	if reader == nil {
		panic("reader cannot be nil")
	}

	return &NonBlockingReader{
		reader: bufio.NewReader(reader),
	}
}

// ReadLine reads one line, respecting context cancellation. The reading
// goroutine keeps running until input arrives; its result is then discarded.
func (r *NonBlockingReader) ReadLine(ctx context.Context) (string, error) {
	type result struct {
		err   error
		value string
	}
	resultCh := make(chan result, 1)

	go func() {
		r.readingLock.Lock()
		defer r.readingLock.Unlock()

		value, err := r.reader.ReadString('\n')
		resultCh <- result{value: value, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ErrInputCancelled
	case res := <-resultCh:
		if res.err != nil && !(errors.Is(res.err, io.EOF) && res.value != "") {
			return "", res.err
		}
		return strings.TrimSpace(res.value), nil
	}
}

// CaptureLine is one parsed line of worker input.
type CaptureLine struct {
	Text     string
	ImageRef string
}

// ParseCaptureLine interprets a worker input line. "image:<ref>" captures an
// image; anything else is text, with the two-character sequence \n standing
// for a newline so multi-line shares fit on one line.
func ParseCaptureLine(line string) (CaptureLine, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return CaptureLine{}, false
	}
	if ref, ok := strings.CutPrefix(line, "image:"); ok {
		ref = strings.TrimSpace(ref)
		return CaptureLine{ImageRef: ref}, ref != ""
	}
	return CaptureLine{Text: strings.ReplaceAll(line, `\n`, "\n")}, true
}
