package llm

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/memoflow/internal/labels"
)

// scriptedClient answers prompts by their opening task line, so tests do not
// depend on call order.
type scriptedClient struct {
	replies map[string]string
	errs    map[string]error
	calls   map[string]int
	prompts map[string][]string
	mu      sync.Mutex
}

func newScriptedClient() *scriptedClient {
	return &scriptedClient{
		replies: make(map[string]string),
		errs:    make(map[string]error),
		calls:   make(map[string]int),
		prompts: make(map[string][]string),
	}
}

func (s *scriptedClient) on(task, reply string) *scriptedClient {
	s.replies[task] = reply
	return s
}

func (s *scriptedClient) fail(task string, err error) *scriptedClient {
	s.errs[task] = err
	return s
}

func (s *scriptedClient) Generate(_ context.Context, prompt string) (string, error) {
	task := firstLine(prompt)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[task]++
	s.prompts[task] = append(s.prompts[task], prompt)

	if err, ok := s.errs[task]; ok {
		return "", err
	}
	return s.replies[task], nil
}

func (s *scriptedClient) count(task string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[task]
}

func (s *scriptedClient) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}

func (s *scriptedClient) lastPrompt(task string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.prompts[task]
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

// scriptedImageClient adds image support to scriptedClient.
type scriptedImageClient struct {
	*scriptedClient
	images []Image
}

func (s *scriptedImageClient) GenerateWithImage(ctx context.Context, prompt string, image Image) (string, error) {
	s.mu.Lock()
	s.images = append(s.images, image)
	s.mu.Unlock()
	return s.Generate(ctx, prompt)
}

func newTestClassifier(t *testing.T, client Client) *Classifier {
	t.Helper()
	c := NewClassifierWithClient(client, Config{
		MaxRetries:  1,
		RetryDelay:  time.Millisecond,
		CallTimeout: time.Second,
	}, labels.MustLoad("en"), nil)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func containsAll(s string, parts ...string) bool {
	for _, p := range parts {
		if !strings.Contains(s, p) {
			return false
		}
	}
	return true
}
