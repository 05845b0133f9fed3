package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/Veraticus/memoflow/internal/model"
)

// stubClassifier categorizes by exact content and counts Close calls.
type stubClassifier struct {
	byContent map[string]string
	closed    *atomic.Int32
	panics    bool
}

func (s *stubClassifier) Classify(_ context.Context, content, _ string) (model.Classification, bool) {
	if s.panics {
		panic("boom")
	}
	category, ok := s.byContent[content]
	return model.Classification{Category: category}, ok
}

func (s *stubClassifier) DescribeImage(_ context.Context, imageRef, _ string) (model.Classification, bool) {
	category, ok := s.byContent[imageRef]
	if !ok {
		return model.Classification{}, false
	}
	return model.Classification{Category: category, Description: "description of " + imageRef}, true
}

func (s *stubClassifier) MatchFromList(context.Context, string, string, []string) (string, bool) {
	return "", false
}

func (s *stubClassifier) MergeCategory(_ context.Context, req model.MergeRequest) model.MergeResult {
	return model.MergeResult{Category: req.Category}
}

func (s *stubClassifier) Close() error {
	s.closed.Add(1)
	return nil
}

func stubFactory(byContent map[string]string, closed *atomic.Int32) ClassifierFactory {
	return func(context.Context) (Classifier, error) {
		return &stubClassifier{byContent: byContent, closed: closed}, nil
	}
}

// recordingEnqueuer captures enqueued tasks.
type recordingEnqueuer struct {
	err   error
	kinds []Kind
	loads []Payload
	mu    sync.Mutex
}

func (r *recordingEnqueuer) Enqueue(kind Kind, payload Payload) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return "", r.err
	}
	r.kinds = append(r.kinds, kind)
	r.loads = append(r.loads, payload)
	return "task-" + string(kind), nil
}

func (r *recordingEnqueuer) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.kinds)
}

var errTransient = errors.New("disk I/O error")
