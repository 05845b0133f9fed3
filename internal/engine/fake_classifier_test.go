package engine

import (
	"context"
	"errors"
	"sync"

	"github.com/Veraticus/memoflow/internal/model"
)

// fakeClassifier returns canned results and records what it was asked.
type fakeClassifier struct {
	classify     map[string]model.Classification
	images       map[string]model.Classification
	merge        func(model.MergeRequest) model.MergeResult
	match        func(content, suggested string, candidates []string) (string, bool)
	mergeCalls   []model.MergeRequest
	matchCalls   int
	classifyArgs []string
	panicOn      string
	mu           sync.Mutex
}

func newFakeClassifier() *fakeClassifier {
	return &fakeClassifier{
		classify: make(map[string]model.Classification),
		images:   make(map[string]model.Classification),
	}
}

func (f *fakeClassifier) Classify(_ context.Context, content, _ string) (model.Classification, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panicOn == "classify" {
		panic("classifier exploded")
	}
	f.classifyArgs = append(f.classifyArgs, content)
	cls, ok := f.classify[content]
	return cls, ok
}

func (f *fakeClassifier) DescribeImage(_ context.Context, imageRef, _ string) (model.Classification, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cls, ok := f.images[imageRef]
	return cls, ok
}

func (f *fakeClassifier) MatchFromList(_ context.Context, content, suggested string, candidates []string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.matchCalls++
	if f.match == nil {
		return "", false
	}
	return f.match(content, suggested, candidates)
}

func (f *fakeClassifier) MergeCategory(_ context.Context, req model.MergeRequest) model.MergeResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panicOn == "merge" {
		panic("merge exploded")
	}
	f.mergeCalls = append(f.mergeCalls, req)
	if f.merge == nil {
		return model.MergeResult{Category: req.Category}
	}
	return f.merge(req)
}

// fakeReader serves a fixed taxonomy.
type fakeReader struct {
	err      error
	labels   []string
	custom   []string
	requests int
}

func (r *fakeReader) GetDistinctCategoryLabels(context.Context) ([]string, error) {
	r.requests++
	return r.labels, r.err
}

func (r *fakeReader) GetCustomCategories(context.Context) ([]string, error) {
	r.requests++
	return r.custom, r.err
}

var errReadFailed = errors.New("database is locked")
