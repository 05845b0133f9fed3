package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/memoflow/internal/engine"
	"github.com/Veraticus/memoflow/internal/labels"
	"github.com/Veraticus/memoflow/internal/llm"
	"github.com/Veraticus/memoflow/internal/service"
	"github.com/Veraticus/memoflow/internal/worker"
)

// newClassifierPool connects to the configured provider once per command.
// Every task draws its classifier from the pool so the rate budget, breaker
// and cache span the whole run.
func newClassifierPool(catalog *labels.Catalog) (*llm.Pool, error) {
	pool, err := llm.NewPool(settings.LLM, catalog, slog.Default())
	if err != nil {
		return nil, fmt.Errorf("failed to create classifier: %w", err)
	}
	return pool, nil
}

// classifierFactory hands each task its own classifier from pool.
func classifierFactory(pool *llm.Pool) worker.ClassifierFactory {
	return func(context.Context) (worker.Classifier, error) {
		return pool.Classifier(), nil
	}
}

// newRunner wires storage, the classifier pool and labels into a task runner.
func newRunner(store service.Storage, catalog *labels.Catalog, pool *llm.Pool) *worker.Runner {
	return worker.NewRunner(store, classifierFactory(pool), catalog, settings.Engine, slog.Default())
}

// compile-time check that the model-backed classifier fits the pipeline.
var _ engine.Classifier = (*llm.Classifier)(nil)
