package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/memoflow/internal/common"
	"github.com/Veraticus/memoflow/internal/engine"
	"github.com/Veraticus/memoflow/internal/labels"
	"github.com/Veraticus/memoflow/internal/model"
	"github.com/Veraticus/memoflow/internal/service"
)

// Classifier is an engine.Classifier that holds releasable resources.
type Classifier interface {
	engine.Classifier
	Close() error
}

// ClassifierFactory acquires a classifier for one task.
type ClassifierFactory func(ctx context.Context) (Classifier, error)

// ProgressFunc reports bulk re-analysis progress.
type ProgressFunc func(done, total int)

// Runner executes single tasks. It is safe for concurrent use; every Run
// acquires and releases its own classifier.
type Runner struct {
	storage  service.Storage
	factory  ClassifierFactory
	catalog  *labels.Catalog
	logger   *slog.Logger
	progress ProgressFunc
	config   engine.Config
}

// NewRunner creates a runner.
func NewRunner(storage service.Storage, factory ClassifierFactory, catalog *labels.Catalog, config engine.Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if catalog == nil {
		catalog = labels.MustLoad("")
	}
	return &Runner{
		storage: storage,
		factory: factory,
		catalog: catalog,
		config:  config,
		logger:  logger,
	}
}

// WithProgress returns a copy of the runner that reports bulk progress.
func (r *Runner) WithProgress(fn ProgressFunc) *Runner {
	cp := *r
	cp.progress = fn
	return &cp
}

// Run executes task once. Input that can never succeed is a permanent
// failure; every other error, including a panic, asks for a retry.
func (r *Runner) Run(ctx context.Context, task Task) (result Result) {
	logger := r.logger.With("task_id", task.ID, "kind", task.Kind)

	if err := validate(task); err != nil {
		logger.Warn("rejecting task", "error", err)
		return permanent(err)
	}

	classifier, err := r.factory(ctx)
	if err != nil {
		logger.Warn("failed to acquire classifier", "error", err)
		return retry(fmt.Errorf("failed to acquire classifier: %w", err))
	}
	defer func() {
		if cerr := classifier.Close(); cerr != nil {
			logger.Debug("failed to release classifier", "error", cerr)
		}
	}()
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("task panicked", "panic", rec)
			result = retry(fmt.Errorf("task panicked: %v", rec))
		}
	}()

	orchestrator := engine.NewOrchestrator(classifier, r.storage, r.catalog, r.config)

	switch task.Kind {
	case KindCapture:
		result = r.capture(ctx, orchestrator, task.Payload)
	case KindReanalyzeMemo:
		result = r.reanalyzeMemo(ctx, orchestrator, task.Payload.MemoID)
	case KindReanalyzeFailures:
		result = r.reanalyzeFailures(ctx, orchestrator)
	}

	switch result.Outcome {
	case OutcomeSuccess:
		logger.Info("task succeeded", "memo_id", result.MemoID, "processed", result.Processed)
	default:
		logger.Warn("task did not succeed", "outcome", result.Outcome, "error", result.Err)
	}
	return result
}

func validate(task Task) error {
	switch task.Kind {
	case KindCapture:
		if !task.Payload.HasInput() {
			return fmt.Errorf("%w: capture needs text or an image", common.ErrInvalidInput)
		}
	case KindReanalyzeMemo:
		if strings.TrimSpace(task.Payload.MemoID) == "" {
			return fmt.Errorf("%w: memo id is required", common.ErrInvalidInput)
		}
	case KindReanalyzeFailures:
	default:
		return fmt.Errorf("%w: unknown task kind %q", common.ErrInvalidInput, task.Kind)
	}
	return nil
}

// capture categorizes fresh input and inserts exactly one memo. An image
// reference takes precedence over text.
func (r *Runner) capture(ctx context.Context, o *engine.Orchestrator, p Payload) Result {
	var (
		memo *model.Memo
		err  error
	)
	if strings.TrimSpace(p.ImageRef) != "" {
		memo, err = o.ProcessImage(ctx, p.ImageRef, p.SourceApp)
	} else {
		memo, err = o.ProcessText(ctx, p.Content, p.SourceApp)
	}
	if err != nil {
		return retry(fmt.Errorf("categorization failed: %w", err))
	}
	if memo == nil {
		memo = o.FailureMemo(p.Content, p.ImageRef, p.SourceApp, "")
	}

	if err := ctx.Err(); err != nil {
		return retry(err)
	}

	id, err := r.storage.InsertMemo(ctx, memo)
	if err != nil {
		return retry(fmt.Errorf("failed to save memo: %w", err))
	}
	return success(id)
}

func (r *Runner) reanalyzeMemo(ctx context.Context, o *engine.Orchestrator, id string) Result {
	memo, err := r.storage.GetMemoByID(ctx, id)
	if err != nil {
		return retry(fmt.Errorf("failed to load memo %s: %w", id, err))
	}
	if memo == nil {
		return permanent(fmt.Errorf("memo %s: %w", id, common.ErrNotFound))
	}

	return r.reanalyzeOne(ctx, o, memo)
}

func (r *Runner) reanalyzeOne(ctx context.Context, o *engine.Orchestrator, memo *model.Memo) Result {
	updated, err := o.Reanalyze(ctx, memo)
	if err != nil {
		if engine.IsTransient(err) {
			return retry(err)
		}
		return permanent(err)
	}
	if updated == nil {
		return retry(fmt.Errorf("memo %s: %w", memo.ID, common.ErrModelUnavailable))
	}

	if err := r.storage.UpdateMemo(ctx, updated); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return permanent(err)
		}
		return retry(fmt.Errorf("failed to save memo %s: %w", memo.ID, err))
	}
	return success(memo.ID)
}

// reanalyzeFailures re-runs every memo in a Failure bucket. Memos the model
// still cannot place stay where they are; a transient error retries the
// whole unit, which is safe because finished memos leave the bucket.
func (r *Runner) reanalyzeFailures(ctx context.Context, o *engine.Orchestrator) Result {
	memos, err := r.failureMemos(ctx)
	if err != nil {
		return retry(err)
	}

	res := Result{Outcome: OutcomeSuccess}
	for i := range memos {
		if err := ctx.Err(); err != nil {
			return retry(err)
		}

		one := r.reanalyzeOne(ctx, o, &memos[i])
		switch {
		case one.Outcome == OutcomeSuccess:
			res.Processed++
		case errors.Is(one.Err, common.ErrModelUnavailable), one.Outcome == OutcomePermanentFailure:
			res.Remaining++
		default:
			return retry(one.Err)
		}

		if r.progress != nil {
			r.progress(i+1, len(memos))
		}
	}
	return res
}

// failureMemos collects memos under any Failure alias, once each.
func (r *Runner) failureMemos(ctx context.Context) ([]model.Memo, error) {
	seen := make(map[string]bool)
	var out []model.Memo
	for _, alias := range r.catalog.FailureAliases() {
		memos, err := r.storage.GetMemosByCategory(ctx, alias)
		if err != nil {
			return nil, fmt.Errorf("failed to load %q memos: %w", alias, err)
		}
		for _, m := range memos {
			if seen[m.ID] {
				continue
			}
			seen[m.ID] = true
			out = append(out, m)
		}
	}
	return out, nil
}
