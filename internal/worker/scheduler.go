package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
)

// Scheduler errors.
var (
	ErrQueueFull        = errors.New("task queue is full")
	ErrSchedulerStopped = errors.New("scheduler is stopped")
)

// TaskRunner executes one attempt of a task.
type TaskRunner interface {
	Run(ctx context.Context, task Task) Result
}

// SchedulerConfig configures concurrency and retry behavior.
type SchedulerConfig struct {
	Concurrency    int
	QueueSize      int
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultSchedulerConfig returns the default configuration.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Concurrency:    2,
		QueueSize:      64,
		MaxAttempts:    5,
		InitialBackoff: time.Second,
		MaxBackoff:     time.Minute,
	}
}

func (c SchedulerConfig) withDefaults() SchedulerConfig {
	d := DefaultSchedulerConfig()
	if c.Concurrency <= 0 {
		c.Concurrency = d.Concurrency
	}
	if c.QueueSize <= 0 {
		c.QueueSize = d.QueueSize
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = d.InitialBackoff
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = d.MaxBackoff
	}
	return c
}

// TaskStatus is a snapshot of a task's progress.
type TaskStatus struct {
	UpdatedAt time.Time
	ID        string
	Kind      Kind
	State     State
	LastError string
	MemoID    string
	Attempts  int
}

// Scheduler runs enqueued tasks on a fixed number of workers and retries
// them with exponential backoff.
type Scheduler struct {
	ctx        context.Context
	runner     TaskRunner
	logger     *slog.Logger
	queue      chan Task
	cancel     context.CancelFunc
	status     map[string]*TaskStatus
	onComplete func(TaskStatus)
	wg         sync.WaitGroup
	config     SchedulerConfig
	mu         sync.Mutex
	started    bool
	stopped    bool
}

// NewScheduler creates a scheduler. Call Start before enqueuing.
func NewScheduler(runner TaskRunner, config SchedulerConfig, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	config = config.withDefaults()
	return &Scheduler{
		runner: runner,
		config: config,
		logger: logger,
		queue:  make(chan Task, config.QueueSize),
		status: make(map[string]*TaskStatus),
	}
}

// OnComplete registers a callback invoked when a task reaches a terminal
// state. It must be set before Start.
func (s *Scheduler) OnComplete(fn func(TaskStatus)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onComplete = fn
}

// Start launches the workers. Cancelling ctx aborts running tasks.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.stopped {
		return
	}
	s.started = true
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(s.config.Concurrency)
	for i := 0; i < s.config.Concurrency; i++ {
		go func(workerID int) {
			defer s.wg.Done()
			s.work(workerID)
		}(i)
	}
	s.logger.Info("scheduler started", "workers", s.config.Concurrency, "queue_size", s.config.QueueSize)
}

// Enqueue adds a task and returns its id.
func (s *Scheduler) Enqueue(kind Kind, payload Payload) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return "", ErrSchedulerStopped
	}

	task := Task{
		ID:         uuid.NewString(),
		Kind:       kind,
		Payload:    payload,
		EnqueuedAt: time.Now(),
	}

	select {
	case s.queue <- task:
	default:
		return "", fmt.Errorf("%w: %d tasks waiting", ErrQueueFull, len(s.queue))
	}

	s.status[task.ID] = &TaskStatus{
		ID:        task.ID,
		Kind:      kind,
		State:     StatePending,
		UpdatedAt: task.EnqueuedAt,
	}
	s.logger.Debug("task enqueued", "task_id", task.ID, "kind", kind)
	return task.ID, nil
}

// Status returns the current status of a task.
func (s *Scheduler) Status(id string) (TaskStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.status[id]
	if !ok {
		return TaskStatus{}, false
	}
	return *st, true
}

// Pending reports whether any task of kind has not reached a terminal state.
func (s *Scheduler) Pending(kind Kind) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range s.status {
		if st.Kind == kind && !st.State.IsTerminal() {
			return true
		}
	}
	return false
}

// Stop stops accepting tasks, lets queued tasks drain and waits for the
// workers. If ctx expires first, running tasks are cancelled. On a scheduler
// that was never started, queued tasks are abandoned.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	close(s.queue)
	started := s.started
	s.mu.Unlock()

	if !started {
		for task := range s.queue {
			s.finish(task.ID, StateAbandoned, "", ErrSchedulerStopped)
		}
		return nil
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.cancel()
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		s.cancel()
		<-done
		return fmt.Errorf("scheduler stop interrupted: %w", ctx.Err())
	}
}

func (s *Scheduler) work(workerID int) {
	for task := range s.queue {
		if s.ctx.Err() != nil {
			s.finish(task.ID, StateAbandoned, "", s.ctx.Err())
			continue
		}
		s.logger.Debug("worker picked task", "worker", workerID, "task_id", task.ID)
		s.execute(task)
	}
}

// errRetry marks an attempt that asked to be retried.
var errRetry = errors.New("task asked for retry")

func (s *Scheduler) execute(task Task) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = s.config.InitialBackoff
	policy.MaxInterval = s.config.MaxBackoff

	var last Result
	_, err := backoff.Retry(s.ctx, func() (Result, error) {
		s.transition(task.ID, StateRunning, "")
		last = s.runner.Run(s.ctx, task)

		switch last.Outcome {
		case OutcomeSuccess:
			return last, nil
		case OutcomePermanentFailure:
			if last.Err == nil {
				last.Err = errors.New("permanent failure")
			}
			return last, backoff.Permanent(last.Err)
		default:
			s.transition(task.ID, StateRetry, errorText(last.Err))
			return last, fmt.Errorf("%w: %v", errRetry, last.Err)
		}
	},
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(uint(s.config.MaxAttempts)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, wait time.Duration) {
			s.logger.Info("retrying task", "task_id", task.ID, "kind", task.Kind, "wait", wait, "error", err)
		}),
	)

	switch {
	case err == nil:
		s.finish(task.ID, StateSuccess, last.MemoID, nil)
	case last.Outcome == OutcomePermanentFailure:
		s.finish(task.ID, StatePermanentFailure, "", last.Err)
	default:
		s.logger.Warn("giving up on task", "task_id", task.ID, "kind", task.Kind, "attempts", s.config.MaxAttempts, "error", err)
		s.finish(task.ID, StateAbandoned, "", err)
	}
}

func (s *Scheduler) transition(id string, state State, lastErr string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.status[id]
	if !ok {
		return
	}
	st.State = state
	st.UpdatedAt = time.Now()
	if state == StateRunning {
		st.Attempts++
	}
	if lastErr != "" {
		st.LastError = lastErr
	}
}

func (s *Scheduler) finish(id string, state State, memoID string, err error) {
	s.mu.Lock()
	st, ok := s.status[id]
	if !ok {
		s.mu.Unlock()
		return
	}
	st.State = state
	st.MemoID = memoID
	st.UpdatedAt = time.Now()
	if err != nil {
		st.LastError = err.Error()
	}
	snapshot := *st
	callback := s.onComplete
	s.mu.Unlock()

	if callback != nil {
		callback(snapshot)
	}
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
