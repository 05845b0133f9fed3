package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	rcron "github.com/robfig/cron/v3"
)

// DefaultSweepSchedule runs a failure sweep at the top of every hour.
const DefaultSweepSchedule = "0 0 * * * *"

// PendingChecker reports whether work of a kind is still queued or running.
type PendingChecker interface {
	Pending(kind Kind) bool
}

// Sweeper periodically enqueues a reanalyze_failures task.
type Sweeper struct {
	enqueuer Enqueuer
	pending  PendingChecker
	logger   *slog.Logger
	cron     *rcron.Cron
	stop     chan struct{}
	schedule string
	mu       sync.Mutex
}

// NewSweeper creates a sweeper for a six-field (seconds first) cron schedule.
// pending may be nil.
func NewSweeper(enqueuer Enqueuer, pending PendingChecker, schedule string, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	if schedule == "" {
		schedule = DefaultSweepSchedule
	}
	return &Sweeper{
		enqueuer: enqueuer,
		pending:  pending,
		schedule: schedule,
		logger:   logger,
	}
}

// Start registers the schedule and starts the cron loop. It stops on its own
// when ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return nil
	}

	c := rcron.New(rcron.WithSeconds())
	if _, err := c.AddFunc(s.schedule, s.Sweep); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", s.schedule, err)
	}
	s.cron = c
	stop := make(chan struct{})
	s.stop = stop
	c.Start()
	s.logger.Info("failure sweeper started", "schedule", s.schedule)

	go func() {
		select {
		case <-ctx.Done():
			s.Stop()
		case <-stop:
		}
	}()
	return nil
}

// Sweep enqueues one reanalyze_failures task unless one is already pending.
func (s *Sweeper) Sweep() {
	if s.pending != nil && s.pending.Pending(KindReanalyzeFailures) {
		s.logger.Debug("skipping sweep, previous one still pending")
		return
	}
	id, err := s.enqueuer.Enqueue(KindReanalyzeFailures, Payload{})
	if err != nil {
		s.logger.Warn("failed to enqueue failure sweep", "error", err)
		return
	}
	s.logger.Info("failure sweep enqueued", "task_id", id)
}

// Stop halts the cron loop and waits briefly for a running sweep.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
	s.mu.Unlock()
	if c == nil {
		return
	}

	select {
	case <-c.Stop().Done():
	case <-time.After(5 * time.Second):
		s.logger.Warn("sweeper stop timed out")
	}
}
