// Package worker runs capture and re-analysis units in the background: a
// Runner executes one task, a Scheduler queues and retries tasks, a Capturer
// deduplicates before enqueuing and a Sweeper periodically retries failures.
package worker

import (
	"strings"
	"time"
)

// Kind names a unit of background work.
type Kind string

// Task kinds.
const (
	KindCapture           Kind = "capture"
	KindReanalyzeMemo     Kind = "reanalyze_memo"
	KindReanalyzeFailures Kind = "reanalyze_failures"
)

// Payload is the small key/value bag a task carries. Which fields matter
// depends on the Kind.
type Payload struct {
	Content   string
	ImageRef  string
	SourceApp string
	MemoID    string
}

// HasInput reports whether a capture payload has text or an image.
func (p Payload) HasInput() bool {
	return strings.TrimSpace(p.Content) != "" || strings.TrimSpace(p.ImageRef) != ""
}

// Outcome is how a single run of a task ended.
type Outcome string

// Run outcomes.
const (
	OutcomeSuccess          Outcome = "success"
	OutcomeRetry            Outcome = "retry"
	OutcomePermanentFailure Outcome = "permanent_failure"
)

// State is the lifecycle position of a queued task.
type State string

// Task states. A task moves pending → running → one of success, retry or
// permanent_failure; retry returns it to running after a backoff. Abandoned
// means the scheduler stopped retrying.
const (
	StatePending          State = "pending"
	StateRunning          State = "running"
	StateSuccess          State = "success"
	StateRetry            State = "retry"
	StatePermanentFailure State = "permanent_failure"
	StateAbandoned        State = "abandoned"
)

// IsTerminal reports whether no further transitions will happen.
func (s State) IsTerminal() bool {
	return s == StateSuccess || s == StatePermanentFailure || s == StateAbandoned
}

// Task is one enqueued unit of work.
type Task struct {
	EnqueuedAt time.Time
	ID         string
	Kind       Kind
	Payload    Payload
}

// Result describes a single run.
type Result struct {
	Err       error
	Outcome   Outcome
	MemoID    string
	Processed int
	Remaining int
}

func success(memoID string) Result {
	return Result{Outcome: OutcomeSuccess, MemoID: memoID}
}

func retry(err error) Result {
	return Result{Outcome: OutcomeRetry, Err: err}
}

func permanent(err error) Result {
	return Result{Outcome: OutcomePermanentFailure, Err: err}
}
