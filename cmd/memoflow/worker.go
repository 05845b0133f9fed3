package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/memoflow/internal/cli"
	"github.com/Veraticus/memoflow/internal/common"
	"github.com/Veraticus/memoflow/internal/worker"
)

const drainTimeout = 30 * time.Second

func workerCmd() *cobra.Command {
	var (
		noSweep   bool
		sourceApp string
	)

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run the background categorization worker",
		Long: `Reads one capture per line from stdin and categorizes them in the
background, retrying with backoff when the model is unavailable. Lines of the
form "image:<path>" capture an image; a literal \n inside a line stands for a
line break. A cron sweep periodically re-analyzes memos whose categorization
failed.`,
		Example: `  tail -f ~/shares.log | memoflow worker
  memoflow worker --no-sweep < notes.txt`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWorker(cmd, cmd.InOrStdin(), sourceApp, noSweep)
		},
	}

	cmd.Flags().BoolVar(&noSweep, "no-sweep", false, "do not schedule failure re-analysis")
	cmd.Flags().StringVar(&sourceApp, "source", "", "app recorded as the source of every capture")
	return cmd
}

// lockedWriter serializes writes from the input loop and task callbacks.
type lockedWriter struct {
	w  io.Writer
	mu sync.Mutex
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

func runWorker(cmd *cobra.Command, in io.Reader, sourceApp string, noSweep bool) error {
	out := &lockedWriter{w: cmd.OutOrStdout()}

	store, err := initStorage(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	catalog, err := loadCatalog()
	if err != nil {
		return err
	}

	// Tasks outlive the input loop so queued captures can drain after an interrupt.
	taskCtx := context.WithoutCancel(cmd.Context())

	pool, err := newClassifierPool(catalog)
	if err != nil {
		return err
	}
	defer func() { _ = pool.Close() }()

	scheduler := worker.NewScheduler(newRunner(store, catalog, pool), settings.Scheduler, slog.Default())
	scheduler.OnComplete(func(st worker.TaskStatus) {
		reportTask(out, st)
	})
	scheduler.Start(taskCtx)

	interrupts := cli.NewInterruptHandler(out)
	ctx := interrupts.HandleInterrupts(cmd.Context(), "Finishing queued captures...")

	if !noSweep {
		sweeper := worker.NewSweeper(scheduler, scheduler, settings.SweepCron, slog.Default())
		if err := sweeper.Start(ctx); err != nil {
			_ = scheduler.Stop(taskCtx)
			return common.NewUserError("the sweep schedule is not a valid cron expression", err)
		}
		defer sweeper.Stop()
	}

	capturer := worker.NewCapturer(store, scheduler)
	reader := cli.NewNonBlockingReader(in)
	fmt.Fprintln(out, cli.FormatInfo("Worker ready; reading captures from stdin"))

	for {
		line, err := reader.ReadLine(ctx)
		if errors.Is(err, cli.ErrInputCancelled) || errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			slog.Error("failed to read input", "error", err)
			break
		}

		parsed, ok := cli.ParseCaptureLine(line)
		if !ok {
			continue
		}
		if parsed.ImageRef != "" {
			_, err = capturer.CaptureImage(ctx, parsed.ImageRef, sourceApp)
		} else {
			_, err = capturer.CaptureText(ctx, parsed.Text, sourceApp)
		}
		switch {
		case errors.Is(err, common.ErrDuplicateEntry):
			fmt.Fprintln(out, cli.SubtleStyle.Render("skipped duplicate"))
		case err != nil:
			fmt.Fprintln(out, cli.FormatError(err.Error()))
		}
	}

	stopCtx, cancel := context.WithTimeout(taskCtx, drainTimeout)
	defer cancel()
	if err := scheduler.Stop(stopCtx); err != nil {
		return fmt.Errorf("worker did not drain cleanly: %w", err)
	}
	return nil
}

func reportTask(w io.Writer, st worker.TaskStatus) {
	switch st.State {
	case worker.StateSuccess:
		msg := fmt.Sprintf("%s done", st.Kind)
		if st.MemoID != "" {
			msg += " (" + st.MemoID + ")"
		}
		fmt.Fprintln(w, cli.FormatSuccess(msg))
	case worker.StateAbandoned:
		fmt.Fprintln(w, cli.FormatWarning(fmt.Sprintf("%s gave up after %d attempts: %s", st.Kind, st.Attempts, st.LastError)))
	default:
		fmt.Fprintln(w, cli.FormatError(fmt.Sprintf("%s failed: %s", st.Kind, st.LastError)))
	}
}
