package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/memoflow/internal/cli"
	"github.com/Veraticus/memoflow/internal/common"
	"github.com/Veraticus/memoflow/internal/worker"
)

// inlineQueue runs each enqueued task immediately, so one-shot commands use
// the same runner as the background worker.
type inlineQueue struct {
	ctx    context.Context
	runner *worker.Runner
	last   worker.Result
}

func (q *inlineQueue) Enqueue(kind worker.Kind, payload worker.Payload) (string, error) {
	q.last = q.runner.Run(q.ctx, worker.Task{Kind: kind, Payload: payload})
	if q.last.Outcome != worker.OutcomeSuccess {
		return "", fmt.Errorf("%s task ended with %s: %w", kind, q.last.Outcome, q.last.Err)
	}
	return q.last.MemoID, nil
}

func captureCmd() *cobra.Command {
	var sourceApp string

	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Capture a note and categorize it now",
		Example: `  memoflow capture text "ramen with miso broth"
  memoflow capture text "Osaka guide" "https://example.com/osaka"
  memoflow capture image ~/Pictures/receipt.png --source Photos`,
	}
	cmd.PersistentFlags().StringVar(&sourceApp, "source", "", "app the content was shared from")

	cmd.AddCommand(&cobra.Command{
		Use:   "text <line>...",
		Short: "Capture text; each argument becomes one line",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCapture(cmd, func(c *worker.Capturer) (string, error) {
				return c.CaptureText(cmd.Context(), strings.Join(args, "\n"), sourceApp)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "image <path>",
		Short: "Capture an image file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCapture(cmd, func(c *worker.Capturer) (string, error) {
				return c.CaptureImage(cmd.Context(), args[0], sourceApp)
			})
		},
	})

	return cmd
}

func runCapture(cmd *cobra.Command, capture func(*worker.Capturer) (string, error)) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	catalog, err := loadCatalog()
	if err != nil {
		return err
	}

	pool, err := newClassifierPool(catalog)
	if err != nil {
		return err
	}
	defer func() { _ = pool.Close() }()

	queue := &inlineQueue{ctx: ctx, runner: newRunner(store, catalog, pool)}
	memoID, err := capture(worker.NewCapturer(store, queue))
	if errors.Is(err, common.ErrDuplicateEntry) {
		return common.NewUserError("this content was already captured", err)
	}
	if err != nil {
		return err
	}

	memo, err := store.GetMemoByID(ctx, memoID)
	if err != nil {
		return fmt.Errorf("failed to read back memo %s: %w", memoID, err)
	}
	if memo == nil {
		return fmt.Errorf("memo %s: %w", memoID, common.ErrNotFound)
	}

	out := cmd.OutOrStdout()
	if catalog.IsFailure(memo.Category) {
		fmt.Fprintln(out, cli.FormatWarning("The model could not categorize this; it was filed under "+memo.Category))
	} else {
		fmt.Fprintln(out, cli.FormatSuccess("Filed under "+memo.Category))
	}
	fmt.Fprintln(out, cli.FormatMemoLine(*memo, catalog.IsFailure(memo.Category)))
	return nil
}
