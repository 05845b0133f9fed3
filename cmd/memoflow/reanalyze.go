package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/memoflow/internal/cli"
	"github.com/Veraticus/memoflow/internal/worker"
)

func reanalyzeCmd() *cobra.Command {
	var (
		failures   bool
		noSnapshot bool
	)

	cmd := &cobra.Command{
		Use:   "reanalyze [id]",
		Short: "Categorize memos again",
		Long: `Re-run categorization for one memo, or with --failures for every memo the
model previously could not categorize. A snapshot is taken before a bulk run
so it can be rolled back with 'memoflow snapshot restore'.`,
		Example: `  memoflow reanalyze 3f2a9c1e-...
  memoflow reanalyze --failures`,
		Args: func(cmd *cobra.Command, args []string) error {
			if failures {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

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
			runner := newRunner(store, catalog, pool)

			if !failures {
				res := runner.Run(ctx, worker.Task{Kind: worker.KindReanalyzeMemo, Payload: worker.Payload{MemoID: args[0]}})
				if res.Outcome != worker.OutcomeSuccess {
					return fmt.Errorf("re-analysis did not finish (%s): %w", res.Outcome, res.Err)
				}
				memo, err := store.GetMemoByID(ctx, args[0])
				if err != nil {
					return err
				}
				if memo != nil {
					fmt.Fprintln(out, cli.FormatMemoLine(*memo, catalog.IsFailure(memo.Category)))
				}
				return nil
			}

			if !noSnapshot {
				snaps, err := store.Snapshots()
				if err != nil {
					return fmt.Errorf("failed to open snapshots: %w", err)
				}
				snap, err := snaps.Auto(ctx, "reanalyze")
				if err != nil {
					return fmt.Errorf("failed to snapshot before re-analysis: %w", err)
				}
				fmt.Fprintln(out, cli.SubtleStyle.Render("Snapshot "+snap.ID+" saved"))
			}

			interrupts := cli.NewInterruptHandler(out)
			ctx = interrupts.HandleInterrupts(ctx, "Memos already re-analyzed were saved.")

			progress := cli.NewProgress(out, "Re-analyzing failures")
			res := runner.WithProgress(progress.Report).Run(ctx, worker.Task{Kind: worker.KindReanalyzeFailures})
			if progress.Started() {
				fmt.Fprintln(out)
			}

			switch {
			case interrupts.WasInterrupted():
				fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("Stopped after %d memos", res.Processed)))
			case res.Outcome == worker.OutcomeSuccess && res.Processed == 0 && res.Remaining == 0:
				fmt.Fprintln(out, cli.FormatSuccess("No failed memos to re-analyze"))
			default:
				fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("Re-categorized %d memos, %d still failing", res.Processed, res.Remaining)))
			}
			if res.Outcome == worker.OutcomePermanentFailure {
				return res.Err
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&failures, "failures", false, "re-analyze every memo whose categorization failed")
	cmd.Flags().BoolVar(&noSnapshot, "no-snapshot", false, "skip the automatic snapshot before a bulk run")
	return cmd
}
