package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Veraticus/memoflow/internal/cli"
	"github.com/Veraticus/memoflow/internal/common"
	"github.com/Veraticus/memoflow/internal/status"
)

func statusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show or adjust the status counters",
		RunE:  runStatusShow,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show counters and the current status label",
		RunE:  runStatusShow,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "add <counter> <delta>",
		Short: "Add to a counter (kindness, coolness, smartness, curiosity, exp)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !status.IsCounter(args[0]) {
				return common.NewUserError("unknown counter "+args[0], common.ErrInvalidInput)
			}
			delta, err := strconv.Atoi(args[1])
			if err != nil {
				return common.NewUserError("delta must be a whole number", common.ErrInvalidInput)
			}

			store, err := initStorage(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			value, err := store.AddStatusCounter(cmd.Context(), args[0], delta)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("%s is now %d", args[0], value)))
			return nil
		},
	})

	return cmd
}

func runStatusShow(cmd *cobra.Command, _ []string) error {
	store, err := initStorage(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	raw, err := store.GetStatusCounters(cmd.Context())
	if err != nil {
		return err
	}
	counters := status.Counters{
		Kindness:  raw[status.Kindness],
		Coolness:  raw[status.Coolness],
		Smartness: raw[status.Smartness],
		Curiosity: raw[status.Curiosity],
	}
	label := status.ComputeLabel(counters, raw[status.Experience], settings.Thresholds)

	body := fmt.Sprintf("%-10s %d\n%-10s %d\n%-10s %d\n%-10s %d\n%-10s %d",
		status.Kindness, counters.Kindness,
		status.Coolness, counters.Coolness,
		status.Smartness, counters.Smartness,
		status.Curiosity, counters.Curiosity,
		status.Experience, raw[status.Experience])
	fmt.Fprintln(cmd.OutOrStdout(), cli.RenderBox("Status: "+label, body))
	return nil
}
