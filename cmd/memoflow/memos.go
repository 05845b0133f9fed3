package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/memoflow/internal/cli"
	"github.com/Veraticus/memoflow/internal/common"
	"github.com/Veraticus/memoflow/internal/model"
)

func memosCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memos",
		Short: "Browse and manage captured memos",
	}

	cmd.AddCommand(listMemosCmd())
	cmd.AddCommand(showMemoCmd())
	cmd.AddCommand(lockMemoCmd())
	cmd.AddCommand(deleteMemoCmd())

	return cmd
}

func listMemosCmd() *cobra.Command {
	var (
		category string
		failures bool
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List memos, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
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

			var memos []model.Memo
			switch {
			case failures:
				all, err := store.GetAllMemos(ctx)
				if err != nil {
					return err
				}
				for _, m := range all {
					if catalog.IsFailure(m.Category) {
						memos = append(memos, m)
					}
				}
			case category != "":
				memos, err = store.GetMemosByCategory(ctx, category)
			default:
				memos, err = store.GetAllMemos(ctx)
			}
			if err != nil {
				return fmt.Errorf("failed to list memos: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(memos) == 0 {
				fmt.Fprintln(out, cli.SubtleStyle.Render("No memos found."))
				return nil
			}
			if limit > 0 && len(memos) > limit {
				memos = memos[:limit]
			}
			for _, m := range memos {
				fmt.Fprintln(out, cli.FormatMemoLine(m, catalog.IsFailure(m.Category)))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "only memos in this category")
	cmd.Flags().BoolVar(&failures, "failures", false, "only memos whose categorization failed")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show at most this many memos")
	return cmd
}

func showMemoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show every field of a memo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			memo, err := store.GetMemoByID(ctx, args[0])
			if err != nil {
				return err
			}
			if memo == nil {
				return common.NewUserError("no memo with id "+args[0], common.ErrNotFound)
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderMemo(*memo))
			return nil
		},
	}
}

func lockMemoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lock <id>",
		Short: "Pin a memo's category so it is never merged or re-categorized",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.LockMemoCategory(ctx, args[0]); err != nil {
				return fmt.Errorf("failed to lock memo: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Category locked"))
			return nil
		},
	}
}

func deleteMemoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a memo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.DeleteMemo(ctx, args[0]); err != nil {
				return fmt.Errorf("failed to delete memo: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Memo deleted"))
			return nil
		},
	}
}
