package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/memoflow/internal/cli"
	"github.com/Veraticus/memoflow/internal/common"
	"github.com/Veraticus/memoflow/internal/model"
	"github.com/Veraticus/memoflow/internal/storage"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Inspect categories and manage custom and favorite lists",
		Long: `Categories are not created directly: they are the labels your memos carry.
Custom categories are fixed targets the model prefers and never merges away
(at most 20). Favorites are a starred subset for quick access.`,
	}

	cmd.AddCommand(listCategoriesCmd())
	cmd.AddCommand(preferenceCmd("custom", "Fixed categories the model prefers",
		(*storage.SQLiteStorage).GetCustomCategories,
		(*storage.SQLiteStorage).AddCustomCategory,
		(*storage.SQLiteStorage).RemoveCustomCategory))
	cmd.AddCommand(preferenceCmd("favorite", "Starred categories",
		(*storage.SQLiteStorage).GetFavoriteCategories,
		(*storage.SQLiteStorage).AddFavoriteCategory,
		(*storage.SQLiteStorage).RemoveFavoriteCategory))

	return cmd
}

func listCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every category with memo counts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			summaries, err := store.GetCategorySummaries(ctx)
			if err != nil {
				return fmt.Errorf("failed to get categories: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(summaries) == 0 {
				fmt.Fprintln(out, cli.InfoStyle.Render("No categories yet. Capture something with 'memoflow capture text'."))
				return nil
			}
			fmt.Fprint(out, cli.RenderCategoryTable(summaries))
			return nil
		},
	}
}

type (
	listFunc   func(*storage.SQLiteStorage, context.Context) ([]string, error)
	updateFunc func(*storage.SQLiteStorage, context.Context, string) error
)

// preferenceCmd builds the list/add/remove subtree for one preference list.
func preferenceCmd(name, short string, list listFunc, add, remove updateFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   name,
		Short: short,
	}

	withStore := func(fn func(cmd *cobra.Command, store *storage.SQLiteStorage, arg string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			store, err := initStorage(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()
			return fn(cmd, store, strings.Join(args, " "))
		}
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List " + name + " categories",
		RunE: withStore(func(cmd *cobra.Command, store *storage.SQLiteStorage, _ string) error {
			names, err := list(store, cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(names) == 0 {
				fmt.Fprintln(out, cli.SubtleStyle.Render("None."))
			}
			for _, n := range names {
				fmt.Fprintln(out, n)
			}
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <name>",
		Short: "Add a " + name + " category",
		Args:  cobra.MinimumNArgs(1),
		RunE: withStore(func(cmd *cobra.Command, store *storage.SQLiteStorage, arg string) error {
			err := add(store, cmd.Context(), arg)
			if errors.Is(err, common.ErrCustomCategoryLimit) {
				return common.NewUserError(fmt.Sprintf("you already have %d custom categories; remove one first", model.MaxCustomCategories), err)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Added "+arg))
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a " + name + " category",
		Args:  cobra.MinimumNArgs(1),
		RunE: withStore(func(cmd *cobra.Command, store *storage.SQLiteStorage, arg string) error {
			if err := remove(store, cmd.Context(), arg); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Removed "+arg))
			return nil
		}),
	})

	return cmd
}
