package main

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/memoflow/internal/cli"
	"github.com/Veraticus/memoflow/internal/common"
	"github.com/Veraticus/memoflow/internal/storage"
)

func snapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Manage database snapshots",
		Long: `Create, list, restore, and delete database snapshots.

A snapshot is taken automatically before 'reanalyze --failures'; the five
newest automatic snapshots are kept.`,
		Example: `  memoflow snapshot create --id before-cleanup --reason "manual tidy"
  memoflow snapshot list
  memoflow snapshot restore before-cleanup`,
	}

	cmd.AddCommand(createSnapshotCmd())
	cmd.AddCommand(listSnapshotsCmd())
	cmd.AddCommand(restoreSnapshotCmd())
	cmd.AddCommand(deleteSnapshotCmd())

	return cmd
}

// withSnapshots opens storage and its snapshot manager around fn.
func withSnapshots(cmd *cobra.Command, fn func(*storage.SnapshotManager) error) error {
	store, err := initStorage(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	manager, err := store.Snapshots()
	if err != nil {
		return fmt.Errorf("failed to open snapshots: %w", err)
	}
	return fn(manager)
}

func snapshotError(id string, err error) error {
	switch {
	case errors.Is(err, storage.ErrSnapshotNotFound):
		return common.NewUserError("no snapshot named "+id, err)
	case errors.Is(err, storage.ErrSnapshotExists):
		return common.NewUserError("a snapshot named "+id+" already exists", err)
	}
	return err
}

func createSnapshotCmd() *cobra.Command {
	var id, reason string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new snapshot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSnapshots(cmd, func(m *storage.SnapshotManager) error {
				snap, err := m.Create(cmd.Context(), id, reason)
				if err != nil {
					return snapshotError(id, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s Created snapshot %s (%s, %d memos)\n",
					cli.SuccessStyle.Render(cli.SuccessIcon),
					cli.InfoStyle.Render(snap.ID),
					formatFileSize(snap.Size),
					snap.Memos)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "snapshot name (generated from the time if empty)")
	cmd.Flags().StringVarP(&reason, "reason", "r", "", "why the snapshot was taken")
	return cmd
}

func listSnapshotsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all snapshots",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSnapshots(cmd, func(m *storage.SnapshotManager) error {
				snaps, err := m.List(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to list snapshots: %w", err)
				}
				out := cmd.OutOrStdout()
				if len(snaps) == 0 {
					fmt.Fprintln(out, cli.SubtleStyle.Render("No snapshots found."))
					return nil
				}

				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, strings.Join([]string{
					cli.BoldStyle.Render("ID"),
					cli.BoldStyle.Render("CREATED"),
					cli.BoldStyle.Render("SIZE"),
					cli.BoldStyle.Render("MEMOS"),
					cli.BoldStyle.Render("TYPE"),
					cli.BoldStyle.Render("REASON"),
				}, "\t"))
				for _, s := range snaps {
					kind := "manual"
					if s.Auto {
						kind = "auto"
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
						s.ID,
						formatAge(s.CreatedAt),
						formatFileSize(s.Size),
						s.Memos,
						kind,
						s.Reason)
				}
				return w.Flush()
			})
		},
	}
}

func restoreSnapshotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <id>",
		Short: "Replace the database with a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSnapshots(cmd, func(m *storage.SnapshotManager) error {
				if err := m.Restore(cmd.Context(), args[0]); err != nil {
					return snapshotError(args[0], err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Restored snapshot "+args[0]))
				return nil
			})
		},
	}
}

func deleteSnapshotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSnapshots(cmd, func(m *storage.SnapshotManager) error {
				if err := m.Delete(cmd.Context(), args[0]); err != nil {
					return snapshotError(args[0], err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Deleted snapshot "+args[0]))
				return nil
			})
		},
	}
}

func formatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}

func formatAge(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Local().Format("2006-01-02")
	}
}
