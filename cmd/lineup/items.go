package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/steveyegge/lineup/internal/debug"
	"github.com/steveyegge/lineup/internal/ordering"
	"github.com/steveyegge/lineup/internal/storage"
	"github.com/steveyegge/lineup/internal/timeparsing"
	"github.com/steveyegge/lineup/internal/types"
	"github.com/steveyegge/lineup/internal/ui"
)

func newAddCmd(a *app) *cobra.Command {
	var description, category, deadline string
	var completed bool

	cmd := &cobra.Command{
		Use:     "add <title>",
		GroupID: "items",
		Short:   "Add an item at the end of its partition",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields := storage.Fields{types.FieldTitle: strings.Join(args, " ")}
			if description != "" {
				fields[types.FieldDescription] = description
			}
			if category != "" {
				fields[types.FieldCategory] = category
			}
			if deadline != "" {
				due, err := parseDeadline(deadline, a.now())
				if err != nil {
					return err
				}
				fields[types.FieldDeadline] = due
			}

			partition := types.PartitionIncomplete
			if completed {
				partition = types.PartitionCompleted
			}
			it, err := a.svc.AppendToPartition(a.ctx, fields, partition)
			if err != nil {
				return err
			}
			return a.printItemResult(cmd.OutOrStdout(), "Added", it)
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "Item description")
	cmd.Flags().StringVarP(&category, "category", "c", "", "Category name, page id or page URL")
	cmd.Flags().StringVar(&deadline, "deadline", "", "Deadline (+2d, 2025-01-31, \"next friday\")")
	cmd.Flags().BoolVar(&completed, "completed", false, "Add straight to the completed partition")
	return cmd
}

func newToggleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "toggle <id>...",
		GroupID: "items",
		Short:   "Flip items between open and completed",
		Long:    `Moves each item to the end of the other partition and records or clears its completion time.`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var results []*types.Item
			for _, id := range args {
				it, err := a.svc.ToggleCompletion(a.ctx, id)
				if err != nil {
					return fmt.Errorf("toggle %s: %w", id, err)
				}
				if a.jsonOutput {
					results = append(results, it)
					continue
				}
				if err := a.printItemResult(cmd.OutOrStdout(), "Toggled", it); err != nil {
					return err
				}
			}
			if a.jsonOutput {
				return outputJSON(cmd.OutOrStdout(), results)
			}
			return nil
		},
	}
}

func newMoveCmd(a *app) *cobra.Command {
	var to, category, deadline string
	var clearDeadline bool

	cmd := &cobra.Command{
		Use:     "move <id> --to completed|incomplete",
		GroupID: "items",
		Short:   "Move an item to the end of a partition, updating other fields in the same write",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := types.ParsePartition(to)
			if err != nil {
				return err
			}
			extra := storage.Fields{}
			if cmd.Flags().Changed("category") {
				extra[types.FieldCategory] = category
			}
			switch {
			case clearDeadline:
				extra[types.FieldDeadline] = ""
			case deadline != "":
				due, err := parseDeadline(deadline, a.now())
				if err != nil {
					return err
				}
				extra[types.FieldDeadline] = due
			}

			it, err := a.svc.MoveBetweenPartitions(a.ctx, args[0], target, extra)
			if err != nil {
				return err
			}
			return a.printItemResult(cmd.OutOrStdout(), "Moved", it)
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "Target partition: incomplete or completed")
	cmd.Flags().StringVarP(&category, "category", "c", "", "Set the category in the same write")
	cmd.Flags().StringVar(&deadline, "deadline", "", "Set the deadline in the same write")
	cmd.Flags().BoolVar(&clearDeadline, "clear-deadline", false, "Remove the deadline")
	_ = cmd.MarkFlagRequired("to")
	cmd.MarkFlagsMutuallyExclusive("deadline", "clear-deadline")
	return cmd
}

func newReorderCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "reorder <id>...",
		GroupID: "items",
		Short:   "Rewrite ranks so items sort in the given order",
		Long: `Assigns increasing ranks to the given ids, one write per item, in argument order.

If a write fails the command stops. Items before the failing one keep their
new ranks; nothing is rolled back.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := a.svc.BulkReorder(a.ctx, args)
			var rerr *ordering.ReorderError
			if errors.As(err, &rerr) && !a.jsonOutput {
				yellow := color.New(color.FgYellow).SprintFunc()
				fmt.Fprintf(cmd.ErrOrStderr(), "%s %d of %d items were reordered before %s failed\n",
					yellow("!"), rerr.Succeeded, len(args), rerr.FailedID)
			}
			if err != nil {
				if a.jsonOutput && rerr != nil {
					_ = outputJSON(cmd.OutOrStdout(), map[string]interface{}{
						"error":     rerr.Err.Error(),
						"failed_id": rerr.FailedID,
						"succeeded": rerr.Succeeded,
					})
				}
				return err
			}
			if a.jsonOutput {
				return outputJSON(cmd.OutOrStdout(), map[string]interface{}{"reordered": len(args)})
			}
			if !debug.IsQuiet() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s Reordered %d items\n", color.New(color.FgGreen).Sprint("✓"), len(args))
			}
			return nil
		},
	}
}

func newListCmd(a *app) *cobra.Command {
	var showRanks, noPager bool

	cmd := &cobra.Command{
		Use:     "list",
		GroupID: "items",
		Short:   "Show items in order, open first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := a.svc.List(a.ctx)
			if err != nil {
				return err
			}
			if a.jsonOutput {
				if items == nil {
					items = []*types.Item{}
				}
				return outputJSON(cmd.OutOrStdout(), items)
			}
			out := ui.RenderItems(items, ui.ListOptions{ShowRank: showRanks, Now: a.now()})
			return ui.ToPager(cmd.OutOrStdout(), out, ui.PagerOptions{NoPager: noPager})
		},
	}
	cmd.Flags().BoolVar(&showRanks, "ranks", false, "Show each item's rank")
	cmd.Flags().BoolVar(&noPager, "no-pager", false, "Don't pipe output through a pager")
	return cmd
}

func newArchiveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "archive <id>...",
		GroupID: "items",
		Short:   "Hide items without deleting them",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, id := range args {
				if err := a.svc.Archive(a.ctx, id); err != nil {
					return fmt.Errorf("archive %s: %w", id, err)
				}
			}
			if a.jsonOutput {
				return outputJSON(cmd.OutOrStdout(), map[string]interface{}{"archived": args})
			}
			if !debug.IsQuiet() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s Archived %d items\n", color.New(color.FgGreen).Sprint("✓"), len(args))
			}
			return nil
		},
	}
}

// parseDeadline turns a deadline expression into the stored RFC3339 form.
func parseDeadline(expr string, now time.Time) (string, error) {
	t, err := timeparsing.ParseRelativeTime(expr, now)
	if err != nil {
		return "", fmt.Errorf("invalid deadline: %w", err)
	}
	return t.Format(time.RFC3339), nil
}
