package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and maintain backlog items",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueClearProcessedCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))
	return queueCmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var jobFlag string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List backlog items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			items, err := store.List(cmd.Context(), jobFlag)
			if err != nil {
				return err
			}
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no backlog items")
				return nil
			}

			rows := make([][]string, 0, len(items))
			for _, item := range items {
				state := "pending"
				if item.Processed {
					state = "processed"
				}
				rows = append(rows, []string{
					item.JobName,
					item.TargetID,
					state,
					item.UpdatedAt.Local().Format(time.RFC3339),
				})
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Job", "Target", "State", "Last Modified"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().StringVar(&jobFlag, "job", "", "Limit output to one job")
	return cmd
}

func newQueueClearProcessedCommand(ctx *commandContext) *cobra.Command {
	var jobFlag string

	cmd := &cobra.Command{
		Use:   "clear-processed",
		Short: "Remove processed items from the backlog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			removed, err := store.ClearProcessed(cmd.Context(), jobFlag)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d processed item(s)\n", removed)
			return nil
		},
	}
	cmd.Flags().StringVar(&jobFlag, "job", "", "Limit removal to one job")
	return cmd
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var confirmFlag bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove all items from the backlog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirmFlag {
				return fmt.Errorf("refusing to clear the backlog without --yes")
			}
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			removed, err := store.Clear(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d item(s)\n", removed)
			return nil
		},
	}
	cmd.Flags().BoolVar(&confirmFlag, "yes", false, "Confirm removing every backlog item")
	return cmd
}
