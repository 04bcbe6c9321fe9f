package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newEnqueueCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "enqueue <job> <target-id>...",
		Short: "Add work items to a job's backlog",
		Long: `Add work items to a job's backlog.

Enqueueing is idempotent per (job, target) pair. Re-enqueueing a target that
was already processed resets it to pending, forcing reprocessing.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			jobName := args[0]
			targetIDs := args[1:]

			written, err := store.Enqueue(cmd.Context(), jobName, targetIDs)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "enqueued %d item(s) for job %q\n", written, jobName)
			return nil
		},
	}
}
