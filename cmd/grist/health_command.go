package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the backlog database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			health, err := store.CheckHealth(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "database: %s\n", health.DBPath)
			fmt.Fprintf(out, "exists: %t readable: %t table: %t integrity: %t\n",
				health.DatabaseExists, health.DatabaseReadable, health.TableExists, health.IntegrityCheck)
			fmt.Fprintf(out, "items: %d\n", health.TotalItems)
			if health.Error != "" {
				fmt.Fprintf(out, "error: %s\n", health.Error)
			}
			return nil
		},
	}
}
