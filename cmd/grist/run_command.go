package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"grist/internal/batch"
	"grist/internal/host"
	"grist/internal/logging"
	"grist/internal/processors"
	"grist/internal/quota"
)

// newRunCommand executes exactly one generation of a job, immediately and
// in the foreground. The eligibility window collapses to zero and the
// chain does not continue, which is what you want for smoke tests.
func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run <job>",
		Short: "Run a single generation of a job immediately",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			jobName := args[0]
			jobCfg, ok := cfg.Jobs[jobName]
			if !ok {
				return fmt.Errorf("job %q is not configured", jobName)
			}
			factory, ok := processors.Lookup(jobCfg.Processor, logging.NewNop())
			if !ok {
				return fmt.Errorf("job %q: unknown processor %q", jobName, jobCfg.Processor)
			}

			def, err := batch.NewDefinition(jobName)
			if err != nil {
				return err
			}
			runOnce := false
			if err := def.SetRunForever(&runOnce); err != nil {
				return err
			}
			if jobCfg.ScopeSize != nil {
				if err := def.SetScopeSize(jobCfg.ScopeSize); err != nil {
					return err
				}
			}
			def.SetEligibilityWindow(0)

			logger, err := logging.New(logging.Options{Level: "info", Format: "console"})
			if err != nil {
				return err
			}

			gen, err := batch.NewGeneration(def, factory(), batch.Deps{
				Store:  store,
				Logger: logger,
			})
			if err != nil {
				return err
			}

			runner := host.NewRunner(quota.Limits{
				MaxQueries:      cfg.Quota.MaxQueries,
				MaxQueryRows:    cfg.Quota.MaxQueryRows,
				MaxMutationRows: cfg.Quota.MaxMutationRows,
			}, logger)
			runner.Run(cmd.Context(), gen, jobName, gen.ScopeSize())
			return nil
		},
	}
}
