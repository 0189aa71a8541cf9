package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/inbox-tracker/internal/pipeline"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Decide every pending email in one batch pass",
	Long: `Fetches pending emails oldest-first and runs the decisioning pipeline for each,
fanning out across workers. Emails are independent; one failure never stops
the batch. Intended to be invoked periodically by an external scheduler.`,
	RunE: runWorker,
}

var (
	workerFlags     sharedFlags
	workerBatchSize int
	workerCount     int
)

func init() {
	registerSharedFlags(workerCmd, &workerFlags)
	workerCmd.Flags().IntVar(&workerBatchSize, "batch-size", 0, "Pending emails fetched per pass (default 50)")
	workerCmd.Flags().IntVar(&workerCount, "workers", 0, "Concurrent email runs (default 4)")

	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	opts, err := resolveOptions(cmd, &workerFlags)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("batch-size") {
		opts.BatchSize = workerBatchSize
	}
	if cmd.Flags().Changed("workers") {
		opts.Workers = workerCount
	}

	deps, cleanup, err := pipeline.Assemble(ctx, opts)
	if err != nil {
		return err
	}
	defer cleanup()

	processed, err := deps.ProcessPending(ctx, opts.BatchSize, opts.Workers)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Processed %d emails\n", processed)
	return nil
}
