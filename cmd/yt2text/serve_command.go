package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"yt2text/internal/daemon"
	"yt2text/internal/logging"
	"yt2text/internal/queue"
	"yt2text/internal/workflow"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the queue worker and HTTP API in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := requireRunnable(cfg); err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			runCtx := cmd.Context()
			store, err := queue.Open(cfg)
			if err != nil {
				return fmt.Errorf("open queue: %w", err)
			}
			manager := workflow.NewManager(cfg, store, logger, ctx.processorOptions...)
			d, err := daemon.New(cfg, store, logger, manager)
			if err != nil {
				_ = store.Close()
				return err
			}
			defer d.Close()

			if err := d.Start(runCtx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "yt2text serving on http://%s (Ctrl-C to stop)\n", d.APIAddress())

			<-runCtx.Done()
			logger.Info("yt2text shutting down", logging.String(logging.FieldEventType, "shutdown"))
			return nil
		},
	}
}
