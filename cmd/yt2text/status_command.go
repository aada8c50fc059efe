package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"yt2text/internal/config"
	"yt2text/internal/deps"
	"yt2text/internal/preflight"
	"yt2text/internal/queue"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var skipLLM bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show dependency, preflight and queue status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := isTerminal(out)

			printSection(out, "Dependencies", colorize)
			for _, dep := range preflight.CheckSystemDeps(cfg) {
				fmt.Fprintln(out, renderStatusLine(dep.Name, dependencyKind(dep), dependencyDetail(dep), colorize))
			}

			printSection(out, "Preflight", colorize)
			for _, result := range preflight.RunAll(cmd.Context(), cfg, preflight.Options{SkipLLM: skipLLM}) {
				fmt.Fprintln(out, renderStatusLine(result.Name, preflightKind(result), result.Detail, colorize))
			}

			printSection(out, "Queue", colorize)
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				health, err := store.Health(cmd.Context())
				if err != nil {
					fmt.Fprintln(out, renderStatusLine("Database", statusError, err.Error(), colorize))
					return nil
				}
				summary := fmt.Sprintf("%d total, %d queued, %d processing, %d done, %d failed",
					health.Total, health.Queued, health.Processing, health.Done, health.Failed)
				kind := statusOK
				if health.Failed > 0 {
					kind = statusWarn
				}
				fmt.Fprintln(out, renderStatusLine("Tasks", kind, summary, colorize))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&skipLLM, "skip-llm", false, "Skip the LLM connectivity check")
	return cmd
}

func printSection(out io.Writer, title string, colorize bool) {
	fmt.Fprintln(out, strings.Join(renderSectionHeader(title, colorize), "\n"))
}

func dependencyKind(dep deps.Status) statusKind {
	switch {
	case dep.Available:
		return statusOK
	case dep.Optional:
		return statusWarn
	default:
		return statusError
	}
}

func dependencyDetail(dep deps.Status) string {
	if dep.Available {
		return dep.Command
	}
	if dep.Detail != "" {
		return dep.Detail + " (" + dep.Description + ")"
	}
	return dep.Description
}

func preflightKind(result preflight.Result) statusKind {
	switch {
	case !result.Passed:
		return statusError
	case result.Warning:
		return statusWarn
	default:
		return statusOK
	}
}
