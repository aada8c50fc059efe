package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"yt2text/internal/config"
	"yt2text/internal/deps"
	"yt2text/internal/pipeline"
	"yt2text/internal/preflight"
	"yt2text/internal/queue"
	"yt2text/internal/services"
	"yt2text/internal/workflow"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		title  string
		output string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "run <url>",
		Short: "Download and transcribe a video, channel or playlist in the foreground",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			proc, cfg, err := ctx.newProcessor()
			if err != nil {
				return err
			}
			if err := requireRunnable(cfg); err != nil {
				return err
			}
			if !cmd.Flags().Changed("limit") {
				limit = cfg.Download.PlaylistLimit
			}

			urls, err := proc.Expand(cmd.Context(), strings.TrimSpace(args[0]), limit)
			if err != nil {
				return friendlyError(err)
			}
			out := cmd.OutOrStdout()
			if len(urls) > 1 {
				if title != "" || output != "" {
					return errors.New("--title and --output apply to single videos only")
				}
				fmt.Fprintf(out, "Processing %d videos\n", len(urls))
			}

			var failed []string
			for i, url := range urls {
				if len(urls) > 1 {
					fmt.Fprintf(out, "\n[%d/%d] %s\n", i+1, len(urls), url)
				}
				job := workflow.Job{URL: url, Title: title, OutputPath: output}
				if err := runOne(cmd, proc, job); err != nil {
					if cmd.Context().Err() != nil {
						return cmd.Context().Err()
					}
					if len(urls) == 1 {
						return err
					}
					fmt.Fprintf(cmd.ErrOrStderr(), "Failed: %v\n", err)
					failed = append(failed, url)
				}
			}
			if len(failed) > 0 {
				return fmt.Errorf("%d of %d videos failed", len(failed), len(urls))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Document title (defaults to the video title)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Document path (defaults to paths.output_dir/<title>.md)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum videos to take from a channel or playlist (defaults to download.playlist_limit)")
	return cmd
}

func runOne(cmd *cobra.Command, proc *workflow.Processor, job workflow.Job) error {
	out := cmd.OutOrStdout()
	progress := newProgressLine(cmd.ErrOrStderr())
	hooks := workflow.Hooks{
		OnTitle: func(title string) {
			fmt.Fprintf(out, "Title: %s\n", title)
		},
		OnStage: func(status queue.Status) {
			progress.update(string(status), stageMessage(status))
		},
		OnDownload: func(percent float64) {
			progress.update(string(queue.StatusDownloading), fmt.Sprintf("Downloading audio... %.0f%%", percent))
		},
		Progress: func(_ string, finalized, total int) {
			progress.update("formatting", fmt.Sprintf("Formatting paragraphs... %d/%d", finalized, total))
		},
		OnState: func(state pipeline.State) {
			if state == pipeline.StateRetrying || state == pipeline.StateStructuring {
				progress.update(string(state), stateMessage(state))
			}
		},
	}

	outcome, err := proc.Process(cmd.Context(), job, hooks)
	progress.done()
	if err != nil {
		return friendlyError(err)
	}
	printOutcome(out, outcome.TranscriptPath, outcome.Result, outcome.Timings())
	return nil
}

func printOutcome(out io.Writer, path string, result *pipeline.Result, timings map[string]float64) {
	if result != nil && len(result.FailedParagraphs) > 0 {
		fmt.Fprintf(out, "Warning: %d paragraphs kept their raw text after formatting failed\n", len(result.FailedParagraphs))
	}
	fmt.Fprintf(out, "Wrote %s\n", path)
	fmt.Fprint(out, renderTimings(timings))
}

func stageMessage(status queue.Status) string {
	switch status {
	case queue.StatusDownloading:
		return "Downloading audio..."
	case queue.StatusTranscribing:
		return "Transcribing..."
	default:
		return string(status)
	}
}

func stateMessage(state pipeline.State) string {
	switch state {
	case pipeline.StateRetrying:
		return "Retrying failed paragraphs..."
	case pipeline.StateStructuring:
		return "Adding section headings..."
	default:
		return string(state)
	}
}

// friendlyError replaces wrapped failures with their user-facing message.
// Cancellation passes through so main stays quiet on Ctrl-C.
func friendlyError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	return errors.New(services.FailureMessage(err))
}

// requireRunnable fails fast when the LLM key or a required binary is
// missing.
func requireRunnable(cfg *config.Config) error {
	if err := cfg.RequireLLM(); err != nil {
		return err
	}
	if missing := deps.MissingRequired(preflight.CheckSystemDeps(cfg)); len(missing) > 0 {
		return fmt.Errorf("missing required tools: %s (run 'yt2text status' for details)", strings.Join(missing, ", "))
	}
	return nil
}
