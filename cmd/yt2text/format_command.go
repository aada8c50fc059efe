package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"yt2text/internal/services/whisperx"
	"yt2text/internal/storage"
)

func newFormatCommand(ctx *commandContext) *cobra.Command {
	var (
		title  string
		output string
	)

	cmd := &cobra.Command{
		Use:   "format <whisperx.json>",
		Short: "Format a saved WhisperX transcript into a Markdown document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			proc, cfg, err := ctx.newProcessor()
			if err != nil {
				return err
			}
			if err := cfg.RequireLLM(); err != nil {
				return err
			}
			path := strings.TrimSpace(args[0])
			if strings.TrimSpace(title) == "" {
				title = storage.TitleForPath(path)
			}
			if output == "" {
				output = storage.DocumentPath(cfg.Paths.OutputDir, title)
			}

			progress := newProgressLine(cmd.ErrOrStderr())
			result, err := proc.FormatSegments(cmd.Context(), whisperx.FileSource{Path: path}, title, output,
				func(_ string, finalized, total int) {
					progress.update("formatting", fmt.Sprintf("Formatting paragraphs... %d/%d", finalized, total))
				})
			progress.done()
			if err != nil {
				return friendlyError(err)
			}
			printOutcome(cmd.OutOrStdout(), filepath.Clean(output), result, result.Timings.Seconds())
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Document title (defaults to the file name)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Document path (defaults to paths.output_dir/<title>.md)")
	return cmd
}
